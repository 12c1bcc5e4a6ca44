package main

import (
	"os"

	"github.com/threadline-ai/recall/sweepworker"
)

func main() {
	if err := sweepworker.Run(); err != nil {
		os.Exit(1)
	}
}
