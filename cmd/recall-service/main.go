package main

import (
	"os"

	"github.com/threadline-ai/recall/recallservice"
)

func main() {
	if err := recallservice.Run(); err != nil {
		os.Exit(1)
	}
}
