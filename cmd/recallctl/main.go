package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag    string
	tenantFlag string
	userFlag   string
	rootCmd    = &cobra.Command{
		Use:   "recallctl",
		Short: "CLI client for the recall memory service REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Recall service base URL")
	rootCmd.PersistentFlags().StringVarP(&tenantFlag, "tenant", "t", "", "Tenant (bot namespace) ID (required)")

	storeCmd := &cobra.Command{
		Use:   "store [content]",
		Short: "Store a conversational turn",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, _ := cmd.Flags().GetString("role")
			if tenantFlag == "" || userFlag == "" {
				return fmt.Errorf("--tenant and --user required")
			}
			return runStore(apiFlag, tenantFlag, userFlag, args[0], role, os.Stdout)
		},
	}
	storeCmd.Flags().StringVarP(&userFlag, "user", "u", "", "User ID (required)")
	storeCmd.Flags().StringP("role", "r", "user", "Turn role (user or assistant)")
	rootCmd.AddCommand(storeCmd)

	retrieveCmd := &cobra.Command{
		Use:   "retrieve [query]",
		Short: "Retrieve memory context for a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			if tenantFlag == "" || userFlag == "" {
				return fmt.Errorf("--tenant and --user required")
			}
			return runRetrieve(apiFlag, tenantFlag, userFlag, args[0], limit, os.Stdout)
		},
	}
	retrieveCmd.Flags().StringVarP(&userFlag, "user", "u", "", "User ID (required)")
	retrieveCmd.Flags().IntP("limit", "l", 10, "Maximum number of records")
	rootCmd.AddCommand(retrieveCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent conversation history",
		RunE: func(cmd *cobra.Command, args []string) error {
			window, _ := cmd.Flags().GetString("window")
			includeExpired, _ := cmd.Flags().GetBool("include-expired")
			if tenantFlag == "" || userFlag == "" {
				return fmt.Errorf("--tenant and --user required")
			}
			return runHistory(apiFlag, tenantFlag, userFlag, window, includeExpired, os.Stdout)
		},
	}
	historyCmd.Flags().StringVarP(&userFlag, "user", "u", "", "User ID (required)")
	historyCmd.Flags().StringP("window", "w", "24h", "History window, e.g. 4h or 24h")
	historyCmd.Flags().Bool("include-expired", false, "Include expired records (rank audits)")
	rootCmd.AddCommand(historyCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a tier sweep for the tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenantFlag == "" {
				return fmt.Errorf("--tenant required")
			}
			return runSweep(apiFlag, tenantFlag, os.Stdout)
		},
	}
	rootCmd.AddCommand(sweepCmd)

	sweepsCmd := &cobra.Command{
		Use:   "sweeps",
		Short: "Show recent sweep results for the tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			if tenantFlag == "" {
				return fmt.Errorf("--tenant required")
			}
			return runSweeps(apiFlag, tenantFlag, limit, os.Stdout)
		},
	}
	sweepsCmd.Flags().IntP("limit", "l", 20, "Maximum number of sweep entries")
	rootCmd.AddCommand(sweepsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
