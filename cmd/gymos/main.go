package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "gymos",
	Short: "Gym member check-ins, AI diet plans and engagement reports",
	Long: `gymos serves the member check-in app: weekly weigh-ins with an
AI-generated diet plan, weight history charts, a food photo scanner
and an admin engagement report.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			return os.Setenv("GYMOS_CONFIG", configPath)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (overrides GYMOS_CONFIG)")
	rootCmd.AddCommand(serveCmd, migrateCmd, reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
