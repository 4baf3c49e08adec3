// Package main provides the entry point for the interview agent: the HTTP API server and the
// operator commands for syncing records and regenerating questions.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "interview_agent",
	Short: "Interview Kit sync and regeneration service",
	Long: "Interview Kit keeps locally generated interview skills and questions in step with the recruiting platform " +
		"and regenerates questions with an AI generator while keeping an audit trail.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML or JSON config file (environment variables override it)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
