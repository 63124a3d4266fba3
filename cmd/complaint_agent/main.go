// Package main provides the entry point for the AI Complaint Assistant.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "complaint_agent",
	Short: "AI Complaint Assistant",
	Long: "AI Complaint Assistant turns a citizen's problem description into a formal complaint " +
		"for the right government portal, with a filing guide and follow-up reminders.",
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
