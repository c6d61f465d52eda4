// Package cmd implements the amberseal CLI using cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"
const logo = "🦭"

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "amberseal",
	Short: logo + " amberseal — stateful AI agent engine",
	Long:  logo + " amberseal — a conversational agent engine with per-agent memory and summarization",
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(statusCmd)
}
