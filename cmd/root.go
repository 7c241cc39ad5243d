// Package cmd wires the CLI commands for the scraper.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "youtube-email-scraper",
	Short: "Resolve contact emails for a batch of YouTube channels",
	Long: `youtube-email-scraper walks a CSV of channel URLs, drives a
logged-in browser session through the contact-reveal challenge on each
channel page, and writes the extracted email back into the CSV.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to the configuration file")
}
