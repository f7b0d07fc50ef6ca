// Package cmd defines and implements the CLI commands for the leadscraper
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leadscraper",
		Short: "Business contact scraper for the NeonLead project.",
		Long: `leadscraper extracts business contact information (organization,
page title, role-based emails, phone numbers, social links) from batches of
web pages, either synchronously over HTTP or as durable background jobs.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newWorkCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
