// Package cli wires the crawler up as a cobra command tree.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ucicrawl",
	Short: "A politeness-aware crawler for the uci.edu academic subdomains",
	Long:  `ucicrawl crawls ics.uci.edu, cs.uci.edu, informatics.uci.edu, and stat.uci.edu, deduplicating near-identical pages and reporting word and subdomain statistics.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(reportCmd)
}
