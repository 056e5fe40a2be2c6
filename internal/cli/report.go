package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var reportDataDir string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the most recently written crawl statistics report",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(reportDataDir, "Logs", "crawl_stats.txt")
		body, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read report at %s: %w", path, err)
		}
		fmt.Print(string(body))
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportDataDir, "data-dir", "./data", "Data storage directory")
}
