package cli

import (
	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a crawl from its save file",
	Long:  `Resume reuses the settings saved in --data-dir by the previous run (the command-line flags, --seed included, apply only when no settings were saved there), re-enqueues every non-completed, still-valid URL from the save file, and seeds from the configured seed URLs only if the save file is empty.`,
	RunE:  runCrawl(false),
}
