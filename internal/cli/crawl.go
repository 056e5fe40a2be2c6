package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ucicrawl/ucicrawl/internal/session"
	"github.com/ucicrawl/ucicrawl/internal/stats"
	"github.com/ucicrawl/ucicrawl/internal/types"
	"github.com/ucicrawl/ucicrawl/internal/urlrule"
)

var (
	seedURLs           []string
	timeDelayMillis    int
	maxContentBytes    int64
	minPageWords       int
	duplicateThreshold float64
	workers            int
	timeoutSeconds     int
	dataDir            string
	ignoreRobots       bool
	verbose            bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Start a new crawl, discarding any previous save file",
	RunE:  runCrawl(true),
}

func init() {
	for _, cmd := range []*cobra.Command{crawlCmd, resumeCmd} {
		cmd.Flags().StringSliceVar(&seedURLs, "seed", nil, "Seed URL (repeatable); required for crawl; resume uses it only when --data-dir holds no saved config")
		cmd.Flags().IntVar(&timeDelayMillis, "delay-ms", 500, "Politeness delay per domain, in milliseconds")
		cmd.Flags().Int64Var(&maxContentBytes, "max-content-bytes", 2_500_000, "Maximum page size to process")
		cmd.Flags().IntVar(&minPageWords, "min-page-words", 20, "Minimum whitespace-separated words for a page to count")
		cmd.Flags().Float64Var(&duplicateThreshold, "duplicate-threshold", 0.95, "SimHash similarity threshold for near-duplicate detection")
		cmd.Flags().IntVar(&workers, "workers", 4, "Number of concurrent fetch workers")
		cmd.Flags().IntVar(&timeoutSeconds, "timeout", 20, "Per-request fetch timeout, in seconds")
		cmd.Flags().StringVar(&dataDir, "data-dir", "./data", "Directory for the save file and statistics report")
		cmd.Flags().BoolVar(&ignoreRobots, "ignore-robots", false, "Skip robots.txt checks")
		cmd.Flags().BoolVar(&verbose, "verbose", false, "Enable debug-level logging")
	}
	crawlCmd.MarkFlagRequired("seed")
}

func runCrawl(restart bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}

		var cfg types.Config
		if !restart {
			if loaded, err := session.LoadConfig(dataDir); err == nil {
				cfg = loaded
			}
		}
		if cfg.SaveFile == "" {
			cfg = types.DefaultConfig()
			cfg.SeedURLs = seedURLs
			cfg.TimeDelay = time.Duration(timeDelayMillis) * time.Millisecond
			cfg.MaxContentBytes = maxContentBytes
			cfg.MinPageWords = minPageWords
			cfg.DuplicateThreshold = duplicateThreshold
			cfg.Workers = workers
			cfg.Timeout = time.Duration(timeoutSeconds) * time.Second
			cfg.DataDir = dataDir
			cfg.IgnoreRobots = ignoreRobots
			cfg.SaveFile = dataDir + "/frontier.db"
		}

		if err := session.SaveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		sess, err := session.Open(cfg, restart, urlrule.DefaultValidator())
		if err != nil {
			return fmt.Errorf("failed to open session: %w", err)
		}
		defer sess.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			fmt.Println("\nshutdown requested, finishing in-flight work...")
			cancel()
		}()

		results := sess.Run(ctx)

		fmt.Printf("\nCrawl completed!\n")
		fmt.Printf("Discovered: %d, Processed: %d, Errors: %d, Duplicates: %d\n",
			results.Discovered, results.Processed, results.Errors, results.Duplicates)

		path, err := stats.WriteReport(sess.Stats(), cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Printf("Report written to %s\n", path)

		return nil
	}
}
