package stats

import (
	"fmt"
	"os"
	"path/filepath"
)

// TopTokenLimit is the number of top tokens the report includes
// (spec §6).
const TopTokenLimit = 50

// WriteReport renders the accumulator's state to the plaintext report
// at dataDir/Logs/crawl_stats.txt, in the section order spec §6
// requires: total-unique-pages, longest-page, top-50 tokens,
// subdomains.
func WriteReport(a *Accumulator, dataDir string) (string, error) {
	logsDir := filepath.Join(dataDir, "Logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create logs directory: %w", err)
	}

	path := filepath.Join(logsDir, "crawl_stats.txt")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	fmt.Fprintf(f, "Total unique pages: %d\n", a.UniqueCount())

	if longestURL, words, ok := a.LongestPage(); ok {
		fmt.Fprintf(f, "Longest page: %s with %d words\n", longestURL, words)
	}

	fmt.Fprintln(f, "Top 50 most common words:")
	for _, tc := range a.TopTokens(TopTokenLimit) {
		fmt.Fprintf(f, "%s: %d\n", tc.Token, tc.Count)
	}

	fmt.Fprintln(f, "Subdomains found in uci.edu:")
	for _, sc := range a.SubdomainHistogram() {
		fmt.Fprintf(f, "%s, %d\n", sc.Host, sc.Count)
	}

	return path, nil
}
