// Package stats accumulates corpus-wide statistics over the crawl:
// unique page count, per-page word counts, global stemmed-token
// frequencies, and per-subdomain page tallies (spec §4.5).
package stats

import (
	"net/url"
	"sort"
	"strings"
	"sync"
)

// Accumulator holds the counters built up by the content pipeline.
// All mutating methods are safe for concurrent use. It does not own
// the SimHash index (see internal/simhash.Index) — callers only call
// AddUniquePage/AddTokens after the SimHash index has already
// confirmed, atomically, that the page is not a near-duplicate.
type Accumulator struct {
	mu sync.Mutex

	pageWordCounts map[string]int
	wordCountOrder []string // first-insertion order, for longest-page tie-break

	uniquePages map[string]struct{}

	tokenCounts map[string]int
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		pageWordCounts: make(map[string]int),
		uniquePages:    make(map[string]struct{}),
		tokenCounts:    make(map[string]int),
	}
}

// RecordWordCount records the raw word count for a page (spec §4.4
// step 6). This happens for every page whose text was extracted,
// including ones later rejected as too short or as near-duplicates.
func (a *Accumulator) RecordWordCount(pageURL string, count int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.pageWordCounts[pageURL]; !exists {
		a.wordCountOrder = append(a.wordCountOrder, pageURL)
	}
	a.pageWordCounts[pageURL] = count
}

// AddUniquePage marks pageURL as a unique, non-duplicate page (spec
// §4.4 step 8). Call only after the SimHash index has confirmed the
// fingerprint was newly stored.
func (a *Accumulator) AddUniquePage(pageURL string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.uniquePages[pageURL] = struct{}{}
}

// AddTokens increments the global token histogram by one occurrence
// per token in tokens.
func (a *Accumulator) AddTokens(tokens []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, tok := range tokens {
		a.tokenCounts[tok]++
	}
}

// UniqueCount returns the number of unique pages admitted so far.
func (a *Accumulator) UniqueCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.uniquePages)
}

// LongestPage returns the URL with the highest raw word count,
// breaking ties by first insertion into page_word_counts (spec §4.5).
// ok is false if no page has been recorded yet.
func (a *Accumulator) LongestPage() (pageURL string, words int, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	best := -1
	for _, u := range a.wordCountOrder {
		if c := a.pageWordCounts[u]; c > best {
			best = c
			pageURL = u
		}
	}
	if best < 0 {
		return "", 0, false
	}
	return pageURL, best, true
}

// TokenCount is a single token/count pair, used for the top-N report.
type TokenCount struct {
	Token string
	Count int
}

// TopTokens returns the n highest-count tokens, ties broken
// lexicographically ascending (an explicit choice among the two the
// spec leaves open — see DESIGN.md).
func (a *Accumulator) TopTokens(n int) []TokenCount {
	a.mu.Lock()
	pairs := make([]TokenCount, 0, len(a.tokenCounts))
	for tok, count := range a.tokenCounts {
		pairs = append(pairs, TokenCount{Token: tok, Count: count})
	}
	a.mu.Unlock()

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Count != pairs[j].Count {
			return pairs[i].Count > pairs[j].Count
		}
		return pairs[i].Token < pairs[j].Token
	})

	if n >= 0 && n < len(pairs) {
		pairs = pairs[:n]
	}
	return pairs
}

// SubdomainCount is a single host/count pair for the subdomain
// histogram.
type SubdomainCount struct {
	Host  string
	Count int
}

// SubdomainHistogram tallies, for every unique page, how many pages
// fall under each .uci.edu host, sorted ascending by host (spec §4.5).
func (a *Accumulator) SubdomainHistogram() []SubdomainCount {
	a.mu.Lock()
	pages := make([]string, 0, len(a.uniquePages))
	for u := range a.uniquePages {
		pages = append(pages, u)
	}
	a.mu.Unlock()

	counts := make(map[string]int)
	for _, raw := range pages {
		parsed, err := url.Parse(raw)
		if err != nil {
			continue
		}
		host := strings.ToLower(parsed.Host)
		if strings.HasSuffix(host, ".uci.edu") {
			counts[host]++
		}
	}

	out := make([]SubdomainCount, 0, len(counts))
	for host, count := range counts {
		out = append(out, SubdomainCount{Host: host, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Host < out[j].Host })
	return out
}
