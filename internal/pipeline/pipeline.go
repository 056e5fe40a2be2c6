// Package pipeline implements the content pipeline glue (spec §4.4):
// for a fetched response, defrag the URL, apply size/length filters,
// strip boilerplate, tokenize, dedup via SimHash, update statistics,
// and emit outbound links for the caller to validate and enqueue.
package pipeline

import (
	"net/url"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/ucicrawl/ucicrawl/internal/simhash"
	"github.com/ucicrawl/ucicrawl/internal/stats"
	"github.com/ucicrawl/ucicrawl/internal/types"
	"github.com/ucicrawl/ucicrawl/internal/urlrule"
)

// boilerplateSelector matches the tag subtrees stripped before text
// extraction (spec §4.4 step 4).
const boilerplateSelector = "header, footer, nav, script, style, aside"

// Pipeline owns the index_lock state spec §5 describes: the SimHash
// index (its own internal lock), the visited-url set, and the
// statistics accumulator. A finer-grained split than the reference
// implementation's single mutex is used here — see simhash.Index and
// stats.Accumulator — but the one operation spec §5 requires to be
// atomic (simhash lookup + insert, so two mutually-near-duplicate
// pages can't both be admitted) is Pipeline's by construction, since
// it runs entirely inside simhash.Index.CheckAndStore.
type Pipeline struct {
	cfg   types.Config
	index *simhash.Index
	accum *stats.Accumulator
	log   zerolog.Logger

	visitedMu sync.Mutex
	visited   map[string]struct{}
}

// New builds a Pipeline. accum is shared with the report generator;
// the caller keeps its own reference to read from it.
func New(cfg types.Config, accum *stats.Accumulator) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		index:   simhash.NewIndex(cfg.DuplicateThreshold),
		accum:   accum,
		log:     log.With().Str("component", "pipeline").Logger(),
		visited: make(map[string]struct{}),
	}
}

// Process runs the full content pipeline for one fetched response and
// returns the unfiltered outbound links discovered on the page. The
// caller (the worker loop) is responsible for running each link
// through a urlrule.Validator before handing it to the frontier (spec
// §4.4 step 9).
func (p *Pipeline) Process(requestedURL string, resp types.Response) []string {
	defragURL := urlrule.Defrag(requestedURL)

	if !p.markVisited(defragURL) {
		return nil
	}

	if resp.Status != 200 || resp.RawResponse == nil {
		p.log.Debug().Str("url", defragURL).Int("status", resp.Status).Msg("skipping non-200 or empty response")
		return nil
	}

	if int64(len(resp.RawResponse.Content)) > p.cfg.MaxContentBytes {
		p.log.Debug().Str("url", defragURL).Int("bytes", len(resp.RawResponse.Content)).Msg("skipping oversized content")
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(resp.RawResponse.Content)))
	if err != nil {
		// Parser failure: the page is skipped with no links, the same
		// outcome as empty text (spec §7).
		p.log.Debug().Str("url", defragURL).Err(err).Msg("html parse failed")
		return nil
	}

	doc.Find(boilerplateSelector).Remove()
	text := strings.TrimSpace(visibleText(doc.Nodes))

	words := rawWords(text)
	p.accum.RecordWordCount(defragURL, len(words))

	if len(strings.Fields(text)) < p.cfg.MinPageWords {
		return nil
	}

	tokens := parseText(text)
	fingerprint := simhash.Compute(tokens)

	if !p.index.CheckAndStore(fingerprint) {
		p.log.Debug().Str("url", defragURL).Msg("near-duplicate, discarding")
		return nil
	}

	p.accum.AddUniquePage(defragURL)
	p.accum.AddTokens(tokens)

	baseURL := resp.URL
	if baseURL == "" {
		baseURL = requestedURL
	}
	return extractLinks(doc, baseURL)
}

// ProcessSafely wraps Process with panic recovery, so a single
// malformed page can't take down a worker goroutine.
func (p *Pipeline) ProcessSafely(requestedURL string, resp types.Response) (links []string) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().
				Str("url", requestedURL).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("recovered panic during page processing")
			links = nil
		}
	}()
	return p.Process(requestedURL, resp)
}

// markVisited returns true iff defragURL was not already visited,
// atomically marking it visited as a side effect (spec §4.4 step 1).
func (p *Pipeline) markVisited(defragURL string) bool {
	p.visitedMu.Lock()
	defer p.visitedMu.Unlock()

	if _, seen := p.visited[defragURL]; seen {
		return false
	}
	p.visited[defragURL] = struct{}{}
	return true
}

// visibleText walks the parsed DOM (after boilerplate removal) and
// joins text-node content with single spaces, mirroring
// BeautifulSoup's get_text(separator=' ', strip=True).
func visibleText(nodes []*html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}

// extractLinks collects every <a href> target, resolved against
// baseURL and defragmented (spec §4.4 step 9).
func extractLinks(doc *goquery.Document, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var links []string

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		resolved, err := resolveLink(base, href)
		if err != nil {
			return // malformed link: dropped, processing continues (spec §7)
		}
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		links = append(links, resolved)
	})

	return links
}

func resolveLink(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String(), nil
}
