// Package session ties the frontier, content pipeline, and statistics
// accumulator together into a runnable worker pool. None of this is
// part of the specified core (spec §1 treats the worker loop and
// fetcher as external collaborators), but a crawler you can't run
// isn't much of a teaching example, so this package ships a minimal,
// honest wiring of the three core components.
package session

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ucicrawl/ucicrawl/internal/fetch"
	"github.com/ucicrawl/ucicrawl/internal/frontier"
	"github.com/ucicrawl/ucicrawl/internal/pipeline"
	"github.com/ucicrawl/ucicrawl/internal/robots"
	"github.com/ucicrawl/ucicrawl/internal/stats"
	"github.com/ucicrawl/ucicrawl/internal/types"
	"github.com/ucicrawl/ucicrawl/internal/urlrule"
)

// Session owns one crawl end to end: a Frontier, a Pipeline, a
// statistics Accumulator, and a pool of worker goroutines pulling
// from the frontier and feeding the pipeline.
type Session struct {
	cfg       types.Config
	validator *urlrule.Validator
	frontier  *frontier.Frontier
	pipeline  *pipeline.Pipeline
	stats     *stats.Accumulator
	fetcher   *fetch.Fetcher
	robots    *robots.Filter
	log       zerolog.Logger

	robotsLoading sync.Map // map[string]*sync.Once, one robots.txt fetch per host

	discovered atomic.Int64
	processed  atomic.Int64
	errors     atomic.Int64
	duplicates atomic.Int64
}

// Open starts a new Session, or resumes one from cfg.SaveFile if
// restart is false and the save file already holds state. validator
// decides which discovered links get enqueued; callers that want the
// crawl bounded to the canonical uci.edu subdomains should pass
// urlrule.DefaultValidator().
func Open(cfg types.Config, restart bool, validator *urlrule.Validator) (*Session, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	f, err := frontier.Open(cfg, validator, restart)
	if err != nil {
		return nil, fmt.Errorf("failed to open frontier: %w", err)
	}

	accum := stats.NewAccumulator()

	return &Session{
		cfg:       cfg,
		validator: validator,
		frontier:  f,
		pipeline:  pipeline.New(cfg, accum),
		stats:     accum,
		fetcher:   fetch.New(cfg.Timeout, fetch.DefaultRetryConfig()),
		robots:    robots.NewFilter("ucicrawlbot"),
		log:       log.With().Str("component", "session").Logger(),
	}, nil
}

// Run drives cfg.Workers goroutines until the frontier has been idle
// long enough to conclude the crawl is exhausted, then returns a
// summary.
func (s *Session) Run(ctx context.Context) *types.Results {
	fmt.Printf("Starting crawl with %d workers\n", s.cfg.Workers)
	fmt.Printf("Initial frontier size: %d URLs\n", s.frontier.Size())

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	done := make(chan struct{})
	defer close(done)
	go s.reportProgress(ticker, done)

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx)
		}()
	}
	wg.Wait()

	fmt.Println()
	return &types.Results{
		Discovered: int(s.discovered.Load()),
		Processed:  int(s.processed.Load()),
		Errors:     int(s.errors.Load()),
		Duplicates: int(s.duplicates.Load()),
	}
}

// worker repeatedly pulls a URL from the frontier, fetches it, runs it
// through the pipeline, and enqueues any valid outbound links, until
// the frontier signals exhaustion or ctx is cancelled.
func (s *Session) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		rawURL, ok := s.frontier.GetTBDURL()
		if !ok {
			return // frontier idle past its timeout: this worker is done
		}

		s.processURLSafely(ctx, rawURL)
	}
}

func (s *Session) processURLSafely(ctx context.Context, rawURL string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("url", rawURL).Interface("panic", r).Msg("recovered panic processing url")
			s.errors.Add(1)
			if err := s.frontier.MarkURLComplete(rawURL); err != nil {
				s.log.Error().Err(err).Str("url", rawURL).Msg("failed to mark panicked url complete")
			}
		}
	}()

	if !s.cfg.IgnoreRobots && !s.robotsAllowed(ctx, rawURL) {
		s.log.Info().Str("url", rawURL).Msg("blocked by robots.txt")
		s.errors.Add(1)
		if err := s.frontier.MarkURLComplete(rawURL); err != nil {
			s.log.Error().Err(err).Str("url", rawURL).Msg("failed to mark robots-blocked url complete")
		}
		return
	}

	resp := s.fetcher.Fetch(ctx, rawURL)
	if resp.Error != "" {
		s.log.Warn().Str("url", rawURL).Str("error", resp.Error).Msg("fetch failed")
		s.errors.Add(1)
		if err := s.frontier.MarkURLComplete(rawURL); err != nil {
			s.log.Error().Err(err).Str("url", rawURL).Msg("failed to mark errored url complete")
		}
		return
	}

	before := s.stats.UniqueCount()
	links := s.pipeline.ProcessSafely(rawURL, resp)
	if s.stats.UniqueCount() == before {
		// Rejected as a near-duplicate, too short, or otherwise
		// filtered: still marked complete, so it isn't re-fetched on
		// every subsequent discovery of the same URL.
		s.duplicates.Add(1)
	}

	if err := s.frontier.MarkURLComplete(rawURL); err != nil {
		s.log.Error().Err(err).Str("url", rawURL).Msg("failed to mark url complete")
	}
	s.processed.Add(1)

	for _, link := range links {
		if !s.validator.IsValid(link) {
			continue
		}
		added, err := s.frontier.AddURL(link)
		if err != nil {
			s.log.Error().Err(err).Str("url", link).Msg("failed to add discovered url")
			continue
		}
		if added {
			s.discovered.Add(1)
		}
	}
}

// robotsAllowed reports whether rawURL may be fetched under its host's
// robots.txt, fetching and caching that file at most once per host.
// robots.txt itself is fetched through s.fetcher like any other URL;
// a fetch failure is treated as "no robots.txt found", which
// robots.Filter already resolves to allow.
func (s *Session) robotsAllowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return true // malformed URL: the fetch itself will fail and report the error
	}
	host := parsed.Host

	onceVal, _ := s.robotsLoading.LoadOrStore(host, &sync.Once{})
	once := onceVal.(*sync.Once)
	once.Do(func() {
		robotsURL := parsed.Scheme + "://" + host + "/robots.txt"
		resp := s.fetcher.Fetch(ctx, robotsURL)
		if resp.Error != "" || resp.Status != 200 || resp.RawResponse == nil {
			return // no robots.txt: Filter.Allowed defaults to permit
		}
		if err := s.robots.LoadHost(host, resp.RawResponse.Content); err != nil {
			s.log.Warn().Err(err).Str("host", host).Msg("failed to parse robots.txt")
		}
	})

	return s.robots.Allowed(host, parsed.Path)
}

func (s *Session) reportProgress(ticker *time.Ticker, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			fmt.Printf("\rDiscovered: %d | Processed: %d | Errors: %d | Pending: %d",
				s.discovered.Load(), s.processed.Load(), s.errors.Load(), s.frontier.Size())
		}
	}
}

// Stats exposes the live statistics accumulator, e.g. for periodic
// report snapshots.
func (s *Session) Stats() *stats.Accumulator {
	return s.stats
}

// Close releases the underlying frontier store.
func (s *Session) Close() error {
	return s.frontier.Close()
}
