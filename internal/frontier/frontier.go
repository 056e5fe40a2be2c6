// Package frontier implements the persistent, thread-safe URL work
// queue: crash-safe seen/completed bookkeeping plus per-domain
// politeness gating (spec §4.3).
package frontier

import (
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ucicrawl/ucicrawl/internal/types"
	"github.com/ucicrawl/ucicrawl/internal/urlrule"
)

const (
	// bloomCapacity and bloomFPRate size the in-memory fast-path
	// probe that sits in front of the durable seen store. A false
	// positive just costs one extra sqlite lookup; it can never
	// cause an already-seen URL to be re-added.
	bloomCapacity = 2_000_000
	bloomFPRate   = 0.01

	// idleTimeout is the bounded wait spec §4.3 gives get_tbd_url
	// before signalling the caller to exit or retry.
	idleTimeout = 10 * time.Second
)

// Frontier is the persistent dedup-by-URL queue with per-domain
// politeness gating described in spec §4.3.
type Frontier struct {
	cfg       types.Config
	validator *urlrule.Validator
	log       zerolog.Logger

	// frontier_lock: guards the seen store and the domain clock.
	seenMu         sync.Mutex
	seen           *seenStore
	bloom          *bloom.BloomFilter
	domainLastSeen map[string]time.Time

	// to_be_downloaded: FIFO queue, independently synchronized.
	// notify is closed (and replaced) on every enqueue, broadcasting to
	// every goroutine currently blocked in GetTBDURL — a buffered
	// channel with a non-blocking send would only wake one waiter per
	// signal and could starve the others while work remains queued.
	queueMu sync.Mutex
	queue   []string
	notify  chan struct{}

	discovered int64
	processed  int64
}

// Open creates or restores a Frontier at cfg.SaveFile. If restart is
// true, any existing save file is deleted and the frontier is seeded
// fresh from cfg.SeedURLs. Otherwise the save file is opened (created
// if absent) and every non-completed, still-valid URL is re-enqueued;
// if the save file was empty, the frontier seeds from cfg.SeedURLs
// (spec §4.3).
func Open(cfg types.Config, validator *urlrule.Validator, restart bool) (*Frontier, error) {
	if restart {
		if err := os.Remove(cfg.SaveFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to delete save file: %w", err)
		}
	}

	store, err := openSeenStore(cfg.SaveFile)
	if err != nil {
		return nil, err
	}

	f := &Frontier{
		cfg:            cfg,
		validator:      validator,
		log:            log.With().Str("component", "frontier").Logger(),
		seen:           store,
		bloom:          bloom.NewWithEstimates(bloomCapacity, bloomFPRate),
		domainLastSeen: make(map[string]time.Time),
		notify:         make(chan struct{}),
	}

	if restart {
		for _, seedURL := range cfg.SeedURLs {
			if _, err := f.AddURL(seedURL); err != nil {
				f.log.Error().Err(err).Str("url", seedURL).Msg("failed to seed url")
			}
		}
		return f, nil
	}

	records, err := store.all()
	if err != nil {
		return nil, fmt.Errorf("failed to load save file: %w", err)
	}

	tbd := 0
	for _, rec := range records {
		f.bloom.Add([]byte(urlrule.Hash(rec.URL)))
		if !rec.Completed && f.validator.IsValid(rec.URL) {
			f.enqueue(rec.URL)
			tbd++
		}
	}
	f.log.Info().Int("total", len(records)).Int("pending", tbd).Msg("loaded save file")

	if len(records) == 0 {
		for _, seedURL := range cfg.SeedURLs {
			if _, err := f.AddURL(seedURL); err != nil {
				f.log.Error().Err(err).Str("url", seedURL).Msg("failed to seed url")
			}
		}
	}

	return f, nil
}

// AddURL normalizes url, and if its hash has never been seen before,
// admits it: persists (url, completed=false), flushes to storage, and
// enqueues it. Calling AddURL again for an already-seen URL (whether
// pending or completed) is a no-op (spec §4.3).
func (f *Frontier) AddURL(rawURL string) (added bool, err error) {
	normalized, err := urlrule.Normalize(rawURL)
	if err != nil {
		return false, nil // malformed URL: dropped, not fatal (spec §7)
	}
	urlhash := urlrule.Hash(normalized)

	f.seenMu.Lock()
	defer f.seenMu.Unlock()

	if f.bloom.Test([]byte(urlhash)) {
		if _, exists, err := f.seen.get(urlhash); err != nil {
			return false, fmt.Errorf("seen store lookup failed: %w", err)
		} else if exists {
			return false, nil
		}
		// bloom false positive: fall through and admit normally.
	}

	if err := f.seen.upsert(urlhash, normalized, false); err != nil {
		return false, fmt.Errorf("seen store upsert failed: %w", err)
	}
	f.bloom.Add([]byte(urlhash))
	f.discovered++
	f.enqueue(normalized)

	return true, nil
}

// MarkURLComplete records url as completed. If no seen-record exists
// for it, the completion is still recorded (upsert semantics) and the
// anomaly is logged at error severity (spec §7).
func (f *Frontier) MarkURLComplete(rawURL string) error {
	normalized, err := urlrule.Normalize(rawURL)
	if err != nil {
		return fmt.Errorf("cannot mark malformed url complete: %w", err)
	}
	urlhash := urlrule.Hash(normalized)

	f.seenMu.Lock()
	defer f.seenMu.Unlock()

	existed, err := f.seen.markComplete(urlhash, normalized)
	if err != nil {
		return fmt.Errorf("seen store mark-complete failed: %w", err)
	}
	f.bloom.Add([]byte(urlhash))
	if !existed {
		f.log.Error().Str("url", normalized).Msg("completed url, but have not seen it before")
	}
	f.processed++
	return nil
}

// GetTBDURL dequeues the next URL to crawl, enforcing the per-domain
// politeness delay (spec §4.3). It waits up to idleTimeout for a URL
// to become available; on timeout it returns ("", false), signalling
// the worker to exit or retry.
func (f *Frontier) GetTBDURL() (string, bool) {
	deadline := time.Now().Add(idleTimeout)

	for {
		if rawURL, ok := f.dequeue(); ok {
			return f.applyPoliteness(rawURL), true
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", false
		}

		f.queueMu.Lock()
		ch := f.notify
		f.queueMu.Unlock()

		select {
		case <-ch:
			continue
		case <-time.After(remaining):
			return "", false
		}
	}
}

// applyPoliteness implements the reservation protocol of spec §4.3
// steps 2-5: the caller has already dequeued rawURL; this blocks the
// calling goroutine (not the frontier) for as long as politeness
// demands before returning it.
func (f *Frontier) applyPoliteness(rawURL string) string {
	domain := hostOf(rawURL)

	f.seenMu.Lock()
	now := time.Now()
	last := f.domainLastSeen[domain] // zero value if unseen, per spec default 0
	elapsed := now.Sub(last)

	if elapsed >= f.cfg.TimeDelay {
		f.domainLastSeen[domain] = now
		f.seenMu.Unlock()
		return rawURL
	}

	sleep := f.cfg.TimeDelay - elapsed
	f.domainLastSeen[domain] = now.Add(sleep) // pre-reserve so concurrent dequeues of the same domain push out further
	f.seenMu.Unlock()

	time.Sleep(sleep)

	f.seenMu.Lock()
	f.domainLastSeen[domain] = time.Now()
	f.seenMu.Unlock()

	return rawURL
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Host
}

func (f *Frontier) enqueue(rawURL string) {
	f.queueMu.Lock()
	f.queue = append(f.queue, rawURL)
	old := f.notify
	f.notify = make(chan struct{})
	f.queueMu.Unlock()

	close(old) // broadcast to every waiter blocked on the previous channel
}

func (f *Frontier) dequeue() (string, bool) {
	f.queueMu.Lock()
	defer f.queueMu.Unlock()

	if len(f.queue) == 0 {
		return "", false
	}
	rawURL := f.queue[0]
	f.queue = f.queue[1:]
	return rawURL, true
}

// Size returns the number of URLs currently pending in the queue.
func (f *Frontier) Size() int {
	f.queueMu.Lock()
	defer f.queueMu.Unlock()
	return len(f.queue)
}

// Stats returns the lifetime discovered/processed counters.
func (f *Frontier) Stats() (discovered, processed int64) {
	f.seenMu.Lock()
	defer f.seenMu.Unlock()
	return f.discovered, f.processed
}

// Close releases the underlying seen store.
func (f *Frontier) Close() error {
	return f.seen.close()
}
