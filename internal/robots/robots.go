// Package robots wraps robots.txt parsing for use by the worker loop
// that ties the frontier to a real fetcher (internal/session). It
// sits outside the specified core: the core treats the fetcher as an
// external black box and never retrieves robots.txt itself (spec §1).
// This package only gives the worker a ready-made admission check
// once it has fetched robots.txt bytes through whatever transport it
// uses; it does no network I/O of its own.
package robots

import (
	"fmt"
	"sync"

	"github.com/temoto/robotstxt"
)

// Filter caches parsed robots.txt data per host and answers
// allow/disallow questions for a given user agent.
type Filter struct {
	userAgent string

	mu    sync.Mutex
	cache map[string]*robotstxt.RobotsData
}

// NewFilter returns a Filter that evaluates rules for userAgent.
func NewFilter(userAgent string) *Filter {
	return &Filter{
		userAgent: userAgent,
		cache:     make(map[string]*robotstxt.RobotsData),
	}
}

// LoadHost parses the robots.txt body for host and caches it for
// subsequent Allowed calls. Callers fetch the bytes themselves (e.g.
// from "http://host/robots.txt") since this package does no network
// I/O.
func (f *Filter) LoadHost(host string, body []byte) error {
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return fmt.Errorf("failed to parse robots.txt for %s: %w", host, err)
	}

	f.mu.Lock()
	f.cache[host] = data
	f.mu.Unlock()
	return nil
}

// Allowed reports whether path is crawlable on host under the rules
// previously loaded with LoadHost. If no robots.txt was ever loaded
// for host, Allowed permits the request — matching the fetcher-less
// default of "no robots.txt found, allow crawling".
func (f *Filter) Allowed(host, path string) bool {
	f.mu.Lock()
	data, ok := f.cache[host]
	f.mu.Unlock()

	if !ok {
		return true
	}
	return data.TestAgent(path, f.userAgent)
}
