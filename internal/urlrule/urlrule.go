// Package urlrule normalizes URLs and decides whether they are
// admissible for crawling under the bounded set of academic
// subdomains (spec §4.1).
package urlrule

import (
	"net/url"
	"regexp"
	"strings"
)

// AllowedSuffixes is the canonical set of host suffixes this crawler
// is bounded to.
var AllowedSuffixes = []string{
	".ics.uci.edu",
	".cs.uci.edu",
	".informatics.uci.edu",
	".stat.uci.edu",
}

// DefaultIgnoreList is the canonical substring ignore-list (spec §4.1).
// It is a configuration input; callers needing a different set build
// their own Validator with NewValidator.
var DefaultIgnoreList = []string{
	"mediamanager.php",
	"eppstein/pix",
	"isg.ics.uci.edu/events/",
	"share=facebook",
	"share=twitter",
	"login",
	"redirect",
	"grape.ics.uci.edu/wiki/public/timeline",
	"grape.ics.uci.edu/wiki/asterix/timeline",
	"ical=",
	"fano.ics.uci.edu/ca/rules",
	"week",
	"month",
	"year",
	"calendar",
	"/doku",
	"ngs.ics",
	"action=diff",
	"version=",
	"format=",
	"entry_point",
	"/r.php",
}

// extensionBlacklist is the canonical binary/media extension regex
// from spec §6, applied case-insensitively to the path suffix.
var extensionBlacklist = regexp.MustCompile(`(?i)\.(css|js|bmp|gif|jpe?g|ico|png|tiff?|mid|mp2|mp3|mp4|wav|avi|mov` +
	`|mpeg|ram|m4v|mkv|ogg|ogv|pdf|ps|eps|tex|ppt|pptx|doc|docx|xls` +
	`|xlsx|names|data|dat|exe|bz2|tar|msi|bin|7z|psd|dmg|iso|epub|dll` +
	`|cnf|tgz|sha1|thmx|mso|arff|rtf|jar|csv|rm|smil|wmv|swf|wma|zip` +
	`|rar|gz)$`)

// Validator admits or rejects URLs against a configurable
// suffix/ignore-list pair. The zero value is not usable; use
// NewValidator or DefaultValidator.
type Validator struct {
	allowedSuffixes []string
	ignoreList      []string
}

// NewValidator builds a Validator from an explicit suffix and
// ignore-list configuration.
func NewValidator(allowedSuffixes, ignoreList []string) *Validator {
	return &Validator{
		allowedSuffixes: allowedSuffixes,
		ignoreList:      ignoreList,
	}
}

// DefaultValidator returns a Validator configured with the canonical
// UCI subdomain suffixes and ignore-list.
func DefaultValidator() *Validator {
	return NewValidator(AllowedSuffixes, DefaultIgnoreList)
}

// IsValid reports whether rawURL should be admitted into the
// frontier (spec §4.1). It parses rawURL itself; malformed URLs are
// rejected.
func (v *Validator) IsValid(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	netloc := strings.ToLower(parsed.Host)
	path := strings.ToLower(parsed.Path)
	query := strings.ToLower(parsed.RawQuery)

	for _, item := range v.ignoreList {
		item = strings.ToLower(item)
		if strings.Contains(netloc, item) || strings.Contains(path, item) || strings.Contains(query, item) {
			return false
		}
	}

	if !hasAllowedSuffix(netloc, v.allowedSuffixes) {
		return false
	}

	return !extensionBlacklist.MatchString(path)
}

func hasAllowedSuffix(host string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}
