// Package identity supplies randomized client fingerprints for fetches.
package identity

import (
	"crypto/rand"
	"math/big"
	"net/http"
	"time"
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
}

var referers = []string{
	"https://www.google.com/",
	"https://www.bing.com/",
	"https://duckduckgo.com/",
	"https://search.yahoo.com/",
}

// Viewport is a plausible browser window size.
type Viewport struct {
	Width  int64
	Height int64
}

var viewports = []Viewport{
	{1920, 1080},
	{1536, 864},
	{1440, 900},
	{1366, 768},
}

// Fingerprint is one randomized client identity for a fetch attempt.
type Fingerprint struct {
	UserAgent string
	Referer   string
	Viewport  Viewport
}

// NewFingerprint picks a random identity from the pools.
func NewFingerprint() Fingerprint {
	return Fingerprint{
		UserAgent: userAgents[intn(len(userAgents))],
		Referer:   referers[intn(len(referers))],
		Viewport:  viewports[intn(len(viewports))],
	}
}

// Headers renders the fingerprint as request headers.
func (f Fingerprint) Headers() http.Header {
	h := http.Header{}
	h.Set("User-Agent", f.UserAgent)
	h.Set("Referer", f.Referer)
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	return h
}

// Jitter returns a random duration in [min, max], used between domain
// attempts and to pace human-like interaction.
func Jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	span := int64(max - min)
	return min + time.Duration(randInt64(span))
}

// RandInt returns a random int in [min, max].
func RandInt(min, max int) int {
	if max <= min {
		return min
	}
	return min + int(randInt64(int64(max-min+1)))
}

func intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(randInt64(int64(n)))
}

func randInt64(bound int64) int64 {
	if bound <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(bound))
	if err != nil {
		return bound / 2
	}
	return n.Int64()
}
