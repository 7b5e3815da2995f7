// Package stream ranks candidate media URLs and selects the best one.
package stream

import (
	"fmt"
	"strings"

	"github.com/calvera-dev/showfetch/internal/pipeline"
)

// qualityRank is the single canonical precedence table. Adaptive streams rank
// above the fixed low tiers but below fixed 720p+ because they self-adjust to
// bandwidth.
var qualityRank = []struct {
	Token    string
	Label    string
	Rank     int
	Adaptive bool
}{
	{"2160p", "4K", 8, false},
	{"4k", "4K", 8, false},
	{"uhd", "4K", 8, false},
	{"1080p", "1080p", 7, false},
	{"fullhd", "1080p", 7, false},
	{"720p", "720p", 6, false},
	{"hd", "720p", 6, false},
	{"auto", "auto", 5, true},
	{"master", "auto", 5, true},
	{"adaptive", "auto", 5, true},
	{"480p", "480p", 4, false},
	{"360p", "360p", 3, false},
	{"240p", "240p", 2, false},
}

const unknownRank = 0

// Infer builds a StreamCandidate from a raw media URL by scanning it for
// known quality tokens, case-insensitively.
func Infer(rawURL string) pipeline.StreamCandidate {
	lower := strings.ToLower(rawURL)

	container := pipeline.ContainerSingleFile
	if strings.Contains(lower, ".m3u8") || strings.Contains(lower, ".mpd") {
		container = pipeline.ContainerAdaptive
	}

	for _, entry := range qualityRank {
		if strings.Contains(lower, entry.Token) {
			if entry.Adaptive {
				container = pipeline.ContainerAdaptive
			}
			return pipeline.StreamCandidate{URL: rawURL, Quality: entry.Label, Container: container}
		}
	}
	if container == pipeline.ContainerAdaptive {
		return pipeline.StreamCandidate{URL: rawURL, Quality: "auto", Container: container}
	}
	return pipeline.StreamCandidate{URL: rawURL, Quality: "unknown", Container: container}
}

// rankOf maps an inferred quality label back to its precedence.
func rankOf(c pipeline.StreamCandidate) int {
	for _, entry := range qualityRank {
		if entry.Label == c.Quality {
			return entry.Rank
		}
	}
	if c.Container == pipeline.ContainerAdaptive {
		return 5
	}
	return unknownRank
}

// SelectBest returns the candidate with the highest quality rank. Ties
// resolve to first-seen order.
func SelectBest(candidates []pipeline.StreamCandidate) (pipeline.StreamCandidate, error) {
	if len(candidates) == 0 {
		return pipeline.StreamCandidate{}, fmt.Errorf("no stream candidates")
	}
	best := candidates[0]
	bestRank := rankOf(best)
	for _, c := range candidates[1:] {
		if r := rankOf(c); r > bestRank {
			best = c
			bestRank = r
		}
	}
	return best, nil
}

// SelectBestURLs is a convenience over raw URLs: infer each, then pick.
func SelectBestURLs(urls []string) (pipeline.StreamCandidate, error) {
	candidates := make([]pipeline.StreamCandidate, 0, len(urls))
	for _, u := range urls {
		if strings.TrimSpace(u) == "" {
			continue
		}
		candidates = append(candidates, Infer(u))
	}
	return SelectBest(candidates)
}
