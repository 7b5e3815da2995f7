// Package aggregate merges per-source extraction output into catalog and
// search index projections.
package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/calvera-dev/showfetch/internal/pipeline"
)

// categoryBySynonym maps raw content-type strings to canonical categories.
// Records whose type has no mapping are dropped from categorized output but
// stay in the raw per-source files.
var categoryBySynonym = map[string]pipeline.Category{
	"drama":           pipeline.CategoryDrama,
	"drama movie":     pipeline.CategoryDrama,
	"kdrama":          pipeline.CategoryDrama,
	"kshow":           pipeline.CategoryDrama,
	"series":          pipeline.CategoryDrama,
	"tv":              pipeline.CategoryDrama,
	"anime":           pipeline.CategoryAnime,
	"ona":             pipeline.CategoryAnime,
	"ova":             pipeline.CategoryAnime,
	"donghua":         pipeline.CategoryAnime,
	"movie":           pipeline.CategoryFilm,
	"film":            pipeline.CategoryFilm,
	"bollywood":       pipeline.CategoryBollywood,
	"bollywood movie": pipeline.CategoryBollywood,
	"hindi movie":     pipeline.CategoryBollywood,
	"desi":            pipeline.CategoryBollywood,
}

const (
	trendingSize   = 20
	heroBannerSize = 5
)

// Dedup drops records with a previously seen id, keeping the first.
func Dedup(records []pipeline.ContentRecord) []pipeline.ContentRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]pipeline.ContentRecord, 0, len(records))
	for _, r := range records {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Categorize maps each record's raw type to a canonical category, annotating
// the record. Unmapped records are dropped.
func Categorize(records []pipeline.ContentRecord) map[pipeline.Category][]pipeline.ContentRecord {
	out := make(map[pipeline.Category][]pipeline.ContentRecord)
	for _, r := range records {
		cat, ok := categoryBySynonym[strings.ToLower(strings.TrimSpace(r.ContentType))]
		if !ok {
			continue
		}
		r.Category = cat
		out[cat] = append(out[cat], r)
	}
	return out
}

// SortForIndex orders records by year descending, then rating descending.
// The sort is stable so identical inputs always produce identical output.
func SortForIndex(records []pipeline.ContentRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Year != records[j].Year {
			return records[i].Year > records[j].Year
		}
		return records[i].Rating > records[j].Rating
	})
}

// Trending partitions records into recent (year >= currentYear-2) and older,
// sorts each partition by rating descending, and returns the top entries
// with the recent partition first.
func Trending(records []pipeline.ContentRecord, now time.Time) []pipeline.ContentRecord {
	return topByRecency(records, now.Year()-2, trendingSize)
}

// HeroBanner returns up to five visually complete records (poster and
// backdrop both present), very recent (year >= currentYear) entries first.
func HeroBanner(records []pipeline.ContentRecord, now time.Time) []pipeline.ContentRecord {
	complete := make([]pipeline.ContentRecord, 0, len(records))
	for _, r := range records {
		if r.PosterURL != "" && r.BackdropURL != "" {
			complete = append(complete, r)
		}
	}
	return topByRecency(complete, now.Year(), heroBannerSize)
}

func topByRecency(records []pipeline.ContentRecord, cutoffYear, limit int) []pipeline.ContentRecord {
	var recent, older []pipeline.ContentRecord
	for _, r := range records {
		if r.Year >= cutoffYear {
			recent = append(recent, r)
		} else {
			older = append(older, r)
		}
	}
	byRating := func(rs []pipeline.ContentRecord) {
		sort.SliceStable(rs, func(i, j int) bool {
			return rs[i].Rating > rs[j].Rating
		})
	}
	byRating(recent)
	byRating(older)

	out := append(recent, older...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SearchEntry is the reduced projection emitted into search indexes.
type SearchEntry struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	OriginalTitle string            `json:"original_title,omitempty"`
	Year          int               `json:"year"`
	Type          string            `json:"type"`
	Category      pipeline.Category `json:"category"`
	Language      string            `json:"language,omitempty"`
	Source        string            `json:"source"`
	Poster        string            `json:"poster,omitempty"`
}

// ToSearchEntry projects a record to its search index subset.
func ToSearchEntry(r pipeline.ContentRecord) SearchEntry {
	return SearchEntry{
		ID:            r.ID,
		Title:         r.Title,
		OriginalTitle: r.OriginalTitle,
		Year:          r.Year,
		Type:          r.ContentType,
		Category:      r.Category,
		Language:      r.Language,
		Source:        r.Source,
		Poster:        r.PosterURL,
	}
}
