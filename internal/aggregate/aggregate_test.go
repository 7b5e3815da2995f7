package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvera-dev/showfetch/internal/pipeline"
)

func rec(id, rawType string, year int, rating float64) pipeline.ContentRecord {
	return pipeline.ContentRecord{
		ID:          id,
		Title:       id,
		ContentType: rawType,
		Year:        year,
		Rating:      rating,
	}
}

// TestDedupKeepsFirst duplicate ids collapse to the first occurrence.
func TestDedupKeepsFirst(t *testing.T) {
	t.Parallel()

	first := rec("a", "drama", 2024, 8.0)
	first.Title = "kept"
	dup := rec("a", "drama", 2023, 1.0)
	dup.Title = "dropped"

	out := Dedup([]pipeline.ContentRecord{first, dup, rec("b", "anime", 2024, 7.0)})
	require.Len(t, out, 2)
	assert.Equal(t, "kept", out[0].Title)
	assert.Equal(t, "b", out[1].ID)
}

// TestCategorizeSynonyms raw type strings map onto canonical categories, with
// unmapped types dropped.
func TestCategorizeSynonyms(t *testing.T) {
	t.Parallel()

	out := Categorize([]pipeline.ContentRecord{
		rec("a", "KDrama", 2024, 8),
		rec("b", "tv", 2024, 8),
		rec("c", "ONA", 2024, 8),
		rec("d", "Film", 2024, 8),
		rec("e", "hindi movie", 2024, 8),
		rec("f", "podcast", 2024, 8),
	})

	assert.Len(t, out[pipeline.CategoryDrama], 2)
	assert.Len(t, out[pipeline.CategoryAnime], 1)
	assert.Len(t, out[pipeline.CategoryFilm], 1)
	assert.Len(t, out[pipeline.CategoryBollywood], 1)

	for cat, records := range out {
		for _, r := range records {
			assert.Equal(t, cat, r.Category)
		}
	}
}

// TestSortForIndex orders by year descending, rating breaking ties.
func TestSortForIndex(t *testing.T) {
	t.Parallel()

	records := []pipeline.ContentRecord{
		rec("old-good", "drama", 2020, 9.5),
		rec("new-bad", "drama", 2026, 3.0),
		rec("new-good", "drama", 2026, 9.0),
	}
	SortForIndex(records)

	assert.Equal(t, "new-good", records[0].ID)
	assert.Equal(t, "new-bad", records[1].ID)
	assert.Equal(t, "old-good", records[2].ID)
}

// TestTrendingRecentFirst recent titles outrank higher-rated old ones, and the
// result is capped at twenty.
func TestTrendingRecentFirst(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	records := []pipeline.ContentRecord{
		rec("classic", "drama", 2010, 9.9),
		rec("recent-low", "drama", 2025, 5.0),
		rec("recent-high", "drama", 2026, 8.0),
	}
	out := Trending(records, now)

	require.Len(t, out, 3)
	assert.Equal(t, "recent-high", out[0].ID)
	assert.Equal(t, "recent-low", out[1].ID)
	assert.Equal(t, "classic", out[2].ID)
}

// TestTrendingCap the list never exceeds twenty entries.
func TestTrendingCap(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	var records []pipeline.ContentRecord
	for i := 0; i < 30; i++ {
		records = append(records, rec(string(rune('a'+i)), "drama", 2026, float64(i)))
	}
	assert.Len(t, Trending(records, now), 20)
}

// TestHeroBannerRequiresFullArtwork only records with both poster and
// backdrop qualify, capped at five.
func TestHeroBannerRequiresFullArtwork(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	complete := rec("complete", "drama", 2026, 8)
	complete.PosterURL = "https://img.example/p.jpg"
	complete.BackdropURL = "https://img.example/b.jpg"

	posterOnly := rec("poster-only", "drama", 2026, 9)
	posterOnly.PosterURL = "https://img.example/p.jpg"

	out := HeroBanner([]pipeline.ContentRecord{posterOnly, complete}, now)
	require.Len(t, out, 1)
	assert.Equal(t, "complete", out[0].ID)
}

// TestToSearchEntry projects the search index subset.
func TestToSearchEntry(t *testing.T) {
	t.Parallel()

	r := rec("a", "drama", 2024, 8)
	r.Category = pipeline.CategoryDrama
	r.Language = "Korean"
	r.PosterURL = "https://img.example/p.jpg"

	entry := ToSearchEntry(r)
	assert.Equal(t, "a", entry.ID)
	assert.Equal(t, pipeline.CategoryDrama, entry.Category)
	assert.Equal(t, "Korean", entry.Language)
	assert.Equal(t, "https://img.example/p.jpg", entry.Poster)
}
