package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/calvera-dev/showfetch/internal/pipeline"
)

// TestSlugOf id stability depends on these exact rules.
func TestSlugOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{"https://site.example/series/river-moon", "river-moon"},
		{"https://site.example/series/River_Moon/", "river-moon"},
		{"https://site.example/watch/ep-1080p.html", "ep-1080p-html"},
		{"https://site.example/", "https-site-example"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, slugOf(tc.url), tc.url)
	}
}

// TestYearFrom year scanning with its default.
func TestYearFrom(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 2024, yearFrom("Aired 2024 in Korea", now))
	assert.Equal(t, 1999, yearFrom("classic 1999", now))
	assert.Equal(t, 2026, yearFrom("no year here", now))
	assert.Equal(t, 2026, yearFrom("episode 12 of 16", now))
}

// TestParseRating rating scanning with its default.
func TestParseRating(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 8.5, parseRating("8.5 / 10"), 0.001)
	assert.InDelta(t, 7, parseRating("7"), 0.001)
	assert.Zero(t, parseRating("N/A"))
	assert.Zero(t, parseRating(""))
}

// TestAbsolutize relative href resolution variants.
func TestAbsolutize(t *testing.T) {
	t.Parallel()

	base := "https://site.example/list/recent"
	assert.Equal(t, "https://site.example/series/a", absolutize(base, "/series/a"))
	assert.Equal(t, "https://other.example/x", absolutize(base, "https://other.example/x"))
	assert.Equal(t, "https://cdn.example/p.jpg", absolutize(base, "//cdn.example/p.jpg"))
	assert.Equal(t, "", absolutize(base, "  "))
}

// TestCleanTitle collapses whitespace and strips episode suffixes.
func TestCleanTitle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "River Moon", cleanTitle("  River\n  Moon  "))
	assert.Equal(t, "River Moon", cleanTitle("River Moon Episode 7"))
	assert.Equal(t, "River Moon", cleanTitle("River Moon Ep 7"))
}

// TestInferLanguage hint table first, category default second.
func TestInferLanguage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Chinese", inferLanguage(pipeline.CategoryDrama, "Mainland China"))
	assert.Equal(t, "Thai", inferLanguage(pipeline.CategoryDrama, "Thailand"))
	assert.Equal(t, "Korean", inferLanguage(pipeline.CategoryDrama))
	assert.Equal(t, "Japanese", inferLanguage(pipeline.CategoryAnime))
	assert.Equal(t, "English", inferLanguage(pipeline.CategoryFilm))
	assert.Equal(t, "Hindi", inferLanguage(pipeline.CategoryBollywood, "unrelated hint"))
	assert.Equal(t, "English", inferLanguage(pipeline.Category("unknown")))
}
