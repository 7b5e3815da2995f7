package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvera-dev/showfetch/internal/pipeline"
)

// TestInfer pins the quality token and container inference rules.
func TestInfer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url           string
		wantQuality   string
		wantContainer pipeline.ContainerKind
	}{
		{"https://cdn.example/movie-2160p.mp4", "4K", pipeline.ContainerSingleFile},
		{"https://cdn.example/movie-1080p.mkv", "1080p", pipeline.ContainerSingleFile},
		{"https://cdn.example/movie-FULLHD.mp4", "1080p", pipeline.ContainerSingleFile},
		{"https://cdn.example/movie-720p.webm", "720p", pipeline.ContainerSingleFile},
		{"https://cdn.example/movie-480p.mp4", "480p", pipeline.ContainerSingleFile},
		{"https://cdn.example/master.m3u8", "auto", pipeline.ContainerAdaptive},
		{"https://cdn.example/stream.mpd", "auto", pipeline.ContainerAdaptive},
		{"https://cdn.example/movie.mp4", "unknown", pipeline.ContainerSingleFile},
	}
	for _, tc := range tests {
		t.Run(tc.url, func(t *testing.T) {
			t.Parallel()
			got := Infer(tc.url)
			assert.Equal(t, tc.wantQuality, got.Quality)
			assert.Equal(t, tc.wantContainer, got.Container)
		})
	}
}

// TestSelectBestPrefersHighestRank verifies 1080p beats both a lower fixed
// quality and an adaptive manifest.
func TestSelectBestPrefersHighestRank(t *testing.T) {
	t.Parallel()

	best, err := SelectBestURLs([]string{
		"https://cdn.example/foo-360p.mp4",
		"https://cdn.example/foo-1080p.mp4",
		"https://cdn.example/foo.m3u8",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/foo-1080p.mp4", best.URL)
	assert.Equal(t, "1080p", best.Quality)
}

// TestSelectBestAdaptiveBeatsLowTiers adaptive ranks above 480p and below.
func TestSelectBestAdaptiveBeatsLowTiers(t *testing.T) {
	t.Parallel()

	best, err := SelectBestURLs([]string{
		"https://cdn.example/foo-480p.mp4",
		"https://cdn.example/playlist.m3u8",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/playlist.m3u8", best.URL)
}

// TestSelectBestTieKeepsFirstSeen equal ranks resolve to discovery order.
func TestSelectBestTieKeepsFirstSeen(t *testing.T) {
	t.Parallel()

	best, err := SelectBestURLs([]string{
		"https://cdn.example/a-720p.mp4",
		"https://cdn.example/b-720p.mp4",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/a-720p.mp4", best.URL)
}

// TestSelectBestEmpty fails loudly when nothing was discovered.
func TestSelectBestEmpty(t *testing.T) {
	t.Parallel()

	_, err := SelectBest(nil)
	require.Error(t, err)

	_, err = SelectBestURLs([]string{"", "   "})
	require.Error(t, err)
}
