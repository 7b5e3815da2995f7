// Package pipeline defines core types shared across subsystems.
package pipeline

import (
	"time"
)

// Category classifies a source and its extracted records.
type Category string

// Canonical catalog categories.
const (
	CategoryDrama     Category = "drama"
	CategoryAnime     Category = "anime"
	CategoryFilm      Category = "film"
	CategoryBollywood Category = "bollywood"
)

// FetchStrategy selects how a document is retrieved.
type FetchStrategy string

// Fetch strategies supported by the gateway.
const (
	StrategyPlain    FetchStrategy = "plain"
	StrategyRendered FetchStrategy = "rendered"
)

// SourceDescriptor is the static configuration for one external site.
// Descriptors are loaded once at startup and never mutated.
type SourceDescriptor struct {
	ID                 string            `mapstructure:"id" json:"id"`
	DisplayName        string            `mapstructure:"display_name" json:"display_name"`
	PrimaryEndpoint    string            `mapstructure:"primary_endpoint" json:"primary_endpoint"`
	AlternateEndpoints []string          `mapstructure:"alternate_endpoints" json:"alternate_endpoints"`
	Category           Category          `mapstructure:"category" json:"category"`
	RequiresRendering  bool              `mapstructure:"requires_rendering" json:"requires_rendering"`
	Selectors          map[string]string `mapstructure:"selectors" json:"selectors"`
	ListPath           string            `mapstructure:"list_path" json:"list_path"`
	WaitSelector       string            `mapstructure:"wait_selector" json:"wait_selector"`
	MinAcceptableItems int               `mapstructure:"min_acceptable_items" json:"min_acceptable_items"`
	Priority           int               `mapstructure:"priority" json:"priority"`
	BackupSourceID     string            `mapstructure:"backup_source_id" json:"backup_source_id,omitempty"`
}

// Strategy returns the fetch strategy this source requires.
func (s SourceDescriptor) Strategy() FetchStrategy {
	if s.RequiresRendering {
		return StrategyRendered
	}
	return StrategyPlain
}

// Endpoints returns primary followed by alternates, in configured order.
func (s SourceDescriptor) Endpoints() []string {
	out := make([]string, 0, 1+len(s.AlternateEndpoints))
	if s.PrimaryEndpoint != "" {
		out = append(out, s.PrimaryEndpoint)
	}
	out = append(out, s.AlternateEndpoints...)
	return out
}

// FetchRequest captures everything needed to fetch one URL. Created per
// attempt, never persisted.
type FetchRequest struct {
	URL                     string
	Strategy                FetchStrategy
	WaitSelector            string
	BlockAuxiliaryResources bool
}

// Document is a fetched page plus retrieval metadata.
type Document struct {
	URL        string
	BaseDomain string
	Body       []byte
	StatusCode int
	FromCache  bool
	Strategy   FetchStrategy
	Duration   time.Duration
}

// ContentRecord is the canonical, source-agnostic representation of one
// media title. Immutable once emitted to aggregation; aggregation may only
// annotate Category.
type ContentRecord struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	OriginalTitle string    `json:"original_title,omitempty"`
	CanonicalURL  string    `json:"url"`
	PosterURL     string    `json:"poster,omitempty"`
	BackdropURL   string    `json:"backdrop,omitempty"`
	Year          int       `json:"year"`
	Rating        float64   `json:"rating"`
	Genres        []string  `json:"genres,omitempty"`
	Countries     []string  `json:"countries,omitempty"`
	Language      string    `json:"language,omitempty"`
	Source        string    `json:"source"`
	ContentType   string    `json:"type"`
	Category      Category  `json:"category,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ContainerKind distinguishes adaptive manifests from fixed single files.
type ContainerKind string

// Stream container kinds.
const (
	ContainerAdaptive   ContainerKind = "adaptive-stream"
	ContainerSingleFile ContainerKind = "single-file"
)

// StreamCandidate is one discovered playable-media URL before quality
// selection. Transient; produced and consumed within one detail-page
// resolution.
type StreamCandidate struct {
	URL       string        `json:"url"`
	Quality   string        `json:"quality"`
	Container ContainerKind `json:"container"`
}
