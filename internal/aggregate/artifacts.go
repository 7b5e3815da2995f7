package aggregate

import (
	"github.com/calvera-dev/showfetch/internal/pipeline"
)

// Projection is the envelope shape shared by catalog artifacts.
type Projection struct {
	Count     int                      `json:"count"`
	Results   []pipeline.ContentRecord `json:"results"`
	UpdatedAt string                   `json:"updatedAt"`
}

// SearchProjection is the envelope for search index artifacts.
type SearchProjection struct {
	Count     int           `json:"count"`
	Results   []SearchEntry `json:"results"`
	UpdatedAt string        `json:"updatedAt"`
}

// GlobalSummary is the cross-category rollup artifact.
type GlobalSummary struct {
	TotalItems int                       `json:"totalItems"`
	Categories map[pipeline.Category]int `json:"categories"`
	UpdatedAt  string                    `json:"updatedAt"`
}

// Result reports what one aggregation pass produced.
type Result struct {
	TotalItems   int
	PerCategory  map[pipeline.Category]int
	SourcesRead  int
	FilesSkipped int
}
