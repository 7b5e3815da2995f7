package extract

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/calvera-dev/showfetch/internal/pipeline"
)

// genericPatterns is the ordered list of common list-item layouts tried by
// the heuristic fallback. First pattern that yields at least one record wins.
var genericPatterns = []string{
	"ul.items > li",
	"ul.list-episode-item > li",
	"div.film-list div.item",
	"div.flw-item",
	"article.post",
	"li.video-block",
	"div.item",
	"article",
}

// Generic is the fallback extractor for sources without a registered
// implementation. It probes common structural patterns, then falls back to
// bare anchor+title+image triples.
type Generic struct {
	structural *Structural
	logger     *zap.Logger
}

// NewGeneric builds the heuristic fallback extractor.
func NewGeneric(clock pipeline.Clock, stats *pipeline.RunStats, logger *zap.Logger) *Generic {
	return &Generic{
		structural: NewStructural(clock, stats, logger),
		logger:     logger,
	}
}

// Extract implements pipeline.Extractor. A source that carries selectors is
// extracted with them directly; otherwise the pattern list is probed in
// order.
func (g *Generic) Extract(doc pipeline.Document, source pipeline.SourceDescriptor) ([]pipeline.ContentRecord, error) {
	if source.Selectors["itemContainer"] != "" {
		return g.structural.Extract(doc, source)
	}

	parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	for _, pattern := range genericPatterns {
		if parsed.Find(pattern).Length() == 0 {
			continue
		}
		probe := source
		probe.Selectors = map[string]string{"itemContainer": pattern}
		records, err := g.structural.Extract(doc, probe)
		if err != nil {
			return nil, err
		}
		if len(records) > 0 {
			g.logger.Debug("generic pattern matched",
				zap.String("source", source.ID),
				zap.String("pattern", pattern),
				zap.Int("items", len(records)))
			return records, nil
		}
	}
	return nil, nil
}
