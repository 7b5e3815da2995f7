package extract

import (
	"go.uber.org/zap"

	"github.com/calvera-dev/showfetch/internal/pipeline"
)

// Engine dispatches extraction to the registered extractor for a source id,
// falling back to the generic heuristic extractor for unregistered ids.
// Registration happens once at construction; the map is read-only afterwards.
type Engine struct {
	registered map[string]pipeline.Extractor
	fallback   pipeline.Extractor
	logger     *zap.Logger
}

// NewEngine builds an Engine with the built-in source extractors registered.
func NewEngine(clock pipeline.Clock, stats *pipeline.RunStats, logger *zap.Logger) *Engine {
	e := &Engine{
		registered: make(map[string]pipeline.Extractor),
		fallback:   NewGeneric(clock, stats, logger),
		logger:     logger,
	}
	structural := NewStructural(clock, stats, logger)
	e.register("dramapulse", newDramaPulse(structural))
	e.register("animeflux", newAnimeFlux(structural))
	e.register("cinemabay", newCinemaBay(structural))
	return e
}

func (e *Engine) register(sourceID string, extractor pipeline.Extractor) {
	e.registered[sourceID] = extractor
}

// Extract implements pipeline.Extractor.
func (e *Engine) Extract(doc pipeline.Document, source pipeline.SourceDescriptor) ([]pipeline.ContentRecord, error) {
	if ex, ok := e.registered[source.ID]; ok {
		return ex.Extract(doc, source)
	}
	e.logger.Debug("no extractor registered, using generic fallback",
		zap.String("source", source.ID))
	return e.fallback.Extract(doc, source)
}
