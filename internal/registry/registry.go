// Package registry holds the static catalog of source descriptors.
package registry

import (
	"fmt"
	"sort"

	"github.com/spf13/viper"

	"github.com/calvera-dev/showfetch/internal/pipeline"
)

// Registry is a read-only catalog of sources, indexed by id. Descriptors are
// loaded once at startup and never mutated afterwards.
type Registry struct {
	byID  map[string]pipeline.SourceDescriptor
	order []pipeline.SourceDescriptor
}

// New builds a Registry from descriptors, validating ids and endpoints.
func New(sources ...pipeline.SourceDescriptor) (*Registry, error) {
	byID := make(map[string]pipeline.SourceDescriptor, len(sources))
	order := make([]pipeline.SourceDescriptor, 0, len(sources))
	for _, s := range sources {
		if s.ID == "" {
			return nil, fmt.Errorf("source descriptor without id")
		}
		if s.PrimaryEndpoint == "" {
			return nil, fmt.Errorf("source %s: primary endpoint is required", s.ID)
		}
		if _, dup := byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate source id %q", s.ID)
		}
		byID[s.ID] = s
		order = append(order, s)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Priority < order[j].Priority
	})
	return &Registry{byID: byID, order: order}, nil
}

// Load builds a Registry from a descriptor file, or from the built-in table
// when path is empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return New(builtinSources()...)
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	var file struct {
		Sources []pipeline.SourceDescriptor `mapstructure:"sources"`
	}
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("unmarshal sources file: %w", err)
	}
	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("sources file %s defines no sources", path)
	}
	return New(file.Sources...)
}

// ListSources returns descriptors ordered by priority ascending. An empty
// category returns all sources; an unknown category returns an empty list.
func (r *Registry) ListSources(category pipeline.Category) []pipeline.SourceDescriptor {
	if category == "" {
		out := make([]pipeline.SourceDescriptor, len(r.order))
		copy(out, r.order)
		return out
	}
	var out []pipeline.SourceDescriptor
	for _, s := range r.order {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}

// Get returns the descriptor for id.
func (r *Registry) Get(id string) (pipeline.SourceDescriptor, bool) {
	s, ok := r.byID[id]
	return s, ok
}
