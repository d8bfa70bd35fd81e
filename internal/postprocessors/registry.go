package postprocessors

import (
	"fmt"
	"maps"
	"slices"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/postprocessors/chunker"
)

// chunkerName must lead every pipeline. It is the only processor that
// creates chunks rather than refining them.
const chunkerName = chunker.Name

// BuilderFunc creates a processor from its [pipeline.<name>] config table.
type BuilderFunc func(cfg map[string]any) (driven.PostProcessor, error)

// Registry resolves processor names from config into processors.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry returns a registry with nothing registered.
func NewRegistry() *Registry {
	return &Registry{builders: map[string]BuilderFunc{}}
}

// Register installs builder under name, replacing any earlier builder.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	return r.builders[name] != nil
}

// Names lists the registered processors alphabetically.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.builders))
}

// Build creates the processor registered as name.
func (r *Registry) Build(name string, cfg map[string]any) (driven.PostProcessor, error) {
	if !r.Has(name) {
		return nil, fmt.Errorf("%w: unknown processor %q (known: %v)", domain.ErrInvalidInput, name, r.Names())
	}
	proc, err := r.builders[name](cfg)
	if err != nil {
		return nil, fmt.Errorf("build processor %s: %w", name, err)
	}
	return proc, nil
}

// BuildPipeline builds names, in order, into a pipeline. configs is keyed
// by processor name; a processor without an entry gets nil config.
func (r *Registry) BuildPipeline(names []string, configs map[string]map[string]any) (*Pipeline, error) {
	switch {
	case len(names) == 0:
		return nil, fmt.Errorf("%w: pipeline has no processors", domain.ErrInvalidInput)
	case names[0] != chunkerName:
		return nil, fmt.Errorf("%w: pipeline must start with the %s, got %q", domain.ErrInvalidInput, chunkerName, names[0])
	}

	procs := make([]driven.PostProcessor, 0, len(names))
	for _, name := range names {
		proc, err := r.Build(name, configs[name])
		if err != nil {
			return nil, err
		}
		procs = append(procs, proc)
	}
	return NewPipeline(procs...), nil
}
