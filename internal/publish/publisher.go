package publish

import (
	"context"
	"fmt"
	"sort"

	"github.com/agusespa/diffscribe/internal/report"
)

// Publisher persists a rendered page. A page with the same title as an existing
// one replaces it; otherwise a new page is created. The returned id identifies the
// page on the backend.
type Publisher interface {
	Publish(ctx context.Context, page report.Page) (string, error)
}

type Target string

const (
	TargetConfluence Target = "confluence"
	TargetMDX        Target = "mdx"
)

// Registry maps output targets to their publisher and renderer
type Registry struct {
	publishers map[Target]Publisher
	renderers  map[Target]report.Renderer
}

func NewRegistry() *Registry {
	return &Registry{
		publishers: make(map[Target]Publisher),
		renderers:  make(map[Target]report.Renderer),
	}
}

func (r *Registry) Register(target Target, renderer report.Renderer, publisher Publisher) {
	r.renderers[target] = renderer
	r.publishers[target] = publisher
}

func (r *Registry) Get(target Target) (report.Renderer, Publisher, error) {
	publisher, exists := r.publishers[target]
	if !exists {
		return nil, nil, fmt.Errorf("no publisher registered for output target %q (available: %v)", target, r.Targets())
	}
	return r.renderers[target], publisher, nil
}

func (r *Registry) Targets() []Target {
	targets := make([]Target, 0, len(r.publishers))
	for target := range r.publishers {
		targets = append(targets, target)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
	return targets
}
