package fetcher

import (
	"github.com/stagecast/encore/internal/fetcher/domain"
	"github.com/stagecast/encore/internal/platform"
)

// Registry resolves the adapter for a platform.
type Registry struct {
	adapters map[platform.Platform]domain.Adapter
}

func NewRegistry(adapters ...domain.Adapter) *Registry {
	registry := &Registry{adapters: map[platform.Platform]domain.Adapter{}}
	for _, adapter := range adapters {
		if adapter == nil {
			continue
		}
		registry.adapters[adapter.Platform()] = adapter
	}
	return registry
}

func (r *Registry) Adapter(p platform.Platform) (domain.Adapter, bool) {
	if r == nil {
		return nil, false
	}
	adapter, ok := r.adapters[p]
	return adapter, ok
}
