package usecase

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/grovelight/leafsense/internal/core/domain"
	"github.com/grovelight/leafsense/internal/core/ports"
)

// MetadataRefreshUseCase owns the active label registry. A refresh builds a
// complete registry from a freshly fetched catalog and swaps it in with one
// atomic store, so readers never observe a half-built registry. When the
// fetch fails the previous registry (or none at all) stays active; decision
// logic treats a missing registry as "no whitelist".
type MetadataRefreshUseCase struct {
	classifier ports.ClassifierGateway

	registry atomic.Pointer[domain.LabelRegistry]
	catalog  atomic.Pointer[domain.MetadataCatalog]
}

func NewMetadataRefreshUseCase(classifier ports.ClassifierGateway) *MetadataRefreshUseCase {
	return &MetadataRefreshUseCase{classifier: classifier}
}

func (uc *MetadataRefreshUseCase) Refresh(ctx context.Context) error {
	catalog, err := uc.classifier.FetchMetadata(ctx)
	if err != nil {
		return fmt.Errorf("fetch metadata catalog: %w", err)
	}

	registry := domain.NewLabelRegistry(catalog)
	uc.catalog.Store(&catalog)
	uc.registry.Store(registry)
	return nil
}

// Registry returns the active registry, nil until the first successful
// refresh.
func (uc *MetadataRefreshUseCase) Registry() *domain.LabelRegistry {
	return uc.registry.Load()
}

func (uc *MetadataRefreshUseCase) Catalog() domain.MetadataCatalog {
	if c := uc.catalog.Load(); c != nil {
		return *c
	}
	return domain.MetadataCatalog{}
}
