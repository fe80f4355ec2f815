package ports

import (
	"context"

	"github.com/grovelight/leafsense/internal/core/domain"
)

// PlantAnalyzer is the inbound contract for running one image analysis.
type PlantAnalyzer interface {
	Analyze(ctx context.Context, filename string, image []byte) (domain.AnalysisRecord, error)
}

// StatusReporter reports the remote classifier's readiness for the UI.
type StatusReporter interface {
	Status(ctx context.Context) domain.ServiceState
}

// CatalogProvider exposes the active label registry and its source catalog.
type CatalogProvider interface {
	Registry() *domain.LabelRegistry
	Catalog() domain.MetadataCatalog
	Refresh(ctx context.Context) error
}

// HistoryBrowser lists the retained recent analyses.
type HistoryBrowser interface {
	Recent(ctx context.Context) ([]domain.AnalysisRecord, error)
}
