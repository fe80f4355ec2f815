package ports

import (
	"context"
	"io"

	"github.com/grovelight/leafsense/internal/core/domain"
)

// ClassifierGateway talks to the remote plant-health classifier.
type ClassifierGateway interface {
	Classify(ctx context.Context, image []byte, filename string) (domain.PredictionResult, error)
	FetchMetadata(ctx context.Context) (domain.MetadataCatalog, error)
	Probe(ctx context.Context) domain.ServiceState
	Offline() bool
}

// HistoryStore keeps the bounded most-recent analysis history. Save trims
// the store to its bound and returns the snapshot paths of displaced
// entries so their images can be released.
type HistoryStore interface {
	Save(ctx context.Context, record domain.AnalysisRecord) (evictedSnapshots []string, err error)
	ListRecent(ctx context.Context, limit int) ([]domain.AnalysisRecord, error)
}

// AnalysisEvents publishes and consumes completed-analysis events.
type AnalysisEvents interface {
	PublishAnalysisCompleted(ctx context.Context, record domain.AnalysisRecord) error
	SubscribeAnalysisCompleted(ctx context.Context, handler func(context.Context, domain.AnalysisRecord) error) error
}

// SnapshotStore keeps the uploaded image for each retained history entry.
type SnapshotStore interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// ReportExporter renders a set of analyses into a downloadable report.
type ReportExporter interface {
	WriteHistoryReport(w io.Writer, records []domain.AnalysisRecord) error
}
