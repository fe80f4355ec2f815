package usecase

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grovelight/leafsense/internal/core/domain"
	"github.com/grovelight/leafsense/internal/core/ports"
)

// AnalyzePlantUseCase runs one classify-resolve-record round trip. Only the
// classify leg can fail the request; snapshots, history and events are
// best-effort and never surface to the caller.
type AnalyzePlantUseCase struct {
	classifier ports.ClassifierGateway
	catalog    ports.CatalogProvider
	history    ports.HistoryStore
	snapshots  ports.SnapshotStore
	events     ports.AnalysisEvents
	policy     domain.DecisionPolicy
}

func NewAnalyzePlantUseCase(
	classifier ports.ClassifierGateway,
	catalog ports.CatalogProvider,
	history ports.HistoryStore,
	snapshots ports.SnapshotStore,
	events ports.AnalysisEvents,
	policy domain.DecisionPolicy,
) *AnalyzePlantUseCase {
	return &AnalyzePlantUseCase{
		classifier: classifier,
		catalog:    catalog,
		history:    history,
		snapshots:  snapshots,
		events:     events,
		policy:     policy.Normalize(),
	}
}

func (uc *AnalyzePlantUseCase) Analyze(ctx context.Context, filename string, image []byte) (domain.AnalysisRecord, error) {
	prediction, err := uc.classifier.Classify(ctx, image, filename)
	if err != nil {
		return domain.AnalysisRecord{}, err
	}

	outcome := domain.Resolve(prediction, uc.catalog.Registry(), uc.policy)
	record := domain.AnalysisRecord{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Filename:   filename,
		Prediction: prediction,
		Outcome:    outcome,
	}

	uc.keepSnapshot(ctx, &record, image)
	uc.keepHistory(ctx, record)
	uc.publish(ctx, record)

	return record, nil
}

func (uc *AnalyzePlantUseCase) keepSnapshot(ctx context.Context, record *domain.AnalysisRecord, image []byte) {
	if uc.snapshots == nil {
		return
	}
	key := record.ID + snapshotExt(record.Filename)
	if err := uc.snapshots.Save(ctx, key, bytes.NewReader(image)); err != nil {
		slog.Warn("snapshot_save_failed", "analysis_id", record.ID, "error", err)
		return
	}
	record.SnapshotPath = key
}

func (uc *AnalyzePlantUseCase) keepHistory(ctx context.Context, record domain.AnalysisRecord) {
	if uc.history == nil {
		return
	}
	evicted, err := uc.history.Save(ctx, record)
	if err != nil {
		slog.Warn("history_save_failed", "analysis_id", record.ID, "error", err)
		return
	}
	if uc.snapshots == nil {
		return
	}
	for _, key := range evicted {
		if key == "" {
			continue
		}
		if err := uc.snapshots.Remove(ctx, key); err != nil {
			slog.Warn("snapshot_remove_failed", "snapshot", key, "error", err)
		}
	}
}

func (uc *AnalyzePlantUseCase) publish(ctx context.Context, record domain.AnalysisRecord) {
	if uc.events == nil {
		return
	}
	if err := uc.events.PublishAnalysisCompleted(ctx, record); err != nil {
		slog.Warn("analysis_event_publish_failed", "analysis_id", record.ID, "error", err)
	}
}

func snapshotExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".bmp", ".gif":
		return ext
	default:
		return ".bin"
	}
}
