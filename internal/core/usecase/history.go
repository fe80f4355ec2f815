package usecase

import (
	"context"

	"github.com/grovelight/leafsense/internal/core/domain"
	"github.com/grovelight/leafsense/internal/core/ports"
)

type HistoryBrowseUseCase struct {
	store ports.HistoryStore
	limit int
}

func NewHistoryBrowseUseCase(store ports.HistoryStore, limit int) *HistoryBrowseUseCase {
	if limit <= 0 {
		limit = 25
	}
	return &HistoryBrowseUseCase{store: store, limit: limit}
}

// Recent returns the retained analyses, newest first. An unconfigured
// store yields an empty history rather than an error.
func (uc *HistoryBrowseUseCase) Recent(ctx context.Context) ([]domain.AnalysisRecord, error) {
	if uc.store == nil {
		return []domain.AnalysisRecord{}, nil
	}
	return uc.store.ListRecent(ctx, uc.limit)
}
