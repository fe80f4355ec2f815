package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/grovelight/leafsense/internal/core/domain"
)

func TestRefreshBuildsRegistry(t *testing.T) {
	classifier := &classifierFake{
		catalog: domain.MetadataCatalog{
			Crops:    []domain.ClassEntry{{ID: "c1", Label: "Bell_Pepper", Description: "Sweet pepper"}},
			Diseases: []domain.ClassEntry{{ID: "d1", Label: "bacterial_spot"}},
		},
	}
	uc := NewMetadataRefreshUseCase(classifier)

	if uc.Registry() != nil {
		t.Fatalf("expected no registry before first refresh")
	}

	if err := uc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	registry := uc.Registry()
	if registry == nil {
		t.Fatalf("expected registry after refresh")
	}
	if !registry.IsTrainedCrop("bell pepper") {
		t.Fatalf("expected normalized whitelist hit")
	}
	if got := uc.Catalog(); len(got.Crops) != 1 || got.Crops[0].Label != "Bell_Pepper" {
		t.Fatalf("unexpected catalog: %+v", got)
	}
}

func TestRefreshFailureKeepsPreviousRegistry(t *testing.T) {
	classifier := &classifierFake{
		catalog: domain.MetadataCatalog{
			Crops: []domain.ClassEntry{{ID: "c1", Label: "Tomato"}},
		},
	}
	uc := NewMetadataRefreshUseCase(classifier)
	if err := uc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	before := uc.Registry()

	classifier.metadataErr = errors.New("unreachable")
	if err := uc.Refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}
	if uc.Registry() != before {
		t.Fatalf("failed refresh must keep the previous registry")
	}
}

func TestStatusMapsProbe(t *testing.T) {
	for _, state := range []domain.ServiceState{domain.ServiceReady, domain.ServiceLoading, domain.ServiceOffline} {
		uc := NewServiceStatusUseCase(&classifierFake{state: state})
		if got := uc.Status(context.Background()); got != state {
			t.Fatalf("expected %s, got %s", state, got)
		}
	}
}

func TestHistoryBrowseWithoutStore(t *testing.T) {
	uc := NewHistoryBrowseUseCase(nil, 10)
	records, err := uc.Recent(context.Background())
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty history, got %+v", records)
	}
}

func TestHistoryBrowseUsesLimit(t *testing.T) {
	history := &historyFake{}
	for _, id := range []string{"a", "b", "c"} {
		if _, err := history.Save(context.Background(), domain.AnalysisRecord{ID: id}); err != nil {
			t.Fatalf("seed history: %v", err)
		}
	}

	uc := NewHistoryBrowseUseCase(history, 2)
	records, err := uc.Recent(context.Background())
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected limit applied, got %d records", len(records))
	}
}
