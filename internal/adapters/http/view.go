package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/grovelight/leafsense/internal/core/domain"
)

type errorResponse struct {
	Error domain.Failure `json:"error"`
}

type analysisView struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Filename  string     `json:"filename"`
	Result    resultView `json:"result"`
}

// resultView is the wire shape of a resolved outcome. Confidences become
// integer percentages here and only here; everything upstream carries raw
// floats.
type resultView struct {
	Kind                     string `json:"kind"`
	Crop                     string `json:"crop,omitempty"`
	CropDescription          string `json:"crop_description,omitempty"`
	Disease                  string `json:"disease,omitempty"`
	DiseaseDescription       string `json:"disease_description,omitempty"`
	ConfidencePercent        int    `json:"confidence_percent,omitempty"`
	DiseaseConfidencePercent int    `json:"disease_confidence_percent,omitempty"`
	Ambiguous                bool   `json:"ambiguous,omitempty"`
	Reason                   string `json:"reason,omitempty"`
	Cause                    string `json:"cause,omitempty"`
}

func newAnalysisView(record domain.AnalysisRecord) analysisView {
	return analysisView{
		ID:        record.ID,
		CreatedAt: record.CreatedAt,
		Filename:  record.Filename,
		Result:    newResultView(record.Outcome),
	}
}

func newResultView(outcome domain.Outcome) resultView {
	view := resultView{Kind: string(outcome.Kind)}

	switch outcome.Kind {
	case domain.OutcomeHealthy:
		h := outcome.Healthy
		view.Crop = h.CropDisplay.DisplayName
		view.CropDescription = h.CropDisplay.Description
		view.ConfidencePercent = domain.ClampPercent(h.Confidence)
		view.Ambiguous = h.Ambiguous
	case domain.OutcomeDiseased:
		d := outcome.Diseased
		view.Crop = d.CropDisplay.DisplayName
		view.CropDescription = d.CropDisplay.Description
		view.Disease = d.DiseaseDisplay.DisplayName
		view.DiseaseDescription = d.DiseaseDisplay.Description
		view.ConfidencePercent = domain.ClampPercent(d.HealthConfidence)
		view.DiseaseConfidencePercent = domain.ClampPercent(d.DiseaseConfidence)
		view.Ambiguous = d.Ambiguous
	case domain.OutcomeUnsupported:
		view.Reason = string(outcome.Unsupported.Reason)
	case domain.OutcomeIncomplete:
		view.Cause = outcome.Incomplete.Cause
	}
	return view
}

type metadataView struct {
	Crops          []domain.ClassEntry `json:"crops"`
	Diseases       []domain.ClassEntry `json:"diseases"`
	HealthStatuses []domain.ClassEntry `json:"health_statuses"`
	TrainedCrops   []string            `json:"trained_crops"`
}

func newMetadataView(catalog domain.MetadataCatalog, registry *domain.LabelRegistry) metadataView {
	return metadataView{
		Crops:          catalog.Crops,
		Diseases:       catalog.Diseases,
		HealthStatuses: catalog.HealthStatuses,
		TrainedCrops:   registry.TrainedCrops(),
	}
}

func failureKind(f domain.Failure) string {
	if f.Kind == nil {
		return "unknown"
	}
	return strings.ReplaceAll(f.Kind.Error(), " ", "_")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
