package domain

import "strings"

// HealthStatus is the canonical health state reported by the classifier.
// The probability accompanying it is always the diseased probability,
// regardless of which wire variant the deployed service speaks.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDiseased HealthStatus = "diseased"
	HealthNonCrop  HealthStatus = "non_crop"
)

// ParseHealthStatus maps a raw status or label string onto the closed
// status set. Comparison is case-insensitive. ok is false for anything
// outside the set.
func ParseHealthStatus(raw string) (HealthStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(HealthHealthy):
		return HealthHealthy, true
	case string(HealthDiseased):
		return HealthDiseased, true
	case string(HealthNonCrop):
		return HealthNonCrop, true
	default:
		return "", false
	}
}

type CropPrediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	ClassID    string  `json:"class_id,omitempty"`
}

type HealthPrediction struct {
	Status      HealthStatus `json:"status"`
	Probability float64      `json:"probability"`
}

type DiseasePrediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// PredictionResult is the single canonical shape prediction responses are
// adapted into at the transport boundary. It is immutable once validated:
// confidences stay exactly as the model reported them, and
// ProcessingTimeMs is telemetry that never participates in decisions.
type PredictionResult struct {
	Crop             CropPrediction     `json:"crop"`
	Health           HealthPrediction   `json:"health"`
	Disease          *DiseasePrediction `json:"disease"`
	ProcessingTimeMs float64            `json:"processing_time_ms,omitempty"`
}
