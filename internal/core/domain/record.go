package domain

import "time"

// ServiceState is the tri-state readiness of the remote classifier as seen
// by the health probe. Loading and offline are deliberately distinct: the
// UI must not claim the service is down while the model is merely warming
// up.
type ServiceState string

const (
	ServiceReady   ServiceState = "ready"
	ServiceLoading ServiceState = "loading"
	ServiceOffline ServiceState = "offline"
)

// AnalysisRecord is one completed classification: the validated prediction
// plus its resolved outcome. Records flow into the best-effort history
// cache and onto the event bus; losing one never fails the analysis that
// produced it.
type AnalysisRecord struct {
	ID           string           `json:"id"`
	CreatedAt    time.Time        `json:"created_at"`
	Filename     string           `json:"filename"`
	Prediction   PredictionResult `json:"prediction"`
	Outcome      Outcome          `json:"outcome"`
	SnapshotPath string           `json:"snapshot_path,omitempty"`
}
