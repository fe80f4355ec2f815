package plantvision

import (
	"strings"
	"testing"

	"github.com/grovelight/leafsense/internal/core/domain"
)

func newTestContract(t *testing.T) *Contract {
	t.Helper()
	contract, err := NewContract()
	if err != nil {
		t.Fatalf("NewContract() error = %v", err)
	}
	return contract
}

func TestDecodePredictionCanonicalShape(t *testing.T) {
	contract := newTestContract(t)

	pred, err := contract.DecodePrediction([]byte(validPredictionBody))
	if err != nil {
		t.Fatalf("DecodePrediction() error = %v", err)
	}
	if pred.Crop.Label != "tomato" || pred.Crop.ClassID != "c3" {
		t.Fatalf("unexpected crop: %+v", pred.Crop)
	}
	if pred.Health.Status != domain.HealthDiseased || pred.Health.Probability != 0.82 {
		t.Fatalf("unexpected health: %+v", pred.Health)
	}
	if pred.Disease == nil || pred.Disease.Confidence != 0.88 {
		t.Fatalf("unexpected disease: %+v", pred.Disease)
	}
	if pred.ProcessingTimeMs != 41.5 {
		t.Fatalf("unexpected processing time: %v", pred.ProcessingTimeMs)
	}
}

func TestDecodePredictionNullDisease(t *testing.T) {
	contract := newTestContract(t)

	body := `{
		"crop": {"label": "tomato", "confidence": 0.99},
		"health": {"status": "healthy", "probability": 0.03},
		"disease": null
	}`
	pred, err := contract.DecodePrediction([]byte(body))
	if err != nil {
		t.Fatalf("null disease must validate: %v", err)
	}
	if pred.Disease != nil {
		t.Fatalf("expected nil disease, got %+v", pred.Disease)
	}
}

func TestDecodePredictionAbsentDiseaseKey(t *testing.T) {
	contract := newTestContract(t)

	body := `{
		"crop": {"label": "tomato", "confidence": 0.99},
		"health": {"status": "healthy", "probability": 0.03}
	}`
	_, err := contract.DecodePrediction([]byte(body))
	if !domain.IsKind(err, domain.ErrContractViolation) {
		t.Fatalf("absent disease key must violate the contract, got %v", err)
	}
	if !strings.Contains(err.Error(), "disease") {
		t.Fatalf("expected the violation to name the disease field, got %v", err)
	}
}

func TestDecodePredictionLegacyHealthShape(t *testing.T) {
	contract := newTestContract(t)

	cases := []struct {
		name            string
		health          string
		wantStatus      domain.HealthStatus
		wantProbability float64
	}{
		{"diseased", `{"label": "Diseased", "confidence": 0.9}`, domain.HealthDiseased, 0.9},
		{"healthy", `{"label": "HEALTHY", "confidence": 0.75}`, domain.HealthHealthy, 0.25},
		{"non-crop", `{"label": "non_crop", "confidence": 0.6}`, domain.HealthNonCrop, 0},
	}
	for _, tc := range cases {
		body := `{
			"crop": {"label": "tomato", "confidence": 0.99},
			"health": ` + tc.health + `,
			"disease": null
		}`
		pred, err := contract.DecodePrediction([]byte(body))
		if err != nil {
			t.Fatalf("%s: DecodePrediction() error = %v", tc.name, err)
		}
		if pred.Health.Status != tc.wantStatus {
			t.Fatalf("%s: expected status %s, got %s", tc.name, tc.wantStatus, pred.Health.Status)
		}
		if pred.Health.Probability != tc.wantProbability {
			t.Fatalf("%s: expected probability %v, got %v", tc.name, tc.wantProbability, pred.Health.Probability)
		}
	}
}

func TestDecodePredictionUnknownHealthLabel(t *testing.T) {
	contract := newTestContract(t)

	body := `{
		"crop": {"label": "tomato", "confidence": 0.99},
		"health": {"label": "wilted", "confidence": 0.9},
		"disease": null
	}`
	_, err := contract.DecodePrediction([]byte(body))
	if !domain.IsKind(err, domain.ErrContractViolation) {
		t.Fatalf("unknown legacy label must violate the contract, got %v", err)
	}
}

func TestDecodePredictionRejectsOutOfRangeConfidence(t *testing.T) {
	contract := newTestContract(t)

	body := `{
		"crop": {"label": "tomato", "confidence": 1.2},
		"health": {"status": "healthy", "probability": 0.1},
		"disease": null
	}`
	_, err := contract.DecodePrediction([]byte(body))
	if !domain.IsKind(err, domain.ErrContractViolation) {
		t.Fatalf("confidence above 1 must violate the contract, got %v", err)
	}
	if !strings.Contains(err.Error(), "confidence") {
		t.Fatalf("expected the violation to carry the field pointer, got %v", err)
	}
}

func TestDecodePredictionRejectsUnknownStatus(t *testing.T) {
	contract := newTestContract(t)

	body := `{
		"crop": {"label": "tomato", "confidence": 0.9},
		"health": {"status": "thriving", "probability": 0.1},
		"disease": null
	}`
	_, err := contract.DecodePrediction([]byte(body))
	if !domain.IsKind(err, domain.ErrContractViolation) {
		t.Fatalf("unknown status must violate the contract, got %v", err)
	}
}

func TestDecodePredictionRejectsMalformedJSON(t *testing.T) {
	contract := newTestContract(t)

	if _, err := contract.DecodePrediction([]byte(`{"crop": `)); !domain.IsKind(err, domain.ErrContractViolation) {
		t.Fatalf("malformed json must violate the contract, got %v", err)
	}
}

func TestDecodeCatalogRequiresAllCollections(t *testing.T) {
	contract := newTestContract(t)

	if _, err := contract.DecodeCatalog([]byte(`{"crops": [], "diseases": []}`)); !domain.IsKind(err, domain.ErrContractViolation) {
		t.Fatalf("missing health_statuses must violate the contract, got %v", err)
	}

	catalog, err := contract.DecodeCatalog([]byte(`{"crops": [], "diseases": [], "health_statuses": []}`))
	if err != nil {
		t.Fatalf("empty collections are valid: %v", err)
	}
	if len(catalog.Crops) != 0 {
		t.Fatalf("unexpected catalog: %+v", catalog)
	}
}
