package plantvision

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/grovelight/leafsense/internal/core/domain"
)

//go:embed contract.yaml
var contractYAML []byte

// Contract checks raw classifier payloads against the embedded OpenAPI
// document and adapts them into canonical domain values. Anything the
// document rejects surfaces as a contract violation carrying the offending
// JSON pointer; validated payloads are immutable from here on.
type Contract struct {
	prediction *openapi3.Schema
	catalog    *openapi3.Schema
}

func NewContract() (*Contract, error) {
	loader := openapi3.NewLoader()
	loader.Context = context.Background()
	doc, err := loader.LoadFromData(contractYAML)
	if err != nil {
		return nil, fmt.Errorf("load response contract: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate response contract: %w", err)
	}

	prediction, ok := doc.Components.Schemas["PredictResponse"]
	if !ok {
		return nil, fmt.Errorf("response contract is missing the PredictResponse schema")
	}
	catalog, ok := doc.Components.Schemas["MetadataCatalog"]
	if !ok {
		return nil, fmt.Errorf("response contract is missing the MetadataCatalog schema")
	}

	return &Contract{
		prediction: prediction.Value,
		catalog:    catalog.Value,
	}, nil
}

type predictPayload struct {
	Crop struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
		ClassID    string  `json:"class_id"`
	} `json:"crop"`
	Health struct {
		Status      *string  `json:"status"`
		Probability *float64 `json:"probability"`
		Label       string   `json:"label"`
		Confidence  float64  `json:"confidence"`
	} `json:"health"`
	Disease *struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	} `json:"disease"`
	ProcessingTimeMs float64 `json:"processing_time_ms"`
}

// DecodePrediction validates and adapts one classify response body.
func (c *Contract) DecodePrediction(raw []byte) (domain.PredictionResult, error) {
	if err := validateAgainst(c.prediction, raw); err != nil {
		return domain.PredictionResult{}, domain.WrapError(domain.ErrContractViolation, "prediction", err)
	}

	var payload predictPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.PredictionResult{}, domain.WrapError(domain.ErrContractViolation, "prediction", err)
	}

	health, err := adaptHealth(payload)
	if err != nil {
		return domain.PredictionResult{}, domain.WrapError(domain.ErrContractViolation, "prediction", err)
	}

	result := domain.PredictionResult{
		Crop: domain.CropPrediction{
			Label:      payload.Crop.Label,
			Confidence: payload.Crop.Confidence,
			ClassID:    payload.Crop.ClassID,
		},
		Health:           health,
		ProcessingTimeMs: payload.ProcessingTimeMs,
	}
	if payload.Disease != nil {
		result.Disease = &domain.DiseasePrediction{
			Label:      payload.Disease.Label,
			Confidence: payload.Disease.Confidence,
		}
	}
	return result, nil
}

// DecodeCatalog validates and adapts one metadata response body.
func (c *Contract) DecodeCatalog(raw []byte) (domain.MetadataCatalog, error) {
	if err := validateAgainst(c.catalog, raw); err != nil {
		return domain.MetadataCatalog{}, domain.WrapError(domain.ErrContractViolation, "metadata", err)
	}

	var catalog domain.MetadataCatalog
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return domain.MetadataCatalog{}, domain.WrapError(domain.ErrContractViolation, "metadata", err)
	}
	return catalog, nil
}

// adaptHealth folds the two accepted health shapes into the canonical one.
// The legacy {label, confidence} shape carries the winning class; the
// canonical probability is always the diseased probability, so a healthy
// legacy confidence inverts and non_crop pins to zero.
func adaptHealth(payload predictPayload) (domain.HealthPrediction, error) {
	if payload.Health.Status != nil {
		status, ok := domain.ParseHealthStatus(*payload.Health.Status)
		if !ok {
			return domain.HealthPrediction{}, fmt.Errorf("/health/status: unknown value %q", *payload.Health.Status)
		}
		var probability float64
		if payload.Health.Probability != nil {
			probability = *payload.Health.Probability
		}
		return domain.HealthPrediction{Status: status, Probability: probability}, nil
	}

	status, ok := domain.ParseHealthStatus(payload.Health.Label)
	if !ok {
		return domain.HealthPrediction{}, fmt.Errorf("/health/label: unknown value %q", payload.Health.Label)
	}
	prediction := domain.HealthPrediction{Status: status}
	switch status {
	case domain.HealthDiseased:
		prediction.Probability = payload.Health.Confidence
	case domain.HealthHealthy:
		prediction.Probability = 1 - payload.Health.Confidence
	case domain.HealthNonCrop:
		prediction.Probability = 0
	}
	return prediction, nil
}

func validateAgainst(schema *openapi3.Schema, raw []byte) error {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("malformed json: %w", err)
	}
	err := schema.VisitJSON(value, openapi3.MultiErrors())
	if err == nil {
		return nil
	}
	return errors.New(describeSchemaError(err))
}

// describeSchemaError reduces kin-openapi's error tree to one line with the
// JSON pointer of the first failing field.
func describeSchemaError(err error) string {
	var multi openapi3.MultiError
	if errors.As(err, &multi) && len(multi) > 0 {
		err = multi[0]
	}
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		reason := schemaErr.Reason
		if reason == "" {
			reason = schemaErr.Error()
		}
		if pointer := strings.Join(schemaErr.JSONPointer(), "/"); pointer != "" {
			return fmt.Sprintf("/%s: %s", pointer, reason)
		}
		return reason
	}
	return err.Error()
}
