package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/grovelight/leafsense/internal/config"
	"github.com/grovelight/leafsense/internal/core/domain"
	"github.com/grovelight/leafsense/internal/observability/metrics"
)

type analyzerFake struct {
	err error
}

func (f analyzerFake) Analyze(_ context.Context, filename string, image []byte) (domain.AnalysisRecord, error) {
	if f.err != nil {
		return domain.AnalysisRecord{}, f.err
	}
	if len(image) == 0 {
		return domain.AnalysisRecord{}, domain.WrapError(domain.ErrInvalidInput, "analyze", io.EOF)
	}
	return diseasedRecord(filename), nil
}

type statusFake struct {
	state domain.ServiceState
}

func (f statusFake) Status(context.Context) domain.ServiceState { return f.state }

type catalogFake struct {
	catalog    domain.MetadataCatalog
	registry   *domain.LabelRegistry
	refreshErr error
}

func (f *catalogFake) Registry() *domain.LabelRegistry { return f.registry }
func (f *catalogFake) Catalog() domain.MetadataCatalog { return f.catalog }

func (f *catalogFake) Refresh(context.Context) error {
	if f.refreshErr != nil {
		return f.refreshErr
	}
	f.registry = domain.NewLabelRegistry(f.catalog)
	return nil
}

type historyFake struct {
	records []domain.AnalysisRecord
	err     error
}

func (f historyFake) Recent(context.Context) ([]domain.AnalysisRecord, error) {
	return f.records, f.err
}

type exporterFake struct{}

func (exporterFake) WriteHistoryReport(w io.Writer, records []domain.AnalysisRecord) error {
	_, err := io.WriteString(w, "workbook")
	return err
}

func diseasedRecord(filename string) domain.AnalysisRecord {
	return domain.AnalysisRecord{
		ID:        "a1",
		CreatedAt: time.Date(2026, 8, 22, 10, 0, 0, 0, time.UTC),
		Filename:  filename,
		Prediction: domain.PredictionResult{
			Crop:    domain.CropPrediction{Label: "tomato", Confidence: 0.97},
			Health:  domain.HealthPrediction{Status: domain.HealthDiseased, Probability: 0.87},
			Disease: &domain.DiseasePrediction{Label: "early_blight", Confidence: 0.912},
		},
		Outcome: domain.Outcome{
			Kind: domain.OutcomeDiseased,
			Diseased: &domain.DiseasedOutcome{
				CropDisplay:       domain.DisplayInfo{DisplayName: "Tomato"},
				DiseaseDisplay:    domain.DisplayInfo{DisplayName: "Early Blight"},
				HealthConfidence:  0.87,
				DiseaseConfidence: 0.912,
			},
		},
	}
}

func sampleCatalog() domain.MetadataCatalog {
	return domain.MetadataCatalog{
		Crops: []domain.ClassEntry{
			{ID: "c1", Label: "Tomato"},
			{ID: "c2", Label: "Bell_Pepper"},
		},
		Diseases:       []domain.ClassEntry{{ID: "d1", Label: "early_blight"}},
		HealthStatuses: []domain.ClassEntry{{ID: "h1", Label: "healthy"}, {ID: "h2", Label: "diseased"}},
	}
}

func newTestHandler(cfg config.Config) http.Handler {
	catalog := &catalogFake{catalog: sampleCatalog()}
	catalog.registry = domain.NewLabelRegistry(catalog.catalog)
	return NewRouter(
		cfg,
		analyzerFake{},
		statusFake{state: domain.ServiceReady},
		catalog,
		historyFake{records: []domain.AnalysisRecord{diseasedRecord("leaf.jpg")}},
		exporterFake{},
		metrics.NewHTTPServerMetrics("test"),
	).Handler()
}

func multipartImage(t *testing.T, field, filename string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestHealthzEndpoint(t *testing.T) {
	handler := newTestHandler(config.Config{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected a request id header")
	}
}

func TestAnalyzeImageSuccess(t *testing.T) {
	handler := newTestHandler(config.Config{})

	body, contentType := multipartImage(t, "image", "leaf.jpg", []byte{0xFF, 0xD8, 0xFF})
	req := httptest.NewRequest(http.MethodPost, "/v1/analyses", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var view struct {
		ID       string `json:"id"`
		Filename string `json:"filename"`
		Result   struct {
			Kind                     string `json:"kind"`
			Crop                     string `json:"crop"`
			Disease                  string `json:"disease"`
			ConfidencePercent        int    `json:"confidence_percent"`
			DiseaseConfidencePercent int    `json:"disease_confidence_percent"`
		} `json:"result"`
	}
	if err := json.NewDecoder(res.Body).Decode(&view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if view.Filename != "leaf.jpg" {
		t.Fatalf("expected uploaded filename, got %q", view.Filename)
	}
	if view.Result.Kind != "diseased" || view.Result.Crop != "Tomato" || view.Result.Disease != "Early Blight" {
		t.Fatalf("unexpected result: %+v", view.Result)
	}
	if view.Result.ConfidencePercent != 87 || view.Result.DiseaseConfidencePercent != 91 {
		t.Fatalf("expected rounded percentages 87/91, got %d/%d",
			view.Result.ConfidencePercent, view.Result.DiseaseConfidencePercent)
	}
}

func TestAnalyzeImageMissingMultipartField(t *testing.T) {
	handler := newTestHandler(config.Config{})

	req := httptest.NewRequest(http.MethodPost, "/v1/analyses", bytes.NewBufferString("raw-bytes"))
	req.Header.Set("Content-Type", "application/octet-stream")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestAnalyzeImageRejectsOversizedUpload(t *testing.T) {
	handler := newTestHandler(config.Config{MaxUploadMB: 1})

	oversized := bytes.Repeat([]byte{0xAB}, (1<<20)+(1<<19))
	body, contentType := multipartImage(t, "image", "huge.jpg", oversized)
	req := httptest.NewRequest(http.MethodPost, "/v1/analyses", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", res.Code)
	}
}

func TestListAnalyses(t *testing.T) {
	handler := newTestHandler(config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/v1/analyses", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var resp struct {
		Analyses []analysisView `json:"analyses"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Analyses) != 1 || resp.Analyses[0].ID != "a1" {
		t.Fatalf("unexpected history payload: %+v", resp.Analyses)
	}
}

func TestExportAnalysesSetsDownloadHeaders(t *testing.T) {
	handler := newTestHandler(config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/v1/analyses/export", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if got := res.Header().Get("Content-Type"); got != xlsxContentType {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := res.Header().Get("Content-Disposition"); !strings.Contains(got, "leafsense-analyses.xlsx") {
		t.Fatalf("unexpected content disposition %q", got)
	}
	if res.Body.Len() == 0 {
		t.Fatalf("expected workbook bytes in response body")
	}
}

func TestServiceStatusEndpoint(t *testing.T) {
	handler := newTestHandler(config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["state"] != "ready" {
		t.Fatalf("expected ready state, got %q", resp["state"])
	}
}

func TestMetadataClassesEndpoint(t *testing.T) {
	handler := newTestHandler(config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/v1/metadata/classes", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var resp struct {
		Crops        []domain.ClassEntry `json:"crops"`
		TrainedCrops []string            `json:"trained_crops"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Crops) != 2 {
		t.Fatalf("expected 2 crops, got %d", len(resp.Crops))
	}
	if len(resp.TrainedCrops) != 2 {
		t.Fatalf("expected trained crop names, got %+v", resp.TrainedCrops)
	}
}

func TestMetadataClassesRefreshesOnDemand(t *testing.T) {
	catalog := &catalogFake{catalog: sampleCatalog()}
	handler := NewRouter(
		config.Config{},
		analyzerFake{},
		statusFake{state: domain.ServiceReady},
		catalog,
		historyFake{},
		exporterFake{},
		metrics.NewHTTPServerMetrics("test"),
	).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/metadata/classes", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected refresh-on-demand to succeed, got %d", res.Code)
	}
	if catalog.registry == nil {
		t.Fatalf("expected the refresh to build a registry")
	}
}

func TestAnalysesMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(config.Config{})

	req := httptest.NewRequest(http.MethodDelete, "/v1/analyses", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}
