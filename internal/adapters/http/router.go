package httpadapter

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/grovelight/leafsense/internal/config"
	"github.com/grovelight/leafsense/internal/core/domain"
	"github.com/grovelight/leafsense/internal/core/ports"
	"github.com/grovelight/leafsense/internal/observability/metrics"
)

const (
	serviceName      = "api"
	backpressureWait = 1 * time.Second
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Router struct {
	cfg      config.Config
	analyzer ports.PlantAnalyzer
	status   ports.StatusReporter
	catalog  ports.CatalogProvider
	history  ports.HistoryBrowser
	exporter ports.ReportExporter
	metrics  *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	analyzer ports.PlantAnalyzer,
	status ports.StatusReporter,
	catalog ports.CatalogProvider,
	history ports.HistoryBrowser,
	exporter ports.ReportExporter,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:      cfg,
		analyzer: analyzer,
		status:   status,
		catalog:  catalog,
		history:  history,
		exporter: exporter,
		metrics:  m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/analyses", rt.analyses)
	mux.HandleFunc("/v1/analyses/export", rt.exportAnalyses)
	mux.HandleFunc("/v1/status", rt.serviceStatus)
	mux.HandleFunc("/v1/metadata/classes", rt.metadataClasses)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, backpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) analyses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.analyzeImage(w, r)
	case http.MethodGet:
		rt.listAnalyses(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) analyzeImage(w http.ResponseWriter, r *http.Request) {
	maxUploadMB := rt.cfg.MaxUploadMB
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxUploadMB)<<20)

	file, fileHeader, err := r.FormFile("image")
	if err != nil {
		// Pre-1.19 callers matched this error by string; the multipart
		// reader still surfaces it unwrapped on some paths.
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error": fmt.Sprintf("image exceeds the %d MB upload limit", maxUploadMB),
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'image' is required"})
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable image payload"})
		return
	}

	start := time.Now()
	record, err := rt.analyzer.Analyze(r.Context(), fileHeader.Filename, image)
	if err != nil {
		failure := domain.Normalize(err)
		if rt.metrics != nil {
			rt.metrics.RecordAnalysisFailure(serviceName, failureKind(failure))
		}
		writeJSON(w, mapErrorToHTTPStatus(err), errorResponse{Error: failure})
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordAnalysis(serviceName, string(record.Outcome.Kind), time.Since(start))
		rt.metrics.RecordConfidence(serviceName, "crop", record.Prediction.Crop.Confidence)
		rt.metrics.RecordConfidence(serviceName, "health", record.Prediction.Health.Probability)
		if record.Prediction.Disease != nil {
			rt.metrics.RecordConfidence(serviceName, "disease", record.Prediction.Disease.Confidence)
		}
	}
	writeJSON(w, http.StatusOK, newAnalysisView(record))
}

func (rt *Router) listAnalyses(w http.ResponseWriter, r *http.Request) {
	records, err := rt.history.Recent(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history is unavailable"})
		return
	}

	views := make([]analysisView, 0, len(records))
	for _, record := range records {
		views = append(views, newAnalysisView(record))
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": views})
}

func (rt *Router) exportAnalyses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	records, err := rt.history.Recent(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history is unavailable"})
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="leafsense-analyses.xlsx"`)
	if err := rt.exporter.WriteHistoryReport(w, records); err != nil {
		// Headers are already on the wire; all we can do is log.
		slog.Error("history_export_failed", "error", err)
	}
}

func (rt *Router) serviceStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	state := rt.status.Status(r.Context())
	if rt.metrics != nil {
		rt.metrics.RecordProbe(serviceName, string(state))
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": string(state)})
}

func (rt *Router) metadataClasses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	// A failed startup refresh is recoverable: retry on demand before
	// reporting the catalog.
	if rt.catalog.Registry() == nil {
		if err := rt.catalog.Refresh(r.Context()); err != nil {
			writeJSON(w, mapErrorToHTTPStatus(err), errorResponse{Error: domain.Normalize(err)})
			return
		}
	}
	writeJSON(w, http.StatusOK, newMetadataView(rt.catalog.Catalog(), rt.catalog.Registry()))
}
