package plantvision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/grovelight/leafsense/internal/core/domain"
	"github.com/grovelight/leafsense/internal/infrastructure/resilience"
)

const (
	opClassify = "classify"
	opMetadata = "metadata"

	maxResponseBytes = 1 << 20
)

var errOfflineMode = errors.New("classifier base url is not configured")

// Client talks to the remote plant-health classifier. An empty base URL is
// a supported configuration: the constructor succeeds and every call fails
// fast with the offline kind, so the gateway can run without a classifier
// deployment behind it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	contract   *Contract
	exec       *resilience.Executor
}

func New(baseURL string, timeout time.Duration, exec *resilience.Executor) (*Client, error) {
	contract, err := NewContract()
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	if exec == nil {
		exec = resilience.NewExecutor(resilience.FixedDelay(3, 2*time.Second))
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
		contract:   contract,
		exec:       exec,
	}, nil
}

func (c *Client) Offline() bool {
	return c.baseURL == ""
}

// Classify submits one image and returns the validated prediction. The
// attempt budget and delay come from the executor; the whole image is held
// in memory so every attempt re-sends an identical form.
func (c *Client) Classify(ctx context.Context, image []byte, filename string) (domain.PredictionResult, error) {
	if c.Offline() {
		return domain.PredictionResult{}, domain.WrapError(domain.ErrOffline, opClassify, errOfflineMode)
	}
	if len(image) == 0 {
		return domain.PredictionResult{}, domain.WrapError(domain.ErrInvalidInput, opClassify, errors.New("empty image payload"))
	}

	var result domain.PredictionResult
	err := c.exec.Execute(ctx, opClassify, func(ctx context.Context) error {
		pred, err := c.predict(ctx, image, filename)
		if err != nil {
			return err
		}
		result = pred
		return nil
	}, classifyPredictError)
	if err != nil {
		return domain.PredictionResult{}, wrapClassifierError(opClassify, err)
	}
	return result, nil
}

func (c *Client) predict(ctx context.Context, image []byte, filename string) (domain.PredictionResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return domain.PredictionResult{}, fmt.Errorf("build %s form: %w", opClassify, err)
	}
	if _, err := part.Write(image); err != nil {
		return domain.PredictionResult{}, fmt.Errorf("build %s form: %w", opClassify, err)
	}
	if err := writer.Close(); err != nil {
		return domain.PredictionResult{}, fmt.Errorf("build %s form: %w", opClassify, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", body)
	if err != nil {
		return domain.PredictionResult{}, fmt.Errorf("create %s request: %w", opClassify, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.PredictionResult{}, fmt.Errorf("plantvision %s request: %w", opClassify, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.PredictionResult{}, newStatusError(opClassify, resp)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.PredictionResult{}, fmt.Errorf("read %s response: %w", opClassify, err)
	}
	return c.contract.DecodePrediction(raw)
}

// FetchMetadata pulls the class catalog. No retry budget here; the caller
// treats an unavailable catalog as fail-open and asks again later.
func (c *Client) FetchMetadata(ctx context.Context) (domain.MetadataCatalog, error) {
	if c.Offline() {
		return domain.MetadataCatalog{}, domain.WrapError(domain.ErrOffline, opMetadata, errOfflineMode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/metadata/classes", nil)
	if err != nil {
		return domain.MetadataCatalog{}, fmt.Errorf("create %s request: %w", opMetadata, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.MetadataCatalog{}, wrapClassifierError(opMetadata, fmt.Errorf("plantvision %s request: %w", opMetadata, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.MetadataCatalog{}, wrapClassifierError(opMetadata, newStatusError(opMetadata, resp))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.MetadataCatalog{}, wrapClassifierError(opMetadata, fmt.Errorf("read %s response: %w", opMetadata, err))
	}
	return c.contract.DecodeCatalog(raw)
}

// Probe reports service readiness and never errors: 200 is ready, 503 is a
// model still loading, anything else (including no response at all) is
// offline.
func (c *Client) Probe(ctx context.Context) domain.ServiceState {
	if c.Offline() {
		return domain.ServiceOffline
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return domain.ServiceOffline
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ServiceOffline
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return domain.ServiceReady
	case http.StatusServiceUnavailable:
		return domain.ServiceLoading
	default:
		return domain.ServiceOffline
	}
}

func newStatusError(operation string, resp *http.Response) *HTTPStatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &HTTPStatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Detail:     extractDetail(body),
	}
}

// extractDetail pulls the service's own {"detail": "..."} message when the
// body carries one, else the trimmed raw body.
func extractDetail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Detail) != "" {
		return strings.TrimSpace(payload.Detail)
	}
	return strings.TrimSpace(string(body))
}
