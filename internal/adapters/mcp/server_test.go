package mcpadapter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/grovelight/leafsense/internal/core/domain"
)

type analyzerFake struct {
	err error
}

func (f analyzerFake) Analyze(_ context.Context, filename string, image []byte) (domain.AnalysisRecord, error) {
	if f.err != nil {
		return domain.AnalysisRecord{}, f.err
	}
	return domain.AnalysisRecord{
		ID:        "a1",
		CreatedAt: time.Now().UTC(),
		Filename:  filename,
		Outcome: domain.Outcome{
			Kind:    domain.OutcomeHealthy,
			Healthy: &domain.HealthyOutcome{CropDisplay: domain.DisplayInfo{DisplayName: "Tomato"}, Confidence: 0.97},
		},
	}, nil
}

type statusFake struct {
	state domain.ServiceState
}

func (f statusFake) Status(context.Context) domain.ServiceState { return f.state }

type catalogFake struct {
	registry   *domain.LabelRegistry
	refreshErr error
}

func (f *catalogFake) Registry() *domain.LabelRegistry { return f.registry }
func (f *catalogFake) Catalog() domain.MetadataCatalog { return domain.MetadataCatalog{} }

func (f *catalogFake) Refresh(context.Context) error {
	if f.refreshErr != nil {
		return f.refreshErr
	}
	f.registry = domain.NewLabelRegistry(domain.MetadataCatalog{
		Crops: []domain.ClassEntry{{ID: "c1", Label: "Tomato"}},
	})
	return nil
}

func toolRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatalf("expected result content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestAnalyzePlantTool(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaf.jpg")
	if err := os.WriteFile(path, []byte{0xFF, 0xD8, 0xFF}, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	srv := NewServer(analyzerFake{}, statusFake{}, &catalogFake{})
	res, err := srv.analyzePlant(context.Background(), toolRequest(map[string]any{"image_path": path}))
	if err != nil {
		t.Fatalf("expected tool result, got error %v", err)
	}
	if res.IsError {
		t.Fatalf("expected success, got tool error: %s", resultText(t, res))
	}

	text := resultText(t, res)
	if !strings.Contains(text, `"kind": "healthy"`) || !strings.Contains(text, "Tomato") {
		t.Fatalf("unexpected tool output: %s", text)
	}
}

func TestAnalyzePlantToolMissingArgument(t *testing.T) {
	srv := NewServer(analyzerFake{}, statusFake{}, &catalogFake{})
	res, err := srv.analyzePlant(context.Background(), toolRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("expected tool result, got error %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected a tool error for the missing argument")
	}
}

func TestAnalyzePlantToolUnreadableFile(t *testing.T) {
	srv := NewServer(analyzerFake{}, statusFake{}, &catalogFake{})
	res, err := srv.analyzePlant(context.Background(), toolRequest(map[string]any{
		"image_path": filepath.Join(t.TempDir(), "missing.jpg"),
	}))
	if err != nil {
		t.Fatalf("expected tool result, got error %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected a tool error for the unreadable file")
	}
}

func TestAnalyzePlantToolNormalizesFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaf.jpg")
	if err := os.WriteFile(path, []byte{0x01}, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	srv := NewServer(
		analyzerFake{err: domain.WrapError(domain.ErrModelLoading, "classify", errors.New("503"))},
		statusFake{},
		&catalogFake{},
	)
	res, err := srv.analyzePlant(context.Background(), toolRequest(map[string]any{"image_path": path}))
	if err != nil {
		t.Fatalf("expected tool result, got error %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected a tool error")
	}
	if got := resultText(t, res); got != "The model is still loading. Try again shortly." {
		t.Fatalf("expected the normalized message, got %q", got)
	}
}

func TestServiceStatusTool(t *testing.T) {
	srv := NewServer(analyzerFake{}, statusFake{state: domain.ServiceReady}, &catalogFake{})
	res, err := srv.serviceStatus(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("expected tool result, got error %v", err)
	}
	if got := resultText(t, res); got != "ready" {
		t.Fatalf("expected ready, got %q", got)
	}
}

func TestListTrainedCropsToolRefreshesOnDemand(t *testing.T) {
	catalog := &catalogFake{}
	srv := NewServer(analyzerFake{}, statusFake{}, catalog)

	res, err := srv.listTrainedCrops(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("expected tool result, got error %v", err)
	}
	if res.IsError {
		t.Fatalf("expected success, got tool error: %s", resultText(t, res))
	}
	if got := resultText(t, res); !strings.Contains(got, "Tomato") {
		t.Fatalf("expected trained crops, got %q", got)
	}
}

func TestListTrainedCropsToolReportsOffline(t *testing.T) {
	catalog := &catalogFake{refreshErr: domain.WrapError(domain.ErrOffline, "metadata", errors.New("dial tcp"))}
	srv := NewServer(analyzerFake{}, statusFake{}, catalog)

	res, err := srv.listTrainedCrops(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("expected tool result, got error %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected a tool error")
	}
	if got := resultText(t, res); got != "Plant analysis service is unreachable." {
		t.Fatalf("expected the normalized offline message, got %q", got)
	}
}
