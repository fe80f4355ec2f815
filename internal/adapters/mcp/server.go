package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/grovelight/leafsense/internal/core/domain"
	"github.com/grovelight/leafsense/internal/core/ports"
)

// maxImageBytes mirrors the HTTP upload cap.
const maxImageBytes = 10 << 20

// Server exposes the analysis core as MCP tools so assistants can run
// classifications against local image files.
type Server struct {
	analyzer ports.PlantAnalyzer
	status   ports.StatusReporter
	catalog  ports.CatalogProvider
}

func NewServer(analyzer ports.PlantAnalyzer, status ports.StatusReporter, catalog ports.CatalogProvider) *Server {
	return &Server{
		analyzer: analyzer,
		status:   status,
		catalog:  catalog,
	}
}

func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer(
		"leafsense",
		"1.1.0",
		server.WithToolCapabilities(false),
	)

	srv.AddTool(mcp.NewTool("analyze_plant",
		mcp.WithDescription("Classify the crop and health state of a leaf photo."),
		mcp.WithString("image_path",
			mcp.Required(),
			mcp.Description("Path to the image file on disk"),
		),
	), s.analyzePlant)

	srv.AddTool(mcp.NewTool("service_status",
		mcp.WithDescription("Report whether the remote classifier is ready, loading, or offline."),
	), s.serviceStatus)

	srv.AddTool(mcp.NewTool("list_trained_crops",
		mcp.WithDescription("List the crop types the classifier was trained on."),
	), s.listTrainedCrops)

	return srv
}

func (s *Server) analyzePlant(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("image_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("image not readable: %v", err)), nil
	}
	if info.Size() > maxImageBytes {
		return mcp.NewToolResultError("image exceeds the 10 MB limit"), nil
	}

	image, err := os.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read image: %v", err)), nil
	}

	record, err := s.analyzer.Analyze(ctx, filepath.Base(path), image)
	if err != nil {
		return mcp.NewToolResultError(domain.Normalize(err).Message), nil
	}

	payload, err := json.MarshalIndent(record.Outcome, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode outcome: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) serviceStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(string(s.status.Status(ctx))), nil
}

func (s *Server) listTrainedCrops(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.catalog.Registry() == nil {
		if err := s.catalog.Refresh(ctx); err != nil {
			return mcp.NewToolResultError(domain.Normalize(err).Message), nil
		}
	}

	crops := s.catalog.Registry().TrainedCrops()
	if len(crops) == 0 {
		return mcp.NewToolResultText("The service did not report a crop whitelist."), nil
	}
	payload, err := json.Marshal(crops)
	if err != nil {
		return nil, fmt.Errorf("encode crops: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}
