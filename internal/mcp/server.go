package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/formlens/formlens/internal/config"
	"github.com/formlens/formlens/internal/form"
	"github.com/formlens/formlens/internal/security"
)

// Server represents the MCP server instance
type Server struct {
	config      *config.Config
	formService *form.Service
	validator   *security.PathValidator
	mcpServer   *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, formService *form.Service) (*Server, error) {
	if formService == nil {
		return nil, fmt.Errorf("formService cannot be nil")
	}

	validator, err := security.NewPathValidator(cfg.DocumentDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:      cfg,
		formService: formService,
		validator:   validator,
		mcpServer:   mcpServer,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	// Register form discover tool
	formDiscoverTool := mcp.NewTool(
		"form_discover",
		mcp.WithDescription("Detect form fields in a PDF or scanned image and build a fillable form schema"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF or image file"),
		),
	)
	s.mcpServer.AddTool(formDiscoverTool, s.handleFormDiscover)

	// Register form fill tool
	formFillTool := mcp.NewTool(
		"form_fill",
		mcp.WithDescription("Fill detected form fields of a PDF with values and write the result"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
		mcp.WithString("values",
			mcp.Required(),
			mcp.Description("JSON object mapping field ids to values, e.g. {\"struct_0_0\":\"John Tan\"}"),
		),
		mcp.WithString("output",
			mcp.Description("Output path for the filled PDF (defaults to <path>_filled.pdf)"),
		),
	)
	s.mcpServer.AddTool(formFillTool, s.handleFormFill)
}

// Handler functions
func (s *Server) handleFormDiscover(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, path, err := s.readDocument(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.formService.Discover(ctx, form.DiscoverRequest{
		Data:     data,
		Filename: filepath.Base(path),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := s.formatDiscoverResult(path, result)
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleFormFill(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawValues, err := request.RequireString("values")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var values map[string]any
	if err := sonic.Unmarshal([]byte(rawValues), &values); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("values must be a JSON object: %v", err)), nil
	}

	data, path, err := s.readDocument(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.formService.Overlay(ctx, form.OverlayRequest{
		Data:     data,
		Filename: filepath.Base(path),
		Values:   values,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outputPath := s.outputPath(request, path)
	outputPath, err = s.validator.NormalizePath(outputPath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := os.WriteFile(outputPath, result.Data, 0o600); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to write filled PDF: %v", err)), nil
	}

	responseText := fmt.Sprintf("Filled PDF written to: %s\n", outputPath)
	responseText += fmt.Sprintf("Applied fields: %d\n", result.AppliedFields)
	if len(result.SkippedFields) > 0 {
		responseText += fmt.Sprintf("Skipped fields: %d\n", len(result.SkippedFields))
		for _, skipped := range result.SkippedFields {
			responseText += fmt.Sprintf("  %s: %s\n", skipped.ID, skipped.Reason)
		}
	}

	return mcp.NewToolResultText(responseText), nil
}

// readDocument validates the path against the document directory and loads
// the file.
func (s *Server) readDocument(path string) ([]byte, string, error) {
	normalized, err := s.validator.SanitizePath(path)
	if err != nil {
		return nil, "", err
	}

	info, err := os.Stat(normalized)
	if err != nil {
		return nil, "", fmt.Errorf("cannot access file: %w", err)
	}
	if info.Size() > s.config.MaxFileSize {
		return nil, "", fmt.Errorf("file exceeds the %d byte limit", s.config.MaxFileSize)
	}

	data, err := os.ReadFile(normalized)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	return data, normalized, nil
}

// outputPath resolves the output argument, defaulting next to the input.
func (s *Server) outputPath(request mcp.CallToolRequest, inputPath string) string {
	args := request.GetArguments()
	if out, ok := args["output"].(string); ok && out != "" {
		return out
	}
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + "_filled" + ext
}

// Formatting methods
func (s *Server) formatDiscoverResult(path string, result *form.DiscoverResult) string {
	text := fmt.Sprintf("Form analysis for: %s\n", path)
	text += fmt.Sprintf("Media type: %s\n", result.MediaType)
	text += fmt.Sprintf("Pages: %d\n", result.PageCount)
	text += fmt.Sprintf("Native form definition: %t\n", result.HasStructuredFields)
	text += fmt.Sprintf("Total fields: %d\n", result.TotalFields)

	if len(result.TypeCounts) > 0 {
		text += "\nField types:\n"
		for fieldType, count := range result.TypeCounts {
			text += fmt.Sprintf("  %s: %d\n", fieldType, count)
		}
	}

	if len(result.SkippedPages) > 0 {
		text += fmt.Sprintf("\nSkipped pages: %v\n", result.SkippedPages)
	}

	if schemaJSON, err := sonic.MarshalIndent(result.Schema, "", "  "); err == nil {
		text += "\nForm schema:\n"
		text += string(schemaJSON)
		text += "\n"
	}

	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting form MCP server in stdio mode")
		log.Printf("Document directory: %s", s.config.DocumentDirectory)
	}

	// Use the mark3labs/mcp-go server.ServeStdio function
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
