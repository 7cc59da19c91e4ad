package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/textsnap/internal/capture"
	"github.com/ironsheep/textsnap/internal/imaging"
	"github.com/ironsheep/textsnap/internal/jobs"
	"github.com/ironsheep/textsnap/internal/logging"
	"github.com/ironsheep/textsnap/internal/ocr"
	"github.com/ironsheep/textsnap/internal/pipeline"
)

// Server handles MCP protocol communication
type Server struct {
	cache   *imaging.ImageCache
	runner  jobs.Runner
	grab    capture.Source
	logger  *logrus.Logger
	version string

	mu       sync.RWMutex
	language string
	saveDir  string
}

// Options configures a Server. Zero values select the production
// components.
type Options struct {
	Runner   jobs.Runner
	Capture  capture.Source
	Language string
	SaveDir  string
	Version  string
	Logger   *logrus.Logger
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance
func New(opts Options) *Server {
	s := &Server{
		cache:    imaging.NewImageCache(),
		runner:   opts.Runner,
		grab:     opts.Capture,
		logger:   opts.Logger,
		version:  opts.Version,
		language: opts.Language,
		saveDir:  opts.SaveDir,
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if s.runner == nil {
		s.runner = pipeline.New(pipeline.Options{Logger: s.logger})
	}
	if s.grab == nil {
		s.grab = capture.Screen
	}
	if s.language == "" {
		s.language = ocr.DefaultLanguage
	}
	if s.version == "" {
		s.version = "dev"
	}
	return s
}

// SetDefaults replaces the language and save directory used when a tool
// call does not name them. Safe to call while the server runs.
func (s *Server) SetDefaults(language, saveDir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if language != "" {
		s.language = language
	}
	s.saveDir = saveDir
}

func (s *Server) defaults() (language, saveDir string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language, s.saveDir
}

// Run serves MCP on stdin and stdout until stdin closes or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads line-delimited JSON-RPC requests from in and writes
// responses to out. Requests are handled one at a time, in order.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.WithError(err).Warn("Failed to parse request")
			if err := encoder.Encode(s.errorResponse(nil, -32700, "Parse error", err.Error())); err != nil {
				return fmt.Errorf("failed to encode response: %w", err)
			}
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				return fmt.Errorf("failed to encode response: %w", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.logger.WithField("method", req.Method).Debug("Request received")

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "textsnap",
				"version": s.version,
			},
		},
	}
}
