package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/ironsheep/textsnap/internal/capture"
	"github.com/ironsheep/textsnap/internal/imaging"
	"github.com/ironsheep/textsnap/internal/normalize"
	"github.com/ironsheep/textsnap/internal/ocr"
	"github.com/ironsheep/textsnap/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "snap_extract", "snap_clean").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	log := s.logger.WithField("tool", params.Name)
	start := time.Now()

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		log.WithError(err).Info("Tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	log.WithField("duration_ms", time.Since(start).Milliseconds()).Debug("Tool completed")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Text extraction
	case "snap_extract":
		return s.handleSnapExtract(ctx, args)
	case "snap_capture":
		return s.handleSnapCapture(ctx, args)

	// Pipeline stages
	case "snap_preprocess":
		return s.handleSnapPreprocess(args)
	case "snap_clean":
		return s.handleSnapClean(args)

	// Environment
	case "snap_languages":
		return s.handleSnapLanguages()
	case "snap_ocr_info":
		return ocr.Info(), nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// regionArg is an optional crop rectangle in tool arguments.
type regionArg struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// loadRegion loads path from the cache and crops it to region when given.
func (s *Server) loadRegion(path string, region *regionArg) (image.Image, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	if region == nil {
		return img, nil
	}
	return imaging.CropRegion(img, imaging.Region{X1: region.X1, Y1: region.Y1, X2: region.X2, Y2: region.Y2})
}

// extractResult is the JSON shape of snap_extract and snap_capture.
type extractResult struct {
	Text      string                  `json:"text"`
	Raw       string                  `json:"raw,omitempty"`
	Language  string                  `json:"language"`
	Summary   *imaging.CaptureSummary `json:"summary"`
	Timings   map[string]int64        `json:"timings_ms"`
	SavedPath string                  `json:"saved_path,omitempty"`
}

func newExtractResult(res *pipeline.Result, includeRaw bool) *extractResult {
	out := &extractResult{
		Text:     res.Text,
		Language: res.Language,
		Summary:  res.Summary,
		Timings: map[string]int64{
			"preprocess": res.PreprocessMs,
			"recognize":  res.RecognizeMs,
			"normalize":  res.NormalizeMs,
		},
	}
	if includeRaw {
		out.Raw = res.Raw
	}
	return out
}

// === Text Extraction Handlers ===

type snapExtractArgs struct {
	Path     string     `json:"path"`
	Region   *regionArg `json:"region,omitempty"`
	Language string     `json:"language"`
	Raw      bool       `json:"include_raw"`
}

func (s *Server) handleSnapExtract(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a snapExtractArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Language == "" {
		a.Language, _ = s.defaults()
	}

	img, err := s.loadRegion(a.Path, a.Region)
	if err != nil {
		return nil, err
	}

	res, err := s.runner.Run(ctx, img, a.Language)
	if err != nil {
		return nil, err
	}
	return newExtractResult(res, a.Raw), nil
}

type snapCaptureArgs struct {
	X1       int    `json:"x1"`
	Y1       int    `json:"y1"`
	X2       int    `json:"x2"`
	Y2       int    `json:"y2"`
	Language string `json:"language"`
	Save     bool   `json:"save"`
	Raw      bool   `json:"include_raw"`
}

func (s *Server) handleSnapCapture(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a snapCaptureArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	lang, saveDir := s.defaults()
	if a.Language == "" {
		a.Language = lang
	}

	img, err := capture.GrabFrom(s.grab, capture.Region{X1: a.X1, Y1: a.Y1, X2: a.X2, Y2: a.Y2})
	if err != nil {
		return nil, err
	}

	var saved string
	if a.Save {
		saved, err = capture.SaveCapture(img, saveDir, time.Now())
		if err != nil {
			return nil, err
		}
	}

	res, err := s.runner.Run(ctx, img, a.Language)
	if err != nil {
		if saved != "" {
			return nil, fmt.Errorf("%w (capture saved to %s)", err, saved)
		}
		return nil, err
	}

	out := newExtractResult(res, a.Raw)
	out.SavedPath = saved
	return out, nil
}

// === Pipeline Stage Handlers ===

type snapPreprocessArgs struct {
	Path   string     `json:"path"`
	Region *regionArg `json:"region,omitempty"`
}

type preprocessResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	MimeType    string `json:"mime_type"`
	ImageBase64 string `json:"image_base64"`
}

func (s *Server) handleSnapPreprocess(args json.RawMessage) (interface{}, error) {
	var a snapPreprocessArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	img, err := s.loadRegion(a.Path, a.Region)
	if err != nil {
		return nil, err
	}

	processed, err := imaging.Preprocess(img)
	if err != nil {
		return nil, err
	}
	data, err := imaging.EncodePNG(processed)
	if err != nil {
		return nil, err
	}

	return &preprocessResult{
		Width:       processed.Bounds().Dx(),
		Height:      processed.Bounds().Dy(),
		MimeType:    "image/png",
		ImageBase64: base64.StdEncoding.EncodeToString(data),
	}, nil
}

type snapCleanArgs struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Trace    bool   `json:"trace"`
}

type cleanResult struct {
	Text   string            `json:"text"`
	Stages []normalize.Stage `json:"stages,omitempty"`
}

func (s *Server) handleSnapClean(args json.RawMessage) (interface{}, error) {
	var a snapCleanArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Language == "" {
		a.Language, _ = s.defaults()
	}
	if !ocr.IsSupported(a.Language) {
		return nil, fmt.Errorf("unsupported language %q", a.Language)
	}

	n := normalize.New(a.Language)
	out := &cleanResult{Text: n.Clean(a.Text)}
	if a.Trace {
		out.Stages = n.Trace(a.Text)
	}
	return out, nil
}

// === Environment Handlers ===

func (s *Server) handleSnapLanguages() (interface{}, error) {
	lang, _ := s.defaults()
	return map[string]interface{}{
		"default":   lang,
		"supported": ocr.SupportedLanguages,
	}, nil
}
