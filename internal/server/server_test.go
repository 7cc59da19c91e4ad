package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"image"
	"strings"
	"testing"

	"github.com/ironsheep/textsnap/internal/ocr"
	"github.com/ironsheep/textsnap/internal/pipeline"
)

// newTestServer returns a server whose OCR engine always answers text and
// whose screen is a blank image of the requested size.
func newTestServer(t *testing.T, text string) *Server {
	t.Helper()

	engine := ocr.RecognizerFunc(func(_ context.Context, _ image.Image, _ ocr.Config) (string, error) {
		return text, nil
	})
	screen := func(b image.Rectangle) (*image.RGBA, error) {
		return image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy())), nil
	}

	return New(Options{
		Runner:  pipeline.New(pipeline.Options{Recognizer: engine}),
		Capture: screen,
		SaveDir: t.TempDir(),
		Version: "1.2.3",
	})
}

func TestNew(t *testing.T) {
	s := New(Options{})
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.cache == nil {
		t.Fatal("New() did not initialize cache")
	}
	if s.runner == nil || s.grab == nil || s.logger == nil {
		t.Fatal("New() did not fill in default components")
	}
	if lang, _ := s.defaults(); lang != "spa" {
		t.Errorf("default language: got %q, want spa", lang)
	}
}

func TestSetDefaults(t *testing.T) {
	s := New(Options{})
	s.SetDefaults("eng", "/tmp/x")
	lang, dir := s.defaults()
	if lang != "eng" || dir != "/tmp/x" {
		t.Errorf("got %q %q", lang, dir)
	}

	s.SetDefaults("", "")
	if lang, _ := s.defaults(); lang != "eng" {
		t.Errorf("empty language should keep previous, got %q", lang)
	}
}

func TestMCPRequest_Unmarshal(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantID     interface{}
		wantMethod string
	}{
		{
			"string id",
			`{"jsonrpc":"2.0","id":"test-1","method":"tools/list"}`,
			"test-1",
			"tools/list",
		},
		{
			"number id",
			`{"jsonrpc":"2.0","id":42,"method":"ping"}`,
			float64(42), // JSON numbers decode as float64
			"ping",
		},
		{
			"null id",
			`{"jsonrpc":"2.0","id":null,"method":"initialize"}`,
			nil,
			"initialize",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req MCPRequest
			if err := json.Unmarshal([]byte(tt.json), &req); err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}

			if req.ID != tt.wantID {
				t.Errorf("ID: got %v (%T), want %v (%T)", req.ID, req.ID, tt.wantID, tt.wantID)
			}
			if req.Method != tt.wantMethod {
				t.Errorf("Method: got %s, want %s", req.Method, tt.wantMethod)
			}
		})
	}
}

func TestHandleRequest_Initialize(t *testing.T) {
	s := newTestServer(t, "")
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"})

	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}

	result := resp.Result.(map[string]interface{})
	if result["protocolVersion"] != "2024-11-05" {
		t.Errorf("protocolVersion: got %v", result["protocolVersion"])
	}
	info := result["serverInfo"].(map[string]interface{})
	if info["name"] != "textsnap" || info["version"] != "1.2.3" {
		t.Errorf("serverInfo: got %v", info)
	}
}

func TestHandleRequest_Ping(t *testing.T) {
	s := newTestServer(t, "")
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: "ping-1", Method: "ping"})

	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.ID != "ping-1" {
		t.Errorf("ID: got %v, want ping-1", resp.ID)
	}
}

func TestHandleRequest_NotificationsInitialized(t *testing.T) {
	s := newTestServer(t, "")
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", Method: "notifications/initialized"})

	// Notifications don't get responses
	if resp != nil {
		t.Error("notifications/initialized should return nil response")
	}
}

func TestHandleRequest_MethodNotFound(t *testing.T) {
	s := newTestServer(t, "")
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "nonexistent/method"})

	if resp == nil || resp.Error == nil {
		t.Fatal("Expected error for unknown method")
	}
	if resp.Error.Code != -32601 {
		t.Errorf("Error code: got %d, want -32601", resp.Error.Code)
	}
}

func TestServe(t *testing.T) {
	s := newTestServer(t, "Hola  mundo .")

	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`not json`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"snap_clean","arguments":{"text":"Hola  mundo ."}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"ping"}`,
	}, "\n")

	var out bytes.Buffer
	if err := s.Serve(context.Background(), strings.NewReader(in), &out); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	var responses []MCPResponse
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var r MCPResponse
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("bad response line %q: %v", sc.Text(), err)
		}
		responses = append(responses, r)
	}

	// initialize, parse error, tools/call, ping
	if len(responses) != 4 {
		t.Fatalf("got %d responses, want 4", len(responses))
	}
	if responses[1].Error == nil || responses[1].Error.Code != -32700 {
		t.Errorf("expected parse error, got %+v", responses[1])
	}
	if responses[2].Error != nil {
		t.Fatalf("tools/call failed: %+v", responses[2].Error)
	}
	if text := toolText(t, responses[2].Result); !strings.Contains(text, `"Hola mundo."`) {
		t.Errorf("unexpected tool output %s", text)
	}
	if responses[3].ID != float64(3) {
		t.Errorf("ping ID: got %v", responses[3].ID)
	}
}

func TestServe_ContextCancelled(t *testing.T) {
	s := newTestServer(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := s.Serve(ctx, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), &out)
	if err != context.Canceled {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no output, got %q", out.String())
	}
}

// toolText extracts the text payload of a tools/call result, which may be
// a decoded JSON map or the handler's own map type.
func toolText(t *testing.T, result interface{}) string {
	t.Helper()

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}
	var wrapped struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if len(wrapped.Content) != 1 || wrapped.Content[0].Type != "text" {
		t.Fatalf("unexpected content %+v", wrapped.Content)
	}
	return wrapped.Content[0].Text
}
