// Package server implements the MCP (Model Context Protocol) server for
// screen text extraction.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// Logs go to stderr so they never interleave with protocol traffic.
//
// # Available Tools
//
// Text extraction:
//   - snap_extract: OCR a screenshot file, optionally cropped to a region
//   - snap_capture: Grab a screen region and OCR it
//
// Pipeline stages:
//   - snap_preprocess: The binarized image the engine sees
//   - snap_clean: Text cleanup alone, optionally traced layer by layer
//
// Environment:
//   - snap_languages: Supported and default languages
//   - snap_ocr_info: Tesseract availability and missing language models
//
// # Image Caching
//
// Files passed to snap_extract and snap_preprocess are cached by path for
// the lifetime of the server process, so repeated calls on one screenshot
// read it from disk once.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string, e.g. "empty result: engine returned \"\""
//
// # Usage
//
//	srv := server.New(server.Options{Logger: logger})
//	if err := srv.Run(ctx); err != nil {
//	    logger.Fatal(err)
//	}
package server
