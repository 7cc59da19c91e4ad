package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func languageProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "OCR language code. Defaults to the configured language (spa unless changed)",
		"enum":        []string{"spa", "eng", "fra", "por"},
	}
}

func coordinateProperties() map[string]interface{} {
	return map[string]interface{}{
		"x1": map[string]interface{}{
			"type":        "integer",
			"description": "Left edge X coordinate (0-based)",
		},
		"y1": map[string]interface{}{
			"type":        "integer",
			"description": "Top edge Y coordinate (0-based)",
		},
		"x2": map[string]interface{}{
			"type":        "integer",
			"description": "Right edge X coordinate (exclusive)",
		},
		"y2": map[string]interface{}{
			"type":        "integer",
			"description": "Bottom edge Y coordinate (exclusive)",
		},
	}
}

func regionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "Optional region to crop before processing. Whole image if omitted",
		"properties":  coordinateProperties(),
		"required":    []string{"x1", "y1", "x2", "y2"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	captureProps := coordinateProperties()
	captureProps["language"] = languageProperty()
	captureProps["save"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Also save the captured region as captura_YYYYMMDD_HHMMSS.png in the configured save directory",
		"default":     false,
	}
	captureProps["include_raw"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Include the OCR engine output before text cleanup",
		"default":     false,
	}

	return []Tool{
		// Text extraction
		{
			Name:        "snap_extract",
			Description: "Extract clean, readable text from a screenshot file. The image is binarized for OCR, recognized with Tesseract, and the text is repaired (punctuation spacing, split decimals, list numbering, common misreads).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"region":   regionProperty(),
					"language": languageProperty(),
					"include_raw": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the OCR engine output before text cleanup",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "snap_capture",
			Description: "Capture a rectangular region of the screen and extract its text. The region must be at least 20x20 pixels; corners may be given in any order.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": captureProps,
				"required":   []string{"x1", "y1", "x2", "y2"},
			},
		},

		// Pipeline stages
		{
			Name:        "snap_preprocess",
			Description: "Return the binarized image exactly as the OCR engine sees it, as base64-encoded PNG. Text is white on black, scaled to 800 pixels wide. Use this to diagnose poor recognition.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"region": regionProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "snap_clean",
			Description: "Apply the OCR text cleanup to arbitrary text without running OCR.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Raw OCR text to clean",
					},
					"language": languageProperty(),
					"trace": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the text after each cleanup layer",
						"default":     false,
					},
				},
				"required": []string{"text"},
			},
		},

		// Environment
		{
			Name:        "snap_languages",
			Description: "List the supported OCR languages and the current default.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "snap_ocr_info",
			Description: "Report whether Tesseract is installed, its version, and which supported languages are missing.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
