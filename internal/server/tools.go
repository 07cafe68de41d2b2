package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// regionNames are the named regions accepted by the detection tools.
var regionNames = []string{
	"top-left", "top-right", "bottom-left", "bottom-right",
	"top-half", "bottom-half", "left-half", "right-half", "center",
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func configPathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Optional YAML detector configuration. Defaults to the server configuration",
	}
}

func thresholdProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "Optional threshold policy overriding the configuration",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type": "string",
				"enum": []string{"Fixed", "Range", "Otsu"},
			},
			"threshold": map[string]interface{}{
				"type":        "integer",
				"description": "Fixed: pixels above this value are foreground",
			},
			"min": map[string]interface{}{
				"type":        "integer",
				"description": "Range: first threshold",
			},
			"max": map[string]interface{}{
				"type":        "integer",
				"description": "Range: last threshold (inclusive)",
			},
			"step": map[string]interface{}{
				"type":        "integer",
				"description": "Range: distance between thresholds",
			},
			"min_repeatability": map[string]interface{}{
				"type":        "integer",
				"description": "Levels an object must appear in. Default 1",
			},
		},
		"required": []string{"type"},
	}
}

func regionProperties() map[string]interface{} {
	return map[string]interface{}{
		"region": map[string]interface{}{
			"type":        "object",
			"description": "Optional rectangle to restrict detection to. Results stay in image coordinates",
			"properties": map[string]interface{}{
				"x1": map[string]interface{}{"type": "integer"},
				"y1": map[string]interface{}{"type": "integer"},
				"x2": map[string]interface{}{"type": "integer"},
				"y2": map[string]interface{}{"type": "integer"},
			},
			"required": []string{"x1", "y1", "x2", "y2"},
		},
		"named_region": map[string]interface{}{
			"type":        "string",
			"enum":        regionNames,
			"description": "Optional named region, used when region is not given",
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	detectProps := map[string]interface{}{
		"path":        pathProperty(),
		"config_path": configPathProperty(),
		"threshold":   thresholdProperty(),
		"min_dist_between_objects": map[string]interface{}{
			"type":        "number",
			"description": "Optional distance below which candidates of different levels merge",
		},
		"annotate": map[string]interface{}{
			"type":        "boolean",
			"description": "Return the image with detected objects circled as base64 PNG",
			"default":     false,
		},
		"mark_color": map[string]interface{}{
			"type":        "string",
			"description": "Hex color for annotation circles. Default #FF0000",
		},
	}
	candidateProps := map[string]interface{}{
		"path":        pathProperty(),
		"config_path": configPathProperty(),
		"threshold":   thresholdProperty(),
	}
	for k, v := range regionProperties() {
		detectProps[k] = v
		candidateProps[k] = v
	}

	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and color depth. The decoded image is cached for later detection calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_unload",
			Description: "Drop a decoded image from the cache, or every cached image when path is omitted. Changed files are reloaded automatically.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path of the image to drop",
					},
				},
			},
		},
		{
			Name:        "detect_objects",
			Description: "Detect blobs that recur across threshold levels. Returns each object's center, diameter and the number of levels it was found in.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": detectProps,
				"required":   []string{"path"},
			},
		},
		{
			Name:        "detect_candidates",
			Description: "List the blob candidates accepted at each threshold level before they are merged into objects. Useful for tuning filters.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": candidateProps,
				"required":   []string{"path"},
			},
		},
		{
			Name:        "list_filters",
			Description: "List the available filter and threshold policy names and the server's default configuration.",
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
