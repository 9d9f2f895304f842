package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the map image file",
	}
}

func depthProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Quadrant split depth. 0 analyzes the whole image, depth d yields 4^d leaves. Defaults to the configured depth",
		"minimum":     0,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load a map image and return its dimensions, format and the deepest quadrant split it supports.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Coverage
		{
			Name:        "coverage_categories",
			Description: "List the color categories the classifier uses, with their inclusive channel bounds and channel order.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "coverage_analyze",
			Description: "Classify a map image by color category and return pixel counts and percentages per region. Percentages are relative to each region's own pixel total.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":  pathProperty(),
					"depth": depthProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "coverage_split",
			Description: "List the quadrant leaves of an image at a split depth, in the order coverage_analyze reports them.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":  pathProperty(),
					"depth": depthProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "coverage_sample_color",
			Description: "Get the channel values of a pixel and the categories whose bounds contain it. Use this to tune category bounds.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based from top)",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},
		{
			Name:        "coverage_crop_leaf",
			Description: "Crop one quadrant leaf and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":  pathProperty(),
					"depth": depthProperty(),
					"index": map[string]interface{}{
						"type":        "integer",
						"description": "Pre-order leaf index, as in the record IDs of coverage_analyze",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "index"},
			},
		},
		{
			Name:        "coverage_partition_overlay",
			Description: "Draw the quadrant leaf boundaries and leaf indexes over the image and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":  pathProperty(),
					"depth": depthProperty(),
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Line color as #RRGGBB. Default #FF00FF",
					},
					"show_labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw leaf indexes. Default true",
						"default":     true,
					},
				},
				"required": []string{"path"},
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
