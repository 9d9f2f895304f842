package server

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/ironsheep/map-coverage/internal/analysis"
	"github.com/ironsheep/map-coverage/internal/classify"
	"github.com/ironsheep/map-coverage/internal/imaging"
	"github.com/ironsheep/map-coverage/internal/partition"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "coverage_analyze").
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

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

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
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Coverage
	case "coverage_categories":
		return s.handleCoverageCategories()
	case "coverage_analyze":
		return s.handleCoverageAnalyze(ctx, args)
	case "coverage_split":
		return s.handleCoverageSplit(args)
	case "coverage_sample_color":
		return s.handleCoverageSampleColor(args)
	case "coverage_crop_leaf":
		return s.handleCoverageCropLeaf(args)
	case "coverage_partition_overlay":
		return s.handleCoveragePartitionOverlay(args)

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
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Coverage Handlers ===

type categoriesResult struct {
	ChannelOrder string              `json:"channel_order"`
	Categories   []classify.Category `json:"categories"`
}

func (s *Server) handleCoverageCategories() (interface{}, error) {
	return &categoriesResult{
		ChannelOrder: string(s.order),
		Categories:   s.analyzer.Table(),
	}, nil
}

type coverageArgs struct {
	Path  string `json:"path"`
	Depth *int   `json:"depth"`
}

func (s *Server) depthOrDefault(d *int) int {
	if d == nil {
		return s.depth
	}
	return *d
}

// leaves loads path and returns its leaves at the requested depth.
func (s *Server) leaves(path string, depth int) ([]partition.Leaf, error) {
	r, err := imaging.LoadRaster(s.cache, path, s.order)
	if err != nil {
		return nil, err
	}
	return partition.Leaves(r.Whole(), depth)
}

type analyzeResult struct {
	Path    string            `json:"path"`
	Depth   int               `json:"depth"`
	Columns []string          `json:"columns"`
	Records []analysis.Record `json:"records"`
}

func (s *Server) handleCoverageAnalyze(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a coverageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	depth := s.depthOrDefault(a.Depth)

	r, err := imaging.LoadRaster(s.cache, a.Path, s.order)
	if err != nil {
		return nil, err
	}
	records, err := s.analyzer.Analyze(ctx, filepath.Base(a.Path), r.Whole(), depth)
	if err != nil {
		return nil, err
	}

	return &analyzeResult{
		Path:    a.Path,
		Depth:   depth,
		Columns: records[0].Columns(),
		Records: records,
	}, nil
}

type leafInfo struct {
	Index  int    `json:"index"`
	Path   string `json:"path"`
	X0     int    `json:"x0"`
	Y0     int    `json:"y0"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type splitResult struct {
	Depth  int        `json:"depth"`
	Leaves []leafInfo `json:"leaves"`
}

func (s *Server) handleCoverageSplit(args json.RawMessage) (interface{}, error) {
	var a coverageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	depth := s.depthOrDefault(a.Depth)

	leaves, err := s.leaves(a.Path, depth)
	if err != nil {
		return nil, err
	}

	out := make([]leafInfo, len(leaves))
	for i, l := range leaves {
		out[i] = leafInfo{
			Index:  l.Index,
			Path:   l.PathString(),
			X0:     l.Region.X0,
			Y0:     l.Region.Y0,
			Width:  l.Region.Width,
			Height: l.Region.Height,
		}
	}
	return &splitResult{Depth: depth, Leaves: out}, nil
}

type sampleColorArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleCoverageSampleColor(args json.RawMessage) (interface{}, error) {
	var a sampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(img, a.X, a.Y, s.order, s.analyzer.Table())
}

type cropLeafArgs struct {
	Path  string  `json:"path"`
	Depth *int    `json:"depth"`
	Index int     `json:"index"`
	Scale float64 `json:"scale"`
}

func (s *Server) handleCoverageCropLeaf(args json.RawMessage) (interface{}, error) {
	var a cropLeafArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	leaves, err := s.leaves(a.Path, s.depthOrDefault(a.Depth))
	if err != nil {
		return nil, err
	}
	if a.Index < 0 || a.Index >= len(leaves) {
		return nil, fmt.Errorf("leaf index %d out of range [0, %d)", a.Index, len(leaves))
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Crop(img, leaves[a.Index].Region.Bounds(), a.Scale)
}

type overlayArgs struct {
	Path       string `json:"path"`
	Depth      *int   `json:"depth"`
	Color      string `json:"color"`
	ShowLabels *bool  `json:"show_labels"`
}

func (s *Server) handleCoveragePartitionOverlay(args json.RawMessage) (interface{}, error) {
	var a overlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	showLabels := true
	if a.ShowLabels != nil {
		showLabels = *a.ShowLabels
	}

	leaves, err := s.leaves(a.Path, s.depthOrDefault(a.Depth))
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.PartitionOverlay(img, leaves, showLabels, a.Color)
}
