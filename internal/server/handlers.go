package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/blob-detector-mcp/internal/config"
	"github.com/ironsheep/blob-detector-mcp/internal/detector"
	"github.com/ironsheep/blob-detector-mcp/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "detect_objects").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// paramError marks tool arguments that could not be used. It is reported
// with the invalid params code instead of as a tool failure.
type paramError struct {
	err error
}

func (e *paramError) Error() string { return e.err.Error() }
func (e *paramError) Unwrap() error { return e.err }

func invalidParams(format string, args ...interface{}) error {
	return &paramError{err: fmt.Errorf(format, args...)}
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Bad arguments return code -32602 and execution errors return -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	log := s.log.WithField("tool", params.Name)
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		var pe *paramError
		if errors.As(err, &pe) {
			log.WithError(err).Debug("Rejected tool arguments")
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		log.WithError(err).Warn("Tool execution failed")
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
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
	case "image_load":
		return s.handleImageLoad(args)
	case "image_unload":
		return s.handleImageUnload(args)
	case "detect_objects":
		return s.handleDetectObjects(ctx, args)
	case "detect_candidates":
		return s.handleDetectCandidates(ctx, args)
	case "list_filters":
		return s.handleListFilters()
	default:
		return nil, invalidParams("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments, treating missing arguments as empty.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return &paramError{err: fmt.Errorf("invalid arguments: %w", err)}
	}
	return nil
}

// === Image Information ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, invalidParams("path is required")
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type imageUnloadArgs struct {
	Path string `json:"path"`
}

// ImageUnloadResult reports what was dropped from the image cache.
type ImageUnloadResult struct {
	Path    string `json:"path,omitempty"`
	Cleared bool   `json:"cleared"`
	Cached  int    `json:"cached"`
}

// handleImageUnload evicts one path, or every cached image when no path is
// given.
func (s *Server) handleImageUnload(args json.RawMessage) (interface{}, error) {
	var a imageUnloadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		s.cache.Clear()
	} else {
		s.cache.Evict(a.Path)
	}
	s.log.WithField("path", a.Path).Debug("Unloaded cached images")
	return &ImageUnloadResult{Path: a.Path, Cleared: a.Path == "", Cached: s.cache.Len()}, nil
}

// === Detection ===

// thresholdArgs overrides the configured threshold policy. Unset fields fall
// back to the policy defaults.
type thresholdArgs struct {
	Type             string `json:"type"`
	Threshold        *int   `json:"threshold,omitempty"`
	Min              *int   `json:"min,omitempty"`
	Max              *int   `json:"max,omitempty"`
	Step             *int   `json:"step,omitempty"`
	MinRepeatability *int   `json:"min_repeatability,omitempty"`
}

// spec converts the override to a configuration record.
func (t *thresholdArgs) spec() config.ThresholdSpec {
	attrs := config.Attributes{}
	for key, v := range map[string]*int{
		"threshold":        t.Threshold,
		"min":              t.Min,
		"max":              t.Max,
		"step":             t.Step,
		"minRepeatability": t.MinRepeatability,
	} {
		if v != nil {
			attrs[key] = *v
		}
	}
	return config.ThresholdSpec{Type: t.Type, Attributes: attrs}
}

type detectArgs struct {
	Path                  string          `json:"path"`
	ConfigPath            string          `json:"config_path,omitempty"`
	Threshold             *thresholdArgs  `json:"threshold,omitempty"`
	MinDistBetweenObjects *float64        `json:"min_dist_between_objects,omitempty"`
	Region                *imaging.Region `json:"region,omitempty"`
	NamedRegion           string          `json:"named_region,omitempty"`
	Annotate              bool            `json:"annotate,omitempty"`
	MarkColor             string          `json:"mark_color,omitempty"`
}

// ObjectResult is one detected object in image coordinates.
type ObjectResult struct {
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Size          float64 `json:"size"`
	Repeatability int     `json:"repeatability"`
}

// DetectObjectsResult is the detect_objects response.
type DetectObjectsResult struct {
	Objects   []ObjectResult          `json:"objects"`
	Count     int                     `json:"count"`
	Policy    string                  `json:"policy"`
	Region    *imaging.Region         `json:"region,omitempty"`
	Annotated *imaging.AnnotateResult `json:"annotated,omitempty"`
}

// CenterResult is one candidate in image coordinates.
type CenterResult struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Radius     float64 `json:"radius"`
	Confidence float64 `json:"confidence"`
}

// LevelResult lists the candidates of one threshold level.
type LevelResult struct {
	Threshold uint8          `json:"threshold"`
	Centers   []CenterResult `json:"centers"`
}

// DetectCandidatesResult is the detect_candidates response.
type DetectCandidatesResult struct {
	Levels []LevelResult   `json:"levels"`
	Policy string          `json:"policy"`
	Region *imaging.Region `json:"region,omitempty"`
}

// ListFiltersResult is the list_filters response.
type ListFiltersResult struct {
	Filters  []string       `json:"filters"`
	Policies []string       `json:"policies"`
	Default  *config.Config `json:"default"`
}

// prepared holds what every detection tool needs before running.
type prepared struct {
	detector *detector.Detector
	source   image.Image
	input    image.Image
	region   *imaging.Region
	policy   string
}

// offset maps a position in input back to source coordinates.
func (p *prepared) offset(x, y float64) (float64, float64) {
	if p.region == nil {
		return x, y
	}
	return x + float64(p.region.X1), y + float64(p.region.Y1)
}

// prepare resolves the configuration, builds a detector and loads the image,
// cropped to the requested region.
func (s *Server) prepare(a *detectArgs) (*prepared, error) {
	if a.Path == "" {
		return nil, invalidParams("path is required")
	}

	cfg := s.config
	if a.ConfigPath != "" {
		loaded, err := config.Load(a.ConfigPath, s.registry)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	override := *cfg
	if a.Threshold != nil {
		override.Threshold = a.Threshold.spec()
	}
	if a.MinDistBetweenObjects != nil {
		override.MinDistBetweenObjects = *a.MinDistBetweenObjects
	}

	d, err := override.Build(s.registry,
		detector.WithLogger(s.log),
		detector.WithConcurrency(s.concurrency),
	)
	if err != nil {
		return nil, &paramError{err: err}
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	p := &prepared{detector: d, source: img, input: img, policy: override.Threshold.Type}

	region := a.Region
	if region == nil && a.NamedRegion != "" {
		r, err := imaging.NamedRegion(img.Bounds(), a.NamedRegion)
		if err != nil {
			return nil, &paramError{err: err}
		}
		region = &r
	}
	if region != nil {
		// Cropping converts to 8-bit, so depth is checked on the source.
		if imaging.IsHighDepth(img) {
			return nil, fmt.Errorf("%w: %T", detector.ErrUnsupportedDepth, img)
		}
		cropped, err := imaging.CropRegion(img, *region)
		if err != nil {
			return nil, &paramError{err: err}
		}
		p.input = cropped
		p.region = region
	}
	return p, nil
}

func (s *Server) handleDetectObjects(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p, err := s.prepare(&a)
	if err != nil {
		return nil, err
	}

	objects, err := p.detector.Detect(ctx, p.input)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}

	result := &DetectObjectsResult{
		Objects: make([]ObjectResult, 0, len(objects)),
		Count:   len(objects),
		Policy:  p.policy,
		Region:  p.region,
	}
	marks := make([]imaging.Mark, 0, len(objects))
	for _, o := range objects {
		x, y := p.offset(o.Location.X, o.Location.Y)
		result.Objects = append(result.Objects, ObjectResult{
			X:             x,
			Y:             y,
			Size:          o.Size,
			Repeatability: o.Repeatability,
		})
		marks = append(marks, imaging.Mark{
			X:      x,
			Y:      y,
			Radius: o.Size / 2,
			Label:  strconv.Itoa(o.Repeatability),
		})
	}

	if a.Annotate {
		annotated, err := imaging.Annotate(p.source, marks, a.MarkColor)
		if err != nil {
			return nil, err
		}
		result.Annotated = annotated
	}

	s.log.WithFields(logrus.Fields{
		"path":    a.Path,
		"objects": result.Count,
		"policy":  p.policy,
	}).Info("Detected objects")
	return result, nil
}

func (s *Server) handleDetectCandidates(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p, err := s.prepare(&a)
	if err != nil {
		return nil, err
	}

	levels, err := p.detector.Candidates(ctx, p.input)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}

	result := &DetectCandidatesResult{
		Levels: make([]LevelResult, 0, len(levels)),
		Policy: p.policy,
		Region: p.region,
	}
	for _, level := range levels {
		lr := LevelResult{Threshold: level.Threshold, Centers: make([]CenterResult, 0, len(level.Centers))}
		for _, c := range level.Centers {
			x, y := p.offset(c.Location.X, c.Location.Y)
			lr.Centers = append(lr.Centers, CenterResult{X: x, Y: y, Radius: c.Radius, Confidence: c.Confidence})
		}
		result.Levels = append(result.Levels, lr)
	}
	return result, nil
}

func (s *Server) handleListFilters() (interface{}, error) {
	return &ListFiltersResult{
		Filters:  s.registry.FilterNames(),
		Policies: s.registry.PolicyNames(),
		Default:  s.config,
	}, nil
}
