package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"

	"github.com/ironsheep/road-vectorize-mcp/internal/batch"
	"github.com/ironsheep/road-vectorize-mcp/internal/export"
	"github.com/ironsheep/road-vectorize-mcp/internal/geometry"
	"github.com/ironsheep/road-vectorize-mcp/internal/georef"
	"github.com/ironsheep/road-vectorize-mcp/internal/morph"
	"github.com/ironsheep/road-vectorize-mcp/internal/raster"
	"github.com/ironsheep/road-vectorize-mcp/internal/render"
	"github.com/ironsheep/road-vectorize-mcp/internal/vectorize"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "vectorize", "mask_load").
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
		s.log.Info("tool failed", "tool", params.Name, "error", err)
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
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads masks from cache as needed
//  4. Runs the vectorizer and its collaborators
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Masks
	case "mask_load":
		return s.handleMaskLoad(args)
	case "mask_skeletonize":
		return s.handleMaskSkeletonize(args)

	// Vectorization
	case "vectorize":
		return s.handleVectorize(args)
	case "vectorize_overlay":
		return s.handleVectorizeOverlay(args)
	case "vectorize_export":
		return s.handleVectorizeExport(args)

	// Tiles
	case "tile_georeference":
		return s.handleTileGeoreference(args)
	case "vectorize_batch":
		return s.handleVectorizeBatch(ctx, args)

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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = []byte("{}")
	}
	return json.Unmarshal(args, v)
}

// === Shared parameters ===

// pipelineArgs are the mask preparation and vectorizer parameters shared by
// every tool that vectorizes. Pointers tell unset from zero.
type pipelineArgs struct {
	Threshold        *int     `json:"threshold"`
	Skeletonize      bool     `json:"skeletonize"`
	CloseRadius      *float64 `json:"close_radius"`
	Stride           float64  `json:"stride"`
	Tolerance        *float64 `json:"tolerance"`
	PreserveTopology *bool    `json:"preserve_topology"`
	MinLength        float64  `json:"min_length"`
}

func (a pipelineArgs) level() (uint8, error) {
	if a.Threshold == nil {
		return raster.DefaultThreshold, nil
	}
	if *a.Threshold < 0 || *a.Threshold > 255 {
		return 0, fmt.Errorf("threshold must be between 0 and 255, got %d", *a.Threshold)
	}
	return uint8(*a.Threshold), nil
}

func (a pipelineArgs) morphOptions() morph.Options {
	opts := morph.DefaultOptions()
	if a.CloseRadius != nil {
		opts.CloseRadius = *a.CloseRadius
	}
	return opts
}

func (a pipelineArgs) vectorizeOptions() vectorize.Options {
	opts := vectorize.DefaultOptions()
	if a.Stride != 0 {
		opts.Stride = a.Stride
	}
	if a.Tolerance != nil {
		opts.Tolerance = *a.Tolerance
	}
	if a.PreserveTopology != nil {
		opts.PreserveTopology = *a.PreserveTopology
	}
	opts.MinLength = a.MinLength
	return opts
}

// loadRaster reads path through the cache, binarizes it and, when asked,
// closes and thins it.
func (s *Server) loadRaster(path string, a pipelineArgs) (image.Image, *raster.Raster, error) {
	level, err := a.level()
	if err != nil {
		return nil, nil, err
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, nil, err
	}
	r := raster.Binarize(img, level)
	if a.Skeletonize {
		if r, err = morph.Prepare(r, a.morphOptions()); err != nil {
			return nil, nil, err
		}
	}
	return img, r, nil
}

func (s *Server) vectorizePath(path string, a pipelineArgs) (image.Image, *raster.Raster, *vectorize.Result, error) {
	img, r, err := s.loadRaster(path, a)
	if err != nil {
		return nil, nil, nil, err
	}
	res, err := vectorize.Vectorize(r, a.vectorizeOptions())
	if err != nil {
		return nil, nil, nil, err
	}
	return img, r, res, nil
}

func encodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// === Mask Handlers ===

type maskLoadArgs struct {
	Path      string `json:"path"`
	Threshold *int   `json:"threshold"`
}

func (s *Server) handleMaskLoad(args json.RawMessage) (interface{}, error) {
	var a maskLoadArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	level, err := pipelineArgs{Threshold: a.Threshold}.level()
	if err != nil {
		return nil, err
	}
	return raster.LoadMaskInfo(s.cache, a.Path, level)
}

type maskSkeletonizeArgs struct {
	Path        string   `json:"path"`
	Threshold   *int     `json:"threshold"`
	CloseRadius *float64 `json:"close_radius"`
	OutputPath  string   `json:"output_path"`
}

// SkeletonResult describes a thinned mask.
type SkeletonResult struct {
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	ForegroundBefore int    `json:"foreground_before"`
	ForegroundAfter  int    `json:"foreground_after"`
	OutputPath       string `json:"output_path,omitempty"`
	ImageBase64      string `json:"image_base64"`
	MimeType         string `json:"mime_type"`
}

func (s *Server) handleMaskSkeletonize(args json.RawMessage) (interface{}, error) {
	var a maskSkeletonizeArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	p := pipelineArgs{Threshold: a.Threshold, CloseRadius: a.CloseRadius}
	level, err := p.level()
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	r := raster.Binarize(img, level)
	skel, err := morph.Prepare(r, p.morphOptions())
	if err != nil {
		return nil, err
	}

	out := skel.ToImage()
	if a.OutputPath != "" {
		if err := imaging.Save(out, a.OutputPath); err != nil {
			return nil, fmt.Errorf("failed to save skeleton: %w", err)
		}
	}
	encoded, err := encodePNG(out)
	if err != nil {
		return nil, err
	}
	return &SkeletonResult{
		Width:            skel.Width,
		Height:           skel.Height,
		ForegroundBefore: r.Count(),
		ForegroundAfter:  skel.Count(),
		OutputPath:       a.OutputPath,
		ImageBase64:      encoded,
		MimeType:         "image/png",
	}, nil
}

// === Vectorization Handlers ===

type vectorizeArgs struct {
	Path string `json:"path"`
	pipelineArgs
	Format string `json:"format"`
}

// VectorizeResult is the line network of one mask in scaled pixel space.
type VectorizeResult struct {
	Stats    vectorize.Stats   `json:"stats"`
	Format   string            `json:"format"`
	Geometry *geojson.Geometry `json:"geometry,omitempty"`
	WKT      string            `json:"wkt,omitempty"`
}

func formatLines(mls orb.MultiLineString, format string) (*VectorizeResult, error) {
	switch format {
	case "", "geojson":
		return &VectorizeResult{Format: "geojson", Geometry: geojson.NewGeometry(mls)}, nil
	case "wkt":
		return &VectorizeResult{Format: "wkt", WKT: wkt.MarshalString(mls)}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (use geojson or wkt)", format)
	}
}

func (s *Server) handleVectorize(args json.RawMessage) (interface{}, error) {
	var a vectorizeArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	_, _, res, err := s.vectorizePath(a.Path, a.pipelineArgs)
	if err != nil {
		return nil, err
	}
	out, err := formatLines(res.Lines, a.Format)
	if err != nil {
		return nil, err
	}
	out.Stats = res.Stats
	return out, nil
}

type vectorizeOverlayArgs struct {
	Path string `json:"path"`
	pipelineArgs
	Zoom         int     `json:"zoom"`
	LineWidth    float64 `json:"line_width"`
	ShowVertices bool    `json:"show_vertices"`
	VertexColor  string  `json:"vertex_color"`
	Labels       bool    `json:"labels"`
	ShowSkeleton bool    `json:"show_skeleton"`
	GridSpacing  int     `json:"grid_spacing"`
	GridColor    string  `json:"grid_color"`
}

// OverlayResult is a rendered overlay plus the stats of the run behind it.
type OverlayResult struct {
	*render.OverlayResult
	Stats vectorize.Stats `json:"stats"`
}

func (s *Server) handleVectorizeOverlay(args json.RawMessage) (interface{}, error) {
	var a vectorizeOverlayArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	img, r, res, err := s.vectorizePath(a.Path, a.pipelineArgs)
	if err != nil {
		return nil, err
	}

	base := img
	if a.ShowSkeleton {
		base = r.ToImage()
	}
	opts := render.DefaultOverlayOptions()
	opts.CoordScale = res.Stats.Scale
	if a.Zoom != 0 {
		opts.Zoom = a.Zoom
	}
	if a.LineWidth != 0 {
		opts.LineWidth = a.LineWidth
	}
	if a.VertexColor != "" {
		opts.VertexColor = a.VertexColor
	}
	if a.GridColor != "" {
		opts.GridColor = a.GridColor
	}
	opts.ShowVertices = a.ShowVertices
	opts.Labels = a.Labels
	opts.GridSpacing = a.GridSpacing

	overlay, err := render.Overlay(base, res.Lines, opts)
	if err != nil {
		return nil, err
	}
	return &OverlayResult{OverlayResult: overlay, Stats: res.Stats}, nil
}

type vectorizeExportArgs struct {
	Path string `json:"path"`
	pipelineArgs
	Output       string `json:"output"`
	Georeference *bool  `json:"georeference"`
	Tile         string `json:"tile"`
	Order        string `json:"order"`
	TileSize     int    `json:"tile_size"`
	CropOverlap  bool   `json:"crop_overlap"`
	CRS          string `json:"crs"`
	ID           int    `json:"id"`
}

// ExportResult describes a written GeoJSON file.
type ExportResult struct {
	Output   string           `json:"output"`
	CRS      string           `json:"crs,omitempty"`
	Tile     *georef.Tile     `json:"tile,omitempty"`
	Affine   *geometry.Affine `json:"affine,omitempty"`
	Features int              `json:"features"`
	Stats    vectorize.Stats  `json:"stats"`
}

func (s *Server) handleVectorizeExport(args json.RawMessage) (interface{}, error) {
	var a vectorizeExportArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Output == "" {
		return nil, fmt.Errorf("output is required")
	}
	if a.TileSize == 0 {
		a.TileSize = georef.DefaultTileSize
	}
	if a.ID == 0 {
		a.ID = 1
	}
	georeference := a.Georeference == nil || *a.Georeference

	level, err := a.level()
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	result := &ExportResult{Features: 1}
	aff := geometry.Identity()
	opts := export.DefaultOptions()
	if georeference {
		order, err := georef.ParseOrder(a.Order)
		if err != nil {
			return nil, err
		}
		name := a.Tile
		if name == "" {
			name = filepath.Base(a.Path)
		}
		tile, err := georef.ParseTileName(name, order)
		if err != nil {
			return nil, err
		}
		width := img.Bounds().Dx()
		if a.CropOverlap && width > a.TileSize {
			border, err := georef.Border(width, a.TileSize)
			if err != nil {
				return nil, err
			}
			if img, err = raster.CropOverlap(img, border); err != nil {
				return nil, err
			}
			width = a.TileSize
		}
		if aff, err = georef.TileAffine(tile, width, a.TileSize); err != nil {
			return nil, err
		}
		if a.CRS != "" {
			opts.CRS = a.CRS
		}
		result.Tile = &tile
	} else {
		// Pixel space has no CRS.
		opts.CRS = ""
	}

	r := raster.Binarize(img, level)
	if a.Skeletonize {
		if r, err = morph.Prepare(r, a.morphOptions()); err != nil {
			return nil, err
		}
	}
	vopts := a.vectorizeOptions()
	res, err := vectorize.Vectorize(r, vopts)
	if err != nil {
		return nil, err
	}

	g := geometry.NewMultiLineString(res.Lines)
	if georeference {
		aff = aff.PreScale(1/vopts.Stride, 1/vopts.Stride)
		if g, err = georef.Reproject(g.Transform(aff), opts.CRS); err != nil {
			return nil, err
		}
		result.Affine = &aff
	}

	out, err := export.WriteGeoJSON(a.Output, g, a.ID, opts)
	if err != nil {
		return nil, err
	}
	result.Output = out
	result.CRS = opts.CRS
	result.Stats = res.Stats
	return result, nil
}

// === Tile Handlers ===

type tileGeoreferenceArgs struct {
	Name     string `json:"name"`
	Order    string `json:"order"`
	Width    int    `json:"width"`
	TileSize int    `json:"tile_size"`
}

// TileGeoreferenceResult places one tile on the map.
type TileGeoreferenceResult struct {
	Tile          georef.Tile     `json:"tile"`
	XYZ           [3]uint32       `json:"xyz"`
	MercatorBound [4]float64      `json:"mercator_bounds"`
	LonLatBound   [4]float64      `json:"lonlat_bounds"`
	Border        int             `json:"border"`
	PixelSize     float64         `json:"pixel_size"`
	Affine        geometry.Affine `json:"affine"`
	Coefficients  [6]float64      `json:"coefficients"`
}

func boundArray(b orb.Bound) [4]float64 {
	return [4]float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
}

func (s *Server) handleTileGeoreference(args json.RawMessage) (interface{}, error) {
	var a tileGeoreferenceArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.TileSize == 0 {
		a.TileSize = georef.DefaultTileSize
	}
	if a.Width == 0 {
		a.Width = a.TileSize
	}
	order, err := georef.ParseOrder(a.Order)
	if err != nil {
		return nil, err
	}
	tile, err := georef.ParseTileName(a.Name, order)
	if err != nil {
		return nil, err
	}
	border, err := georef.Border(a.Width, a.TileSize)
	if err != nil {
		return nil, err
	}
	aff, err := georef.TileAffine(tile, a.Width, a.TileSize)
	if err != nil {
		return nil, err
	}

	mt := tile.MapTile()
	return &TileGeoreferenceResult{
		Tile:          tile,
		XYZ:           [3]uint32{mt.X, mt.Y, uint32(mt.Z)},
		MercatorBound: boundArray(tile.MercatorBound()),
		LonLatBound:   boundArray(tile.LonLatBound()),
		Border:        border,
		PixelSize:     georef.PixelSize(tile.Z, a.TileSize),
		Affine:        aff,
		Coefficients:  aff.Coefficients(),
	}, nil
}

type vectorizeBatchArgs struct {
	InputDir  string `json:"input_dir"`
	OutputDir string `json:"output_dir"`
	Pattern   string `json:"pattern"`
	pipelineArgs
	Order       string `json:"order"`
	TileSize    int    `json:"tile_size"`
	CropOverlap bool   `json:"crop_overlap"`
	CRS         string `json:"crs"`
	Workers     int    `json:"workers"`
}

func (s *Server) handleVectorizeBatch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a vectorizeBatchArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	level, err := a.level()
	if err != nil {
		return nil, err
	}
	order, err := georef.ParseOrder(a.Order)
	if err != nil {
		return nil, err
	}

	job := batch.DefaultJob(a.InputDir, a.OutputDir)
	if a.Pattern != "" {
		job.Pattern = a.Pattern
	}
	if a.TileSize != 0 {
		job.TileSize = a.TileSize
	}
	job.Order = order
	job.Threshold = level
	job.Skeletonize = a.Skeletonize
	job.Morph = a.morphOptions()
	job.CropOverlap = a.CropOverlap
	job.Vectorize = a.vectorizeOptions()
	if a.CRS != "" {
		job.Export.CRS = a.CRS
	}
	job.Workers = s.workers
	if a.Workers > 0 {
		job.Workers = a.Workers
	}
	job.Logger = s.log.With("tool", "vectorize_batch")

	return batch.Run(ctx, job)
}
