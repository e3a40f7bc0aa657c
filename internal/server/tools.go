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
		"description": "Absolute path to the mask image",
	}
}

func thresholdProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Gray level (0-255) at or above which a pixel is foreground; 0 means any non-zero pixel. Default 128",
		"default":     128,
		"minimum":     0,
		"maximum":     255,
	}
}

func closeRadiusProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": "Radius of the disk used to close gaps before thinning. Default 2",
		"default":     2.0,
	}
}

// pipelineProperties returns the schema of the mask preparation and
// vectorizer parameters, merged with extra.
func pipelineProperties(extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"path":      pathProperty(),
		"threshold": thresholdProperty(),
		"skeletonize": map[string]interface{}{
			"type":        "boolean",
			"description": "Close and thin the mask before vectorizing. Leave off for masks that are already one pixel wide",
			"default":     false,
		},
		"close_radius": closeRadiusProperty(),
		"stride": map[string]interface{}{
			"type":        "number",
			"description": "Multiplier applied to pixel indices before the resolution correction. Default 1",
			"default":     1.0,
		},
		"tolerance": map[string]interface{}{
			"type":        "number",
			"description": "Douglas-Peucker simplification tolerance in output units; 0 disables simplification. Default 1",
			"default":     1.0,
		},
		"preserve_topology": map[string]interface{}{
			"type":        "boolean",
			"description": "Keep a vertex when dropping it would make a line cross another line. Default true",
			"default":     true,
		},
		"min_length": map[string]interface{}{
			"type":        "number",
			"description": "Remove dangling lines shorter than this after simplification; 0 disables pruning",
			"default":     0.0,
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

func tileProperties() map[string]interface{} {
	return map[string]interface{}{
		"order": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"col-row-zoom", "row-col-zoom"},
			"description": "Field order of the tile file names. Default col-row-zoom",
			"default":     "col-row-zoom",
		},
		"tile_size": map[string]interface{}{
			"type":        "integer",
			"description": "Tile width in pixels without overlap. Default 256",
			"default":     256,
		},
		"crop_overlap": map[string]interface{}{
			"type":        "boolean",
			"description": "Cut the overlap border off wider tiles before vectorizing",
			"default":     false,
		},
		"crs": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"EPSG:4326", "EPSG:3857"},
			"description": "Output CRS. Default EPSG:4326",
			"default":     "EPSG:4326",
		},
	}
}

func merge(maps ...map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

func without(m map[string]interface{}, keys ...string) map[string]interface{} {
	for _, k := range keys {
		delete(m, k)
	}
	return m
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Masks
		{
			Name:        "mask_load",
			Description: "Load a road mask image and report its size, format and foreground pixel count. The mask is cached for later calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":      pathProperty(),
					"threshold": thresholdProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "mask_skeletonize",
			Description: "Close small gaps in a mask and thin it to a one pixel wide skeleton. Returns the skeleton as base64-encoded PNG and optionally saves it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":         pathProperty(),
					"threshold":    thresholdProperty(),
					"close_radius": closeRadiusProperty(),
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to save the skeleton image",
					},
				},
				"required": []string{"path"},
			},
		},

		// Vectorization
		{
			Name:        "vectorize",
			Description: "Convert a skeletonized road mask into a simplified line network. Spurious diagonals at T-junctions are removed, chains are merged into polylines, simplified and optionally pruned of short hairs.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": pipelineProperties(map[string]interface{}{
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"geojson", "wkt"},
						"description": "Encoding of the returned MultiLineString. Default geojson",
						"default":     "geojson",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "vectorize_overlay",
			Description: "Vectorize a mask and draw the lines over it, one colour per line. Returns base64-encoded PNG for visual inspection.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": pipelineProperties(map[string]interface{}{
					"zoom": map[string]interface{}{
						"type":        "integer",
						"description": "Upsampling factor of the output (1-16). Default 4",
						"default":     4,
					},
					"line_width": map[string]interface{}{
						"type":        "number",
						"description": "Stroke width in output pixels. Default 2",
						"default":     2.0,
					},
					"show_vertices": map[string]interface{}{
						"type":        "boolean",
						"description": "Mark every vertex",
						"default":     false,
					},
					"vertex_color": map[string]interface{}{
						"type":        "string",
						"description": "Vertex marker colour in hex. Default #FFFFFF",
						"default":     "#FFFFFF",
					},
					"labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Write each line's index next to its first vertex",
						"default":     false,
					},
					"grid_spacing": map[string]interface{}{
						"type":        "integer",
						"description": "Draw a pixel grid every N mask pixels; 0 draws none",
						"default":     0,
					},
					"grid_color": map[string]interface{}{
						"type":        "string",
						"description": "Grid colour in hex (#RRGGBB or #RRGGBBAA). Default #FF000080",
						"default":     "#FF000080",
					},
					"show_skeleton": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw over the binarized (and thinned) mask instead of the source image",
						"default":     false,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "vectorize_export",
			Description: "Vectorize a mask and write the lines as a one-feature GeoJSON FeatureCollection. Tile-named masks are georeferenced from their <x>-<y>-<z> file name.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": pipelineProperties(merge(tileProperties(), map[string]interface{}{
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Output file; .geojson is appended when it has no extension",
					},
					"georeference": map[string]interface{}{
						"type":        "boolean",
						"description": "Place the lines on the map using the tile name. When false, pixel coordinates are written without a CRS. Default true",
						"default":     true,
					},
					"tile": map[string]interface{}{
						"type":        "string",
						"description": "Tile name to use instead of the mask's file name",
					},
					"id": map[string]interface{}{
						"type":        "integer",
						"description": "Feature id. Default 1",
						"default":     1,
					},
				})),
				"required": []string{"path", "output"},
			},
		},

		// Tiles
		{
			Name:        "tile_georeference",
			Description: "Parse a tile name and return its bounds, overlap border and the affine transform from pixel to EPSG:3857 coordinates.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Tile file name or path, e.g. 1205-1539-12.png",
					},
					"order":     tileProperties()["order"],
					"tile_size": tileProperties()["tile_size"],
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Image width including overlap. Default tile_size",
					},
				},
				"required": []string{"name"},
			},
		},
		{
			Name:        "vectorize_batch",
			Description: "Vectorize every tile of a directory in parallel and write one georeferenced GeoJSON file per tile. Failing tiles are reported without stopping the others.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": without(pipelineProperties(merge(tileProperties(), map[string]interface{}{
					"input_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory holding the tile masks",
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory receiving the GeoJSON files",
					},
					"pattern": map[string]interface{}{
						"type":        "string",
						"description": "Glob selecting the tiles. Default *.png",
						"default":     "*.png",
					},
					"workers": map[string]interface{}{
						"type":        "integer",
						"description": "Tiles processed at once. Default is the server setting",
					},
				})), "path"),
				"required": []string{"input_dir", "output_dir"},
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
