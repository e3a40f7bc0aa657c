// Package server implements the MCP (Model Context Protocol) server for road
// mask vectorization.
//
// This package provides a JSON-RPC 2.0 server that exposes the vectorizer
// and its collaborators through the MCP protocol, so that an assistant can
// turn skeletonized road masks into line networks, inspect them and export
// them as georeferenced GeoJSON.
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
// # Available Tools
//
// Masks:
//   - mask_load: Load a mask and count its foreground
//   - mask_skeletonize: Close and thin a mask
//
// Vectorization:
//   - vectorize: Mask to MultiLineString (GeoJSON or WKT)
//   - vectorize_overlay: Lines drawn over the mask
//   - vectorize_export: Lines written to a GeoJSON file
//
// Tiles:
//   - tile_georeference: Bounds and affine transform of a tile name
//   - vectorize_batch: Parallel export of a directory of tiles
//
// # Mask Caching
//
// Masks are decoded once and cached by path for the lifetime of the server
// process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(server.Config{Logger: logger})
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
