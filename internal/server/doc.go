// Package server implements the MCP (Model Context Protocol) server for blob
// detection.
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
//   - image_load: Load an image and report its metadata
//   - detect_objects: Detect blobs repeatable across threshold levels
//   - detect_candidates: Per-level candidates before clustering
//   - list_filters: Registered filter and threshold policy names
//
// Detection tools use the server configuration unless a call names a
// config_path. A threshold override and min_dist_between_objects replace the
// matching parts of that configuration for one call.
//
// # Image Caching
//
// Decoded images are cached by path for the lifetime of the server process,
// so repeated detection on one file with different settings reads it once.
//
// # Error Handling
//
// Tool errors are returned as JSON-RPC error responses with:
//   - code: -32602 for unusable arguments, -32000 for execution failures
//   - message: Human-readable error description
//   - data: The Go error string
package server
