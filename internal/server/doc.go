// Package server implements the HTTP API for authoring lesson flowcharts
//
// This package provides REST endpoints for reading and mutating a lesson's
// screens and paths, running the verifier and diagnostics, archiving
// lessons, and a WebSocket feed of committed changes
package server
