// Package api defines the shared data types of the flowchart authoring core
//
// This package contains the lesson graph (screens, sequence, page), the
// path union that connects screens, the compiled rule representation, and
// the HTTP and WebSocket messages exchanged with authoring clients
package api
