// Package flowchart is the authoring core for adaptive lesson flowcharts
package flowchart

const (
	Name    = "flowchart"
	Version = "0.1.0"
)
