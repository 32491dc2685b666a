package diagnostics

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/kode4food/flowchart/pkg/log"
)

type (
	// Reporter surfaces operation failures to the author
	Reporter interface {
		ReportError(ctx context.Context, r Report)
	}

	// Report describes one failed authoring operation
	Report struct {
		Err     error
		Context map[string]any
		Title   string
		Message string
	}

	// LogReporter writes reports to a structured logger
	LogReporter struct {
		logger *slog.Logger
	}

	// Collector keeps every report in memory, in arrival order
	Collector struct {
		reports []Report
		mu      sync.Mutex
	}

	// Reporters fans a report out to several sinks
	Reporters []Reporter
)

var (
	_ Reporter = (*LogReporter)(nil)
	_ Reporter = (*Collector)(nil)
	_ Reporter = Reporters(nil)
)

// NewLogReporter creates a reporter that logs through the given logger, or
// the default logger when nil
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger}
}

func (r *LogReporter) ReportError(ctx context.Context, rep Report) {
	attrs := []any{
		slog.String("message", rep.Message),
		log.Error(rep.Err),
	}
	if len(rep.Context) > 0 {
		attrs = append(attrs, slog.Any("context", rep.Context))
	}
	r.logger.ErrorContext(ctx, rep.Title, attrs...)
}

// NewCollector creates an empty in-memory reporter
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) ReportError(_ context.Context, rep Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, rep)
}

// Reports returns a copy of every report received so far
func (c *Collector) Reports() []Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.reports)
}

func (r Reporters) ReportError(ctx context.Context, rep Report) {
	for _, rr := range r {
		rr.ReportError(ctx, rep)
	}
}
