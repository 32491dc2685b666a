package diagnostics_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/flowchart/internal/diagnostics"
)

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	r := diagnostics.NewLogReporter(logger)

	r.ReportError(context.Background(), diagnostics.Report{
		Title:   "Add screen failed",
		Message: "could not create screen",
		Err:     errors.New("boom"),
		Context: map[string]any{"from": 3},
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "Add screen failed", entry["msg"])
	assert.Equal(t, "could not create screen", entry["message"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, map[string]any{"from": 3.0}, entry["context"])
}

func TestLogReporterDefault(t *testing.T) {
	r := diagnostics.NewLogReporter(nil)
	assert.NotPanics(t, func() {
		r.ReportError(context.Background(), diagnostics.Report{Title: "x"})
	})
}

func TestCollector(t *testing.T) {
	c := diagnostics.NewCollector()
	assert.Empty(t, c.Reports())

	rs := diagnostics.Reporters{c, diagnostics.NewLogReporter(nil)}
	rs.ReportError(context.Background(), diagnostics.Report{Title: "one"})
	rs.ReportError(context.Background(), diagnostics.Report{Title: "two"})

	reports := c.Reports()
	require.Len(t, reports, 2)
	assert.Equal(t, "one", reports[0].Title)
	assert.Equal(t, "two", reports[1].Title)

	reports[0].Title = "changed"
	assert.Equal(t, "one", c.Reports()[0].Title)
}
