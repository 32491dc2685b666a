package assert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/flowchart/internal/config"
	"github.com/kode4food/flowchart/internal/flowchart/graph"
	"github.com/kode4food/flowchart/internal/flowchart/path"
	"github.com/kode4food/flowchart/internal/flowchart/rules"
	"github.com/kode4food/flowchart/pkg/api"
)

// Wrapper wraps testify assertions with lesson graph helpers
type Wrapper struct {
	*testing.T
	*assert.Assertions
	Require *require.Assertions
}

// New creates a new test assertion wrapper with both assert and require
// from testify plus lesson graph helpers
func New(t *testing.T) *Wrapper {
	return &Wrapper{
		T:          t,
		Assertions: assert.New(t),
		Require:    require.New(t),
	}
}

// PathTypes asserts the variant of each of the screen's paths, in order
func (w *Wrapper) PathTypes(s *api.Screen, expected ...api.PathType) {
	w.Helper()
	w.Require.NotNil(s)
	types := make([]api.PathType, len(s.Paths))
	for i, p := range s.Paths {
		types[i] = p.Base().Type
	}
	w.Equal(expected, types)
}

// Destinations asserts the destination of each of the screen's paths, in
// order. Paths without a destination are skipped
func (w *Wrapper) Destinations(s *api.Screen, expected ...api.ScreenID) {
	w.Helper()
	w.Require.NotNil(s)
	dests := []api.ScreenID{}
	for _, p := range s.Paths {
		if d := path.Destination(p); d != nil {
			dests = append(dests, *d)
		}
	}
	if expected == nil {
		expected = []api.ScreenID{}
	}
	w.Equal(expected, dests)
}

// SequenceOrder asserts the screen ids of the lesson's ordering
func (w *Wrapper) SequenceOrder(l *api.Lesson, expected ...api.ScreenID) {
	w.Helper()
	ids := make([]api.ScreenID, len(l.Sequence))
	for i, e := range l.Sequence {
		ids[i] = e.ResourceID
	}
	w.Equal(expected, ids)
}

// NoDangling asserts that every path destination names a stored screen
func (w *Wrapper) NoDangling(l *api.Lesson) {
	w.Helper()
	for _, s := range l.Screens {
		for _, p := range s.Paths {
			if d := path.Destination(p); d != nil {
				w.NotNil(l.Screen(*d),
					"screen %d routes to missing screen %d", s.ID, *d,
				)
			}
		}
	}
}

// RulesCurrent asserts that every screen's stored rules match a fresh
// compilation against the lesson's ordering
func (w *Wrapper) RulesCurrent(l *api.Lesson) {
	w.Helper()
	end := graph.New(l).DefaultEndScreenID()
	for _, s := range l.Screens {
		fresh := rules.Generate(s, l.Sequence, end)
		w.True(rules.Compare(fresh.Rules, s.Rules),
			"screen %d has stale rules", s.ID,
		)
	}
}

// ConfigValid asserts that a configuration is valid
func (w *Wrapper) ConfigValid(cfg *config.Config) {
	w.Helper()
	w.NoError(cfg.Validate())
	w.True(cfg.APIPort > 0 && cfg.APIPort <= config.MaxTCPPort)
	w.True(cfg.ShutdownTimeout > 0)
	w.True(cfg.Authoring.DefaultMaxAttempts > 0)
}

// ConfigInvalid asserts that a configuration is invalid
func (w *Wrapper) ConfigInvalid(cfg *config.Config, contains string) {
	w.Helper()
	err := cfg.Validate()
	w.Require.Error(err)
	if contains != "" {
		w.Contains(err.Error(), contains)
	}
}
