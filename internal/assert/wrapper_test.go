package assert_test

import (
	"testing"

	"github.com/kode4food/flowchart/internal/assert"
	"github.com/kode4food/flowchart/internal/assert/helpers"
	"github.com/kode4food/flowchart/internal/config"
	"github.com/kode4food/flowchart/internal/flowchart/path"
	"github.com/kode4food/flowchart/internal/flowchart/rules"
	"github.com/kode4food/flowchart/pkg/api"
)

func TestNew(t *testing.T) {
	w := assert.New(t)

	if w.T != t {
		t.Error("Wrapper.T should be set to the testing.T instance")
	}
	if w.Assertions == nil {
		t.Error("Wrapper.Assertions should be initialized")
	}
	if w.Require == nil {
		t.Error("Wrapper.Require should be initialized")
	}
}

func TestGraphHelpers(t *testing.T) {
	w := assert.New(t)

	a := helpers.NewScreen(1, "A",
		path.Correct("q1", api.ScreenRef(2)),
		path.EndOfActivity(),
	)
	b := helpers.NewTypedScreen(2, "B", api.EndScreen, path.ExitActivity())
	l := helpers.NewLesson(a, b)
	for i, s := range l.Screens {
		l.Screens[i] = rules.Apply(s, l.Sequence, 2)
	}

	w.PathTypes(a, api.PathCorrect, api.PathEndOfActivity)
	w.Destinations(a, 2)
	w.Destinations(b)
	w.SequenceOrder(l, 1, 2)
	w.NoDangling(l)
	w.RulesCurrent(l)
}

func TestConfigHelpers(t *testing.T) {
	w := assert.New(t)

	w.ConfigValid(config.NewDefaultConfig())
	w.ConfigValid(helpers.NewTestConfig())

	cfg := helpers.NewTestConfig()
	cfg.APIPort = 0
	w.ConfigInvalid(cfg, "invalid API port")

	cfg = helpers.NewTestConfig()
	cfg.ShutdownTimeout = 0
	w.ConfigInvalid(cfg, "")
}
