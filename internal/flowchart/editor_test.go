package flowchart_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/flowchart/internal/assert/helpers"
	"github.com/kode4food/flowchart/internal/config"
	"github.com/kode4food/flowchart/internal/diagnostics"
	"github.com/kode4food/flowchart/internal/flowchart"
	"github.com/kode4food/flowchart/internal/flowchart/path"
	"github.com/kode4food/flowchart/internal/store"
	"github.com/kode4food/flowchart/pkg/api"
)

func TestNew(t *testing.T) {
	helpers.WithEditor(t, func(ed *flowchart.Editor) {
		assert.NotNil(t, ed)
		assert.Equal(t, helpers.TestLessonID, ed.LessonID())
	})
}

func TestNewErrors(t *testing.T) {
	cfg := config.NewAuthoringConfig()
	deps := flowchart.Dependencies{Store: store.NewMemory()}

	ed, err := flowchart.New("", cfg, deps)
	assert.Nil(t, ed)
	assert.ErrorIs(t, err, store.ErrEmptyLessonID)

	ed, err = flowchart.New("l", cfg, flowchart.Dependencies{})
	assert.Nil(t, ed)
	assert.ErrorIs(t, err, flowchart.ErrMissingDependency)

	bad := cfg
	bad.DefaultMaxAttempts = 0
	ed, err = flowchart.New("l", bad, deps)
	assert.Nil(t, ed)
	assert.ErrorIs(t, err, flowchart.ErrInvalidConfig)
	assert.ErrorIs(t, err, config.ErrInvalidMaxAttempts)
}

func TestNewDefaultReporter(t *testing.T) {
	st := store.NewMemory()
	ed, err := flowchart.New("l", config.NewAuthoringConfig(),
		flowchart.Dependencies{Store: st},
	)
	require.NoError(t, err)

	s, err := ed.AddScreen(context.Background(), api.AddScreenRequest{})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultScreenTitle, s.Title)
}

func TestStoreFailureReported(t *testing.T) {
	st := store.NewMemory()
	col := diagnostics.NewCollector()
	ed, err := flowchart.New("l", config.NewAuthoringConfig(),
		flowchart.Dependencies{Store: st, Reporter: col},
	)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	ctx := context.Background()
	_, err = ed.AddScreen(ctx, api.AddScreenRequest{})
	assert.ErrorIs(t, err, store.ErrStoreClosed)
	_, err = ed.DeleteScreen(ctx, 1)
	assert.ErrorIs(t, err, store.ErrStoreClosed)
	_, err = ed.Verify(ctx)
	assert.ErrorIs(t, err, store.ErrStoreClosed)

	reports := col.Reports()
	require.Len(t, reports, 3)
	assert.Equal(t, "Could not add screen", reports[0].Title)
	assert.Equal(t, "Could not delete screen", reports[1].Title)
	assert.Equal(t, "Could not validate lesson", reports[2].Title)
	assert.Equal(t, "l", reports[0].Context["lessonId"])
	assert.ErrorIs(t, reports[2].Err, store.ErrStoreClosed)
}

// linearLesson is A(1) -> B(2) -> C(3), with C the end screen
func linearLesson() *api.Lesson {
	return helpers.Compiled(helpers.NewLesson(
		helpers.NewScreen(1, "A", path.AlwaysGoTo(api.ScreenRef(2))),
		helpers.NewScreen(2, "B", path.AlwaysGoTo(api.ScreenRef(3))),
		helpers.NewTypedScreen(3, "C", api.EndScreen, path.ExitActivity()),
	))
}

func questionLesson() *api.Lesson {
	return helpers.QuestionLesson()
}
