package flowchart_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/flowchart/internal/assert/helpers"
	"github.com/kode4food/flowchart/internal/flowchart"
	"github.com/kode4food/flowchart/internal/flowchart/path"
	"github.com/kode4food/flowchart/pkg/api"

	fa "github.com/kode4food/flowchart/internal/assert"
)

func TestDeleteScreenRewires(t *testing.T) {
	helpers.WithTestEnv(t, func(env *helpers.TestEditorEnv) {
		w := fa.New(t)
		env.Seed(t, linearLesson())

		rewired, err := env.Editor.DeleteScreen(context.Background(), 2)
		require.NoError(t, err)
		assert.Equal(t, []api.ScreenID{1}, rewired)

		l := env.Lesson(t)
		assert.Nil(t, l.Screen(2))
		w.SequenceOrder(l, 1, 3)
		a := l.Screen(1)
		w.PathTypes(a, api.PathAlwaysGoTo)
		w.Destinations(a, 3)
		assert.True(t, a.Paths[0].Base().Completed)
		w.NoDangling(l)
		w.RulesCurrent(l)

		assert.Equal(t,
			[]api.EventType{api.EventTypeScreenDeleted}, env.Events.Types(),
		)
	})
}

func TestDeleteScreenSeveralDestinations(t *testing.T) {
	helpers.WithTestEnv(t, func(env *helpers.TestEditorEnv) {
		w := fa.New(t)
		l := questionLesson()
		l.Screens = append(l.Screens,
			helpers.NewScreen(4, "Remedial", path.AlwaysGoTo(api.ScreenRef(3))),
		)
		l.Sequence = append(l.Sequence, helpers.NewSequenceEntry(l.Screens[3]))
		l.Screen(2).Paths = api.Paths{
			path.Correct("q1", api.ScreenRef(3)),
			path.Incorrect("q1", api.ScreenRef(4)),
		}
		env.Seed(t, helpers.Compiled(l))

		_, err := env.Editor.DeleteScreen(context.Background(), 2)
		require.NoError(t, err)

		welcome := env.Lesson(t).Screen(1)
		w.PathTypes(welcome, api.PathUnknownReason, api.PathUnknownReason)
		w.Destinations(welcome, 3, 4)
	})
}

func TestDeleteScreenKeepsOtherBranches(t *testing.T) {
	helpers.WithTestEnv(t, func(env *helpers.TestEditorEnv) {
		w := fa.New(t)
		l := questionLesson()
		l.Screens = append(l.Screens,
			helpers.NewScreen(4, "Detour", path.AlwaysGoTo(api.ScreenRef(3))),
		)
		l.Sequence = append(l.Sequence, helpers.NewSequenceEntry(l.Screens[3]))
		l.Screen(2).Paths = api.Paths{
			path.Correct("q1", api.ScreenRef(3)),
			path.Incorrect("q1", api.ScreenRef(4)),
		}
		env.Seed(t, helpers.Compiled(l))

		_, err := env.Editor.DeleteScreen(context.Background(), 4)
		require.NoError(t, err)

		q := env.Lesson(t).Screen(2)
		w.PathTypes(q, api.PathCorrect, api.PathUnknownReason)
		w.Destinations(q, 3, 3)
	})
}

func TestDeleteScreenWithoutDestinations(t *testing.T) {
	helpers.WithTestEnv(t, func(env *helpers.TestEditorEnv) {
		w := fa.New(t)
		env.Seed(t, helpers.Compiled(helpers.NewLesson(
			helpers.NewScreen(1, "A", path.AlwaysGoTo(api.ScreenRef(2))),
			helpers.NewScreen(2, "B", path.EndOfActivity()),
		)))

		_, err := env.Editor.DeleteScreen(context.Background(), 2)
		require.NoError(t, err)
		w.PathTypes(env.Lesson(t).Screen(1), api.PathEndOfActivity)
	})
}

func TestDeleteScreenSelfLoop(t *testing.T) {
	helpers.WithTestEnv(t, func(env *helpers.TestEditorEnv) {
		w := fa.New(t)
		env.Seed(t, helpers.Compiled(helpers.NewLesson(
			helpers.NewScreen(1, "A", path.AlwaysGoTo(api.ScreenRef(2))),
			helpers.NewScreen(2, "B",
				path.Correct("q1", api.ScreenRef(2)),
				path.Incorrect("q1", api.ScreenRef(3)),
			),
			helpers.NewTypedScreen(3, "C", api.EndScreen, path.ExitActivity()),
		)))

		rewired, err := env.Editor.DeleteScreen(context.Background(), 2)
		require.NoError(t, err)
		assert.Equal(t, []api.ScreenID{1}, rewired)
		w.Destinations(env.Lesson(t).Screen(1), 3)
	})
}

func TestDeleteEndScreenRecompiles(t *testing.T) {
	helpers.WithTestEnv(t, func(env *helpers.TestEditorEnv) {
		w := fa.New(t)
		env.Seed(t, helpers.Compiled(helpers.NewLesson(
			helpers.NewScreen(1, "A", path.EndOfActivity()),
			helpers.NewTypedScreen(2, "End", api.EndScreen,
				path.ExitActivity(),
			),
		)))

		rewired, err := env.Editor.DeleteScreen(context.Background(), 2)
		require.NoError(t, err)
		assert.Empty(t, rewired)

		l := env.Lesson(t)
		w.SequenceOrder(l, 1)
		w.RulesCurrent(l)
	})
}

func TestDeleteScreenErrors(t *testing.T) {
	helpers.WithTestEnv(t, func(env *helpers.TestEditorEnv) {
		ctx := context.Background()
		env.Seed(t, helpers.NewLesson(
			helpers.NewScreen(1, "Only", path.EndOfActivity()),
		))

		_, err := env.Editor.DeleteScreen(ctx, 9)
		assert.ErrorIs(t, err, flowchart.ErrScreenNotFound)

		_, err = env.Editor.DeleteScreen(ctx, 1)
		assert.ErrorIs(t, err, flowchart.ErrLastScreen)
		assert.NotNil(t, env.Lesson(t).Screen(1))

		reports := env.Collector.Reports()
		require.Len(t, reports, 2)
		assert.Equal(t, "Could not delete screen", reports[1].Title)
		assert.Equal(t, api.ScreenID(1), reports[1].Context["screenId"])
	})
}
