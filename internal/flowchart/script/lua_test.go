package script_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/flowchart/internal/assert/helpers"
	"github.com/kode4food/flowchart/internal/flowchart/path"
	"github.com/kode4food/flowchart/internal/flowchart/rules"
	"github.com/kode4food/flowchart/internal/flowchart/script"
	"github.com/kode4food/flowchart/pkg/api"
)

func TestCompileExpression(t *testing.T) {
	env := script.NewLuaEnv()

	c, err := env.CompileExpression("1 + 2 == 3")
	assert.NoError(t, err)
	assert.NotNil(t, c)
	assert.Contains(t, c.Source(), "return (1 + 2 == 3)")

	ok, err := env.Evaluate(c, nil)
	assert.NoError(t, err)
	assert.True(t, ok)

	_, err = env.CompileExpression("1 +")
	assert.ErrorIs(t, err, script.ErrLuaLoad)
}

func TestCompileCache(t *testing.T) {
	env := script.NewLuaEnv()

	a, err := env.CompileExpression("true")
	require.NoError(t, err)
	b, err := env.CompileExpression("true")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestSandbox(t *testing.T) {
	env := script.NewLuaEnv()

	c, err := env.CompileExpression("os == nil and io == nil")
	require.NoError(t, err)
	ok, err := env.Evaluate(c, nil)
	assert.NoError(t, err)
	assert.True(t, ok)

	c, err = env.CompileExpression("os.exit()")
	require.NoError(t, err)
	_, err = env.Evaluate(c, nil)
	assert.ErrorIs(t, err, script.ErrLuaExecution)
}

func TestEvaluateConditions(t *testing.T) {
	env := script.NewLuaEnv()

	tests := []struct {
		name     string
		cond     *api.Condition
		facts    map[string]any
		expected bool
	}{
		{
			name:     "equal_number",
			cond:     cond("a", api.OpEqual, 2),
			facts:    map[string]any{"a": 2.0},
			expected: true,
		},
		{
			name:     "equal_missing",
			cond:     cond("a", api.OpEqual, 2),
			facts:    map[string]any{},
			expected: false,
		},
		{
			name:     "not_equal_missing",
			cond:     cond("a", api.OpNotEqual, 2),
			facts:    map[string]any{},
			expected: true,
		},
		{
			name:     "equal_bool",
			cond:     cond("a", api.OpEqual, true),
			facts:    map[string]any{"a": true},
			expected: true,
		},
		{
			name:     "in_range",
			cond:     cond("a", api.OpInRange, []any{3.0, 7.0}),
			facts:    map[string]any{"a": 7},
			expected: true,
		},
		{
			name:     "not_in_range",
			cond:     cond("a", api.OpNotInRange, []any{3.0, 7.0}),
			facts:    map[string]any{"a": 7.5},
			expected: true,
		},
		{
			name:     "is_unordered",
			cond:     cond("a", api.OpIs, []any{1, 2}),
			facts:    map[string]any{"a": []int{2, 1}},
			expected: true,
		},
		{
			name:     "is_extra_choice",
			cond:     cond("a", api.OpIs, []any{1, 2}),
			facts:    map[string]any{"a": []int{1, 2, 3}},
			expected: false,
		},
		{
			name:     "contains_choice",
			cond:     cond("a", api.OpContains, 3),
			facts:    map[string]any{"a": []any{1, 3}},
			expected: true,
		},
		{
			name:     "contains_text",
			cond:     cond("a", api.OpContains, "Cat"),
			facts:    map[string]any{"a": "the cat sat"},
			expected: true,
		},
		{
			name:     "not_contains_text",
			cond:     cond("a", api.OpNotContains, "dog"),
			facts:    map[string]any{"a": "the cat sat"},
			expected: true,
		},
		{
			name:     "greater_than_inclusive",
			cond:     cond("a", api.OpGreaterThanInclusive, 1),
			facts:    map[string]any{"a": 1},
			expected: true,
		},
		{
			name:     "less_than",
			cond:     cond("a", api.OpLessThan, 1),
			facts:    map[string]any{"a": 0},
			expected: true,
		},
		{
			name:     "quoted_fact",
			cond:     cond("a\"b", api.OpEqual, "x\ny"),
			facts:    map[string]any{"a\"b": "x\ny"},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &api.Rule{
				ID:         "r:test",
				Conditions: api.Conditions{All: []*api.Condition{tt.cond}},
			}
			c, err := env.CompileRule(r)
			require.NoError(t, err)

			res, err := env.Evaluate(c, tt.facts)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, res)
		})
	}
}

func TestCompileRuleErrors(t *testing.T) {
	env := script.NewLuaEnv()

	_, err := env.CompileRule(&api.Rule{
		Conditions: api.Conditions{
			All: []*api.Condition{cond("a", "between", 1)},
		},
	})
	assert.ErrorIs(t, err, script.ErrUnknownOperator)

	_, err = env.CompileRule(&api.Rule{
		Conditions: api.Conditions{
			Any: []*api.Condition{cond("a", api.OpEqual, struct{}{})},
		},
	})
	assert.ErrorIs(t, err, script.ErrUnsupportedValue)
}

func TestPreviewAnyOf(t *testing.T) {
	env := script.NewLuaEnv()
	r := &api.Rule{
		ID: "r:any",
		Conditions: api.Conditions{
			Any: []*api.Condition{
				cond("a", api.OpEqual, 1),
				cond("b", api.OpEqual, 1),
			},
		},
	}
	fallback := &api.Rule{ID: "r:default", Default: true}
	disabled := &api.Rule{ID: "r:off", Disabled: true}
	rs := []*api.Rule{disabled, fallback, r}

	res, err := env.Preview(rs, map[string]any{"b": 1})
	assert.NoError(t, err)
	assert.Equal(t, r, res)

	res, err = env.Preview(rs, map[string]any{"b": 2})
	assert.NoError(t, err)
	assert.Equal(t, fallback, res)

	res, err = env.Preview(rs[:1], nil)
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestPreviewCompiledScreens(t *testing.T) {
	env := script.NewLuaEnv()

	tests := []struct {
		name     string
		screen   *api.Screen
		facts    map[string]any
		expected string
	}{
		{
			name:     "mcq_correct",
			screen:   mcqScreen(),
			facts:    map[string]any{"stage.q1.selectedChoice": 2},
			expected: "correct",
		},
		{
			name:     "mcq_common_error",
			screen:   mcqScreen(),
			facts:    map[string]any{"stage.q1.selectedChoice": 1},
			expected: "common-error-1",
		},
		{
			name:     "mcq_incorrect",
			screen:   mcqScreen(),
			facts:    map[string]any{"stage.q1.selectedChoice": 3},
			expected: "incorrect",
		},
		{
			name:     "mcq_unanswered",
			screen:   mcqScreen(),
			facts:    map[string]any{},
			expected: "incorrect",
		},
		{
			name:     "cata_correct_any_order",
			screen:   cataScreen(),
			facts:    map[string]any{"stage.c1.selectedChoices": []int{2, 1}},
			expected: "correct",
		},
		{
			name:   "cata_common_error",
			screen: cataScreen(),
			facts: map[string]any{
				"stage.c1.selectedChoices": []int{1, 2, 3},
			},
			expected: "common-error-3",
		},
		{
			name:     "cata_incorrect",
			screen:   cataScreen(),
			facts:    map[string]any{"stage.c1.selectedChoices": []int{1}},
			expected: "incorrect",
		},
		{
			name:     "slider_inside",
			screen:   sliderScreen(),
			facts:    map[string]any{"stage.s1.value": 5},
			expected: "correct",
		},
		{
			name:     "slider_outside",
			screen:   sliderScreen(),
			facts:    map[string]any{"stage.s1.value": 9},
			expected: "incorrect",
		},
		{
			name:   "text_correct",
			screen: textScreen(),
			facts: map[string]any{
				"stage.t1.text":       "A Cat and a dog",
				"stage.t1.textLength": 15,
			},
			expected: "correct",
		},
		{
			name:   "text_missing_term",
			screen: textScreen(),
			facts: map[string]any{
				"stage.t1.text":       "only a cat here",
				"stage.t1.textLength": 15,
			},
			expected: "incorrect",
		},
		{
			name:   "text_too_short",
			screen: textScreen(),
			facts: map[string]any{
				"stage.t1.text":       "catdog",
				"stage.t1.textLength": 3,
			},
			expected: "incorrect",
		},
		{
			name:   "hub_first_visit",
			screen: hubScreen(),
			facts: map[string]any{
				"session.visits." + helpers.SequenceID(2): 0,
				"session.visits." + helpers.SequenceID(3): 0,
				"stage.h1.selectedChoice":                 2,
			},
			expected: "option-2",
		},
		{
			name:   "hub_complete",
			screen: hubScreen(),
			facts: map[string]any{
				"session.visits." + helpers.SequenceID(2): 1,
				"session.visits." + helpers.SequenceID(3): 2,
			},
			expected: "correct",
		},
		{
			name:   "hub_incomplete",
			screen: hubScreen(),
			facts: map[string]any{
				"session.visits." + helpers.SequenceID(2): 1,
				"session.visits." + helpers.SequenceID(3): 0,
			},
			expected: "incorrect",
		},
		{
			name:   "no_catch_all",
			screen: helpers.NewScreen(1, "A",
				path.Correct("other", api.ScreenRef(2)),
			),
			facts:    map[string]any{},
			expected: "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := helpers.NewLesson(tt.screen,
				helpers.NewScreen(2, "Two"),
				helpers.NewScreen(3, "Three"),
				helpers.NewTypedScreen(9, "End", api.EndScreen),
			)
			c := rules.Generate(tt.screen, l.Sequence, 9)

			res, err := env.Preview(c.Rules, tt.facts)
			require.NoError(t, err)
			require.NotNil(t, res)
			assert.Equal(t, tt.expected, res.Name)
		})
	}
}

func cond(fact, op string, value any) *api.Condition {
	return &api.Condition{Fact: fact, Operator: op, Value: value}
}

func mcqScreen() *api.Screen {
	s := helpers.NewScreen(1, "Q",
		path.Correct("q1", api.ScreenRef(2)),
		path.Incorrect("q1", api.ScreenRef(3)),
		path.OptionCommonError("q1", 1, "", api.ScreenRef(3)),
		path.AlwaysGoTo(api.ScreenRef(2)),
	)
	s.Content = helpers.MCQContent("q1", 2, "a", "b", "c")
	return s
}

func cataScreen() *api.Screen {
	s := helpers.NewScreen(1, "Q",
		path.Correct("c1", api.ScreenRef(2)),
		path.Incorrect("c1", api.ScreenRef(3)),
		path.OptionCommonError("c1", 3, "", api.ScreenRef(3)),
	)
	s.Content = helpers.CATAContent("c1", []int{1, 2}, "a", "b", "c")
	return s
}

func sliderScreen() *api.Screen {
	s := helpers.NewScreen(1, "Q",
		path.Correct("s1", api.ScreenRef(2)),
		path.Incorrect("s1", api.ScreenRef(3)),
	)
	s.Content = helpers.SliderContent("s1", 3, 7)
	return s
}

func textScreen() *api.Screen {
	s := helpers.NewScreen(1, "Q",
		path.Correct("t1", api.ScreenRef(2)),
		path.Incorrect("t1", api.ScreenRef(3)),
	)
	s.Content = helpers.TextContent("t1", "cat, dog", 5)
	return s
}

func hubScreen() *api.Screen {
	s := helpers.NewTypedScreen(1, "Hub", api.HubSpokeQuestion,
		path.OptionSpecific("h1", 1, "One", api.ScreenRef(2)),
		path.OptionSpecific("h1", 2, "Two", api.ScreenRef(3)),
		path.Correct("h1", api.ScreenRef(9)),
		path.Incorrect("h1", api.ScreenRef(1)),
	)
	s.Content = helpers.HubSpokeContent("h1", "One", "Two")
	return s
}
