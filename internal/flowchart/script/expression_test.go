package script_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/flowchart/internal/flowchart/script"
)

func TestTranslateExpression(t *testing.T) {
	assert.Equal(t,
		`facts["stage.q1.value"] * 2`,
		script.TranslateExpression("{ stage.q1.value } * 2"),
	)
	assert.Equal(t, "1 + 1", script.TranslateExpression("1 + 1"))
}

func TestExpressionRefs(t *testing.T) {
	assert.Equal(t,
		[]string{"stage.a.value", "variables.b"},
		script.ExpressionRefs("{stage.a.value} + {variables.b}"),
	)
	assert.Empty(t, script.ExpressionRefs("42"))
}

func TestValidateExpression(t *testing.T) {
	env := script.NewLuaEnv()

	assert.NoError(t, env.ValidateExpression("{stage.q1.value} * 2"))
	assert.NoError(t, env.ValidateExpression("math.floor({variables.x})"))
	assert.ErrorIs(t,
		env.ValidateExpression("{stage.q1.value} *"), script.ErrLuaLoad,
	)
}

func TestEvaluateExpression(t *testing.T) {
	env := script.NewLuaEnv()

	c, err := env.CompileExpression(
		script.TranslateExpression("{stage.q1.value} > 3"),
	)
	require.NoError(t, err)

	ok, err := env.Evaluate(c, map[string]any{"stage.q1.value": 4})
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.Evaluate(c, map[string]any{"stage.q1.value": 2})
	assert.NoError(t, err)
	assert.False(t, ok)
}
