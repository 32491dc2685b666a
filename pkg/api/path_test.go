package api_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/flowchart/pkg/api"
)

type typeNamer struct{}

func TestPathsJSON(t *testing.T) {
	t.Run("decodes every variant", func(t *testing.T) {
		data := `[
			{"id":"always-go-to","type":"always-go-to","destinationScreenId":3},
			{"id":"exit-activity","type":"exit-activity"},
			{"id":"end-of-activity","type":"end-of-activity"},
			{"id":"u1","type":"unknown-reason-path","destinationScreenId":null},
			{"id":"c1","type":"correct","componentId":"q1"},
			{"id":"i1","type":"incorrect","componentId":"q1"},
			{"id":"o1","type":"option-specific","selectedOption":2},
			{"id":"e1","type":"option-common-error","selectedOption":3},
			{"id":"n1","type":"numeric-common-error","feedbackIndex":1}
		]`

		var paths api.Paths
		require.NoError(t, json.Unmarshal([]byte(data), &paths))
		require.Len(t, paths, 9)

		always, ok := paths[0].(api.AlwaysGoToPath)
		require.True(t, ok)
		assert.Equal(t, api.ScreenID(3), *always.Dest())

		unknown := paths[3].(api.UnknownReasonPath)
		assert.Nil(t, unknown.Dest())

		assert.Equal(t, "q1", paths[4].(api.ComponentPath).Component())
		assert.Equal(t, 2, paths[6].(api.OptionSpecificPath).SelectedOption)
		assert.Equal(t, 3, paths[7].(api.OptionCommonErrorPath).SelectedOption)
		assert.Equal(t, 1, paths[8].(api.NumericCommonErrorPath).FeedbackIndex)
	})

	t.Run("preserves fields through encoding", func(t *testing.T) {
		rule := "r:1"
		in := api.Paths{
			api.OptionSpecificPath{
				PathBase: api.PathBase{
					ID:        "p1",
					Type:      api.PathOptionSpecific,
					Label:     "Selected Option: A",
					Priority:  6,
					Completed: true,
					RuleID:    &rule,
				},
				Destination: api.Destination{
					DestinationScreenID: api.ScreenRef(4),
				},
				ComponentID:    "mcq",
				SelectedOption: 1,
			},
		}
		data, err := json.Marshal(in)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"destinationScreenId":4`)

		var out api.Paths
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, in, out)
	})

	t.Run("rejects unknown types", func(t *testing.T) {
		var paths api.Paths
		err := json.Unmarshal([]byte(`[{"type":"teleport"}]`), &paths)
		assert.ErrorIs(t, err, api.ErrUnknownPathType)
	})

	t.Run("rejects non-arrays", func(t *testing.T) {
		var paths api.Paths
		err := json.Unmarshal([]byte(`{"type":"exit-activity"}`), &paths)
		assert.ErrorIs(t, err, api.ErrInvalidPaths)
	})

	t.Run("null decodes to nil", func(t *testing.T) {
		paths := api.Paths{api.ExitActivityPath{}}
		require.NoError(t, json.Unmarshal([]byte(`null`), &paths))
		assert.Nil(t, paths)
	})
}

func TestMatchPath(t *testing.T) {
	paths := api.Paths{
		api.AlwaysGoToPath{},
		api.ExitActivityPath{},
		api.EndOfActivityPath{},
		api.UnknownReasonPath{},
		api.CorrectPath{},
		api.IncorrectPath{},
		api.OptionSpecificPath{},
		api.OptionCommonErrorPath{},
		api.NumericCommonErrorPath{},
	}

	var names []string
	for _, p := range paths {
		names = append(names, api.MatchPath[string](p, typeNamer{}))
	}
	assert.Equal(t, []string{
		"always", "exit", "end", "unknown", "correct", "incorrect",
		"specific", "common", "numeric",
	}, names)
}

func TestWithBaseAndDest(t *testing.T) {
	orig := api.AlwaysGoToPath{
		PathBase: api.PathBase{ID: "always-go-to", Priority: 12},
	}

	updated := api.WithBase(orig, func(b *api.PathBase) {
		b.Completed = true
	})
	assert.True(t, updated.Base().Completed)
	assert.False(t, orig.Completed)

	routed := api.WithDest(orig, api.ScreenRef(9))
	assert.Equal(t, api.ScreenID(9), *routed.Dest())
	assert.Nil(t, orig.Dest())
	assert.Equal(t, "always-go-to", routed.Base().ID)
}

func TestPathsFind(t *testing.T) {
	paths := api.Paths{
		api.ExitActivityPath{PathBase: api.PathBase{ID: "exit-activity"}},
	}

	p, ok := paths.Find("exit-activity")
	assert.True(t, ok)
	assert.IsType(t, api.ExitActivityPath{}, p)

	_, ok = paths.Find("missing")
	assert.False(t, ok)
}

func (typeNamer) AlwaysGoTo(api.AlwaysGoToPath) string     { return "always" }
func (typeNamer) ExitActivity(api.ExitActivityPath) string { return "exit" }
func (typeNamer) Correct(api.CorrectPath) string           { return "correct" }

func (typeNamer) EndOfActivity(api.EndOfActivityPath) string {
	return "end"
}

func (typeNamer) UnknownReason(api.UnknownReasonPath) string {
	return "unknown"
}

func (typeNamer) Incorrect(api.IncorrectPath) string {
	return "incorrect"
}

func (typeNamer) OptionSpecific(api.OptionSpecificPath) string {
	return "specific"
}

func (typeNamer) OptionCommonError(api.OptionCommonErrorPath) string {
	return "common"
}

func (typeNamer) NumericCommonError(api.NumericCommonErrorPath) string {
	return "numeric"
}
