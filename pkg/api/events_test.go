package api_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/kode4food/flowchart/internal/flowchart/path"
	"github.com/kode4food/flowchart/pkg/api"
)

func TestEventJSON(t *testing.T) {
	data, err := json.Marshal(api.ScreenDeletedEvent{
		Rewired:  []api.ScreenID{1, 3},
		ScreenID: 2,
	})
	require.NoError(t, err)

	in := &api.Event{
		Data:      data,
		Type:      api.EventTypeScreenDeleted,
		LessonID:  "lesson-1",
		Timestamp: 1700000000000,
		Sequence:  7,
	}
	raw, err := json.Marshal(in)
	require.NoError(t, err)

	doc := gjson.ParseBytes(raw)
	assert.Equal(t, "screen_deleted", doc.Get("type").String())
	assert.Equal(t, "lesson-1", doc.Get("lesson_id").String())
	assert.Equal(t, int64(7), doc.Get("sequence").Int())
	assert.Equal(t, int64(2), doc.Get("data.screen_id").Int())

	var out api.Event
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in.Type, out.Type)
	assert.Equal(t, in.Sequence, out.Sequence)
	assert.JSONEq(t, string(in.Data), string(out.Data))
}

func TestPathChangedEventJSON(t *testing.T) {
	raw, err := json.Marshal(api.PathChangedEvent{
		Path:     path.AlwaysGoTo(api.ScreenRef(3)),
		PathID:   path.AlwaysGoToID,
		ScreenID: 1,
	})
	require.NoError(t, err)

	doc := gjson.ParseBytes(raw)
	assert.Equal(t, string(api.PathAlwaysGoTo), doc.Get("path.type").String())
	assert.Equal(t, path.AlwaysGoToID, doc.Get("path_id").String())

	raw, err = json.Marshal(api.PathChangedEvent{
		PathID:   path.AlwaysGoToID,
		ScreenID: 1,
	})
	require.NoError(t, err)
	assert.False(t, gjson.GetBytes(raw, "path").Exists())
}

func TestScreenAddedEventJSON(t *testing.T) {
	raw, err := json.Marshal(api.ScreenAddedEvent{
		Screen: &api.Screen{ID: 4, Title: "Intro"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), gjson.GetBytes(raw, "screen.resourceId").Int())
	assert.False(t, gjson.GetBytes(raw, "from").Exists())
}
