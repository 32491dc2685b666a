package wait_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/flowchart/internal/assert/wait"
	"github.com/kode4food/flowchart/pkg/api"
)

func newEvent(typ api.EventType, data any) *api.Event {
	payload, _ := json.Marshal(data)
	return &api.Event{
		Type:     typ,
		LessonID: "lesson",
		Data:     payload,
	}
}

func TestTypesFilter(t *testing.T) {
	filter := wait.Types(
		api.EventTypeScreenAdded, api.EventTypeScreenDeleted,
	)
	assert.False(t, filter(nil))
	assert.True(t, filter(&api.Event{Type: api.EventTypeScreenAdded}))
	assert.False(t, filter(&api.Event{Type: api.EventTypePathDeleted}))
	assert.False(t, wait.Types()(&api.Event{Type: api.EventTypePathDeleted}))
}

func TestScreenFilter(t *testing.T) {
	added := newEvent(api.EventTypeScreenAdded, api.ScreenAddedEvent{
		Screen: &api.Screen{ID: 4, Paths: api.Paths{}},
	})
	deleted := newEvent(api.EventTypeScreenDeleted, api.ScreenDeletedEvent{
		ScreenID: 5,
	})

	assert.True(t, wait.ScreenAdded(4)(added))
	assert.False(t, wait.ScreenAdded(5)(added))
	assert.True(t, wait.ScreenDeleted(5)(deleted))
	assert.False(t, wait.ScreenDeleted(5)(added))
	assert.True(t, wait.Lesson("lesson")(deleted))
	assert.False(t, wait.Lesson("other")(deleted))
}

func TestForEvents(t *testing.T) {
	ch := make(chan *api.Event, 3)
	ch <- newEvent(api.EventTypePathDeleted, api.PathChangedEvent{})
	ch <- newEvent(api.EventTypeScreenDeleted, api.ScreenDeletedEvent{
		ScreenID: 2,
	})
	ch <- newEvent(api.EventTypeScreenDeleted, api.ScreenDeletedEvent{
		ScreenID: 3,
	})

	evs := wait.On(t, ch).WithTimeout(time.Second).ForEvents(
		2, wait.Type(api.EventTypeScreenDeleted),
	)
	assert.Len(t, evs, 2)

	data := wait.Decode[api.ScreenDeletedEvent](t, evs[1])
	assert.Equal(t, api.ScreenID(3), data.ScreenID)
}

func TestForEvent(t *testing.T) {
	ch := make(chan *api.Event, 1)
	ch <- newEvent(api.EventTypeLessonVerified, api.LessonVerifiedEvent{})

	ev := wait.On(t, ch).ForEvent(wait.Type(api.EventTypeLessonVerified))
	assert.Equal(t, api.EventTypeLessonVerified, ev.Type)
}
