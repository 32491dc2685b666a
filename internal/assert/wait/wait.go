package wait

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"

	"github.com/kode4food/flowchart/pkg/api"
	"github.com/kode4food/flowchart/pkg/util"
)

type (
	Wait struct {
		t       *testing.T
		events  <-chan *api.Event
		timeout time.Duration
	}

	Predicate[T any] func(T) bool

	EventFilter Predicate[*api.Event]
)

const DefaultTimeout = time.Second * 5

func On(t *testing.T, events <-chan *api.Event) *Wait {
	return &Wait{
		t:       t,
		events:  events,
		timeout: DefaultTimeout,
	}
}

// FromSocket decodes every event received on a lesson websocket into the
// returned channel, which is closed when the connection fails
func FromSocket(conn *websocket.Conn) <-chan *api.Event {
	res := make(chan *api.Event, 64)
	go func() {
		defer close(res)
		for {
			var ev api.Event
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			res <- &ev
		}
	}()
	return res
}

func (w *Wait) WithTimeout(timeout time.Duration) *Wait {
	res := *w
	res.timeout = timeout
	return &res
}

// ForEvents waits for matching events and returns them
func (w *Wait) ForEvents(count int, filter EventFilter) []*api.Event {
	w.t.Helper()

	deadline := time.NewTimer(w.timeout)
	defer deadline.Stop()

	var res []*api.Event
	for len(res) < count {
		select {
		case ev, ok := <-w.events:
			if !ok {
				w.t.Fatalf(
					"event stream closed before receiving %d events", count,
				)
			}
			if filter(ev) {
				res = append(res, ev)
			}
		case <-deadline.C:
			w.t.Fatalf("timeout waiting for %d events", count)
		}
	}
	return res
}

// ForEvent waits for a single matching event and returns it
func (w *Wait) ForEvent(filter EventFilter) *api.Event {
	w.t.Helper()
	return w.ForEvents(1, filter)[0]
}

// And composes event filters and returns true when all match
func And(filters ...EventFilter) EventFilter {
	return func(ev *api.Event) bool {
		for _, filter := range filters {
			if !filter(ev) {
				return false
			}
		}
		return true
	}
}

// Type creates a filter for a single event type
func Type(eventType api.EventType) EventFilter {
	return Types(eventType)
}

// Types creates a filter for the given event types
func Types(eventTypes ...api.EventType) EventFilter {
	lookup := util.SetOf(eventTypes...)
	return func(ev *api.Event) bool {
		return ev != nil && lookup.Contains(ev.Type)
	}
}

// Lesson matches events of the given lesson
func Lesson(id api.LessonID) EventFilter {
	return func(ev *api.Event) bool {
		return ev != nil && ev.LessonID == id
	}
}

// Screen matches events whose payload names the given screen, either as a
// screen_id or as the id of an embedded screen
func Screen(id api.ScreenID) EventFilter {
	return func(ev *api.Event) bool {
		if ev == nil {
			return false
		}
		data := gjson.ParseBytes(ev.Data)
		for _, key := range []string{"screen_id", "screen.resourceId"} {
			if r := data.Get(key); r.Exists() && r.Int() == int64(id) {
				return true
			}
		}
		return false
	}
}

// ScreenAdded matches screen added events for the given screen
func ScreenAdded(id api.ScreenID) EventFilter {
	return And(Type(api.EventTypeScreenAdded), Screen(id))
}

// ScreenDeleted matches screen deleted events for the given screen
func ScreenDeleted(id api.ScreenID) EventFilter {
	return And(Type(api.EventTypeScreenDeleted), Screen(id))
}

// Decode unmarshals an event payload
func Decode[T any](t *testing.T, ev *api.Event) T {
	t.Helper()
	var res T
	if err := json.Unmarshal(ev.Data, &res); err != nil {
		t.Fatalf("failed to decode %s event: %v", ev.Type, err)
	}
	return res
}
