package helpers

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/flowchart/internal/config"
	"github.com/kode4food/flowchart/internal/diagnostics"
	"github.com/kode4food/flowchart/internal/flowchart"
	"github.com/kode4food/flowchart/internal/store"
	"github.com/kode4food/flowchart/pkg/api"
)

type (
	// TestEditorEnv holds all the components needed for editor testing
	TestEditorEnv struct {
		Editor    *flowchart.Editor
		Store     store.Store
		Redis     *miniredis.Miniredis
		Collector *diagnostics.Collector
		Events    *EventRecorder
		Config    config.AuthoringConfig
		Cleanup   func()
	}

	// EventRecorder is a flowchart.Notifier that keeps every event
	EventRecorder struct {
		events []*api.Event
		mu     sync.Mutex
	}
)

// NewTestEditor creates an editor over a Redis store backed by miniredis
func NewTestEditor(t *testing.T) *TestEditorEnv {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	st := store.NewRedisWithClient(client, "test-flowchart")

	env := &TestEditorEnv{
		Store:     st,
		Redis:     server,
		Collector: diagnostics.NewCollector(),
		Events:    &EventRecorder{},
		Config:    config.NewAuthoringConfig(),
	}
	env.Editor = env.NewEditor(t, TestLessonID)
	env.Cleanup = func() {
		_ = st.Close()
		server.Close()
	}
	return env
}

// NewEditor creates another editor for the given lesson that shares the
// environment's store, reporter, and recorder
func (e *TestEditorEnv) NewEditor(
	t *testing.T, id api.LessonID,
) *flowchart.Editor {
	t.Helper()
	ed, err := flowchart.New(id, e.Config, flowchart.Dependencies{
		Store:    e.Store,
		Reporter: e.Collector,
		Notifier: e.Events,
	})
	require.NoError(t, err)
	return ed
}

// Seed overwrites the stored lesson with l
func (e *TestEditorEnv) Seed(t *testing.T, l *api.Lesson) {
	t.Helper()
	err := e.Store.Commit(context.Background(), l.ID, store.ReplaceLesson(l))
	require.NoError(t, err)
}

// Lesson returns the stored snapshot of the test lesson
func (e *TestEditorEnv) Lesson(t *testing.T) *api.Lesson {
	t.Helper()
	l, err := e.Store.Lesson(context.Background(), TestLessonID)
	require.NoError(t, err)
	return l
}

// WithTestEnv creates a test editor environment, executes the provided
// function with it, and ensures cleanup happens automatically
func WithTestEnv(t *testing.T, fn func(*TestEditorEnv)) {
	t.Helper()
	env := NewTestEditor(t)
	defer env.Cleanup()
	fn(env)
}

// WithEditor creates a test editor, executes the provided function with
// it, and ensures cleanup happens automatically
func WithEditor(t *testing.T, fn func(*flowchart.Editor)) {
	t.Helper()
	WithTestEnv(t, func(env *TestEditorEnv) {
		fn(env.Editor)
	})
}

// Notify records the event
func (r *EventRecorder) Notify(
	_ context.Context, id api.LessonID, typ api.EventType, data any,
) {
	raw, _ := json.Marshal(data)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, &api.Event{
		Type:     typ,
		LessonID: id,
		Data:     raw,
		Sequence: int64(len(r.events) + 1),
	})
}

// Events returns a copy of the recorded events
func (r *EventRecorder) Events() []*api.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]*api.Event, len(r.events))
	copy(res, r.events)
	return res
}

// Types returns the type of every recorded event, in order
func (r *EventRecorder) Types() []api.EventType {
	evs := r.Events()
	res := make([]api.EventType, len(evs))
	for i, ev := range evs {
		res[i] = ev.Type
	}
	return res
}
