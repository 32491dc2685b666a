package flowchart

import (
	"context"
	"errors"
	"fmt"

	"github.com/kode4food/flowchart/internal/config"
	"github.com/kode4food/flowchart/internal/diagnostics"
	"github.com/kode4food/flowchart/internal/store"
	"github.com/kode4food/flowchart/pkg/api"
)

type (
	// Editor applies graph mutations and invariant repairs to one lesson.
	// Every operation reads one snapshot, computes its changes, and writes
	// them through a single store commit
	Editor struct {
		store    store.Store
		reporter diagnostics.Reporter
		notifier Notifier
		config   config.AuthoringConfig
		id       api.LessonID
	}

	// Dependencies holds the collaborators an Editor is built from. Store
	// is required. A nil Reporter logs through slog and a nil Notifier
	// discards change events
	Dependencies struct {
		Store    store.Store
		Reporter diagnostics.Reporter
		Notifier Notifier
	}

	// Notifier receives a change event after it has been committed
	Notifier interface {
		Notify(
			ctx context.Context, id api.LessonID, typ api.EventType, data any,
		)
	}
)

var (
	ErrMissingDependency = errors.New("missing dependency")
	ErrInvalidConfig     = errors.New("invalid authoring config")
	ErrScreenNotFound    = errors.New("screen not found")
	ErrPathNotFound      = errors.New("path not found")
	ErrLastScreen        = errors.New("cannot delete the last screen")
)

// New creates an Editor for the given lesson
func New(
	id api.LessonID, cfg config.AuthoringConfig, deps Dependencies,
) (*Editor, error) {
	if id == "" {
		return nil, store.ErrEmptyLessonID
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("%w: store", ErrMissingDependency)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	rep := deps.Reporter
	if rep == nil {
		rep = diagnostics.NewLogReporter(nil)
	}
	return &Editor{
		store:    deps.Store,
		reporter: rep,
		notifier: deps.Notifier,
		config:   cfg,
		id:       id,
	}, nil
}

// LessonID returns the lesson this Editor works on
func (e *Editor) LessonID() api.LessonID {
	return e.id
}

// Lesson returns a consistent snapshot of the lesson
func (e *Editor) Lesson(ctx context.Context) (*api.Lesson, error) {
	return e.store.Lesson(ctx, e.id)
}

func (e *Editor) begin(ctx context.Context) (*edit, error) {
	l, err := e.store.Lesson(ctx, e.id)
	if err != nil {
		return nil, err
	}
	return newEdit(l), nil
}

func (e *Editor) commit(ctx context.Context, ed *edit) error {
	tx := ed.finish()
	if tx.Empty() {
		return nil
	}
	return e.store.Commit(ctx, e.id, tx)
}

// fail reports err to the diagnostics sink and returns it
func (e *Editor) fail(
	ctx context.Context, title, msg string, err error, info map[string]any,
) error {
	if info == nil {
		info = map[string]any{}
	}
	info["lessonId"] = string(e.id)
	e.reporter.ReportError(ctx, diagnostics.Report{
		Title:   title,
		Message: msg,
		Err:     err,
		Context: info,
	})
	return err
}

func (e *Editor) notify(ctx context.Context, typ api.EventType, data any) {
	if e.notifier != nil {
		e.notifier.Notify(ctx, e.id, typ, data)
	}
}
