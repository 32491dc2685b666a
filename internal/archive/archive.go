package archive

import (
	"context"
	"log/slog"

	"github.com/kode4food/flowchart/internal/store"
	"github.com/kode4food/flowchart/pkg/api"
	"github.com/kode4food/flowchart/pkg/log"
)

// Archiver moves lessons between a live store and an archive bucket
type Archiver struct {
	store store.Store
	blob  *Blob
}

// NewArchiver binds a store to an archive bucket
func NewArchiver(st store.Store, b *Blob) *Archiver {
	return &Archiver{store: st, blob: b}
}

// Archive exports the current snapshot of a lesson and returns it
func (a *Archiver) Archive(
	ctx context.Context, id api.LessonID,
) (*api.Lesson, error) {
	l, err := a.store.Lesson(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.blob.Export(ctx, l); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Lesson archived",
		log.LessonID(id),
		slog.Int("screens", len(l.Screens)))
	return l, nil
}

// Restore overwrites the live lesson with its archived snapshot
func (a *Archiver) Restore(
	ctx context.Context, id api.LessonID,
) (*api.Lesson, error) {
	l, err := a.blob.Import(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.store.Commit(ctx, id, store.ReplaceLesson(l)); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Lesson restored",
		log.LessonID(id),
		slog.Int("screens", len(l.Screens)))
	return l, nil
}
