package store

import (
	"context"
	"errors"
	"slices"

	"github.com/kode4food/flowchart/pkg/api"
)

type (
	// Store persists lesson graphs. Every read returns a private copy and
	// every write lands through a single atomic Commit
	Store interface {
		// Lesson returns one consistent snapshot of the lesson. A lesson
		// that was never written is returned empty
		Lesson(ctx context.Context, id api.LessonID) (*api.Lesson, error)

		// Screen returns a single screen or ErrScreenNotFound
		Screen(
			ctx context.Context, id api.LessonID, screenID api.ScreenID,
		) (*api.Screen, error)

		// NextScreenID reserves an id no screen of the lesson holds
		NextScreenID(
			ctx context.Context, id api.LessonID,
		) (api.ScreenID, error)

		// Commit applies every change in the transaction atomically
		Commit(ctx context.Context, id api.LessonID, tx *Tx) error

		// Lessons lists the ids of every stored lesson
		Lessons(ctx context.Context) ([]api.LessonID, error)

		// Ping reports whether the backing store is reachable
		Ping(ctx context.Context) error

		Close() error
	}

	// Tx is one atomic set of changes to a lesson. A nil Sequence or Page
	// leaves the stored value untouched. Replace discards every stored
	// screen before the upserts are applied
	Tx struct {
		Sequence api.Sequence
		Page     *api.Page
		Upserts  []*api.Screen
		Deletes  []api.ScreenID
		Replace  bool
	}
)

var (
	ErrScreenNotFound = errors.New("screen not found")
	ErrEmptyLessonID  = errors.New("lesson id is required")
	ErrNilScreen      = errors.New("screen is nil")
	ErrStoreClosed    = errors.New("store is closed")
)

// Upsert adds screens to the transaction
func (tx *Tx) Upsert(screens ...*api.Screen) *Tx {
	tx.Upserts = append(tx.Upserts, screens...)
	return tx
}

// Delete adds screen removals to the transaction
func (tx *Tx) Delete(ids ...api.ScreenID) *Tx {
	tx.Deletes = append(tx.Deletes, ids...)
	return tx
}

// Empty reports whether committing the transaction would change nothing
func (tx *Tx) Empty() bool {
	return tx == nil || (len(tx.Upserts) == 0 && len(tx.Deletes) == 0 &&
		tx.Sequence == nil && tx.Page == nil && !tx.Replace)
}

// ReplaceLesson builds a transaction that overwrites a stored lesson with
// the provided snapshot
func ReplaceLesson(l *api.Lesson) *Tx {
	seq := l.Sequence
	if seq == nil {
		seq = api.Sequence{}
	}
	return &Tx{
		Upserts:  slices.Clone(l.Screens),
		Sequence: seq,
		Page:     l.Page,
		Replace:  true,
	}
}

func (tx *Tx) validate(id api.LessonID) error {
	if id == "" {
		return ErrEmptyLessonID
	}
	if tx == nil {
		return nil
	}
	for _, s := range tx.Upserts {
		if s == nil {
			return ErrNilScreen
		}
	}
	return nil
}

func sortScreens(screens []*api.Screen) {
	slices.SortFunc(screens, func(a, b *api.Screen) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
}
