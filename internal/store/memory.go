package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/kode4food/flowchart/pkg/api"
	"github.com/kode4food/flowchart/pkg/util"
)

type (
	// Memory is an in-process Store, used by the CLI and by tests
	Memory struct {
		lessons map[api.LessonID]*memLesson
		mu      sync.RWMutex
		closed  bool
	}

	memLesson struct {
		screens  map[api.ScreenID]*api.Screen
		sequence api.Sequence
		page     *api.Page
		nextID   api.ScreenID
		stored   bool
	}
)

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-process store
func NewMemory() *Memory {
	return &Memory{
		lessons: map[api.LessonID]*memLesson{},
	}
}

// Lesson returns a copy of the stored lesson
func (m *Memory) Lesson(
	_ context.Context, id api.LessonID,
) (*api.Lesson, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	res := &api.Lesson{
		ID:       id,
		Screens:  []*api.Screen{},
		Sequence: api.Sequence{},
	}
	l, ok := m.lessons[id]
	if !ok {
		return res, nil
	}
	for _, s := range l.screens {
		res.Screens = append(res.Screens, s.Clone())
	}
	sortScreens(res.Screens)
	if l.sequence != nil {
		res.Sequence = l.sequence.Clone()
	}
	res.Page = l.page.Clone()
	return res, nil
}

// Screen returns a copy of one stored screen
func (m *Memory) Screen(
	_ context.Context, id api.LessonID, screenID api.ScreenID,
) (*api.Screen, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	if l, ok := m.lessons[id]; ok {
		if s, ok := l.screens[screenID]; ok {
			return s.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrScreenNotFound, screenID)
}

// NextScreenID reserves the next unused screen id
func (m *Memory) NextScreenID(
	_ context.Context, id api.LessonID,
) (api.ScreenID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrStoreClosed
	}
	if id == "" {
		return 0, ErrEmptyLessonID
	}
	l := m.lesson(id)
	for {
		l.nextID++
		if _, ok := l.screens[l.nextID]; !ok {
			return l.nextID, nil
		}
	}
}

// Commit applies the transaction under the store lock
func (m *Memory) Commit(
	_ context.Context, id api.LessonID, tx *Tx,
) error {
	if err := tx.validate(id); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	if tx.Empty() {
		return nil
	}
	l := m.lesson(id)
	l.stored = true
	if tx.Replace {
		l.screens = map[api.ScreenID]*api.Screen{}
	}
	for _, screenID := range tx.Deletes {
		delete(l.screens, screenID)
	}
	for _, s := range tx.Upserts {
		l.screens[s.ID] = s.Clone()
		l.nextID = max(l.nextID, s.ID)
	}
	if tx.Sequence != nil {
		l.sequence = tx.Sequence.Clone()
	}
	if tx.Page != nil {
		l.page = tx.Page.Clone()
	}
	return nil
}

// Lessons lists stored lesson ids in sorted order
func (m *Memory) Lessons(context.Context) ([]api.LessonID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	ids := util.Set[api.LessonID]{}
	for id, l := range m.lessons {
		if l.stored {
			ids.Add(id)
		}
	}
	return util.Sorted(ids), nil
}

// Ping fails only once the store is closed
func (m *Memory) Ping(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrStoreClosed
	}
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

func (m *Memory) lesson(id api.LessonID) *memLesson {
	if l, ok := m.lessons[id]; ok {
		return l
	}
	l := &memLesson{
		screens: map[api.ScreenID]*api.Screen{},
	}
	m.lessons[id] = l
	return l
}
