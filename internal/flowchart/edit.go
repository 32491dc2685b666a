package flowchart

import (
	"slices"

	"github.com/kode4food/flowchart/internal/flowchart/graph"
	"github.com/kode4food/flowchart/internal/flowchart/rules"
	"github.com/kode4food/flowchart/internal/store"
	"github.com/kode4food/flowchart/pkg/api"
	"github.com/kode4food/flowchart/pkg/util"
)

// edit accumulates the changes of one operation against a private copy of
// a lesson snapshot. Rewritten screens have their rules recompiled once,
// against the final ordering, when the edit is finished
type edit struct {
	lesson  *api.Lesson
	dirty   util.Set[api.ScreenID]
	deletes []api.ScreenID
	end     api.ScreenID
	seq     bool
	page    bool
}

func newEdit(l *api.Lesson) *edit {
	if l.Sequence == nil {
		l.Sequence = api.Sequence{}
	}
	return &edit{
		lesson: l,
		dirty:  util.Set[api.ScreenID]{},
		end:    graph.New(l).DefaultEndScreenID(),
	}
}

func (ed *edit) graph() *graph.Graph {
	return graph.New(ed.lesson)
}

func (ed *edit) screen(id api.ScreenID) *api.Screen {
	return ed.lesson.Screen(id)
}

// put stores s in the working copy, replacing the screen of the same id
func (ed *edit) put(s *api.Screen) {
	ed.dirty.Add(s.ID)
	i := slices.IndexFunc(ed.lesson.Screens, func(o *api.Screen) bool {
		return o.ID == s.ID
	})
	if i < 0 {
		ed.lesson.Screens = append(ed.lesson.Screens, s)
		return
	}
	ed.lesson.Screens[i] = s
}

func (ed *edit) remove(id api.ScreenID) {
	ed.lesson.Screens = slices.DeleteFunc(ed.lesson.Screens,
		func(s *api.Screen) bool {
			return s.ID == id
		},
	)
	ed.dirty.Remove(id)
	ed.deletes = append(ed.deletes, id)
}

func (ed *edit) setSequence(seq api.Sequence) {
	ed.lesson.Sequence = seq
	ed.seq = true
}

func (ed *edit) setPage(p *api.Page) {
	ed.lesson.Page = p
	ed.page = true
}

// finish compiles the rules of every rewritten screen and returns the
// transaction that persists the edit. When the edit changed which screen
// is the lesson's end, every screen is recompiled
func (ed *edit) finish() *store.Tx {
	tx := &store.Tx{}
	end := ed.graph().DefaultEndScreenID()
	all := end != ed.end
	for i, s := range ed.lesson.Screens {
		if !all && !ed.dirty.Contains(s.ID) {
			continue
		}
		compiled := rules.Apply(s, ed.lesson.Sequence, end)
		ed.lesson.Screens[i] = compiled
		tx.Upsert(compiled)
	}
	tx.Delete(ed.deletes...)
	if ed.seq {
		tx.Sequence = ed.lesson.Sequence
	}
	if ed.page {
		tx.Page = ed.lesson.Page
	}
	return tx
}
