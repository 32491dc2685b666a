package graph

import (
	"slices"

	"github.com/kode4food/flowchart/internal/flowchart/content"
	"github.com/kode4food/flowchart/internal/flowchart/path"
	"github.com/kode4food/flowchart/pkg/api"
	"github.com/kode4food/flowchart/pkg/util"
)

// Graph answers read-only queries over one lesson snapshot. Lookups that
// find nothing return nil or empty results rather than errors
type Graph struct {
	lesson *api.Lesson
}

// New wraps a lesson snapshot for querying
func New(l *api.Lesson) *Graph {
	return &Graph{lesson: l}
}

// Lesson returns the wrapped snapshot
func (g *Graph) Lesson() *api.Lesson {
	return g.lesson
}

// Screen returns the screen with the given id, or nil
func (g *Graph) Screen(id api.ScreenID) *api.Screen {
	return g.lesson.Screen(id)
}

// ScreenPaths returns the outbound paths of a screen
func (g *Graph) ScreenPaths(id api.ScreenID) api.Paths {
	if s := g.Screen(id); s != nil {
		return s.Paths
	}
	return api.Paths{}
}

// PathsToScreen returns every path that routes to the given screen, paired
// with the screen it leaves from
func (g *Graph) PathsToScreen(id api.ScreenID) []api.InboundPath {
	res := []api.InboundPath{}
	for _, s := range g.lesson.Screens {
		for _, p := range s.Paths {
			if path.PointsTo(p, id) {
				res = append(res, api.InboundPath{
					Path:           p,
					SourceScreenID: s.ID,
				})
			}
		}
	}
	return res
}

// SourceScreens returns the distinct screens with a path to the given
// screen, in storage order
func (g *Graph) SourceScreens(id api.ScreenID) []*api.Screen {
	var res []*api.Screen
	for _, s := range g.lesson.Screens {
		if slices.ContainsFunc(s.Paths, func(p api.Path) bool {
			return path.PointsTo(p, id)
		}) {
			res = append(res, s)
		}
	}
	return res
}

// DefaultDestination resolves the fallback target of a screen: the always
// path's destination, else the first success path, else the first path
// with any destination
func (g *Graph) DefaultDestination(id api.ScreenID) *api.ScreenID {
	s := g.Screen(id)
	if s == nil {
		return nil
	}
	for _, p := range s.Paths {
		if a, ok := p.(api.AlwaysGoToPath); ok && a.Dest() != nil {
			return api.ScreenRef(*a.Dest())
		}
	}
	q, _ := content.PrimaryQuestion(s.Content)
	for _, p := range s.Paths {
		if isSuccess(p, q) && path.Destination(p) != nil {
			return api.ScreenRef(*path.Destination(p))
		}
	}
	for _, p := range s.Paths {
		if dest := path.Destination(p); dest != nil {
			return api.ScreenRef(*dest)
		}
	}
	return nil
}

// EndScreen returns the first screen typed as the end screen, or nil
func (g *Graph) EndScreen() *api.Screen {
	for _, s := range g.lesson.Screens {
		if s.IsEnd() {
			return s
		}
	}
	return nil
}

// EndScreens returns every screen typed as an end screen
func (g *Graph) EndScreens() []*api.Screen {
	var res []*api.Screen
	for _, s := range g.lesson.Screens {
		if s.IsEnd() {
			res = append(res, s)
		}
	}
	return res
}

// DefaultEndScreenID returns the id rules fall back to when a path has no
// concrete target, or -1 when the lesson has no end screen
func (g *Graph) DefaultEndScreenID() api.ScreenID {
	if s := g.EndScreen(); s != nil {
		return s.ID
	}
	return -1
}

// FirstScreen returns the first non-end screen in sequence order, or nil
func (g *Graph) FirstScreen() *api.Screen {
	for _, e := range g.lesson.Sequence {
		if s := g.Screen(e.ResourceID); s != nil && !s.IsEnd() {
			return s
		}
	}
	return nil
}

// LastNonEndScreen returns the last non-end screen in sequence order, or
// nil
func (g *Graph) LastNonEndScreen() *api.Screen {
	sorted := g.SortedScreens()
	for i := len(sorted) - 1; i >= 0; i-- {
		if !sorted[i].IsEnd() {
			return sorted[i]
		}
	}
	return nil
}

// SortedScreens returns the screens in sequence order, followed by any
// screens the sequence does not name, in storage order
func (g *Graph) SortedScreens() []*api.Screen {
	res := make([]*api.Screen, 0, len(g.lesson.Screens))
	seen := util.Set[api.ScreenID]{}
	for _, e := range g.lesson.Sequence {
		s := g.Screen(e.ResourceID)
		if s == nil || seen.Contains(s.ID) {
			continue
		}
		seen.Add(s.ID)
		res = append(res, s)
	}
	for _, s := range g.lesson.Screens {
		if !seen.Contains(s.ID) {
			res = append(res, s)
		}
	}
	return res
}

// Titles returns the set of every screen title in the lesson
func (g *Graph) Titles() util.Set[string] {
	res := make(util.Set[string], len(g.lesson.Screens))
	for _, s := range g.lesson.Screens {
		res.Add(s.Title)
	}
	return res
}

// Reachable returns the screens reachable from the first screen by
// following path destinations. The end screen is also reachable from any
// screen holding an end-of-activity path
func (g *Graph) Reachable() util.Set[api.ScreenID] {
	res := util.Set[api.ScreenID]{}
	first := g.FirstScreen()
	if first == nil {
		return res
	}
	end := g.DefaultEndScreenID()
	queue := []api.ScreenID{first.ID}
	res.Add(first.ID)
	for len(queue) > 0 {
		s := g.Screen(queue[0])
		queue = queue[1:]
		if s == nil {
			continue
		}
		for _, next := range g.successors(s, end) {
			if !res.Contains(next) {
				res.Add(next)
				queue = append(queue, next)
			}
		}
	}
	return res
}

func (g *Graph) successors(s *api.Screen, end api.ScreenID) []api.ScreenID {
	res := path.DownstreamScreenIDs(s)
	for _, p := range s.Paths {
		if _, ok := p.(api.EndOfActivityPath); ok && end >= 0 {
			if !slices.Contains(res, end) {
				res = append(res, end)
			}
		}
	}
	return res
}

func isSuccess(p api.Path, q content.Part) bool {
	switch p := p.(type) {
	case api.CorrectPath:
		return true
	case api.OptionSpecificPath:
		return q.ID == p.ComponentID && q.IsCorrectOption(p.SelectedOption)
	default:
		return false
	}
}
