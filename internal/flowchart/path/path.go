package path

import (
	"slices"

	"github.com/kode4food/flowchart/pkg/api"
)

type validator struct{}

// IsDestinationPath reports whether the path kind routes to a screen
func IsDestinationPath(p api.Path) bool {
	_, ok := p.(api.DestinationPath)
	return ok
}

// Destination returns the screen a path routes to, or nil
func Destination(p api.Path) *api.ScreenID {
	if dp, ok := p.(api.DestinationPath); ok {
		return dp.Dest()
	}
	return nil
}

// PointsTo reports whether the path routes to the given screen
func PointsTo(p api.Path, id api.ScreenID) bool {
	dest := Destination(p)
	return dest != nil && *dest == id
}

// IsUnknownPath reports whether the path is an unfinished placeholder
func IsUnknownPath(p api.Path) bool {
	_, ok := p.(api.UnknownReasonPath)
	return ok
}

// IsCatchAll reports whether the path applies regardless of the learner's
// response
func IsCatchAll(p api.Path) bool {
	switch p.(type) {
	case api.AlwaysGoToPath, api.EndOfActivityPath, api.ExitActivityPath:
		return true
	default:
		return false
	}
}

// HasDestinationPath reports whether any path of the screen already routes
// to a concrete screen
func HasDestinationPath(s *api.Screen) bool {
	return slices.ContainsFunc(s.Paths, func(p api.Path) bool {
		return Destination(p) != nil
	})
}

// Validate reports whether the path is fully specified and ready to compile
func Validate(p api.Path) bool {
	return api.MatchPath[bool](p, validator{})
}

// WithCompleted returns the path with its completed flag recomputed
func WithCompleted(p api.Path) api.Path {
	done := Validate(p)
	return api.WithBase(p, func(b *api.PathBase) {
		b.Completed = done
	})
}

// SetGoToAlwaysPath returns a copy of the screen that always routes to dest.
// An existing always path is retargeted, otherwise one is added, and any
// end-of-activity fallback is dropped
func SetGoToAlwaysPath(s *api.Screen, dest api.ScreenID) *api.Screen {
	res := s.Clone()
	paths := make(api.Paths, 0, len(res.Paths)+1)
	found := false
	for _, p := range res.Paths {
		switch p := p.(type) {
		case api.EndOfActivityPath:
			continue
		case api.AlwaysGoToPath:
			if !found {
				paths = append(paths, WithCompleted(
					api.WithDest(p, api.ScreenRef(dest)),
				))
				found = true
			}
		default:
			paths = append(paths, p)
		}
	}
	if !found {
		paths = append(paths, AlwaysGoTo(api.ScreenRef(dest)))
	}
	res.Paths = paths
	return res
}

// SetUnknownPathDestination returns a copy of the screen with an added
// unknown path to dest, leaving the author to choose its condition. The
// screen is returned unchanged when it already routes to dest
func SetUnknownPathDestination(s *api.Screen, dest api.ScreenID) *api.Screen {
	res := s.Clone()
	if slices.ContainsFunc(res.Paths, func(p api.Path) bool {
		return PointsTo(p, dest)
	}) {
		return res
	}
	res.Paths = append(res.Paths, UnknownWithDestination(api.ScreenRef(dest)))
	return res
}

// RemoveDestinationPath returns a copy of the screen without any path that
// routes to dest
func RemoveDestinationPath(s *api.Screen, dest api.ScreenID) *api.Screen {
	res := s.Clone()
	res.Paths = slices.DeleteFunc(res.Paths, func(p api.Path) bool {
		return PointsTo(p, dest)
	})
	return res
}

// ReplaceDestination returns a copy of the screen with every path that
// routes to from retargeted to to, keeping each path's condition
func ReplaceDestination(s *api.Screen, from, to api.ScreenID) *api.Screen {
	res := s.Clone()
	for i, p := range res.Paths {
		if dp, ok := p.(api.DestinationPath); ok && PointsTo(p, from) {
			res.Paths[i] = WithCompleted(api.WithDest(dp, api.ScreenRef(to)))
		}
	}
	return res
}

// ReplacePath returns a copy of the list with the path of the given id
// swapped for np. Any other path already holding np's id is dropped, so
// ids stay unique
func ReplacePath(paths api.Paths, id string, np api.Path) (api.Paths, bool) {
	i := slices.IndexFunc(paths, func(p api.Path) bool {
		return p.Base().ID == id
	})
	if i < 0 {
		return paths, false
	}
	res := make(api.Paths, 0, len(paths))
	for j, p := range paths {
		switch {
		case j == i:
			res = append(res, np)
		case p.Base().ID != np.Base().ID:
			res = append(res, p)
		}
	}
	return res, true
}

// RemovePath returns a copy of the list without the path of the given id
func RemovePath(paths api.Paths, id string) (api.Paths, bool) {
	i := slices.IndexFunc(paths, func(p api.Path) bool {
		return p.Base().ID == id
	})
	if i < 0 {
		return paths, false
	}
	return slices.Delete(paths.Clone(), i, i+1), true
}

// DownstreamScreenIDs returns the distinct destinations of the screen's
// paths in path order
func DownstreamScreenIDs(s *api.Screen) []api.ScreenID {
	var res []api.ScreenID
	for _, p := range s.Paths {
		dest := Destination(p)
		if dest != nil && !slices.Contains(res, *dest) {
			res = append(res, *dest)
		}
	}
	return res
}

func (validator) AlwaysGoTo(p api.AlwaysGoToPath) bool {
	return p.Dest() != nil
}

func (validator) ExitActivity(api.ExitActivityPath) bool {
	return true
}

func (validator) EndOfActivity(api.EndOfActivityPath) bool {
	return true
}

func (validator) UnknownReason(api.UnknownReasonPath) bool {
	return false
}

func (validator) Correct(p api.CorrectPath) bool {
	return p.Dest() != nil && p.ComponentID != ""
}

func (validator) Incorrect(p api.IncorrectPath) bool {
	return p.Dest() != nil && p.ComponentID != ""
}

func (validator) OptionSpecific(p api.OptionSpecificPath) bool {
	return p.Dest() != nil && p.ComponentID != "" && p.SelectedOption >= 1
}

func (validator) OptionCommonError(p api.OptionCommonErrorPath) bool {
	return p.Dest() != nil && p.ComponentID != "" && p.SelectedOption >= 1
}

func (validator) NumericCommonError(p api.NumericCommonErrorPath) bool {
	return p.Dest() != nil && p.ComponentID != "" && p.FeedbackIndex >= 0
}
