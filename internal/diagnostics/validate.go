package diagnostics

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kode4food/flowchart/internal/flowchart/content"
	"github.com/kode4food/flowchart/internal/flowchart/graph"
	"github.com/kode4food/flowchart/internal/flowchart/path"
	"github.com/kode4food/flowchart/internal/flowchart/script"
	"github.com/kode4food/flowchart/pkg/api"
	"github.com/kode4food/flowchart/pkg/util"
)

type (
	// Validator finds structural problems across a whole lesson
	Validator struct {
		env *script.LuaEnv
	}

	screenCheck struct {
		check func(*lessonScope, *api.Screen) []*api.Problem
		typ   api.ProblemType
	}

	lessonScope struct {
		lesson    *api.Lesson
		graph     *graph.Graph
		env       *script.LuaEnv
		targets   *util.PathTree[bool]
		sequence  util.Set[string]
		partIDs   util.Set[string]
		reachable util.Set[api.ScreenID]
	}
)

const PageOwner = "page"

var targetRoot = regexp.MustCompile(`app|variables|stage|session`)

var screenChecks = []screenCheck{
	{typ: api.ProblemDuplicate, check: duplicateParts},
	{typ: api.ProblemPattern, check: partPatterns},
	{typ: api.ProblemBroken, check: brokenNavigation},
	{typ: api.ProblemInvalidMutate, check: mutateTargets},
	{typ: api.ProblemInvalidInit, check: initTargets},
	{typ: api.ProblemInvalidCond, check: conditionTargets},
	{typ: api.ProblemInvalidValue, check: conditionValues},
	{typ: api.ProblemDangling, check: danglingDestinations},
	{typ: api.ProblemInvalidPath, check: incompletePaths},
	{typ: api.ProblemPathSet, check: pathSet},
	{typ: api.ProblemUnreachable, check: unreachable},
}

// NewValidator creates a validator that checks expressions with env
func NewValidator(env *script.LuaEnv) *Validator {
	return &Validator{env: env}
}

// Validate runs every check over a fresh Lua environment
func Validate(l *api.Lesson) []*api.Problem {
	return NewValidator(script.NewLuaEnv()).Validate(l)
}

// Validate returns every problem found in the lesson, screen by screen in
// sequence order, followed by lesson-wide expression problems. Findings
// are data: a lesson with problems is still a valid lesson
func (v *Validator) Validate(l *api.Lesson) []*api.Problem {
	sc := newLessonScope(l, v.env)
	res := []*api.Problem{}
	for _, s := range sc.graph.SortedScreens() {
		for _, c := range screenChecks {
			for _, p := range c.check(sc, s) {
				p.Type = c.typ
				p.ScreenID = api.ScreenRef(s.ID)
				p.Owner = sc.owner(s)
				res = append(res, p)
			}
		}
	}
	return append(res, sc.brokenExpressions()...)
}

func newLessonScope(l *api.Lesson, env *script.LuaEnv) *lessonScope {
	sc := &lessonScope{
		lesson:   l,
		graph:    graph.New(l),
		env:      env,
		targets:  util.NewPathTree[bool](),
		sequence: util.Set[string]{},
		partIDs:  util.Set[string]{},
	}
	sc.reachable = sc.graph.Reachable()
	for _, e := range l.Sequence {
		sc.sequence.Add(e.Custom.SequenceID)
	}
	for _, s := range l.Screens {
		for _, p := range content.Parts(s.Content) {
			sc.partIDs.Add(p.ID)
		}
	}
	if l.Page != nil && l.Page.Custom != nil {
		for _, v := range l.Page.Custom.Variables {
			sc.partIDs.Add(v.Name)
		}
	}
	for id := range sc.partIDs {
		sc.targets.Insert([]string{"app", id}, true)
		sc.targets.Insert([]string{"stage", id}, true)
		sc.targets.Insert([]string{"variables", id}, true)
	}
	sc.targets.Insert([]string{"app", "active"}, true)
	sc.targets.Insert([]string{"session"}, true)
	return sc
}

// validTarget reports whether a fact target names a known part, lesson
// variable, or session value. Targets may carry an owner prefix such as
// "screen_1|stage.q1.value"
func (sc *lessonScope) validTarget(target string) bool {
	loc := targetRoot.FindStringIndex(target)
	if loc == nil {
		return false
	}
	segs := util.SplitPath(target[loc[0]:])
	if len(segs) < 2 || segs[1] == "" {
		return false
	}
	_, depth, ok := sc.targets.Longest(segs)
	if !ok {
		return false
	}
	return depth >= 2 || segs[0] == "session"
}

func (sc *lessonScope) owner(s *api.Screen) string {
	if id, ok := sc.lesson.Sequence.SequenceID(s.ID); ok {
		return id
	}
	return s.ID.String()
}

func (sc *lessonScope) brokenExpressions() []*api.Problem {
	var res []*api.Problem
	l := sc.lesson
	if l.Page == nil || l.Page.Custom == nil {
		return res
	}
	for _, v := range l.Page.Custom.Variables {
		if err := sc.env.ValidateExpression(v.Expression); err != nil {
			res = append(res, &api.Problem{
				Type:    api.ProblemBrokenExpr,
				Owner:   PageOwner,
				Item:    v.Name,
				Message: fmt.Sprintf("Expression does not parse: %s", err),
			})
			continue
		}
		for _, ref := range script.ExpressionRefs(v.Expression) {
			if !sc.validTarget(ref) {
				res = append(res, &api.Problem{
					Type:    api.ProblemBrokenExpr,
					Owner:   PageOwner,
					Item:    v.Name,
					Message: fmt.Sprintf("Unknown reference {%s}", ref),
				})
			}
		}
	}
	return res
}

func duplicateParts(sc *lessonScope, s *api.Screen) []*api.Problem {
	parts := content.Parts(s.Content)
	counts := map[string]int{}
	for _, p := range parts {
		counts[p.ID]++
	}
	var res []*api.Problem
	for _, p := range parts {
		if counts[p.ID] > 1 {
			res = append(res, &api.Problem{
				Item:         p.ID,
				Message:      fmt.Sprintf("Part id %q is used twice", p.ID),
				SuggestedFix: SuggestID(p.ID, sc.partIDs),
			})
		}
	}
	return res
}

func partPatterns(sc *lessonScope, s *api.Screen) []*api.Problem {
	var res []*api.Problem
	for _, p := range content.Parts(s.Content) {
		inherited := p.Custom.Get("inherited").Bool()
		if inherited || api.ValidPartID.MatchString(p.ID) {
			continue
		}
		res = append(res, &api.Problem{
			Item:         p.ID,
			Message:      fmt.Sprintf("Part id %q has bad characters", p.ID),
			SuggestedFix: SuggestID(p.ID, sc.partIDs),
		})
	}
	return res
}

func brokenNavigation(sc *lessonScope, s *api.Screen) []*api.Problem {
	var res []*api.Problem
	for _, r := range s.Rules {
		for _, a := range r.Event.Params.Actions {
			if a.Type != api.ActionNavigation {
				continue
			}
			target := a.Params.Target
			if target == "" || target == api.NextTarget ||
				sc.sequence.Contains(target) {
				continue
			}
			res = append(res, &api.Problem{
				Item:         r.ID,
				Message:      fmt.Sprintf("Navigation to missing %q", target),
				SuggestedFix: "Screen does not exist, fix navigate to.",
			})
		}
	}
	return res
}

func mutateTargets(sc *lessonScope, s *api.Screen) []*api.Problem {
	var res []*api.Problem
	for _, r := range s.Rules {
		for _, a := range r.Event.Params.Actions {
			if a.Type != api.ActionMutateState ||
				sc.validTarget(a.Params.Target) {
				continue
			}
			res = append(res, &api.Problem{
				Item: r.ID,
				Message: fmt.Sprintf(
					"Unknown mutate target %q", a.Params.Target,
				),
			})
		}
	}
	return res
}

func initTargets(sc *lessonScope, s *api.Screen) []*api.Problem {
	var res []*api.Problem
	for _, f := range s.Custom.Facts {
		if sc.validTarget(f.Target) {
			continue
		}
		res = append(res, &api.Problem{
			Item:    f.Target,
			Message: fmt.Sprintf("Unknown initial state target %q", f.Target),
		})
	}
	return res
}

func conditionTargets(sc *lessonScope, s *api.Screen) []*api.Problem {
	var res []*api.Problem
	for _, r := range s.Rules {
		for _, c := range r.Conditions.Conditions() {
			if sc.validTarget(c.Fact) {
				continue
			}
			res = append(res, &api.Problem{
				Item:    r.ID,
				Message: fmt.Sprintf("Unknown condition fact %q", c.Fact),
			})
		}
	}
	return res
}

func conditionValues(_ *lessonScope, s *api.Screen) []*api.Problem {
	var res []*api.Problem
	for _, r := range s.Rules {
		for _, c := range r.Conditions.Conditions() {
			if c.Value != nil {
				continue
			}
			res = append(res, &api.Problem{
				Item:    r.ID,
				Message: fmt.Sprintf("Condition on %q has no value", c.Fact),
			})
		}
	}
	return res
}

func danglingDestinations(sc *lessonScope, s *api.Screen) []*api.Problem {
	var res []*api.Problem
	for _, p := range s.Paths {
		dest := path.Destination(p)
		if dest == nil || sc.graph.Screen(*dest) != nil {
			continue
		}
		res = append(res, &api.Problem{
			Item:         p.Base().ID,
			Message:      fmt.Sprintf("Destination %d is missing", *dest),
			SuggestedFix: "Choose an existing destination screen.",
		})
	}
	return res
}

func incompletePaths(_ *lessonScope, s *api.Screen) []*api.Problem {
	var res []*api.Problem
	for _, p := range s.Paths {
		if path.Validate(p) {
			continue
		}
		res = append(res, &api.Problem{
			Item:    p.Base().ID,
			Message: fmt.Sprintf("Path %q is incomplete", p.Base().Label),
		})
	}
	return res
}

func pathSet(_ *lessonScope, s *api.Screen) []*api.Problem {
	var res []*api.Problem
	add := func(msg, fix string) {
		res = append(res, &api.Problem{
			Item:         s.Title,
			Message:      msg,
			SuggestedFix: fix,
		})
	}

	var always, exits, catchAll int
	for _, p := range s.Paths {
		switch p.(type) {
		case api.AlwaysGoToPath:
			always++
		case api.ExitActivityPath:
			exits++
		}
		if path.IsCatchAll(p) && path.Validate(p) {
			catchAll++
		}
	}

	if len(s.Paths) == 0 {
		add("Screen has no paths", "Add an end-of-activity path.")
		return res
	}
	if always > 1 {
		add("Screen has more than one always path", "Keep a single one.")
	}
	if exits > 0 && len(s.Paths) > exits {
		add("Exit activity is mixed with other paths",
			"Keep only the exit activity path.")
	}
	if exits > 0 && !s.IsEnd() {
		add("Exit activity is only valid on the end screen",
			"Route to the end screen instead.")
	}
	if s.IsEnd() || catchAll > 0 {
		return res
	}
	if content.QuestionKind(s.Content) == content.KindNone {
		add("Screen has no catch-all path", "Add an always path.")
		return res
	}
	if !coversOutcomes(s.Paths) {
		add("Some responses are not handled and end the lesson",
			"Add correct and incorrect paths, or an always path.")
	}
	return res
}

func coversOutcomes(paths api.Paths) bool {
	correct := util.Set[string]{}
	incorrect := util.Set[string]{}
	for _, p := range paths {
		if !path.Validate(p) {
			continue
		}
		switch p := p.(type) {
		case api.CorrectPath:
			correct.Add(p.ComponentID)
		case api.IncorrectPath:
			incorrect.Add(p.ComponentID)
		}
	}
	for id := range correct {
		if incorrect.Contains(id) {
			return true
		}
	}
	return false
}

func unreachable(sc *lessonScope, s *api.Screen) []*api.Problem {
	if sc.reachable.Contains(s.ID) {
		return nil
	}
	return []*api.Problem{{
		Item:         s.Title,
		Message:      fmt.Sprintf("Screen %q cannot be reached", s.Title),
		SuggestedFix: "Add a path that routes to this screen.",
	}}
}

// SuggestID derives a replacement part id holding only letters, digits and
// underscores that is not already taken
func SuggestID(id string, taken util.Set[string]) string {
	res := nonWord.ReplaceAllString(id, "")
	for taken.Contains(res) {
		res = bumpSuffix(res)
	}
	return res
}

var nonWord = regexp.MustCompile(`[^a-zA-Z0-9_]`)

func bumpSuffix(id string) string {
	if id == "" {
		return "1"
	}
	last := id[len(id)-1]
	if last >= '0' && last <= '8' {
		return id[:len(id)-1] + string(last+1)
	}
	if last == '9' {
		return strings.TrimSuffix(id, "9") + "10"
	}
	return id + "1"
}
