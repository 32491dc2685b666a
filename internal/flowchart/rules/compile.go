package rules

import (
	"fmt"
	"slices"

	"github.com/kode4food/flowchart/internal/flowchart/content"
	"github.com/kode4food/flowchart/internal/flowchart/path"
	"github.com/kode4food/flowchart/pkg/api"
	"github.com/kode4food/flowchart/pkg/util"
)

type (
	// Compiled is the rule form of one screen's paths
	Compiled struct {
		Rules     []*api.Rule
		Variables []string
	}

	compiler struct {
		question   content.Part
		kind       content.Kind
		paths      api.Paths
		sequence   api.Sequence
		defaultEnd api.ScreenID
	}

	entry struct {
		path  api.Path
		index int
	}
)

// DefaultRuleID identifies the rule synthesized for screens whose paths
// hold no catch-all
const DefaultRuleID = "r:default.end-of-activity"

// Generate compiles a screen's paths into ordered rules. Conditional paths
// come first by priority then list position, catch-all paths last.
// Incomplete paths are skipped, and a screen without a compiled catch-all
// gets a default rule routing to defaultEnd. Compiling the same paths
// always yields identical rules
func Generate(
	s *api.Screen, seq api.Sequence, defaultEnd api.ScreenID,
) *Compiled {
	q, _ := content.PrimaryQuestion(s.Content)
	c := &compiler{
		question:   q,
		kind:       q.Kind(),
		paths:      s.Paths,
		sequence:   seq,
		defaultEnd: defaultEnd,
	}

	var rules []*api.Rule
	hasDefault := false
	for _, e := range sortedEntries(s.Paths) {
		r := api.MatchPath[*api.Rule](e.path, c)
		if r == nil {
			continue
		}
		hasDefault = hasDefault || r.Default
		rules = append(rules, r)
	}
	if !hasDefault {
		rules = append(rules, c.defaultRule())
	}
	return &Compiled{
		Rules:     rules,
		Variables: variables(rules),
	}
}

func sortedEntries(paths api.Paths) []entry {
	res := make([]entry, 0, len(paths))
	for i, p := range paths {
		if !p.Base().Completed || path.IsUnknownPath(p) {
			continue
		}
		res = append(res, entry{path: p, index: i})
	}
	slices.SortStableFunc(res, func(a, b entry) int {
		ca, cb := catchAllClass(a.path), catchAllClass(b.path)
		if ca != cb {
			return ca - cb
		}
		pa, pb := a.path.Base().Priority, b.path.Base().Priority
		if pa != pb {
			return pa - pb
		}
		return a.index - b.index
	})
	return res
}

func catchAllClass(p api.Path) int {
	if path.IsCatchAll(p) {
		return 1
	}
	return 0
}

func variables(rules []*api.Rule) []string {
	facts := util.Set[string]{}
	for _, r := range rules {
		for _, c := range r.Conditions.Conditions() {
			facts.Add(c.Fact)
		}
	}
	return util.Sorted(facts)
}

func (c *compiler) AlwaysGoTo(p api.AlwaysGoToPath) *api.Rule {
	r := newRule(p.PathBase, "always")
	r.Default = true
	r.Event.Params.Actions = []*api.Action{c.navigate(p.Dest())}
	return r
}

func (c *compiler) ExitActivity(p api.ExitActivityPath) *api.Rule {
	r := newRule(p.PathBase, "exit")
	r.Default = true
	r.Event.Params.Actions = []*api.Action{exitAction()}
	return r
}

func (c *compiler) EndOfActivity(p api.EndOfActivityPath) *api.Rule {
	r := newRule(p.PathBase, "end-of-activity")
	r.Default = true
	r.Event.Params.Actions = []*api.Action{c.toEnd()}
	return r
}

func (c *compiler) UnknownReason(api.UnknownReasonPath) *api.Rule {
	return nil
}

func (c *compiler) Correct(p api.CorrectPath) *api.Rule {
	conds, ok := c.correctConditions(p.ComponentID)
	if !ok {
		return nil
	}
	r := newRule(p.PathBase, "correct")
	r.Conditions.All = conds
	r.Event.Params.Actions = c.actions(
		p.Dest(), c.feedback(p.ComponentID, "correctFeedback"),
	)
	return withConditionIDs(r)
}

func (c *compiler) Incorrect(p api.IncorrectPath) *api.Rule {
	all, anyOf, ok := c.incorrectConditions(p.ComponentID)
	if !ok {
		return nil
	}
	r := newRule(p.PathBase, "incorrect")
	r.Correct = false
	r.Conditions.All = all
	r.Conditions.Any = anyOf
	r.Event.Params.Actions = c.actions(
		p.Dest(), c.feedback(p.ComponentID, "incorrectFeedback"),
	)
	return withConditionIDs(r)
}

func (c *compiler) OptionSpecific(p api.OptionSpecificPath) *api.Rule {
	conds, ok := c.optionConditions(
		p.ComponentID, p.SelectedOption, p.Dest(),
	)
	if !ok {
		return nil
	}
	r := newRule(p.PathBase, fmt.Sprintf("option-%d", p.SelectedOption))
	r.Correct = c.question.IsCorrectOption(p.SelectedOption) ||
		c.question.AnyCorrect() || c.kind == content.KindHubSpoke
	r.Conditions.All = conds
	r.Event.Params.Actions = c.actions(p.Dest(), "")
	return withConditionIDs(r)
}

func (c *compiler) OptionCommonError(p api.OptionCommonErrorPath) *api.Rule {
	conds, ok := c.optionConditions(p.ComponentID, p.SelectedOption, nil)
	if !ok {
		return nil
	}
	label := fmt.Sprintf("common-error-%d", p.SelectedOption)
	r := newRule(p.PathBase, label)
	r.Correct = false
	r.Conditions.All = conds
	fb := ""
	if c.matches(p.ComponentID) {
		fb = c.question.CommonErrorFeedback(p.SelectedOption)
	}
	r.Event.Params.Actions = c.actions(p.Dest(), fb)
	return withConditionIDs(r)
}

func (c *compiler) NumericCommonError(
	p api.NumericCommonErrorPath,
) *api.Rule {
	if !c.matches(p.ComponentID) || !isNumeric(c.kind) {
		return nil
	}
	bands := c.question.Bands()
	if p.FeedbackIndex >= len(bands) || !bands[p.FeedbackIndex].Valid {
		return nil
	}
	band := bands[p.FeedbackIndex]
	r := newRule(p.PathBase, fmt.Sprintf("band-%d", p.FeedbackIndex))
	r.Correct = false
	r.Conditions.All = []*api.Condition{
		numericCondition(factPath(p.ComponentID, FactValue), band.Answer, true),
	}
	r.Event.Params.Actions = c.actions(p.Dest(), band.Feedback)
	return withConditionIDs(r)
}

func (c *compiler) defaultRule() *api.Rule {
	return &api.Rule{
		ID:       DefaultRuleID,
		Name:     "default",
		Priority: path.PriorityEndOfActivity,
		Correct:  true,
		Default:  true,
		Conditions: api.Conditions{
			ID: "b:default",
		},
		Event: api.RuleEvent{
			Type: DefaultRuleID,
			Params: api.EventParams{
				Actions: []*api.Action{c.toEnd()},
			},
		},
	}
}

func (c *compiler) matches(componentID string) bool {
	return componentID != "" && componentID == c.question.ID
}

func (c *compiler) feedback(componentID, key string) string {
	if !c.matches(componentID) {
		return ""
	}
	return c.question.Feedback(key)
}

func (c *compiler) actions(
	dest *api.ScreenID, feedback string,
) []*api.Action {
	res := []*api.Action{c.navigate(dest)}
	if feedback != "" {
		res = append(res, &api.Action{
			Type:   api.ActionFeedback,
			Params: api.ActionParams{Feedback: feedback},
		})
	}
	return res
}

func (c *compiler) navigate(dest *api.ScreenID) *api.Action {
	target := api.NextTarget
	if dest != nil {
		if id, ok := c.sequence.SequenceID(*dest); ok {
			target = id
		}
	}
	return &api.Action{
		Type:   api.ActionNavigation,
		Params: api.ActionParams{Target: target},
	}
}

func (c *compiler) toEnd() *api.Action {
	if id, ok := c.sequence.SequenceID(c.defaultEnd); ok {
		return &api.Action{
			Type:   api.ActionNavigation,
			Params: api.ActionParams{Target: id},
		}
	}
	return exitAction()
}

func exitAction() *api.Action {
	return &api.Action{Type: api.ActionExitActivity}
}

func newRule(b api.PathBase, label string) *api.Rule {
	id := fmt.Sprintf("r:%s.%s", b.ID, label)
	return &api.Rule{
		ID:       id,
		Name:     label,
		Priority: b.Priority,
		Correct:  true,
		Conditions: api.Conditions{
			ID: "b:" + b.ID,
		},
		Event: api.RuleEvent{Type: id},
	}
}

func withConditionIDs(r *api.Rule) *api.Rule {
	for i, c := range r.Conditions.Conditions() {
		c.ID = fmt.Sprintf("c:%s.%d", r.ID[2:], i+1)
	}
	return r
}
