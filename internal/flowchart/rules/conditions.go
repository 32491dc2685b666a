package rules

import (
	"fmt"

	"github.com/kode4food/flowchart/internal/flowchart/content"
	"github.com/kode4food/flowchart/pkg/api"
)

// Fact names written by the delivery engine for each part
const (
	FactSelectedChoice  = "selectedChoice"
	FactSelectedChoices = "selectedChoices"
	FactSelectedCount   = "numberOfSelectedChoices"
	FactSelectedIndex   = "selectedIndex"
	FactValue           = "value"
	FactText            = "text"
	FactTextLength      = "textLength"
	FactCorrect         = "correct"
)

func (c *compiler) correctConditions(
	componentID string,
) ([]*api.Condition, bool) {
	if componentID == "" {
		return nil, false
	}
	if !c.matches(componentID) {
		return []*api.Condition{
			boolCondition(componentID, api.OpEqual),
		}, true
	}
	q := c.question
	switch c.kind {
	case content.KindMultipleChoice:
		if q.AnyCorrect() {
			return []*api.Condition{
				condition(factPath(q.ID, FactSelectedCount),
					api.OpGreaterThanInclusive, 1, api.FactNumber),
			}, true
		}
		opts := q.CorrectOptions()
		if len(opts) == 0 {
			return nil, false
		}
		return []*api.Condition{
			condition(factPath(q.ID, FactSelectedChoice),
				api.OpEqual, opts[0], api.FactNumber),
		}, true
	case content.KindCheckAll:
		opts := q.CorrectOptions()
		if len(opts) == 0 {
			return nil, false
		}
		return []*api.Condition{
			condition(factPath(q.ID, FactSelectedChoices),
				api.OpIs, intsValue(opts), api.FactArray),
		}, true
	case content.KindDropdown:
		opts := q.CorrectOptions()
		if len(opts) == 0 {
			return nil, false
		}
		return []*api.Condition{
			condition(factPath(q.ID, FactSelectedIndex),
				api.OpEqual, opts[0], api.FactNumber),
		}, true
	case content.KindInputNumber, content.KindSlider:
		answer, ok := q.NumericAnswer()
		if !ok {
			return nil, false
		}
		return []*api.Condition{
			numericCondition(factPath(q.ID, FactValue), answer, true),
		}, true
	case content.KindInputText:
		return textConditions(q, true), true
	case content.KindHubSpoke:
		visits := c.spokeVisits(api.OpGreaterThanInclusive, 1)
		if len(visits) > 0 {
			return visits, true
		}
		return []*api.Condition{boolCondition(q.ID, api.OpEqual)}, true
	default:
		return []*api.Condition{boolCondition(q.ID, api.OpEqual)}, true
	}
}

func (c *compiler) incorrectConditions(
	componentID string,
) (all, anyOf []*api.Condition, ok bool) {
	if componentID == "" {
		return nil, nil, false
	}
	if !c.matches(componentID) {
		return []*api.Condition{
			boolCondition(componentID, api.OpNotEqual),
		}, nil, true
	}
	q := c.question
	switch c.kind {
	case content.KindMultipleChoice:
		if q.AnyCorrect() {
			return []*api.Condition{
				condition(factPath(q.ID, FactSelectedCount),
					api.OpLessThan, 1, api.FactNumber),
			}, nil, true
		}
		opts := q.CorrectOptions()
		if len(opts) == 0 {
			return nil, nil, false
		}
		return []*api.Condition{
			condition(factPath(q.ID, FactSelectedChoice),
				api.OpNotEqual, opts[0], api.FactNumber),
		}, nil, true
	case content.KindCheckAll:
		opts := q.CorrectOptions()
		if len(opts) == 0 {
			return nil, nil, false
		}
		return []*api.Condition{
			condition(factPath(q.ID, FactSelectedChoices),
				api.OpNotIs, intsValue(opts), api.FactArray),
		}, nil, true
	case content.KindDropdown:
		opts := q.CorrectOptions()
		if len(opts) == 0 {
			return nil, nil, false
		}
		return []*api.Condition{
			condition(factPath(q.ID, FactSelectedIndex),
				api.OpNotEqual, opts[0], api.FactNumber),
		}, nil, true
	case content.KindInputNumber, content.KindSlider:
		answer, ok := q.NumericAnswer()
		if !ok {
			return nil, nil, false
		}
		return []*api.Condition{
			numericCondition(factPath(q.ID, FactValue), answer, false),
		}, nil, true
	case content.KindInputText:
		return nil, textConditions(q, false), true
	case content.KindHubSpoke:
		if visits := c.spokeVisits(api.OpLessThan, 1); len(visits) > 0 {
			return nil, visits, true
		}
		return []*api.Condition{
			boolCondition(q.ID, api.OpNotEqual),
		}, nil, true
	default:
		return []*api.Condition{
			boolCondition(q.ID, api.OpNotEqual),
		}, nil, true
	}
}

func (c *compiler) optionConditions(
	componentID string, option int, dest *api.ScreenID,
) ([]*api.Condition, bool) {
	if !c.matches(componentID) || option < 1 {
		return nil, false
	}
	q := c.question
	switch c.kind {
	case content.KindMultipleChoice:
		return []*api.Condition{
			condition(factPath(q.ID, FactSelectedChoice),
				api.OpEqual, option, api.FactNumber),
		}, true
	case content.KindCheckAll:
		return []*api.Condition{
			condition(factPath(q.ID, FactSelectedChoices),
				api.OpContains, option, api.FactArray),
		}, true
	case content.KindDropdown:
		return []*api.Condition{
			condition(factPath(q.ID, FactSelectedIndex),
				api.OpEqual, option, api.FactNumber),
		}, true
	case content.KindHubSpoke:
		var res []*api.Condition
		if v, ok := c.visitFact(dest); ok {
			res = append(res,
				condition(v, api.OpEqual, 0, api.FactNumber),
			)
		}
		return append(res,
			condition(factPath(q.ID, FactSelectedChoice),
				api.OpEqual, option, api.FactNumber),
		), true
	default:
		return nil, false
	}
}

// spokeVisits builds one visit-count condition per spoke destination
func (c *compiler) spokeVisits(op string, count int) []*api.Condition {
	var res []*api.Condition
	for _, p := range c.paths {
		sp, ok := p.(api.OptionSpecificPath)
		if !ok || !sp.Completed || !c.matches(sp.ComponentID) {
			continue
		}
		if v, ok := c.visitFact(sp.Dest()); ok {
			res = append(res, condition(v, op, count, api.FactNumber))
		}
	}
	return res
}

func (c *compiler) visitFact(dest *api.ScreenID) (string, bool) {
	if dest == nil {
		return "", false
	}
	id, ok := c.sequence.SequenceID(*dest)
	if !ok {
		return "", false
	}
	return "session.visits." + id, true
}

func textConditions(q content.Part, correct bool) []*api.Condition {
	answer := q.TextAnswer()
	fact := factPath(q.ID, FactText)
	has, hasNot := api.OpContains, api.OpNotContains
	lengthOp := api.OpGreaterThanInclusive
	if !correct {
		has, hasNot = hasNot, has
		lengthOp = api.OpLessThan
	}

	var res []*api.Condition
	for _, term := range answer.MustContain {
		res = append(res, condition(fact, has, term, api.FactString))
	}
	for _, term := range answer.MustNotContain {
		res = append(res, condition(fact, hasNot, term, api.FactString))
	}
	return append(res, condition(
		factPath(q.ID, FactTextLength), lengthOp,
		max(answer.MinimumLength, 1), api.FactNumber,
	))
}

func numericCondition(
	fact string, answer content.NumericAnswer, inside bool,
) *api.Condition {
	if answer.Range {
		op := api.OpInRange
		if !inside {
			op = api.OpNotInRange
		}
		return condition(fact, op,
			[]any{answer.Min, answer.Max}, api.FactArray,
		)
	}
	op := api.OpEqual
	if !inside {
		op = api.OpNotEqual
	}
	return condition(fact, op, answer.Value, api.FactNumber)
}

func boolCondition(componentID, op string) *api.Condition {
	return condition(factPath(componentID, FactCorrect), op, true,
		api.FactBool,
	)
}

func condition(fact, op string, value any, typ int) *api.Condition {
	return &api.Condition{
		Fact:     fact,
		Operator: op,
		Value:    value,
		Type:     typ,
	}
}

func factPath(componentID, name string) string {
	return fmt.Sprintf("stage.%s.%s", componentID, name)
}

func intsValue(ints []int) []any {
	res := make([]any, len(ints))
	for i, v := range ints {
		res[i] = v
	}
	return res
}

func isNumeric(k content.Kind) bool {
	return k == content.KindInputNumber || k == content.KindSlider
}
