package api

type (
	// Rule is the delivery engine's condition/action form of one path
	Rule struct {
		Event      RuleEvent  `json:"event"`
		ID         string     `json:"id"`
		Name       string     `json:"name"`
		Conditions Conditions `json:"conditions"`
		Priority   int        `json:"priority"`
		Correct    bool       `json:"correct"`
		Default    bool       `json:"default"`
		Disabled   bool       `json:"disabled"`
	}

	// Conditions groups conditions that must all, or any, hold
	Conditions struct {
		ID  string       `json:"id"`
		All []*Condition `json:"all,omitempty"`
		Any []*Condition `json:"any,omitempty"`
	}

	Condition struct {
		Value    any    `json:"value"`
		ID       string `json:"id"`
		Fact     string `json:"fact"`
		Operator string `json:"operator"`
		Type     int    `json:"type"`
	}

	RuleEvent struct {
		Type   string      `json:"type"`
		Params EventParams `json:"params"`
	}

	EventParams struct {
		Actions []*Action `json:"actions"`
	}

	ActionType string

	Action struct {
		Params ActionParams `json:"params"`
		Type   ActionType   `json:"type"`
	}

	ActionParams struct {
		Value      any    `json:"value,omitempty"`
		Target     string `json:"target,omitempty"`
		Operator   string `json:"operator,omitempty"`
		Feedback   string `json:"feedback,omitempty"`
		TargetType int    `json:"targetType,omitempty"`
	}
)

const (
	ActionNavigation   ActionType = "navigation"
	ActionExitActivity ActionType = "exitActivity"
	ActionFeedback     ActionType = "feedback"
	ActionMutateState  ActionType = "mutateState"
)

// Condition operators understood by the delivery engine
const (
	OpEqual                = "equal"
	OpNotEqual             = "notEqual"
	OpInRange              = "inRange"
	OpNotInRange           = "notInRange"
	OpIs                   = "is"
	OpNotIs                = "notIs"
	OpContains             = "contains"
	OpNotContains          = "notContains"
	OpGreaterThanInclusive = "greaterThanInclusive"
	OpLessThan             = "lessThan"
)

// Condition value types
const (
	FactNumber = 1
	FactString = 2
	FactArray  = 3
	FactBool   = 4
)

// NextTarget is the navigation target meaning "the following screen"
const NextTarget = "next"

// Conditions returns every condition of the rule in declaration order
func (c Conditions) Conditions() []*Condition {
	res := make([]*Condition, 0, len(c.All)+len(c.Any))
	res = append(res, c.All...)
	return append(res, c.Any...)
}
