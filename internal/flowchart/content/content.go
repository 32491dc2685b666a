package content

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

type (
	// Kind classifies the primary question of a screen
	Kind string

	// Part is one entry of a screen's parts layout
	Part struct {
		Custom gjson.Result
		ID     string
		Type   string
	}

	// NumericAnswer is either an exact value or an inclusive range
	NumericAnswer struct {
		Value float64
		Min   float64
		Max   float64
		Range bool
	}

	// Band is an advanced feedback band of a numeric or slider part
	Band struct {
		Feedback string
		Answer   NumericAnswer
		Valid    bool
	}

	// TextAnswer describes what a correct free-text response looks like
	TextAnswer struct {
		MustContain    []string
		MustNotContain []string
		MinimumLength  int
	}
)

const (
	KindNone           Kind = "none"
	KindMultipleChoice Kind = "multiple-choice"
	KindCheckAll       Kind = "check-all-that-apply"
	KindMultiLineText  Kind = "multi-line-text"
	KindInputText      Kind = "input-text"
	KindSlider         Kind = "slider"
	KindInputNumber    Kind = "input-number"
	KindDropdown       Kind = "dropdown"
	KindHubSpoke       Kind = "hub-spoke"
)

const (
	PartMCQ           = "janus-mcq"
	PartMultiLineText = "janus-multi-line-text"
	PartInputText     = "janus-input-text"
	PartInputNumber   = "janus-input-number"
	PartDropdown      = "janus-dropdown"
	PartSlider        = "janus-slider"
	PartHubSpoke      = "janus-hub-spoke"

	partsLayout = "partsLayout"
)

var questionKinds = map[string]Kind{
	PartMultiLineText: KindMultiLineText,
	PartInputText:     KindInputText,
	PartInputNumber:   KindInputNumber,
	PartDropdown:      KindDropdown,
	PartSlider:        KindSlider,
	PartHubSpoke:      KindHubSpoke,
}

var kindLabels = map[Kind]string{
	KindMultipleChoice: "Multiple Choice",
	KindCheckAll:       "Check All That Apply",
	KindMultiLineText:  "Multi-line Text",
	KindInputText:      "Text Input",
	KindInputNumber:    "Number Input",
	KindHubSpoke:       "Hub and Spoke",
	KindDropdown:       "Dropdown",
	KindSlider:         "Slider",
	KindNone:           "No question",
}

// Parts returns the parts layout of a screen's content, in layout order
func Parts(raw json.RawMessage) []Part {
	if len(raw) == 0 {
		return nil
	}
	var res []Part
	gjson.GetBytes(raw, partsLayout).ForEach(
		func(_, part gjson.Result) bool {
			res = append(res, Part{
				ID:     part.Get("id").String(),
				Type:   part.Get("type").String(),
				Custom: part.Get("custom"),
			})
			return true
		},
	)
	return res
}

// PrimaryQuestion returns the first part that is a question
func PrimaryQuestion(raw json.RawMessage) (Part, bool) {
	for _, p := range Parts(raw) {
		if p.IsQuestion() {
			return p, true
		}
	}
	return Part{}, false
}

// QuestionKind classifies the primary question of the content
func QuestionKind(raw json.RawMessage) Kind {
	if p, ok := PrimaryQuestion(raw); ok {
		return p.Kind()
	}
	return KindNone
}

// Label returns the human-readable name of the kind
func (k Kind) Label() string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return kindLabels[KindNone]
}

// IsQuestion reports whether the part collects a learner response
func (p Part) IsQuestion() bool {
	if p.Type == PartMCQ {
		return true
	}
	_, ok := questionKinds[p.Type]
	return ok
}

// Kind classifies the part. A multiple choice part is check-all-that-apply
// when it allows multiple selection
func (p Part) Kind() Kind {
	if p.Type == PartMCQ {
		if p.Custom.Get("multipleSelection").Bool() {
			return KindCheckAll
		}
		return KindMultipleChoice
	}
	if k, ok := questionKinds[p.Type]; ok {
		return k
	}
	return KindNone
}

// Options returns the display text of each selectable option
func (p Part) Options() []string {
	var items gjson.Result
	switch p.Type {
	case PartMCQ:
		items = p.Custom.Get("mcqItems")
	case PartHubSpoke:
		items = p.Custom.Get("spokeItems")
	case PartDropdown:
		items = p.Custom.Get("optionLabels")
	default:
		return nil
	}
	var res []string
	items.ForEach(func(_, item gjson.Result) bool {
		res = append(res, itemText(item))
		return true
	})
	return res
}

// CorrectOptions returns the 1-based indices of the correct options
func (p Part) CorrectOptions() []int {
	answer := p.Custom.Get("correctAnswer")
	if answer.IsArray() {
		var res []int
		for i, v := range answer.Array() {
			if v.Bool() {
				res = append(res, i+1)
			}
		}
		return res
	}
	if answer.Type == gjson.Number && answer.Int() > 0 {
		return []int{int(answer.Int())}
	}
	return nil
}

// IsCorrectOption reports whether the 1-based option is a correct answer
func (p Part) IsCorrectOption(option int) bool {
	for _, o := range p.CorrectOptions() {
		if o == option {
			return true
		}
	}
	return false
}

// AnyCorrect reports whether every option is accepted as correct
func (p Part) AnyCorrect() bool {
	return p.Custom.Get("anyCorrectAnswer").Bool()
}

// NumericAnswer returns the configured answer of a numeric or slider part
func (p Part) NumericAnswer() (NumericAnswer, bool) {
	return numericAnswer(p.Custom.Get("answer"))
}

// Bands returns the advanced feedback bands of a numeric or slider part
func (p Part) Bands() []Band {
	var res []Band
	p.Custom.Get("advancedFeedback").ForEach(
		func(_, item gjson.Result) bool {
			answer, ok := numericAnswer(item.Get("answer"))
			res = append(res, Band{
				Feedback: item.Get("feedback").String(),
				Answer:   answer,
				Valid:    ok,
			})
			return true
		},
	)
	return res
}

// TextAnswer returns the correctness criteria of a text input part
func (p Part) TextAnswer() TextAnswer {
	answer := p.Custom.Get("correctAnswer")
	return TextAnswer{
		MustContain:    splitTerms(answer.Get("mustContain").String()),
		MustNotContain: splitTerms(answer.Get("mustNotContain").String()),
		MinimumLength:  int(answer.Get("minimumLength").Int()),
	}
}

// Feedback returns the feedback text stored under key, such as
// "correctFeedback"
func (p Part) Feedback(key string) string {
	return p.Custom.Get(key).String()
}

// CommonErrorFeedback returns the feedback authored for a 1-based option
func (p Part) CommonErrorFeedback(option int) string {
	fb := p.Custom.Get("commonErrorFeedback").Array()
	if option < 1 || option > len(fb) {
		return ""
	}
	return fb[option-1].String()
}

func numericAnswer(answer gjson.Result) (NumericAnswer, bool) {
	if !answer.Exists() {
		return NumericAnswer{}, false
	}
	if answer.Get("range").Bool() {
		min, max := answer.Get("correctMin"), answer.Get("correctMax")
		if min.Type != gjson.Number || max.Type != gjson.Number {
			return NumericAnswer{}, false
		}
		return NumericAnswer{
			Range: true,
			Min:   min.Float(),
			Max:   max.Float(),
		}, true
	}
	value := answer.Get("correctAnswer")
	if value.Type != gjson.Number {
		return NumericAnswer{}, false
	}
	return NumericAnswer{Value: value.Float()}, true
}

func splitTerms(s string) []string {
	var res []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			res = append(res, t)
		}
	}
	return res
}

func itemText(item gjson.Result) string {
	if item.Type == gjson.String {
		return item.String()
	}
	var sb strings.Builder
	collectText(item, &sb)
	return strings.TrimSpace(sb.String())
}

func collectText(r gjson.Result, sb *strings.Builder) {
	if r.IsObject() {
		if t := r.Get("text"); t.Type == gjson.String {
			sb.WriteString(t.String())
		}
	}
	if r.IsObject() || r.IsArray() {
		r.ForEach(func(key, value gjson.Result) bool {
			if key.String() != "text" {
				collectText(value, sb)
			}
			return true
		})
	}
}
