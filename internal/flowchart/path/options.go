package path

import (
	"github.com/kode4food/flowchart/internal/flowchart/content"
	"github.com/kode4food/flowchart/pkg/api"
)

// Options returns the kind of the screen's primary question together with
// template paths (no destination chosen) for every route an author may add
func Options(s *api.Screen) (content.Kind, api.Paths) {
	q, ok := content.PrimaryQuestion(s.Content)
	if !ok {
		return content.KindNone, api.Paths{
			AlwaysGoTo(nil), EndOfActivity(),
		}
	}

	kind := q.Kind()
	switch kind {
	case content.KindMultiLineText:
		return kind, api.Paths{AlwaysGoTo(nil)}
	case content.KindInputText:
		return kind, append(api.Paths{
			Correct(q.ID, nil), Incorrect(q.ID, nil),
		}, defaultOptions()...)
	case content.KindInputNumber, content.KindSlider:
		return kind, numericOptions(q)
	case content.KindMultipleChoice, content.KindCheckAll:
		return kind, choiceOptions(q, kind == content.KindCheckAll)
	case content.KindDropdown:
		res := api.Paths{}
		for i, label := range q.Options() {
			res = append(res, OptionCommonError(q.ID, i+1, label, nil))
		}
		res = append(res, Correct(q.ID, nil), Incorrect(q.ID, nil))
		return kind, append(res, defaultOptions()...)
	case content.KindHubSpoke:
		res := api.Paths{}
		for i, label := range q.Options() {
			res = append(res, OptionSpecific(q.ID, i+1, label, nil))
		}
		return kind, append(res, Correct(q.ID, nil))
	default:
		return kind, api.Paths{AlwaysGoTo(nil), EndOfActivity()}
	}
}

func defaultOptions() api.Paths {
	return api.Paths{
		AlwaysGoTo(nil), UnknownWithDestination(nil), EndOfActivity(),
	}
}

func numericOptions(q content.Part) api.Paths {
	res := api.Paths{}
	for i, band := range q.Bands() {
		res = append(res, NumericCommonError(q.ID, i, band.Feedback, nil))
	}
	res = append(res, Correct(q.ID, nil), Incorrect(q.ID, nil))
	return append(res, defaultOptions()...)
}

func choiceOptions(q content.Part, multiple bool) api.Paths {
	res := api.Paths{}
	options := q.Options()
	if q.AnyCorrect() {
		for i, text := range options {
			res = append(res, OptionSpecific(q.ID, i+1, text, nil))
		}
		return append(res, AlwaysGoTo(nil))
	}
	for i, text := range options {
		if multiple || !q.IsCorrectOption(i+1) {
			res = append(res, OptionCommonError(q.ID, i+1, text, nil))
		}
	}
	res = append(res, Correct(q.ID, nil), Incorrect(q.ID, nil))
	return append(res, defaultOptions()...)
}
