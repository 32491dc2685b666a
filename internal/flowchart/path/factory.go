package path

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kode4food/flowchart/pkg/api"
)

// Well-known ids of the singleton path kinds
const (
	AlwaysGoToID    = "always-go-to"
	ExitActivityID  = "exit-activity"
	EndOfActivityID = "end-of-activity"
)

// Evaluation priority of each path kind
const (
	PriorityCommonError    = 4
	PriorityOptionSpecific = 6
	PriorityCorrect        = 8
	PriorityIncorrect      = 10
	PriorityAlways         = 12
	PriorityEndOfActivity  = 16
	PriorityUnknown        = 20
	PriorityExit           = 20
)

const labelTextLimit = 20

// AlwaysGoTo builds the unconditional path of a screen
func AlwaysGoTo(dest *api.ScreenID) api.AlwaysGoToPath {
	p := api.AlwaysGoToPath{
		PathBase: api.PathBase{
			ID:       AlwaysGoToID,
			Type:     api.PathAlwaysGoTo,
			Label:    "Always",
			Priority: PriorityAlways,
		},
		Destination: destination(dest),
	}
	p.Completed = Validate(p)
	return p
}

// ExitActivity builds the terminal path held by the end screen
func ExitActivity() api.ExitActivityPath {
	return api.ExitActivityPath{
		PathBase: api.PathBase{
			ID:        ExitActivityID,
			Type:      api.PathExitActivity,
			Label:     "Exit Activity",
			Priority:  PriorityExit,
			Completed: true,
		},
	}
}

// EndOfActivity builds the path that routes to the lesson's end screen
func EndOfActivity() api.EndOfActivityPath {
	return api.EndOfActivityPath{
		PathBase: api.PathBase{
			ID:        EndOfActivityID,
			Type:      api.PathEndOfActivity,
			Label:     "End of activity",
			Priority:  PriorityEndOfActivity,
			Completed: true,
		},
	}
}

// UnknownWithDestination builds a placeholder route whose condition the
// author has not chosen yet
func UnknownWithDestination(dest *api.ScreenID) api.UnknownReasonPath {
	return api.UnknownReasonPath{
		PathBase: api.PathBase{
			ID:       uuid.NewString(),
			Type:     api.PathUnknownReason,
			Label:    "Unknown",
			Priority: PriorityUnknown,
		},
		Destination: destination(dest),
	}
}

// Correct builds the path taken when the component is answered correctly
func Correct(componentID string, dest *api.ScreenID) api.CorrectPath {
	p := api.CorrectPath{
		PathBase: api.PathBase{
			ID:       uuid.NewString(),
			Type:     api.PathCorrect,
			Label:    "Correct",
			Priority: PriorityCorrect,
		},
		Destination: destination(dest),
		ComponentID: componentID,
	}
	p.Completed = Validate(p)
	return p
}

// Incorrect builds the path taken when the component is answered wrongly
func Incorrect(componentID string, dest *api.ScreenID) api.IncorrectPath {
	p := api.IncorrectPath{
		PathBase: api.PathBase{
			ID:       uuid.NewString(),
			Type:     api.PathIncorrect,
			Label:    "Incorrect",
			Priority: PriorityIncorrect,
		},
		Destination: destination(dest),
		ComponentID: componentID,
	}
	p.Completed = Validate(p)
	return p
}

// OptionSpecific builds the path taken when the given 1-based option of a
// choice component is selected
func OptionSpecific(
	componentID string, option int, text string, dest *api.ScreenID,
) api.OptionSpecificPath {
	p := api.OptionSpecificPath{
		PathBase: api.PathBase{
			ID:       uuid.NewString(),
			Type:     api.PathOptionSpecific,
			Label:    optionLabel(option, text),
			Priority: PriorityOptionSpecific,
		},
		Destination:    destination(dest),
		ComponentID:    componentID,
		SelectedOption: option,
	}
	p.Completed = Validate(p)
	return p
}

// OptionCommonError builds the path taken when the given 1-based wrong
// option of a choice component is selected
func OptionCommonError(
	componentID string, option int, text string, dest *api.ScreenID,
) api.OptionCommonErrorPath {
	p := api.OptionCommonErrorPath{
		PathBase: api.PathBase{
			ID:       uuid.NewString(),
			Type:     api.PathOptionCommonError,
			Label:    optionLabel(option, text),
			Priority: PriorityCommonError,
		},
		Destination:    destination(dest),
		ComponentID:    componentID,
		SelectedOption: option,
	}
	p.Completed = Validate(p)
	return p
}

// NumericCommonError builds the path taken when a numeric response falls in
// the given advanced feedback band
func NumericCommonError(
	componentID string, index int, feedback string, dest *api.ScreenID,
) api.NumericCommonErrorPath {
	label := fmt.Sprintf("Common Error %d", index+1)
	if feedback != "" {
		label = "Feedback: " + truncate(feedback)
	}
	p := api.NumericCommonErrorPath{
		PathBase: api.PathBase{
			ID:       uuid.NewString(),
			Type:     api.PathNumericCommonError,
			Label:    label,
			Priority: PriorityCommonError,
		},
		Destination:   destination(dest),
		ComponentID:   componentID,
		FeedbackIndex: index,
	}
	p.Completed = Validate(p)
	return p
}

func destination(dest *api.ScreenID) api.Destination {
	if dest == nil {
		return api.Destination{}
	}
	return api.Destination{DestinationScreenID: api.ScreenRef(*dest)}
}

func optionLabel(option int, text string) string {
	if text == "" {
		return fmt.Sprintf("Selected Option: %d", option)
	}
	return "Selected Option: " + truncate(text)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= labelTextLimit {
		return s
	}
	return string(r[:labelTextLimit])
}
