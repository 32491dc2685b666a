package helpers

import (
	"encoding/json"
	"fmt"

	"github.com/kode4food/flowchart/internal/config"
	"github.com/kode4food/flowchart/internal/flowchart/graph"
	"github.com/kode4food/flowchart/internal/flowchart/path"
	"github.com/kode4food/flowchart/internal/flowchart/rules"
	"github.com/kode4food/flowchart/pkg/api"
)

const TestLessonID api.LessonID = "test-lesson"

// NewTestConfig creates a default configuration with debug logging enabled
func NewTestConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.LogLevel = "debug"
	return cfg
}

// NewScreen creates a blank screen holding the provided paths
func NewScreen(id api.ScreenID, title string, paths ...api.Path) *api.Screen {
	return &api.Screen{
		ID:         id,
		Title:      title,
		ScreenType: api.BlankScreen,
		Paths:      api.Paths(paths),
	}
}

// NewTypedScreen creates a screen of the given type holding the provided
// paths
func NewTypedScreen(
	id api.ScreenID, title string, typ api.ScreenType, paths ...api.Path,
) *api.Screen {
	s := NewScreen(id, title, paths...)
	s.ScreenType = typ
	return s
}

// NewLesson assembles a lesson whose sequence follows the order of the
// provided screens. Sequence ids are derived from screen ids so that
// compiled rules are predictable
func NewLesson(screens ...*api.Screen) *api.Lesson {
	seq := make(api.Sequence, 0, len(screens))
	for _, s := range screens {
		seq = append(seq, NewSequenceEntry(s))
	}
	return &api.Lesson{
		ID:       TestLessonID,
		Screens:  screens,
		Sequence: seq,
		Page: &api.Page{
			Title:  "Test Lesson",
			Custom: &api.PageCustom{},
		},
	}
}

// Compiled returns the lesson with the rules of every screen compiled
// against its ordering and end screen
func Compiled(l *api.Lesson) *api.Lesson {
	end := graph.New(l).DefaultEndScreenID()
	for i, s := range l.Screens {
		l.Screens[i] = rules.Apply(s, l.Sequence, end)
	}
	return l
}

// QuestionLesson is Welcome(1) -> Question(2) -> End(3), where the
// question branches on a multiple choice part whose first option is correct
func QuestionLesson() *api.Lesson {
	q := NewScreen(2, "Question",
		path.Correct("q1", api.ScreenRef(3)),
		path.Incorrect("q1", api.ScreenRef(3)),
	)
	q.Content = MCQContent("q1", 1, "yes", "no")
	return Compiled(NewLesson(
		NewTypedScreen(1, "Welcome", api.WelcomeScreen,
			path.AlwaysGoTo(api.ScreenRef(2)),
		),
		q,
		NewTypedScreen(3, "End", api.EndScreen, path.ExitActivity()),
	))
}

// NewSequenceEntry builds a predictable sequence entry for a screen
func NewSequenceEntry(s *api.Screen) *api.SequenceEntry {
	slug := api.Slugify(s.Title)
	return &api.SequenceEntry{
		Type:         api.ActivityReference,
		ResourceID:   s.ID,
		ActivitySlug: slug,
		Custom: api.SequenceCustom{
			SequenceID:   SequenceID(s.ID),
			SequenceName: s.Title,
		},
	}
}

// SequenceID returns the sequence id NewLesson assigns to a screen
func SequenceID(id api.ScreenID) string {
	return fmt.Sprintf("screen_%d", id)
}

// MCQContent builds multiple choice content with one correct option
// (1-based)
func MCQContent(partID string, correct int, options ...string) json.RawMessage {
	return choiceContent(partID, false, []int{correct}, options)
}

// CATAContent builds check-all-that-apply content with the given correct
// options (1-based)
func CATAContent(
	partID string, correct []int, options ...string,
) json.RawMessage {
	return choiceContent(partID, true, correct, options)
}

// DropdownContent builds dropdown content with one correct option
func DropdownContent(
	partID string, correct int, options ...string,
) json.RawMessage {
	return mustContent(partID, "janus-dropdown", map[string]any{
		"optionLabels":  options,
		"correctAnswer": correct,
	})
}

// NumberContent builds number input content with an exact answer and
// optional advanced feedback bands of exact values
func NumberContent(
	partID string, answer float64, bands ...float64,
) json.RawMessage {
	feedback := make([]map[string]any, len(bands))
	for i, b := range bands {
		feedback[i] = map[string]any{
			"answer":   map[string]any{"correctAnswer": b},
			"feedback": fmt.Sprintf("You entered %v", b),
		}
	}
	return mustContent(partID, "janus-input-number", map[string]any{
		"answer":           map[string]any{"correctAnswer": answer},
		"advancedFeedback": feedback,
	})
}

// SliderContent builds slider content accepting an inclusive range
func SliderContent(partID string, min, max float64) json.RawMessage {
	return mustContent(partID, "janus-slider", map[string]any{
		"answer": map[string]any{
			"range":      true,
			"correctMin": min,
			"correctMax": max,
		},
	})
}

// TextContent builds text input content requiring the given terms
func TextContent(partID, mustContain string, minLen int) json.RawMessage {
	return mustContent(partID, "janus-input-text", map[string]any{
		"correctAnswer": map[string]any{
			"mustContain":   mustContain,
			"minimumLength": minLen,
		},
	})
}

// HubSpokeContent builds hub-and-spoke content with one spoke per title
func HubSpokeContent(partID string, spokes ...string) json.RawMessage {
	return mustContent(partID, "janus-hub-spoke", map[string]any{
		"spokeItems": spokes,
	})
}

// TextFlowContent builds content with a single non-question part
func TextFlowContent(partID string) json.RawMessage {
	return mustContent(partID, "janus-text-flow", map[string]any{})
}

func choiceContent(
	partID string, multiple bool, correct []int, options []string,
) json.RawMessage {
	answers := make([]bool, len(options))
	items := make([]map[string]any, len(options))
	for i, o := range options {
		items[i] = map[string]any{
			"nodes": []any{
				map[string]any{
					"tag":      "p",
					"children": []any{map[string]any{"text": o}},
				},
			},
		}
	}
	for _, c := range correct {
		if c >= 1 && c <= len(answers) {
			answers[c-1] = true
		}
	}
	return mustContent(partID, "janus-mcq", map[string]any{
		"mcqItems":          items,
		"correctAnswer":     answers,
		"multipleSelection": multiple,
	})
}

func mustContent(partID, typ string, custom map[string]any) json.RawMessage {
	data, err := json.Marshal(map[string]any{
		"partsLayout": []any{
			map[string]any{
				"id":     partID,
				"type":   typ,
				"custom": custom,
			},
		},
	})
	if err != nil {
		panic(err)
	}
	return data
}
