package api

import (
	"encoding/json"
	"slices"
	"strconv"
)

type (
	// ScreenID is the stable numeric identifier of a screen
	ScreenID int64

	// LessonID identifies a lesson (one flowchart)
	LessonID string

	ScreenType string

	// Screen is one page of adaptive lesson content and a node of the
	// lesson graph
	Screen struct {
		Content    json.RawMessage `json:"content,omitempty"`
		Title      string          `json:"title"`
		ScreenType ScreenType      `json:"screenType"`
		Paths      Paths           `json:"paths"`
		Rules      []*Rule         `json:"rules,omitempty"`
		Variables  []string        `json:"variables,omitempty"`
		Custom     ScreenCustom    `json:"custom"`
		ID         ScreenID        `json:"resourceId"`
	}

	// ScreenCustom carries the scoring settings and initial state facts of
	// a screen
	ScreenCustom struct {
		Facts      []*Fact `json:"facts,omitempty"`
		MaxScore   float64 `json:"maxScore"`
		MaxAttempt int     `json:"maxAttempt"`
	}

	// Fact is an initial state assignment applied when a screen starts
	Fact struct {
		Value    any    `json:"value"`
		Target   string `json:"target"`
		Operator string `json:"operator"`
	}

	// Lesson is one consistent snapshot of the lesson graph
	Lesson struct {
		Page     *Page     `json:"page,omitempty"`
		ID       LessonID  `json:"id"`
		Screens  []*Screen `json:"screens"`
		Sequence Sequence  `json:"sequence"`
	}
)

const (
	WelcomeScreen    ScreenType = "welcome_screen"
	BlankScreen      ScreenType = "blank_screen"
	HubSpokeQuestion ScreenType = "hub_spoke_question"
	EndScreen        ScreenType = "end_screen"
)

// NewScreenSentinel is the destination that asks for a new screen to be
// created while a path is being replaced
const NewScreenSentinel ScreenID = -1

// ScreenRef returns a pointer to a fresh copy of id
func ScreenRef(id ScreenID) *ScreenID {
	return &id
}

func (id ScreenID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// IsEnd reports whether the screen is the lesson's end screen
func (s *Screen) IsEnd() bool {
	return s.ScreenType == EndScreen
}

// Clone returns a deep copy of the screen. Paths and rules are immutable
// once built and are shared
func (s *Screen) Clone() *Screen {
	res := *s
	res.Content = slices.Clone(s.Content)
	res.Paths = s.Paths.Clone()
	res.Rules = slices.Clone(s.Rules)
	res.Variables = slices.Clone(s.Variables)
	if s.Custom.Facts != nil {
		res.Custom.Facts = make([]*Fact, len(s.Custom.Facts))
		for i, f := range s.Custom.Facts {
			cp := *f
			res.Custom.Facts[i] = &cp
		}
	}
	return &res
}

// Screen returns the screen with the given id, or nil
func (l *Lesson) Screen(id ScreenID) *Screen {
	for _, s := range l.Screens {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Clone returns a deep copy of the lesson
func (l *Lesson) Clone() *Lesson {
	res := &Lesson{
		ID:       l.ID,
		Sequence: l.Sequence.Clone(),
		Page:     l.Page.Clone(),
		Screens:  make([]*Screen, len(l.Screens)),
	}
	for i, s := range l.Screens {
		res.Screens[i] = s.Clone()
	}
	return res
}
