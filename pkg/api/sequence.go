package api

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

type (
	// Sequence is the lesson-wide ordering of screens, independent of the
	// destinations their paths name
	Sequence []*SequenceEntry

	// SequenceEntry places one screen in the ordering
	SequenceEntry struct {
		Custom       SequenceCustom `json:"custom"`
		Type         string         `json:"type"`
		ActivitySlug string         `json:"activitySlug"`
		ResourceID   ScreenID       `json:"resourceId"`
	}

	// SequenceCustom carries hierarchy metadata and the id that navigation
	// actions target
	SequenceCustom struct {
		LayerRef     *string `json:"layerRef"`
		SequenceID   string  `json:"sequenceId"`
		SequenceName string  `json:"sequenceName"`
		IsLayer      bool    `json:"isLayer"`
		IsBank       bool    `json:"isBank"`
	}

	// Page holds lesson-wide settings
	Page struct {
		Custom *PageCustom `json:"custom,omitempty"`
		Title  string      `json:"title"`
	}

	PageCustom struct {
		LogoutMessage       string      `json:"logoutMessage"`
		Variables           []*Variable `json:"variables,omitempty"`
		DefaultScreenWidth  int         `json:"defaultScreenWidth,omitempty"`
		DefaultScreenHeight int         `json:"defaultScreenHeight,omitempty"`
	}

	// Variable is a lesson variable computed from an expression
	Variable struct {
		Name       string `json:"name"`
		Expression string `json:"expression"`
	}
)

const ActivityReference = "activity-reference"

// NewSequenceEntry builds the ordering entry for a freshly created screen
func NewSequenceEntry(id ScreenID, title string) *SequenceEntry {
	slug := Slugify(title)
	return &SequenceEntry{
		Type:         ActivityReference,
		ResourceID:   id,
		ActivitySlug: slug,
		Custom: SequenceCustom{
			SequenceID:   slug + "_" + uuid.NewString(),
			SequenceName: title,
		},
	}
}

// Slugify lowercases s and joins its words with underscores
func Slugify(s string) string {
	s = InvalidIDChars.ReplaceAllString(strings.ToLower(s), "")
	return strings.Join(strings.Fields(s), "_")
}

// Find returns the entry for the given screen
func (s Sequence) Find(id ScreenID) (*SequenceEntry, bool) {
	if i := s.Index(id); i >= 0 {
		return s[i], true
	}
	return nil, false
}

// Index returns the position of the given screen, or -1
func (s Sequence) Index(id ScreenID) int {
	return slices.IndexFunc(s, func(e *SequenceEntry) bool {
		return e.ResourceID == id
	})
}

// SequenceID returns the navigation target for the given screen
func (s Sequence) SequenceID(id ScreenID) (string, bool) {
	if e, ok := s.Find(id); ok {
		return e.Custom.SequenceID, true
	}
	return "", false
}

// Without returns a copy of the sequence with the given screen removed
func (s Sequence) Without(id ScreenID) Sequence {
	res := make(Sequence, 0, len(s))
	for _, e := range s {
		if e.ResourceID != id {
			res = append(res, e)
		}
	}
	return res
}

// InsertAfter returns a copy of the sequence with entry placed immediately
// after the given screen. The entry is appended when the screen is absent
func (s Sequence) InsertAfter(after ScreenID, entry *SequenceEntry) Sequence {
	i := s.Index(after)
	if i < 0 {
		return append(slices.Clone(s), entry)
	}
	return slices.Insert(slices.Clone(s), i+1, entry)
}

// MoveToEnd returns a copy of the sequence with the given screen last
func (s Sequence) MoveToEnd(id ScreenID) Sequence {
	e, ok := s.Find(id)
	if !ok {
		return slices.Clone(s)
	}
	return append(s.Without(id), e)
}

// Clone returns a deep copy of the sequence
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	res := make(Sequence, len(s))
	for i, e := range s {
		cp := *e
		if e.Custom.LayerRef != nil {
			ref := *e.Custom.LayerRef
			cp.Custom.LayerRef = &ref
		}
		res[i] = &cp
	}
	return res
}

// Clone returns a deep copy of the page
func (p *Page) Clone() *Page {
	if p == nil {
		return nil
	}
	res := *p
	if p.Custom != nil {
		c := *p.Custom
		if p.Custom.Variables != nil {
			c.Variables = make([]*Variable, len(p.Custom.Variables))
			for i, v := range p.Custom.Variables {
				cp := *v
				c.Variables[i] = &cp
			}
		}
		res.Custom = &c
	}
	return &res
}
