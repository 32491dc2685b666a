package api

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// InvalidIDChars matches characters not permitted in lesson IDs and
	// slugs. Valid characters are: letters, digits, underscore, dot, hyphen,
	// plus, space
	InvalidIDChars = regexp.MustCompile(`[^a-zA-Z0-9_.\-+ ]`)

	// ValidPartID matches the identifiers authors may give to parts and
	// other addressable content
	ValidPartID = regexp.MustCompile(`^[a-zA-Z0-9_\-: ]+$`)

	invalidPartChars = regexp.MustCompile(`[^a-zA-Z0-9_\-: ]`)
)

var (
	ErrLessonIDEmpty   = errors.New("lesson ID empty")
	ErrLessonIDInvalid = errors.New("lesson ID contains invalid characters")
)

// SanitizeID lowercases an ID, removes invalid characters, replaces spaces
// with hyphens, and trims leading and trailing hyphens
func SanitizeID[T ~string](id T) T {
	lower := strings.ToLower(string(id))
	sanitized := InvalidIDChars.ReplaceAllString(lower, "")
	sanitized = strings.ReplaceAll(sanitized, " ", "-")
	return T(strings.Trim(sanitized, "-"))
}

// SuggestPartID replaces every character a part ID may not contain with an
// underscore
func SuggestPartID(id string) string {
	res := invalidPartChars.ReplaceAllString(id, "_")
	if res == "" {
		return "_"
	}
	return res
}

// Validate checks that the lesson ID is usable as a storage key
func (id LessonID) Validate() error {
	if id == "" {
		return ErrLessonIDEmpty
	}
	if InvalidIDChars.MatchString(string(id)) || strings.Contains(
		string(id), " ",
	) {
		return ErrLessonIDInvalid
	}
	return nil
}
