package api

import "encoding/json"

type (
	EventType string

	// Event reports a change applied to a lesson
	Event struct {
		Data      json.RawMessage `json:"data"`
		Type      EventType       `json:"type"`
		LessonID  LessonID        `json:"lesson_id"`
		Timestamp int64           `json:"timestamp"`
		Sequence  int64           `json:"sequence"`
	}

	// ScreenAddedEvent is emitted when a screen is created or duplicated
	ScreenAddedEvent struct {
		Screen *Screen   `json:"screen"`
		From   *ScreenID `json:"from,omitempty"`
	}

	// ScreenDeletedEvent is emitted when a screen is removed and its inbound
	// paths re-wired
	ScreenDeletedEvent struct {
		Rewired  []ScreenID `json:"rewired"`
		ScreenID ScreenID   `json:"screen_id"`
	}

	// PathChangedEvent is emitted when a path is replaced or deleted
	PathChangedEvent struct {
		Path     Path     `json:"path,omitempty"`
		PathID   string   `json:"path_id"`
		ScreenID ScreenID `json:"screen_id"`
	}

	// LessonVerifiedEvent is emitted after the verifier changed a lesson
	LessonVerifiedEvent struct {
		Report *VerifyReport `json:"report"`
	}

	// LessonRestoredEvent is emitted after a lesson is restored from an
	// archive
	LessonRestoredEvent struct {
		Screens int `json:"screens"`
	}
)

const (
	EventTypeScreenAdded      EventType = "screen_added"
	EventTypeScreenDuplicated EventType = "screen_duplicated"
	EventTypeScreenDeleted    EventType = "screen_deleted"
	EventTypePathReplaced     EventType = "path_replaced"
	EventTypePathDeleted      EventType = "path_deleted"
	EventTypeLessonVerified   EventType = "lesson_verified"
	EventTypeLessonRestored   EventType = "lesson_restored"
)
