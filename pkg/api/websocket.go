package api

import "encoding/json"

type (
	// SubscribeRequest is sent by clients to narrow the events they receive
	// from a lesson's change feed
	SubscribeRequest struct {
		Type string             `json:"type"`
		Data ClientSubscription `json:"data"`
	}

	// ClientSubscription configures which events a WebSocket client
	// receives. No event types means every event
	ClientSubscription struct {
		EventTypes []EventType `json:"event_types,omitempty"`
	}

	// SubscribedResult is sent to clients with the current lesson snapshot
	// when they subscribe. Events with a lower sequence predate the snapshot
	SubscribedResult struct {
		Type     string          `json:"type"`
		LessonID LessonID        `json:"lesson_id"`
		Data     json.RawMessage `json:"data"`
		Sequence int64           `json:"sequence"`
	}
)

const (
	MessageSubscribe  = "subscribe"
	MessageSubscribed = "subscribed"
)
