package ws

import (
	"encoding/json"
	"time"
)

// Event types - Client → Server
const (
	EventTypePing = "ping"
)

// Event types - Server → Client
const (
	EventTypeSubmissionReceived = "submission.received"
	EventTypeSubmissionAccepted = "submission.accepted"
	EventTypeSubmissionDenied   = "submission.denied"
	EventTypeSubmissionRemoved  = "submission.removed"
	EventTypePong               = "pong"
	EventTypeError              = "error"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// SubmissionPayload describes a moderation lifecycle event.
type SubmissionPayload struct {
	Owner    string `json:"owner"`
	Filename string `json:"filename"`
	Actor    string `json:"actor,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}
