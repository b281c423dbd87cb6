package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserAuthorized EventType = "user_authorized"
	EventUserRevoked    EventType = "user_revoked"
	EventIMEIChecked    EventType = "imei_checked"
)

// Actor identifies who triggered the event. ChatUserID is zero for HTTP callers.
type Actor struct {
	ChatUserID int64  `json:"chat_user_id,omitempty"`
	Subject    string `json:"subject,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AllowListChangedPayload is attached to user_authorized and user_revoked.
type AllowListChangedPayload struct {
	UserID int64 `json:"user_id"`
}

// IMEICheckedPayload is attached to imei_checked.
type IMEICheckedPayload struct {
	IMEI    string `json:"imei"`
	Outcome string `json:"outcome"`
}
