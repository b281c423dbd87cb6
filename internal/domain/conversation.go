package domain

// ConversationState tags where a chat user is inside a multi-step command.
type ConversationState string

const (
	StateIdle                   ConversationState = "IDLE"
	StateAwaitingUserIDToAdd    ConversationState = "AWAITING_USER_ID_TO_ADD"
	StateAwaitingUserIDToRemove ConversationState = "AWAITING_USER_ID_TO_REMOVE"
)

// Valid reports whether s is one of the known states.
func (s ConversationState) Valid() bool {
	switch s {
	case StateIdle, StateAwaitingUserIDToAdd, StateAwaitingUserIDToRemove:
		return true
	}
	return false
}
