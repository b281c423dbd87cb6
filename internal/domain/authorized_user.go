package domain

import "time"

// AuthorizedUser is an allow-list entry for the chat front-end.
type AuthorizedUser struct {
	UserID    int64
	Username  *string
	AddedDate time.Time
}
