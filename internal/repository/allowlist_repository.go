package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/imei-service/internal/domain"
)

// StoreError wraps an I/O failure from the allow-list backend.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// AllowListRepository persists the set of chat users allowed to run lookups.
// Every call is independent; concurrent writers are serialized by the database.
type AllowListRepository interface {
	// Add upserts user, replacing any record with the same identity.
	Add(ctx context.Context, user domain.AuthorizedUser) error
	// Remove deletes the identity; removing an absent identity is not an error.
	Remove(ctx context.Context, userID int64) error
	Contains(ctx context.Context, userID int64) (bool, error)
	// List returns identities in storage order.
	List(ctx context.Context) ([]int64, error)
	Ping(ctx context.Context) error
}

const addedDateLayout = time.RFC3339Nano

func formatAddedDate(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format(addedDateLayout)
}
