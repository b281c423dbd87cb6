package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/imei-service/internal/domain"
	"github.com/spec-kit/imei-service/internal/events"
	"github.com/spec-kit/imei-service/internal/repository"
)

// AllowListService manages the chat allow-list and announces changes.
type AllowListService struct {
	repo       repository.AllowListRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// NewAllowListService constructs the service. dispatcher may be nil.
func NewAllowListService(repo repository.AllowListRepository, dispatcher events.Dispatcher) *AllowListService {
	return &AllowListService{repo: repo, dispatcher: dispatcher, now: time.Now}
}

// Authorize adds userID, replacing any previous record. actorID is the chat user who
// asked for the change.
func (s *AllowListService) Authorize(ctx context.Context, actorID, userID int64, username *string) error {
	if err := s.repo.Add(ctx, domain.AuthorizedUser{
		UserID:    userID,
		Username:  username,
		AddedDate: s.now(),
	}); err != nil {
		return err
	}
	s.publish(ctx, events.EventUserAuthorized, actorID, userID)
	return nil
}

// Revoke removes userID. Revoking an unknown identity succeeds.
func (s *AllowListService) Revoke(ctx context.Context, actorID, userID int64) error {
	if err := s.repo.Remove(ctx, userID); err != nil {
		return err
	}
	s.publish(ctx, events.EventUserRevoked, actorID, userID)
	return nil
}

// IsAuthorized reports whether userID may use the bot.
func (s *AllowListService) IsAuthorized(ctx context.Context, userID int64) (bool, error) {
	return s.repo.Contains(ctx, userID)
}

// List returns the authorized identities in storage order.
func (s *AllowListService) List(ctx context.Context) ([]int64, error) {
	return s.repo.List(ctx)
}

// Ping checks the backing store.
func (s *AllowListService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *AllowListService) publish(ctx context.Context, eventType events.EventType, actorID, userID int64) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     events.Actor{ChatUserID: actorID},
		Timestamp: s.now(),
		Payload:   events.AllowListChangedPayload{UserID: userID},
	})
}
