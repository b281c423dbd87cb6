package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/imei-service/internal/events"
)

// Notifier delivers a plain text message to a chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	notifier   Notifier
	adminID    int64
}

// NewNotificationService creates the service. notifier may be nil, in which case events
// are only logged.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, notifier Notifier, adminID int64) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		notifier:   notifier,
		adminID:    adminID,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserAuthorized, n.handleAllowListChanged)
	n.dispatcher.Subscribe(events.EventUserRevoked, n.handleAllowListChanged)
	n.dispatcher.Subscribe(events.EventIMEIChecked, n.handleIMEIChecked)
}

func (n *NotificationService) handleAllowListChanged(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.AllowListChangedPayload)
	n.logger.Info(string(event.Type),
		zap.Int64("user_id", payload.UserID),
		zap.Int64("actor_id", event.Actor.ChatUserID))

	if n.notifier == nil || n.adminID == 0 || event.Actor.ChatUserID == n.adminID {
		return nil
	}

	verb := "authorized"
	if event.Type == events.EventUserRevoked {
		verb = "removed from authorized users"
	}
	text := fmt.Sprintf("User %d has been %s by %d.", payload.UserID, verb, event.Actor.ChatUserID)
	return n.notifier.Notify(ctx, n.adminID, text)
}

func (n *NotificationService) handleIMEIChecked(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.IMEICheckedPayload)
	n.logger.Debug(string(event.Type),
		zap.String("imei", payload.IMEI),
		zap.String("outcome", payload.Outcome),
		zap.String("subject", event.Actor.Subject))
	return nil
}
