package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/imei-service/internal/api/dto"
	"github.com/spec-kit/imei-service/internal/domain"
	"github.com/spec-kit/imei-service/internal/observability"
)

// Message is an inbound chat message.
type Message struct {
	UserID    int64
	ChatID    int64
	MessageID int
	Username  string
	Text      string
}

// Reply is an outbound message. A reply with PhotoURL is sent as a photo with Text as
// its caption.
type Reply struct {
	Text     string
	Markdown bool
	PhotoURL string
}

// Responder delivers replies to the chat a message came from.
type Responder interface {
	// Reply answers msg and returns the id of the sent message.
	Reply(ctx context.Context, to Message, reply Reply) (int, error)
	Delete(ctx context.Context, chatID int64, messageID int) error
}

// AllowList is the subset of the allow-list service the bot drives.
type AllowList interface {
	Authorize(ctx context.Context, actorID, userID int64, username *string) error
	Revoke(ctx context.Context, actorID, userID int64) error
	IsAuthorized(ctx context.Context, userID int64) (bool, error)
	List(ctx context.Context) ([]int64, error)
}

// TokenMinter issues the bearer credential used for each check.
type TokenMinter interface {
	GenerateToken(subject string) (string, time.Time, error)
}

// EngineConfig bundles the engine's collaborators. AdminID 0 lets any allow-listed
// user manage the allow-list.
type EngineConfig struct {
	States       StateStore
	AllowList    AllowList
	Tokens       TokenMinter
	TokenSubject string
	Checker      Checker
	Responder    Responder
	AdminID      int64
	Metrics      *observability.Metrics
	Logger       *zap.Logger
}

// Engine is the conversation state machine behind the bot.
type Engine struct {
	states    StateStore
	allow     AllowList
	tokens    TokenMinter
	subject   string
	checker   Checker
	responder Responder
	adminID   int64
	metrics   *observability.Metrics
	logger    *zap.Logger
}

func NewEngine(cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	states := cfg.States
	if states == nil {
		states = NewMemoryStateStore()
	}
	subject := cfg.TokenSubject
	if subject == "" {
		subject = "user"
	}
	return &Engine{
		states:    states,
		allow:     cfg.AllowList,
		tokens:    cfg.Tokens,
		subject:   subject,
		checker:   cfg.Checker,
		responder: cfg.Responder,
		adminID:   cfg.AdminID,
		metrics:   cfg.Metrics,
		logger:    logger,
	}
}

// Handle processes one message. Only delivery failures are returned; everything else
// is answered in the chat.
func (e *Engine) Handle(ctx context.Context, msg Message) error {
	switch command(msg.Text) {
	case "start":
		e.metrics.RecordBotMessage("start")
		return e.handleStart(ctx, msg)
	case "help":
		e.metrics.RecordBotMessage("help")
		return e.handleHelp(ctx, msg)
	case "add_user":
		e.metrics.RecordBotMessage("add_user")
		return e.handleAddUser(ctx, msg)
	case "del_user":
		e.metrics.RecordBotMessage("del_user")
		return e.handleDelUser(ctx, msg)
	}

	state, err := e.states.Get(ctx, msg.UserID)
	if err != nil {
		e.logger.Warn("conversation state unavailable, assuming idle",
			zap.Int64("user_id", msg.UserID), zap.Error(err))
		state = domain.StateIdle
	}

	switch state {
	case domain.StateAwaitingUserIDToAdd:
		e.metrics.RecordBotMessage("add_user_reply")
		return e.processUserID(ctx, msg, e.authorize, msgUserAuthorized)
	case domain.StateAwaitingUserIDToRemove:
		e.metrics.RecordBotMessage("del_user_reply")
		return e.processUserID(ctx, msg, e.revoke, msgUserRemoved)
	default:
		return e.handleText(ctx, msg)
	}
}

// command returns the bot command named by text, without the leading slash or an
// @botname suffix, or "" for plain text.
func command(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name)
}

func (e *Engine) handleStart(ctx context.Context, msg Message) error {
	ok, err := e.gate(ctx, msg)
	if err != nil || !ok {
		return err
	}
	return e.reply(ctx, msg, Reply{Text: msgWelcome})
}

func (e *Engine) handleHelp(ctx context.Context, msg Message) error {
	ok, err := e.gate(ctx, msg)
	if err != nil || !ok {
		return err
	}
	return e.reply(ctx, msg, Reply{Text: msgHelp, Markdown: true})
}

func (e *Engine) handleAddUser(ctx context.Context, msg Message) error {
	ok, err := e.canManage(ctx, msg)
	if err != nil || !ok {
		return err
	}
	if err := e.reply(ctx, msg, Reply{Text: msgAddUserPrompt}); err != nil {
		return err
	}
	e.setState(ctx, msg.UserID, domain.StateAwaitingUserIDToAdd)
	return nil
}

func (e *Engine) handleDelUser(ctx context.Context, msg Message) error {
	ok, err := e.canManage(ctx, msg)
	if err != nil || !ok {
		return err
	}

	users, err := e.allow.List(ctx)
	if err != nil {
		e.setState(ctx, msg.UserID, domain.StateIdle)
		return e.reply(ctx, msg, Reply{Text: fmt.Sprintf(msgDatabaseError, err)})
	}

	var b strings.Builder
	if len(users) == 0 {
		b.WriteString(msgNoUsers)
	} else {
		b.WriteString(msgCurrentUsersHead)
		for _, id := range users {
			fmt.Fprintf(&b, "\nUser ID: %d", id)
		}
	}
	b.WriteString("\n\n")
	b.WriteString(msgDelUserPrompt)

	if err := e.reply(ctx, msg, Reply{Text: b.String()}); err != nil {
		return err
	}
	e.setState(ctx, msg.UserID, domain.StateAwaitingUserIDToRemove)
	return nil
}

// processUserID handles the reply to a pending /add_user or /del_user. The user is
// back in Idle afterwards whatever the outcome.
func (e *Engine) processUserID(ctx context.Context, msg Message, apply func(context.Context, Message, int64) error, confirmation string) error {
	defer e.setState(ctx, msg.UserID, domain.StateIdle)

	if ok, err := e.canManage(ctx, msg); err != nil || !ok {
		return err
	}

	userID, err := strconv.ParseInt(strings.TrimSpace(msg.Text), 10, 64)
	if err != nil {
		return e.reply(ctx, msg, Reply{Text: msgInvalidUserID})
	}
	if err := apply(ctx, msg, userID); err != nil {
		e.logger.Error("allow-list update failed", zap.Int64("user_id", userID), zap.Error(err))
		return e.reply(ctx, msg, Reply{Text: fmt.Sprintf(msgDatabaseError, err)})
	}
	return e.reply(ctx, msg, Reply{Text: fmt.Sprintf(confirmation, userID)})
}

func (e *Engine) authorize(ctx context.Context, msg Message, userID int64) error {
	return e.allow.Authorize(ctx, msg.UserID, userID, nil)
}

func (e *Engine) revoke(ctx context.Context, msg Message, userID int64) error {
	return e.allow.Revoke(ctx, msg.UserID, userID)
}

func (e *Engine) handleText(ctx context.Context, msg Message) error {
	ok, err := e.gate(ctx, msg)
	if err != nil || !ok {
		return err
	}

	original := strings.TrimSpace(msg.Text)
	cleaned := CleanIMEI(original)
	if cleaned == "" {
		e.metrics.RecordBotMessage("no_digits")
		return e.reply(ctx, msg, Reply{Text: msgNoNumbers})
	}

	e.metrics.RecordBotMessage("lookup")
	return e.lookup(ctx, msg, original, cleaned)
}

// lookup runs a check behind a "processing" notice that is removed before the result
// is posted.
func (e *Engine) lookup(ctx context.Context, msg Message, original, cleaned string) error {
	noticeID, err := e.responder.Reply(ctx, msg, Reply{Text: msgProcessing})
	if err != nil {
		e.logger.Warn("processing notice not sent", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
	}

	reply := e.runCheck(ctx, original, cleaned)

	if noticeID != 0 {
		if err := e.responder.Delete(ctx, msg.ChatID, noticeID); err != nil {
			e.logger.Warn("processing notice not deleted", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
		}
	}

	if reply.PhotoURL != "" {
		_, err := e.responder.Reply(ctx, msg, reply)
		if err == nil {
			return nil
		}
		e.logger.Warn("photo reply failed, sending text", zap.String("photo_url", reply.PhotoURL), zap.Error(err))
		reply.PhotoURL = ""
	}
	return e.reply(ctx, msg, reply)
}

func (e *Engine) runCheck(ctx context.Context, original, cleaned string) (reply Reply) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("imei check panicked", zap.Any("panic", r), zap.Stack("stack"))
			reply = Reply{Text: fmt.Sprintf(msgGenericError, r)}
		}
	}()

	token, _, err := e.tokens.GenerateToken(e.subject)
	if err != nil || token == "" {
		e.logger.Error("token mint failed", zap.Error(err))
		return Reply{Text: msgTokenError}
	}

	resp, err := e.checker.Check(ctx, cleaned, token)
	if err != nil {
		e.logger.Warn("imei check failed", zap.String("imei", cleaned), zap.Error(err))
		return Reply{Text: fmt.Sprintf(msgLookupError, err)}
	}
	if resp == nil || (resp.Status != dto.StatusValid && resp.Status != dto.StatusInvalid) {
		return Reply{Text: fmt.Sprintf(msgGenericError, "unexpected check response")}
	}
	return RenderResult(original, cleaned, resp)
}

// gate replies with the denial text and returns false when msg's sender is not on the
// allow-list.
func (e *Engine) gate(ctx context.Context, msg Message) (bool, error) {
	ok, err := e.allow.IsAuthorized(ctx, msg.UserID)
	if err != nil {
		e.logger.Error("allow-list lookup failed", zap.Int64("user_id", msg.UserID), zap.Error(err))
		return false, e.reply(ctx, msg, Reply{Text: fmt.Sprintf(msgGenericError, err)})
	}
	if !ok {
		e.metrics.RecordBotMessage("denied")
		return false, e.reply(ctx, msg, Reply{Text: msgNotAuthorized})
	}
	return true, nil
}

// canManage reports whether msg's sender may change the allow-list: they must be on it
// and, when an administrator is configured, be that administrator.
func (e *Engine) canManage(ctx context.Context, msg Message) (bool, error) {
	ok, err := e.gate(ctx, msg)
	if err != nil || !ok {
		return false, err
	}
	if e.adminID != 0 && msg.UserID != e.adminID {
		return false, e.reply(ctx, msg, Reply{Text: msgNotAdmin})
	}
	return true, nil
}

func (e *Engine) setState(ctx context.Context, userID int64, state domain.ConversationState) {
	if err := e.states.Set(ctx, userID, state); err != nil {
		e.logger.Error("conversation state not saved",
			zap.Int64("user_id", userID), zap.String("state", string(state)), zap.Error(err))
	}
}

func (e *Engine) reply(ctx context.Context, to Message, reply Reply) error {
	if _, err := e.responder.Reply(ctx, to, reply); err != nil {
		return fmt.Errorf("reply to chat %d: %w", to.ChatID, err)
	}
	return nil
}
