package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Telegram talks to the Bot API over long polling. It replies to chat messages and
// delivers admin notifications.
type Telegram struct {
	api         *tgbotapi.BotAPI
	pollTimeout int
	logger      *zap.Logger
}

func NewTelegram(token string, pollTimeoutSeconds int, logger *zap.Logger) (*Telegram, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := tgbotapi.SetLogger(botLogger{logger.Sugar()}); err != nil {
		return nil, fmt.Errorf("set telegram logger: %w", err)
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	logger.Info("telegram bot authorized", zap.String("username", api.Self.UserName))
	return &Telegram{api: api, pollTimeout: pollTimeoutSeconds, logger: logger}, nil
}

// Run polls for updates and hands text messages to dispatch until ctx is cancelled.
// Messages dispatch rejects are not retried.
func (t *Telegram) Run(ctx context.Context, dispatch func(Message) bool) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = t.pollTimeout
	updates := t.api.GetUpdatesChan(cfg)
	defer t.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			msg, ok := messageFromUpdate(update)
			if !ok {
				continue
			}
			dispatch(msg)
		}
	}
}

func messageFromUpdate(update tgbotapi.Update) (Message, bool) {
	m := update.Message
	if m == nil || m.From == nil || m.Chat == nil || m.Text == "" {
		return Message{}, false
	}
	return Message{
		UserID:    m.From.ID,
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
		Username:  m.From.UserName,
		Text:      m.Text,
	}, true
}

func (t *Telegram) Reply(_ context.Context, to Message, reply Reply) (int, error) {
	parseMode := ""
	if reply.Markdown {
		parseMode = tgbotapi.ModeMarkdown
	}

	var chattable tgbotapi.Chattable
	if reply.PhotoURL != "" {
		photo := tgbotapi.NewPhoto(to.ChatID, tgbotapi.FileURL(reply.PhotoURL))
		photo.Caption = reply.Text
		photo.ParseMode = parseMode
		photo.ReplyToMessageID = to.MessageID
		chattable = photo
	} else {
		text := tgbotapi.NewMessage(to.ChatID, reply.Text)
		text.ParseMode = parseMode
		text.ReplyToMessageID = to.MessageID
		chattable = text
	}

	sent, err := t.api.Send(chattable)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (t *Telegram) Delete(_ context.Context, chatID int64, messageID int) error {
	_, err := t.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

// Notify sends a plain message to chatID.
func (t *Telegram) Notify(_ context.Context, chatID int64, text string) error {
	_, err := t.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

type botLogger struct {
	s *zap.SugaredLogger
}

func (l botLogger) Println(v ...interface{}) {
	l.s.Debug(v...)
}

func (l botLogger) Printf(format string, v ...interface{}) {
	l.s.Debugf(format, v...)
}
