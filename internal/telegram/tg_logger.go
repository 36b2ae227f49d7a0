package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/promolimits/internal/config"
	"github.com/set-night/promolimits/internal/domain"
)

// MessageSender is the subset of *bot.Bot used for log delivery.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramLogger posts operational events to topics of a log chat.
type TelegramLogger struct {
	sender MessageSender
	cfg    *config.Config
}

func NewTelegramLogger(sender MessageSender, cfg *config.Config) *TelegramLogger {
	return &TelegramLogger{sender: sender, cfg: cfg}
}

type LogType string

const (
	LogTypeError        LogType = "error"
	LogTypeLimitRotated LogType = "limitRotated"
)

func (l *TelegramLogger) Log(logType LogType, message string) {
	if l == nil || l.sender == nil || l.cfg.LogTelegramChatID == 0 {
		return
	}

	topicID := l.getTopicID(logType)
	if topicID == 0 {
		return
	}

	// Truncate if too long
	if len([]rune(message)) > config.MaxTelegramMessageLen {
		message = string([]rune(message)[:config.MaxTelegramMessageLen-20]) + "\n\n... (truncated)"
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.TelegramLogTimeout)
	defer cancel()

	_, err := l.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          l.cfg.LogTelegramChatID,
		Text:            message,
		ParseMode:       models.ParseModeMarkdownV1,
		MessageThreadID: topicID,
	})
	if err != nil {
		slog.Error("failed to send telegram log", "type", logType, "error", err)
	}
}

func (l *TelegramLogger) LogError(err error, op string) {
	msg := fmt.Sprintf("❌ *Error*\n\n*Context:* %s\n*Error:* `%s`\n*Time:* %s",
		op, err.Error(), time.Now().Format(time.DateTime))
	l.Log(LogTypeError, msg)
}

// LimitRotated implements service.Notifier.
func (l *TelegramLogger) LimitRotated(_ context.Context, partner *domain.Partner, previous *domain.PartnerPromoCodeLimit, created domain.PartnerPromoCodeLimit) {
	l.Log(LogTypeLimitRotated, FormatRotation(partner, previous, created))
}

func (l *TelegramLogger) getTopicID(logType LogType) int {
	switch logType {
	case LogTypeError:
		return l.cfg.LogTopicError
	case LogTypeLimitRotated:
		return l.cfg.LogTopicLimitRotated
	default:
		return 0
	}
}
