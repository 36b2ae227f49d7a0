package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// PanicReporter receives recovered handler panics, e.g. the Telegram error log.
type PanicReporter func(err error, op string)

// Recover returns middleware that recovers from panics in update handlers.
// report may be nil.
func Recover(report PanicReporter) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				chatID, userID, command := describeUpdate(update)
				slog.Error("panic recovered in handler",
					"panic", r,
					"update_id", update.ID,
					"chat_id", chatID,
					"user_id", userID,
					"command", command,
					"stack", string(debug.Stack()),
				)
				if report != nil {
					report(fmt.Errorf("panic: %v", r), fmt.Sprintf("update %d %s", update.ID, command))
				}
			}()
			next(ctx, b, update)
		}
	}
}

// describeUpdate extracts who sent an update and what it asked for.
func describeUpdate(update *models.Update) (chatID, userID int64, command string) {
	switch {
	case update.Message != nil:
		chatID = update.Message.Chat.ID
		if update.Message.From != nil {
			userID = update.Message.From.ID
		}
		command = update.Message.Text
		if i := strings.IndexAny(command, " \n"); i >= 0 {
			command = command[:i]
		}
	case update.CallbackQuery != nil:
		if update.CallbackQuery.Message.Message != nil {
			chatID = update.CallbackQuery.Message.Message.Chat.ID
		}
		userID = update.CallbackQuery.From.ID
		command = update.CallbackQuery.Data
	}
	return chatID, userID, command
}

