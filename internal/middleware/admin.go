package middleware

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type ctxKey string

const AdminKey ctxKey = "admin_id"

// AdminID returns the Telegram id of the admin that sent the update.
func AdminID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(AdminKey).(int64)
	return id, ok
}

// AdminOnly drops updates from anyone outside the admin list.
func AdminOnly(cfg interface{ IsAdmin(int64) bool }) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			var from *models.User
			if update.Message != nil {
				from = update.Message.From
			} else if update.CallbackQuery != nil {
				from = &update.CallbackQuery.From
			}

			if from == nil || !cfg.IsAdmin(from.ID) {
				if from != nil {
					slog.Warn("update from non-admin ignored", "user_id", from.ID)
				}
				return
			}

			next(context.WithValue(ctx, AdminKey, from.ID), b, update)
		}
	}
}
