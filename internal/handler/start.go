package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const helpText = "*Управление лимитами партнёров*\n\n" +
	"`/limit <partnerID> <limitID>` — показать лимит\n" +
	"`/setlimit <partnerID> <лимит> <ГГГГ-ММ-ДД>` — установить новый лимит"

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      helpText,
		ParseMode: models.ParseModeMarkdownV1,
	})
}
