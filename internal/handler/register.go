package handler

import (
	"github.com/go-telegram/bot"
)

// Register wires every command and callback handler into the bot.
func (h *Handler) Register() {
	// Commands
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.handleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/limit", bot.MatchTypePrefix, h.handleLimit)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/setlimit", bot.MatchTypePrefix, h.handleSetLimit)

	// Limit callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, limitCallbackPrefix, bot.MatchTypePrefix, h.handleLimitCallback)
}
