package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/set-night/promolimits/internal/config"
	"github.com/set-night/promolimits/internal/domain"
	"github.com/set-night/promolimits/internal/middleware"
	"github.com/set-night/promolimits/internal/service"
	"github.com/set-night/promolimits/internal/telegram"
)

const limitCallbackPrefix = "limit_"

// userError is an argument error whose text is shown to the admin as is.
type userError string

func (e userError) Error() string { return string(e) }

const (
	errLimitUsage     userError = "Использование: /limit <partnerID> <limitID>"
	errSetLimitUsage  userError = "Использование: /setlimit <partnerID> <лимит> <ГГГГ-ММ-ДД>"
	errBadPartnerID   userError = "❌ Некорректный идентификатор партнёра."
	errBadLimitID     userError = "❌ Некорректный идентификатор лимита."
	errBadLimitNumber userError = "❌ Лимит должен быть целым числом."
	errBadEndDate     userError = "❌ Дата окончания должна быть в формате ГГГГ-ММ-ДД."
)

func (h *Handler) handleLimit(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	partnerID, limitID, err := parseLimitArgs(update.Message.Text)
	if err != nil {
		h.reply(ctx, b, chatID, err.Error(), nil)
		return
	}

	h.showLimit(ctx, b, chatID, partnerID, limitID)
}

func (h *Handler) handleSetLimit(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	partnerID, req, err := parseSetLimitArgs(update.Message.Text)
	if err != nil {
		h.reply(ctx, b, chatID, err.Error(), nil)
		return
	}

	adminID, _ := middleware.AdminID(ctx)
	created, err := h.limits.SetLimit(ctx, partnerID, req)
	if err != nil {
		h.replyError(ctx, b, chatID, err, "setlimit")
		return
	}
	slog.Info("limit set via bot", "admin_id", adminID, "partner_id", partnerID, "limit_id", created.ID)

	text := "✅ Новый лимит установлен.\n\n" + telegram.FormatLimit(created)
	markup := telegram.InlineKeyboard(telegram.ButtonRow(
		telegram.InlineButton("🔎 Текущий лимит", limitCallbackData(partnerID, created.ID)),
	))
	h.reply(ctx, b, chatID, text, markup)
}

func (h *Handler) handleLimitCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cq.ID,
	})

	if cq.Message.Message == nil {
		return
	}
	chatID := cq.Message.Message.Chat.ID

	partnerID, limitID, err := parseLimitCallback(cq.Data)
	if err != nil {
		slog.Warn("bad limit callback", "data", cq.Data, "error", err)
		return
	}

	h.showLimit(ctx, b, chatID, partnerID, limitID)
}

func (h *Handler) showLimit(ctx context.Context, b *bot.Bot, chatID int64, partnerID, limitID uuid.UUID) {
	info, err := h.limits.InspectLimit(ctx, partnerID, limitID)
	if err != nil {
		h.replyError(ctx, b, chatID, err, "limit")
		return
	}
	h.reply(ctx, b, chatID, formatLimitInfo(info), nil)
}

func (h *Handler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string, markup models.ReplyMarkup) {
	if err := telegram.SendLongMessage(ctx, b, chatID, text, markup); err != nil {
		slog.Error("send reply", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) replyError(ctx context.Context, b *bot.Bot, chatID int64, err error, op string) {
	if domain.KindOf(err) == domain.KindInternal {
		slog.Error("limit command failed", "op", op, "error", err)
		h.tgLogger.LogError(err, op)
	}
	h.reply(ctx, b, chatID, errorText(err), nil)
}

func parseLimitArgs(text string) (uuid.UUID, uuid.UUID, error) {
	parts := strings.Fields(text)
	if len(parts) != 3 {
		return uuid.Nil, uuid.Nil, errLimitUsage
	}
	partnerID, err := uuid.Parse(parts[1])
	if err != nil {
		return uuid.Nil, uuid.Nil, errBadPartnerID
	}
	limitID, err := uuid.Parse(parts[2])
	if err != nil {
		return uuid.Nil, uuid.Nil, errBadLimitID
	}
	return partnerID, limitID, nil
}

func parseSetLimitArgs(text string) (uuid.UUID, service.SetLimitRequest, error) {
	parts := strings.Fields(text)
	if len(parts) != 4 {
		return uuid.Nil, service.SetLimitRequest{}, errSetLimitUsage
	}
	partnerID, err := uuid.Parse(parts[1])
	if err != nil {
		return uuid.Nil, service.SetLimitRequest{}, errBadPartnerID
	}
	limit, err := strconv.Atoi(parts[2])
	if err != nil {
		return uuid.Nil, service.SetLimitRequest{}, errBadLimitNumber
	}
	endDate, err := time.Parse(config.DateLayout, parts[3])
	if err != nil {
		return uuid.Nil, service.SetLimitRequest{}, errBadEndDate
	}
	return partnerID, service.SetLimitRequest{EndDate: endDate, Limit: limit}, nil
}

// Callback data is capped at 64 bytes, so ids travel as raw base64url
// (22 chars each) joined by ':', which is outside the base64url alphabet.
func limitCallbackData(partnerID, limitID uuid.UUID) string {
	return limitCallbackPrefix + encodeID(partnerID) + ":" + encodeID(limitID)
}

func parseLimitCallback(data string) (uuid.UUID, uuid.UUID, error) {
	ids, ok := strings.CutPrefix(data, limitCallbackPrefix)
	if !ok {
		return uuid.Nil, uuid.Nil, fmt.Errorf("unexpected prefix in %q", data)
	}
	partnerRaw, limitRaw, ok := strings.Cut(ids, ":")
	if !ok {
		return uuid.Nil, uuid.Nil, fmt.Errorf("malformed callback %q", data)
	}
	partnerID, err := decodeID(partnerRaw)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("parse partner id: %w", err)
	}
	limitID, err := decodeID(limitRaw)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("parse limit id: %w", err)
	}
	return partnerID, limitID, nil
}

func encodeID(id uuid.UUID) string {
	return base64.RawURLEncoding.EncodeToString(id[:])
}

func decodeID(s string) (uuid.UUID, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.FromBytes(b)
}

func errorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrPartnerNotFound):
		return "❌ Партнёр не найден."
	case errors.Is(err, domain.ErrLimitNotFound):
		return "❌ Лимит не найден."
	case errors.Is(err, domain.ErrPartnerNotActive):
		return "❌ Партнёр не активен."
	case errors.Is(err, domain.ErrInvalidLimit):
		return "❌ Лимит должен быть больше нуля."
	case errors.Is(err, domain.ErrLimitTooLarge):
		return fmt.Sprintf("❌ Лимит не может превышать %d.", domain.MaxLimit)
	case errors.Is(err, domain.ErrInvalidEndDate):
		return "❌ Укажите дату окончания лимита."
	case domain.KindOf(err) == domain.KindConflict:
		return "⏳ Лимит партнёра сейчас меняется. Повторите попытку."
	default:
		return "❌ Ошибка при обработке команды."
	}
}

func formatLimitInfo(info *service.LimitInfo) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🤝 *Партнёр:* %s\n", telegram.EscapeMarkdown(info.PartnerName)))
	sb.WriteString(fmt.Sprintf("*ID:* `%s`\n", info.PartnerID))
	sb.WriteString(fmt.Sprintf("*Выдано промокодов:* %d\n\n", info.NumberIssuedPromoCodes))
	sb.WriteString(telegram.FormatLimit(info.Limit))
	return sb.String()
}
