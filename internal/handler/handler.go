package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/google/uuid"
	"github.com/set-night/promolimits/internal/domain"
	"github.com/set-night/promolimits/internal/service"
	"github.com/set-night/promolimits/internal/telegram"
)

// LimitService is the part of service.LimitService the bot uses.
type LimitService interface {
	InspectLimit(ctx context.Context, partnerID, limitID uuid.UUID) (*service.LimitInfo, error)
	SetLimit(ctx context.Context, partnerID uuid.UUID, req service.SetLimitRequest) (domain.PartnerPromoCodeLimit, error)
}

// Handler holds all dependencies needed by command and callback handlers.
type Handler struct {
	bot      *bot.Bot
	limits   LimitService
	tgLogger *telegram.TelegramLogger
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot      *bot.Bot
	Limits   LimitService
	TgLogger *telegram.TelegramLogger
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:      deps.Bot,
		limits:   deps.Limits,
		tgLogger: deps.TgLogger,
	}
}
