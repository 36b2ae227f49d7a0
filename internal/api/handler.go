package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/set-night/promolimits/internal/config"
	"github.com/set-night/promolimits/internal/domain"
	"github.com/set-night/promolimits/internal/response"
	"github.com/set-night/promolimits/internal/service"
)

// LimitService is the part of service.LimitService the HTTP layer uses.
type LimitService interface {
	InspectLimit(ctx context.Context, partnerID, limitID uuid.UUID) (*service.LimitInfo, error)
	SetLimit(ctx context.Context, partnerID uuid.UUID, req service.SetLimitRequest) (domain.PartnerPromoCodeLimit, error)
}

type LimitHandler struct {
	limits LimitService
}

func NewLimitHandler(limits LimitService) *LimitHandler {
	return &LimitHandler{limits: limits}
}

func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// GetPartnerLimit returns a single limit of an active partner.
func (h *LimitHandler) GetPartnerLimit(w http.ResponseWriter, r *http.Request) {
	partnerID, err := uuid.Parse(chi.URLParam(r, "partnerID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid partner id")
		return
	}
	limitID, err := uuid.Parse(chi.URLParam(r, "limitID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid limit id")
		return
	}

	info, err := h.limits.InspectLimit(r.Context(), partnerID, limitID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, toLimitInfoResponse(info))
}

// SetPartnerPromoCodeLimit replaces the partner's current limit.
func (h *LimitHandler) SetPartnerPromoCodeLimit(w http.ResponseWriter, r *http.Request) {
	partnerID, err := uuid.Parse(chi.URLParam(r, "partnerID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid partner id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxRequestBody)
	var in setLimitRequest
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.limits.SetLimit(r.Context(), partnerID, service.SetLimitRequest{
		EndDate: in.EndDate.Time,
		Limit:   in.Limit,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/partners/"+partnerID.String()+"/limits/"+created.ID.String())
	response.JSON(w, http.StatusCreated, toLimitResponse(created))
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		response.Error(w, http.StatusNotFound, rootMessage(err))
	case domain.KindInvalidState, domain.KindValidation:
		response.Error(w, http.StatusBadRequest, rootMessage(err))
	case domain.KindConflict:
		response.Error(w, http.StatusConflict, rootMessage(err))
	default:
		if errors.Is(err, context.Canceled) {
			return
		}
		slog.Error("limit request failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "internal error")
	}
}

// rootMessage strips the operation prefixes added while wrapping.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
