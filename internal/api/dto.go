package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/set-night/promolimits/internal/config"
	"github.com/set-night/promolimits/internal/domain"
	"github.com/set-night/promolimits/internal/service"
)

// Date accepts either "2006-01-02" or an RFC 3339 timestamp.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(config.DateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date %q", s)
	}
	d.Time = t
	return nil
}

type setLimitRequest struct {
	EndDate Date `json:"endDate"`
	Limit   int  `json:"limit"`
}

type limitResponse struct {
	ID         string  `json:"id"`
	PartnerID  string  `json:"partnerId"`
	CreateDate string  `json:"createDate"`
	CancelDate *string `json:"cancelDate"`
	EndDate    string  `json:"endDate"`
	Limit      int     `json:"limit"`
}

type limitInfoResponse struct {
	PartnerID              string        `json:"partnerId"`
	PartnerName            string        `json:"partnerName"`
	IsActive               bool          `json:"isActive"`
	NumberIssuedPromoCodes int           `json:"numberIssuedPromoCodes"`
	Limit                  limitResponse `json:"limit"`
}

func toLimitResponse(l domain.PartnerPromoCodeLimit) limitResponse {
	resp := limitResponse{
		ID:         l.ID.String(),
		PartnerID:  l.PartnerID.String(),
		CreateDate: l.CreateDate.Format(config.DateLayout),
		EndDate:    l.EndDate.Format(config.DateLayout),
		Limit:      l.Limit,
	}
	if l.CancelDate != nil {
		s := l.CancelDate.Format(config.DateLayout)
		resp.CancelDate = &s
	}
	return resp
}

func toLimitInfoResponse(info *service.LimitInfo) limitInfoResponse {
	return limitInfoResponse{
		PartnerID:              info.PartnerID.String(),
		PartnerName:            info.PartnerName,
		IsActive:               info.IsActive,
		NumberIssuedPromoCodes: info.NumberIssuedPromoCodes,
		Limit:                  toLimitResponse(info.Limit),
	}
}
