package telegram

import (
	"fmt"
	"strings"

	"github.com/set-night/promolimits/internal/config"
	"github.com/set-night/promolimits/internal/domain"
)

// FormatLimit renders a limit as Markdown (v1) lines.
func FormatLimit(l domain.PartnerPromoCodeLimit) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*Лимит:* `%s`\n", l.ID))
	sb.WriteString(fmt.Sprintf("*Квота:* %d\n", l.Limit))
	sb.WriteString(fmt.Sprintf("*Создан:* %s\n", l.CreateDate.Format(config.DateLayout)))
	sb.WriteString(fmt.Sprintf("*Действует до:* %s\n", l.EndDate.Format(config.DateLayout)))
	if l.CancelDate != nil {
		sb.WriteString(fmt.Sprintf("*Отменён:* %s", l.CancelDate.Format(config.DateLayout)))
	} else {
		sb.WriteString("*Статус:* активен")
	}
	return sb.String()
}

// FormatRotation describes a completed limit rotation.
func FormatRotation(partner *domain.Partner, previous *domain.PartnerPromoCodeLimit, created domain.PartnerPromoCodeLimit) string {
	var sb strings.Builder
	sb.WriteString("🔄 *Limit Rotated*\n\n")
	sb.WriteString(fmt.Sprintf("*Partner:* `%s` %s\n", partner.ID, EscapeMarkdown(partner.Name)))
	sb.WriteString(fmt.Sprintf("*Issued codes:* %d\n", partner.NumberIssuedPromoCodes))
	if previous != nil {
		sb.WriteString(fmt.Sprintf("*Previous:* `%s` (%d)\n", previous.ID, previous.Limit))
	}
	sb.WriteString(fmt.Sprintf("*New:* `%s` (%d until %s)", created.ID, created.Limit, created.EndDate.Format(config.DateLayout)))
	return sb.String()
}
