package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/promolimits/internal/config"
	"github.com/set-night/promolimits/internal/domain/partnertest"
)

type fakeSender struct {
	sent    []*bot.SendMessageParams
	failFor models.ParseMode
	failAll bool
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	if f.failAll || (f.failFor != "" && params.ParseMode == f.failFor) {
		return nil, errors.New("bad request")
	}
	cp := *params
	f.sent = append(f.sent, &cp)
	return &models.Message{}, nil
}

func TestSplitMessage(t *testing.T) {
	if parts := SplitMessage("short", 10); len(parts) != 1 || parts[0] != "short" {
		t.Fatalf("unexpected split: %q", parts)
	}

	text := strings.Repeat("я", 8) + "\n" + strings.Repeat("ю", 8)
	parts := SplitMessage(text, 10)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d: %q", len(parts), parts)
	}
	if parts[0] != strings.Repeat("я", 8)+"\n" || parts[1] != strings.Repeat("ю", 8) {
		t.Fatalf("expected split after newline, got %q", parts)
	}
	if strings.Join(parts, "") != text {
		t.Fatalf("split lost text")
	}
}

func TestEscapeMarkdown(t *testing.T) {
	if got := EscapeMarkdown("a_b*c`d[e"); got != `a\_b\*c\`+"`"+`d\[e` {
		t.Fatalf("unexpected escape: %q", got)
	}
}

func TestTelegramLogger_LimitRotated(t *testing.T) {
	now := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	old := partnertest.ActiveLimit(25, now.AddDate(0, -1, 0))
	p := partnertest.New().WithName("acme_shop").WithLimits(old).Build()
	created, err := p.RotateLimit(now, now.AddDate(0, 2, 0), 40)
	if err != nil {
		t.Fatalf("RotateLimit: %v", err)
	}
	prev, _ := p.Limit(old.ID)

	sender := &fakeSender{}
	cfg := &config.Config{LogTelegramChatID: -100, LogTopicLimitRotated: 7}
	NewTelegramLogger(sender, cfg).LimitRotated(context.Background(), p, &prev, created)

	if len(sender.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.MessageThreadID != 7 {
		t.Fatalf("expected topic 7, got %d", msg.MessageThreadID)
	}
	for _, want := range []string{p.ID.String(), `acme\_shop`, old.ID.String(), created.ID.String(), "2026-12-19"} {
		if !strings.Contains(msg.Text, want) {
			t.Fatalf("message %q does not contain %q", msg.Text, want)
		}
	}
}

func TestTelegramLogger_DisabledWithoutTopic(t *testing.T) {
	sender := &fakeSender{}
	cfg := &config.Config{LogTelegramChatID: -100}
	NewTelegramLogger(sender, cfg).LogError(errors.New("boom"), "test")

	if len(sender.sent) != 0 {
		t.Fatalf("expected no messages without a topic, got %d", len(sender.sent))
	}
}

func TestSendLongMessage_FallsBackToPlainText(t *testing.T) {
	sender := &fakeSender{failFor: models.ParseModeMarkdownV1}
	markup := InlineKeyboard(ButtonRow(InlineButton("x", "y")))

	if err := SendLongMessage(context.Background(), sender, 1, "*broken", markup); err != nil {
		t.Fatalf("SendLongMessage: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].ParseMode != "" || sender.sent[0].ReplyMarkup == nil {
		t.Fatalf("expected plain-text fallback with keyboard, got %+v", sender.sent)
	}
}

func TestSendLongMessage_ReturnsErrorWhenBothFail(t *testing.T) {
	sender := &fakeSender{failAll: true}
	if err := SendLongMessage(context.Background(), sender, 1, "text", nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFormatLimit(t *testing.T) {
	now := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	active := FormatLimit(partnertest.ActiveLimit(5, now))
	if !strings.Contains(active, "активен") || !strings.Contains(active, "2026-10-19") {
		t.Fatalf("unexpected active render: %q", active)
	}
	canceled := FormatLimit(partnertest.CanceledLimit(5, now, now.AddDate(0, 0, 1)))
	if !strings.Contains(canceled, "Отменён:* 2026-10-20") {
		t.Fatalf("unexpected canceled render: %q", canceled)
	}
}
