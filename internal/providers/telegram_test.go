package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sla-service/internal/logging"
	"sla-service/internal/models"
)

func TestNewTelegram_Validation(t *testing.T) {
	_, err := NewTelegram(TelegramConfig{ChatID: 1}, logging.NewNop())
	assert.Error(t, err)

	_, err = NewTelegram(TelegramConfig{BotToken: "token"}, logging.NewNop())
	assert.Error(t, err)

	tg, err := NewTelegram(TelegramConfig{BotToken: "token", ChatID: 42}, logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "telegram", tg.Name())
	assert.Equal(t, 20, tg.cfg.RateLimit)
}

func TestFormatTelegram(t *testing.T) {
	at := time.Date(2024, 5, 2, 10, 30, 0, 0, time.UTC)
	rec := models.Record{RequestID: "REQ-7", Category: "password_reset", Priority: models.PriorityHigh}

	esc := FormatTelegram(models.NewEscalationNotification(rec, 1.5, at))
	assert.Contains(t, esc, "SLA escalation: REQ-7 (password_reset) reached 1.5h")
	assert.Contains(t, esc, "Priority: high")
	assert.Contains(t, esc, "Checkpoint: 1.5h elapsed")

	vio := FormatTelegram(models.NewViolationNotification(rec, at))
	assert.Contains(t, vio, "SLA violated: REQ-7 (password_reset)")
	assert.Contains(t, vio, "Violated at: 2024-05-02T10:30:00Z")
}
