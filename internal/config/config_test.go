package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "sla.db", cfg.Store.SQLitePath)
	assert.Equal(t, ":8080", cfg.API.Port)
	assert.Equal(t, "/api/v0", cfg.API.BasePath)
	assert.Equal(t, 5*time.Minute, cfg.Monitor.SweepInterval)
	assert.Equal(t, time.Hour, cfg.Monitor.StatsInterval)
	assert.Equal(t, 30*24*time.Hour, cfg.Monitor.StatsWindow)
	assert.Equal(t, 500, cfg.Notification.QueueSize)
	assert.Equal(t, 10*time.Second, cfg.Notification.Timeout)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"STORE_DRIVER":     "postgres",
		"DB_DSN":           "postgres://localhost/sla",
		"KAFKA_ENABLED":    "true",
		"KAFKA_BROKER":     "localhost:9092",
		"SWEEP_INTERVAL":   "1m",
		"TELEGRAM_CHAT_ID": "-100123",
		"SCHEDULER_LOCK":   "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, time.Minute, cfg.Monitor.SweepInterval)
	assert.Equal(t, int64(-100123), cfg.Telegram.ChatID)
	assert.True(t, cfg.Monitor.SchedulerLock)
	assert.Equal(t, "request_lifecycle", cfg.Kafka.EventsTopic)
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"postgres without dsn", map[string]string{"STORE_DRIVER": "postgres"}},
		{"kafka without broker", map[string]string{"KAFKA_ENABLED": "true"}},
		{"unknown driver", map[string]string{"STORE_DRIVER": "mongo"}},
		{"bad interval", map[string]string{"SWEEP_INTERVAL": "soon"}},
		{"bad chat id", map[string]string{"TELEGRAM_CHAT_ID": "abc"}},
		{"lock without postgres", map[string]string{"SCHEDULER_LOCK": "true"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(envOf(tt.env))
			assert.Error(t, err)
		})
	}
}
