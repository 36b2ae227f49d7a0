package config

import "time"

const (
	// Database pool
	DBMaxConns        = 20
	DBMinConns        = 5
	DBMaxConnIdleTime = 5 * time.Minute
	DBApplicationName = "promolimits"

	// Latest migration under migrations/
	SchemaVersion = 1

	// HTTP server
	ReadHeaderTimeout = 5 * time.Second
	ShutdownTimeout   = 15 * time.Second
	MaxRequestBody    = 1 << 16

	// Rate limiter housekeeping
	LimiterIdleTTL      = 15 * time.Minute
	LimiterCleanupEvery = 2 * time.Minute

	// Lock acquisition retry interval
	LockRetryInterval = 50 * time.Millisecond

	// Telegram limits
	MaxTelegramMessageLen = 4096
	TelegramLogTimeout    = 10 * time.Second

	// Date layout accepted from operators
	DateLayout = "2006-01-02"
)
