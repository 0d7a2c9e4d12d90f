package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Store struct {
		Driver     string // "postgres" or "sqlite"
		SQLitePath string
	}
	DB struct {
		DSN string
	}
	Kafka struct {
		Enabled     bool
		Broker      string
		EventsTopic string
		NotifyTopic string
		GroupID     string
	}
	Telegram struct {
		BotToken  string
		ChatID    int64
		RateLimit int
	}
	API struct {
		Port     string
		BasePath string
	}
	Logging struct {
		Dir   string
		Level string
	}
	Monitor struct {
		SweepInterval   time.Duration
		StatsInterval   time.Duration
		StatsWindow     time.Duration
		DefinitionsFile string
		SchedulerLock   bool
	}
	Notification struct {
		QueueSize  int
		MaxWorkers int
		Timeout    time.Duration
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	var cfg Config
	var errs []string

	// Store settings
	cfg.Store.Driver = getenv("STORE_DRIVER")
	cfg.Store.SQLitePath = getenv("SQLITE_PATH")
	cfg.DB.DSN = getenv("DB_DSN")

	// Kafka settings
	cfg.Kafka.Enabled = parseBool(getenv("KAFKA_ENABLED"))
	cfg.Kafka.Broker = getenv("KAFKA_BROKER")
	cfg.Kafka.EventsTopic = getenv("KAFKA_EVENTS_TOPIC")
	cfg.Kafka.NotifyTopic = getenv("KAFKA_NOTIFY_TOPIC")
	cfg.Kafka.GroupID = getenv("KAFKA_GROUP_ID")

	// Telegram settings
	cfg.Telegram.BotToken = getenv("TELEGRAM_BOT_TOKEN")
	if v := getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, "TELEGRAM_CHAT_ID")
		}
		cfg.Telegram.ChatID = id
	}
	if rl, err := strconv.Atoi(getenv("TELEGRAM_RATE_LIMIT")); err == nil {
		cfg.Telegram.RateLimit = rl
	}

	// API settings
	cfg.API.Port = getenv("API_PORT")
	cfg.API.BasePath = getenv("API_BASE_PATH")

	// Logging settings
	cfg.Logging.Dir = getenv("LOG_DIR")
	cfg.Logging.Level = getenv("LOG_LEVEL")

	// Monitor settings
	cfg.Monitor.SweepInterval = parseDuration(getenv("SWEEP_INTERVAL"), "SWEEP_INTERVAL", &errs)
	cfg.Monitor.StatsInterval = parseDuration(getenv("STATS_INTERVAL"), "STATS_INTERVAL", &errs)
	cfg.Monitor.StatsWindow = parseDuration(getenv("STATS_WINDOW"), "STATS_WINDOW", &errs)
	cfg.Monitor.DefinitionsFile = getenv("DEFINITIONS_FILE")
	cfg.Monitor.SchedulerLock = parseBool(getenv("SCHEDULER_LOCK"))

	// Notification worker settings
	if qs, err := strconv.Atoi(getenv("QUEUE_SIZE")); err == nil {
		cfg.Notification.QueueSize = qs
	}
	if mw, err := strconv.Atoi(getenv("MAX_WORKERS")); err == nil {
		cfg.Notification.MaxWorkers = mw
	}
	cfg.Notification.Timeout = parseDuration(getenv("NOTIFY_TIMEOUT"), "NOTIFY_TIMEOUT", &errs)

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configurations: %v", errs)
	}

	// Apply defaults
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "sqlite"
	}
	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = "sla.db"
	}
	if cfg.Kafka.EventsTopic == "" {
		cfg.Kafka.EventsTopic = "request_lifecycle"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "sla-service"
	}
	if cfg.Telegram.RateLimit == 0 {
		cfg.Telegram.RateLimit = 20
	}
	if cfg.API.Port == "" {
		cfg.API.Port = ":8080"
	}
	if cfg.API.BasePath == "" {
		cfg.API.BasePath = "/api/v0"
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Monitor.SweepInterval == 0 {
		cfg.Monitor.SweepInterval = 5 * time.Minute
	}
	if cfg.Monitor.StatsInterval == 0 {
		cfg.Monitor.StatsInterval = time.Hour
	}
	if cfg.Monitor.StatsWindow == 0 {
		cfg.Monitor.StatsWindow = 30 * 24 * time.Hour
	}
	if cfg.Notification.QueueSize == 0 {
		cfg.Notification.QueueSize = 500
	}
	if cfg.Notification.MaxWorkers == 0 {
		cfg.Notification.MaxWorkers = 4
	}
	if cfg.Notification.Timeout == 0 {
		cfg.Notification.Timeout = 10 * time.Second
	}

	// Validate required settings
	missing := []string{}
	switch cfg.Store.Driver {
	case "postgres":
		if cfg.DB.DSN == "" {
			missing = append(missing, "DB_DSN")
		}
	case "sqlite", "memory":
	default:
		return Config{}, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.Store.Driver)
	}
	if cfg.Kafka.Enabled && cfg.Kafka.Broker == "" {
		missing = append(missing, "KAFKA_BROKER")
	}
	if cfg.Monitor.SchedulerLock && cfg.Store.Driver != "postgres" {
		return Config{}, fmt.Errorf("SCHEDULER_LOCK requires STORE_DRIVER=postgres")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configurations: %v", missing)
	}

	return cfg, nil
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func parseDuration(v, key string, errs *[]string) time.Duration {
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		*errs = append(*errs, key)
		return 0
	}
	return d
}
