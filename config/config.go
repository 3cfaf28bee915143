package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Telegram TelegramConfig
	Ledger   LedgerConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Observ   ObservabilityConfig
	Session  SessionConfig
	Shop     ShopConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
	APIToken string
}

type TelegramConfig struct {
	Token            string
	AdminUserIDs     []int64
	BroadcastChannel string
	NotifyChatID     int64
}

type LedgerConfig struct {
	Driver string
	DSN    string
	Dir    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers       []string
	TopicOrder    string
	ConsumerGroup string
}

type ObservabilityConfig struct {
	JaegerEndpoint string
}

type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

type ShopConfig struct {
	CatalogPath  string
	ShopURL      string
	SupportURL   string
	OrderFormURL string
}

// Load reads .env if present, then the environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	ttlMinutes, err := strconv.Atoi(getEnv("SESSION_TTL_MINUTES", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL_MINUTES: %w", err)
	}
	sweepSeconds, err := strconv.Atoi(getEnv("SESSION_SWEEP_SECONDS", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_SWEEP_SECONDS: %w", err)
	}
	adminIDs, err := parseIDs(getEnv("ADMIN_USER_IDS", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_USER_IDS: %w", err)
	}
	var notifyChatID int64
	if v := getEnv("NOTIFY_CHAT_ID", ""); v != "" {
		if notifyChatID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid NOTIFY_CHAT_ID: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnv("PORT", "8080"),
			Env:      getEnv("ENV", "development"),
			LogLevel: getEnv("LOG_LEVEL", ""),
			APIToken: getEnv("ADMIN_API_TOKEN", ""),
		},
		Telegram: TelegramConfig{
			Token:            getEnv("TELEGRAM_BOT_TOKEN", ""),
			AdminUserIDs:     adminIDs,
			BroadcastChannel: getEnv("BROADCAST_CHANNEL", ""),
			NotifyChatID:     notifyChatID,
		},
		Ledger: LedgerConfig{
			Driver: getEnv("LEDGER_DRIVER", "file"),
			DSN:    getEnv("LEDGER_DSN", ""),
			Dir:    getEnv("LEDGER_DIR", "orders"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(getEnv("KAFKA_BROKERS", "")),
			TopicOrder:    getEnv("KAFKA_TOPIC_ORDER_EVENTS", "order-events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "storefront-notifier"),
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", ""),
		},
		Session: SessionConfig{
			TTL:           time.Duration(ttlMinutes) * time.Minute,
			SweepInterval: time.Duration(sweepSeconds) * time.Second,
		},
		Shop: ShopConfig{
			CatalogPath:  getEnv("CATALOG_PATH", ""),
			ShopURL:      getEnv("SHOP_URL", ""),
			SupportURL:   getEnv("SUPPORT_URL", ""),
			OrderFormURL: getEnv("ORDER_FORM_URL", ""),
		},
	}

	return cfg, nil
}

// Validate rejects configurations the bot cannot start with
func (c *Config) Validate() error {
	var errs []error
	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required"))
	}
	switch c.Ledger.Driver {
	case "file":
		if c.Ledger.Dir == "" {
			errs = append(errs, errors.New("LEDGER_DIR is required for the file ledger"))
		}
	case "sqlite3", "postgres":
		if c.Ledger.DSN == "" {
			errs = append(errs, fmt.Errorf("LEDGER_DSN is required for the %s ledger", c.Ledger.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported LEDGER_DRIVER %q", c.Ledger.Driver))
	}
	if c.Session.TTL < 0 || c.Session.SweepInterval < 0 {
		errs = append(errs, errors.New("session durations must not be negative"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseIDs(s string) ([]int64, error) {
	parts := splitList(s)
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
