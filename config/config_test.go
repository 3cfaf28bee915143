package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "file", cfg.Ledger.Driver)
	assert.Equal(t, "orders", cfg.Ledger.Dir)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, time.Minute, cfg.Session.SweepInterval)
}

func TestLoadLists(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_USER_IDS", "111, 222,")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("NOTIFY_CHAT_ID", "-4542609069")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []int64{111, 222}, cfg.Telegram.AdminUserIDs)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, int64(-4542609069), cfg.Telegram.NotifyChatID)
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	t.Setenv("ADMIN_USER_IDS", "111,bob")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("LEDGER_DRIVER", "mongo")

	cfg, err := Load()
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")
	assert.Contains(t, err.Error(), "mongo")

	cfg.Telegram.Token = "123:abc"
	cfg.Ledger.Driver = "sqlite3"
	assert.ErrorContains(t, cfg.Validate(), "LEDGER_DSN")

	cfg.Ledger.DSN = "file:orders.db"
	assert.NoError(t, cfg.Validate())
}
