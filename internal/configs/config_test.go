package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("RABBITMQ_ENABLED", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "huizenzoeker", cfg.AppName)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, "8080", cfg.Rest.PORT)
	assert.Equal(t, "0 * * * *", cfg.Scrape.Schedule)
	assert.False(t, cfg.FluentBit.Enabled)
	assert.Empty(t, cfg.Scrape.Sites)
}

func TestLoadConfig_PostgresRequiresURL(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("RABBITMQ_ENABLED", "false")
	t.Setenv("DATABASE_URL", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_RabbitRequiresURL(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("RABBITMQ_ENABLED", "true")
	t.Setenv("RABBITMQ_URL", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_UnknownStoreDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "cassandra")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_ScrapeSettings(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("RABBITMQ_ENABLED", "false")
	t.Setenv("SCRAPE_SITES", "ooms, klipenvw")
	t.Setenv("FILTER_MIN_PRICE", "100000")
	t.Setenv("FILTER_MAX_PRICE", "400000")
	t.Setenv("FILTER_CITIES", "Rotterdam,Schiedam")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"ooms", "klipenvw"}, cfg.Scrape.Sites)
	assert.Equal(t, int64(100000), cfg.Scrape.MinPrice)
	assert.Equal(t, int64(400000), cfg.Scrape.MaxPrice)
	assert.Equal(t, []string{"Rotterdam", "Schiedam"}, cfg.Scrape.Cities)
}
