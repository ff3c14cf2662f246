package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "KAFKA_BROKERS", "PAGE_SIZE", "CART_TTL", "MIGRATE_ON_START", "POSTGRES_MAX_CONNS"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, 7*24*time.Hour, cfg.CartTTL)
	assert.True(t, cfg.MigrateOnStart)
	assert.Equal(t, int32(8), cfg.PGMaxConns)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("PAGE_SIZE", "12")
	t.Setenv("CART_TTL", "90m")
	t.Setenv("INVENTORY_WORKERS", "nope")
	t.Setenv("MIGRATE_ON_START", "false")

	cfg := Load()
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 12, cfg.PageSize)
	assert.Equal(t, 90*time.Minute, cfg.CartTTL)
	assert.Equal(t, 8, cfg.InventoryWorkers)
	assert.False(t, cfg.MigrateOnStart)
}
