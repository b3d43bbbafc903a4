package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "/api/v1", cfg.GetAPIBasePath())
	assert.Equal(t, 10*time.Minute, cfg.Redis.SeatHoldTTL)
	assert.Equal(t, 0.7, cfg.Inventory.AvailabilityRatio)
	assert.Equal(t, cfg.Redis.Host+":"+cfg.Redis.Port, cfg.Redis.Addr)
	assert.Contains(t, cfg.Database.DSN, "dbname="+cfg.Database.Name)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_EXPIRES_IN", "120")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("INVENTORY_AVAILABILITY_RATIO", "0.5")
	t.Setenv("REDIS_SEAT_HOLD_TTL", "not-a-duration")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.GetServerAddress())
	assert.Equal(t, 2*time.Minute, cfg.JWT.AccessExpiresIn)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 0.5, cfg.Inventory.AvailabilityRatio)
	assert.Equal(t, 10*time.Minute, cfg.Redis.SeatHoldTTL)
}

func TestDocumentURL(t *testing.T) {
	cfg := &Config{APIPrefix: "/api", APIVersion: "v1", PublicBaseURL: "https://travelhub.example"}
	assert.Equal(t, "https://travelhub.example/api/v1/bookings/abc/receipt", cfg.DocumentURL("abc", "receipt"))
}
