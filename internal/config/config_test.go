package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "PORT", "STORE_DRIVER", "MEETING_DURATION", "TOKEN_TTL",
		"BOOKING_OVERLAP_WINDOW", "BOOKING_REQUIRE_FUTURE", "ADMIN_REGISTRATION_TOKEN"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "production", cfg.Env)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.Booking.RequireFuture)
	assert.Equal(t, 30*time.Minute, cfg.MeetingDuration)
	assert.Equal(t, 30*time.Minute, cfg.Booking.OverlapWindow)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Empty(t, cfg.AdminRegistrationToken, "admin bootstrap is off unless configured")
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORE_DRIVER", "Mongo")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "a-very-long-test-secret")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("RATE_LIMIT_REQUESTS", "3")
	t.Setenv("MEETING_TIMEZONE", "Asia/Dhaka")
	t.Setenv("BOOKING_REQUIRE_FUTURE", "false")
	t.Setenv("BOOKING_OVERLAP_WINDOW", "0s")
	t.Setenv("ADMIN_REGISTRATION_TOKEN", "bootstrap-secret-0123")

	cfg := Load()

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, 3, cfg.RateLimitRequests)
	assert.False(t, cfg.Booking.RequireFuture)
	assert.Zero(t, cfg.Booking.OverlapWindow)
	assert.Equal(t, "Asia/Dhaka", cfg.Location().String())
	assert.Equal(t, "bootstrap-secret-0123", cfg.AdminRegistrationToken)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "eighty")
	t.Setenv("MEETING_DURATION", "half an hour")
	t.Setenv("BOOKING_REQUIRE_FUTURE", "maybe")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.MeetingDuration)
	assert.True(t, cfg.Booking.RequireFuture)
}

func validConfig() *Config {
	return &Config{
		StoreDriver:     DriverSQLite,
		DBPath:          ":memory:",
		JWTSecret:       "a-very-long-test-secret",
		TokenTTL:        time.Hour,
		MeetingTimezone: "UTC",
		MeetingDuration: 30 * time.Minute,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "JWT_SECRET"},
		{"unknown driver", func(c *Config) { c.StoreDriver = "postgres" }, "STORE_DRIVER"},
		{"mongo without uri", func(c *Config) { c.StoreDriver = DriverMongo }, "MONGODB_URI"},
		{"bad timezone", func(c *Config) { c.MeetingTimezone = "Mars/Olympus" }, "MEETING_TIMEZONE"},
		{"zero duration", func(c *Config) { c.MeetingDuration = 0 }, "MEETING_DURATION"},
		{"negative overlap", func(c *Config) { c.Booking.OverlapWindow = -time.Minute }, "BOOKING_OVERLAP_WINDOW"},
		{"short admin registration token", func(c *Config) { c.AdminRegistrationToken = "admin" }, "ADMIN_REGISTRATION_TOKEN"},
		{"redis without limit", func(c *Config) { c.RedisURL = "redis://x"; c.RateLimitRequests = 0 }, "RATE_LIMIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGoogleEnabled(t *testing.T) {
	assert.False(t, Google{ClientID: "id"}.Enabled())
	assert.True(t, Google{ClientID: "id", ClientSecret: "s", RefreshToken: "r"}.Enabled())
}
