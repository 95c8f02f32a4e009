// Package config reads server settings from the environment.
//
// A .env file in the working directory is loaded first when present; real
// environment variables always win over it. Empty values count as unset.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // MEETING_TIMEZONE must resolve on hosts without zoneinfo

	"github.com/joho/godotenv"
)

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Google holds the offline credentials of the calendar that hosts meetings.
type Google struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	CalendarID   string
}

// Enabled reports whether enough credentials are set to call the Calendar API.
func (g Google) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.RefreshToken != ""
}

// BookingPolicy controls checks shared by every booking path.
type BookingPolicy struct {
	// RequireFuture rejects meeting times earlier than now.
	RequireFuture bool
	// OverlapWindow excludes creators with another meeting within this distance
	// of the requested time. Zero disables the check.
	OverlapWindow time.Duration
}

type Config struct {
	Env      string
	Port     int
	LogLevel slog.Level

	StoreDriver   string
	DBPath        string
	MongoURI      string
	MongoDatabase string

	JWTSecret string
	TokenTTL  time.Duration
	// AdminRegistrationToken lets a caller without an admin token register
	// an admin. Empty means only existing admins can.
	AdminRegistrationToken string

	RedisURL          string
	RateLimitRequests int
	RateLimitWindow   time.Duration

	Google          Google
	JitsiBaseURL    string
	MeetingTimezone string
	MeetingDuration time.Duration

	Booking BookingPolicy
}

// IsDevelopment reports whether raw error text may be shown to clients.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Location resolves MeetingTimezone. Call Validate first.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.MeetingTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads the configuration. It does not validate it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Env:      getEnv("APP_ENV", "production"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: parseLevel(getEnv("LOG_LEVEL", "info")),

		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", DriverSQLite)),
		DBPath:        getEnv("DB_PATH", "data/heartline.db"),
		MongoURI:      getEnv("MONGODB_URI", ""),
		MongoDatabase: getEnv("MONGODB_DATABASE", "heartline"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 24*time.Hour),

		AdminRegistrationToken: getEnv("ADMIN_REGISTRATION_TOKEN", ""),

		RedisURL:          getEnv("REDIS_URL", ""),
		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 10),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		Google: Google{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RefreshToken: getEnv("GOOGLE_REFRESH_TOKEN", ""),
			CalendarID:   getEnv("GOOGLE_CALENDAR_ID", "primary"),
		},
		JitsiBaseURL:    getEnv("JITSI_BASE_URL", "https://meet.jit.si"),
		MeetingTimezone: getEnv("MEETING_TIMEZONE", "UTC"),
		MeetingDuration: getEnvDuration("MEETING_DURATION", 30*time.Minute),

		Booking: BookingPolicy{
			RequireFuture: getEnvBool("BOOKING_REQUIRE_FUTURE", true),
			OverlapWindow: getEnvDuration("BOOKING_OVERLAP_WINDOW", 30*time.Minute),
		},
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.AdminRegistrationToken != "" && len(c.AdminRegistrationToken) < 16 {
		errs = append(errs, errors.New("ADMIN_REGISTRATION_TOKEN must be at least 16 characters when set"))
	}
	switch c.StoreDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite store"))
		}
	case DriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required for the mongo store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if _, err := time.LoadLocation(c.MeetingTimezone); err != nil {
		errs = append(errs, fmt.Errorf("MEETING_TIMEZONE: %w", err))
	}
	if c.MeetingDuration <= 0 {
		errs = append(errs, errors.New("MEETING_DURATION must be positive"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.Booking.OverlapWindow < 0 {
		errs = append(errs, errors.New("BOOKING_OVERLAP_WINDOW must not be negative"))
	}
	if c.RedisURL != "" && (c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
