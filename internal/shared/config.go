package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	// Hotel roster source (property-management system)
	NewbookBase     string
	NewbookRegion   string
	NewbookUsername string
	NewbookPassword string
	NewbookAPIKey   string

	// Restaurant reservation platform
	ResosBase   string
	ResosAPIKey string

	// Reconciliation behaviour
	PackageName      string // inventory description substring, empty disables
	DefaultTableArea string
	AutoRefresh      time.Duration // 0 disables the silent-refresh loop
	NotifyGuests     bool
	UpdateWorkers    int
	SchemaTTL        time.Duration

	// Explicit custom-field-ID overrides; empty falls back to heuristics
	BookingRefFieldID string
	HotelGuestFieldID string
	MealPlanFieldID   string
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisDB:     atoi("REDIS_DB", 0),
		RedisPass:   env("REDIS_PASSWORD", ""),

		NewbookBase:     env("NEWBOOK_BASE_URL", "https://api.newbook.cloud/rest"),
		NewbookRegion:   env("NEWBOOK_REGION", "au"),
		NewbookUsername: env("NEWBOOK_USERNAME", ""),
		NewbookPassword: env("NEWBOOK_PASSWORD", ""),
		NewbookAPIKey:   env("NEWBOOK_API_KEY", ""),

		ResosBase:   env("RESOS_BASE_URL", "https://api.resos.com/v1"),
		ResosAPIKey: env("RESOS_API_KEY", ""),

		PackageName:      env("PACKAGE_INVENTORY_NAME", ""),
		DefaultTableArea: env("DEFAULT_TABLE_AREA", ""),
		AutoRefresh:      time.Duration(atoi("AUTO_REFRESH_SECONDS", 0)) * time.Second,
		NotifyGuests:     env("SEND_GUEST_NOTIFICATION", "") == "true",
		UpdateWorkers:    atoi("UPDATE_WORKERS", 4),
		SchemaTTL:        time.Duration(atoi("SCHEMA_TTL_SECONDS", 900)) * time.Second,

		BookingRefFieldID: env("BOOKING_REF_FIELD_ID", ""),
		HotelGuestFieldID: env("HOTEL_GUEST_FIELD_ID", ""),
		MealPlanFieldID:   env("MEAL_PLAN_FIELD_ID", ""),
	}
	if c.NewbookAPIKey == "" {
		log.Warn().Msg("NEWBOOK_API_KEY is empty")
	}
	if c.ResosAPIKey == "" {
		log.Warn().Msg("RESOS_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
