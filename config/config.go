package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// HTTP server configuration
	ListenAddr string

	// Auth configuration
	JWTSecret string

	// AdminIDs are the caller identities allowed to trigger matching runs
	AdminIDs []int64

	// Matching configuration
	DefaultMatchCost decimal.Decimal
	// AutoMatchSchedule is an optional cron expression for scheduled runs
	AutoMatchSchedule string

	// InitialClientCredits is granted to every newly created client
	InitialClientCredits decimal.Decimal

	// Environment is "development", "production" or "test"
	Environment string

	LogLevel string
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ListenAddr:  ":8080",
		JWTSecret:   os.Getenv("JWT_SECRET"),

		DefaultMatchCost:     decimal.NewFromInt(100),
		InitialClientCredits: decimal.Zero,

		AutoMatchSchedule: os.Getenv("AUTO_MATCH_SCHEDULE"),

		Environment: os.Getenv("ENVIRONMENT"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}

	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		config.ListenAddr = addr
	}

	if cost := os.Getenv("DEFAULT_MATCH_COST"); cost != "" {
		parsed, err := decimal.NewFromString(cost)
		if err != nil {
			return nil, fmt.Errorf("invalid DEFAULT_MATCH_COST: %w", err)
		}
		config.DefaultMatchCost = parsed
	}

	if credits := os.Getenv("INITIAL_CLIENT_CREDITS"); credits != "" {
		parsed, err := decimal.NewFromString(credits)
		if err != nil {
			return nil, fmt.Errorf("invalid INITIAL_CLIENT_CREDITS: %w", err)
		}
		config.InitialClientCredits = parsed
	}

	// Parse admin caller IDs
	if adminIDs := os.Getenv("ADMIN_IDS"); adminIDs != "" {
		for _, idStr := range strings.Split(adminIDs, ",") {
			idStr = strings.TrimSpace(idStr)
			if idStr == "" {
				continue
			}
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid ADMIN_IDS entry %q: %w", idStr, err)
			}
			config.AdminIDs = append(config.AdminIDs, id)
		}
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
	}

	return config, nil
}
