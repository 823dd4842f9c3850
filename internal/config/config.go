// Package config loads application settings from defaults, an optional file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Setting keys.
const (
	KeyAppPort       = "APP_PORT"
	KeyStoreDriver   = "STORE_DRIVER"
	KeyDatabaseDSN   = "DATABASE_DSN"
	KeyJWTSecret     = "JWT_SECRET"
	KeyTokenTTL      = "TOKEN_TTL"
	KeyRabbitMQURL   = "RABBITMQ_URL"
	KeySupplierEmail = "SUPPLIER_EMAIL"
)

// StoreMemory keeps products and restock orders in process memory. Clerks still need a
// relational store, which then runs on in-memory SQLite.
const StoreMemory = "memory"

// Config holds every application setting.
type Config struct {
	AppPort       string
	StoreDriver   string
	DatabaseDSN   string
	JWTSecret     string
	TokenTTL      time.Duration
	RabbitMQURL   string
	SupplierEmail string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAppPort, ":8080")
	v.SetDefault(KeyStoreDriver, "sqlite")
	v.SetDefault(KeyDatabaseDSN, "inventory.db")
	v.SetDefault(KeyJWTSecret, "change-me")
	v.SetDefault(KeyTokenTTL, 24*time.Hour)
	v.SetDefault(KeyRabbitMQURL, "")
	v.SetDefault(KeySupplierEmail, "")
}

// Load reads settings into a Config. A non-empty file is read first; environment
// variables override it.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		AppPort:       v.GetString(KeyAppPort),
		StoreDriver:   strings.ToLower(v.GetString(KeyStoreDriver)),
		DatabaseDSN:   v.GetString(KeyDatabaseDSN),
		JWTSecret:     v.GetString(KeyJWTSecret),
		TokenTTL:      v.GetDuration(KeyTokenTTL),
		RabbitMQURL:   v.GetString(KeyRabbitMQURL),
		SupplierEmail: v.GetString(KeySupplierEmail),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings for values the application cannot start with.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "sqlite", "postgres", StoreMemory:
	default:
		return fmt.Errorf("unsupported %s %q", KeyStoreDriver, c.StoreDriver)
	}
	if c.StoreDriver != StoreMemory && c.DatabaseDSN == "" {
		return errors.New(KeyDatabaseDSN + " is required")
	}
	if c.JWTSecret == "" {
		return errors.New(KeyJWTSecret + " is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New(KeyTokenTTL + " must be positive")
	}
	return nil
}

// BrokerEnabled reports whether a RabbitMQ URL is configured.
func (c *Config) BrokerEnabled() bool {
	return c.RabbitMQURL != ""
}
