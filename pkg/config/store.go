package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/nervesparksdev05/aidevops-monitor/pkg/store"
)

// StoreYAMLConfig is the system.store block of config.yaml. The DSN
// components themselves (user/password/database) are always read from the
// environment, never committed to YAML.
type StoreYAMLConfig struct {
	SSLMode         string `yaml:"ssl_mode,omitempty"`
	MaxOpenConns    int    `yaml:"max_open_conns,omitempty"`
	MaxIdleConns    int    `yaml:"max_idle_conns,omitempty"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime,omitempty"`
	ConnMaxIdleTime string `yaml:"conn_max_idle_time,omitempty"`
}

const (
	defaultStoreSSLMode         = "disable"
	defaultStoreMaxOpenConns    = 20
	defaultStoreMaxIdleConns    = 5
	defaultStoreConnMaxLifetime = 30 * time.Minute
	defaultStoreConnMaxIdleTime = 5 * time.Minute
)

func resolveStoreConfig(sys *StoreYAMLConfig) store.Config {
	port, _ := strconv.Atoi(os.Getenv("DB_PORT"))
	if port == 0 {
		port = 5432
	}

	cfg := store.Config{
		Host:            os.Getenv("DB_HOST"),
		Port:            port,
		User:            os.Getenv("DB_USER"),
		Password:        os.Getenv("DB_PASSWORD"),
		Database:        os.Getenv("DB_NAME"),
		SSLMode:         defaultStoreSSLMode,
		MaxOpenConns:    defaultStoreMaxOpenConns,
		MaxIdleConns:    defaultStoreMaxIdleConns,
		ConnMaxLifetime: defaultStoreConnMaxLifetime,
		ConnMaxIdleTime: defaultStoreConnMaxIdleTime,
	}

	if sys == nil {
		return cfg
	}
	if sys.SSLMode != "" {
		cfg.SSLMode = sys.SSLMode
	}
	if sys.MaxOpenConns > 0 {
		cfg.MaxOpenConns = sys.MaxOpenConns
	}
	if sys.MaxIdleConns > 0 {
		cfg.MaxIdleConns = sys.MaxIdleConns
	}
	if sys.ConnMaxLifetime != "" {
		if d, err := time.ParseDuration(sys.ConnMaxLifetime); err == nil {
			cfg.ConnMaxLifetime = d
		}
	}
	if sys.ConnMaxIdleTime != "" {
		if d, err := time.ParseDuration(sys.ConnMaxIdleTime); err == nil {
			cfg.ConnMaxIdleTime = d
		}
	}
	return cfg
}

func validateStoreConfig(cfg store.Config) error {
	if cfg.Host == "" {
		return NewValidationError("store", "DB_HOST", fmt.Errorf("%w", ErrMissingRequiredField))
	}
	if cfg.Database == "" {
		return NewValidationError("store", "DB_NAME", fmt.Errorf("%w", ErrMissingRequiredField))
	}
	return nil
}
