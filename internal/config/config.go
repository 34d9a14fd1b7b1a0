// Package config loads kiosk controller settings from an optional YAML
// file plus environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string `yaml:"env" env:"KIOSK_ENV" env-default:"dev"`
	HTTPAddr string `yaml:"http_addr" env:"KIOSK_HTTP_ADDR" env-default:":8080"`

	Store    Store    `yaml:"store"`
	Actuator Actuator `yaml:"actuator"`
	Scan     Scan     `yaml:"scan"`
	Overlay  Overlay  `yaml:"overlay"`
	Rules    Rules    `yaml:"rules"`
}

// Store selects and configures the membership/attendance backend.
type Store struct {
	// Driver is one of "sqlite", "postgres" or "memory".
	Driver        string        `yaml:"driver" env:"KIOSK_STORE_DRIVER" env-default:"sqlite"`
	DBPath        string        `yaml:"db_path" env:"KIOSK_DB_PATH" env-default:"./data/kiosk.db"`
	DatabaseURL   string        `yaml:"database_url" env:"KIOSK_DATABASE_URL"`
	LookupTimeout time.Duration `yaml:"lookup_timeout" env:"KIOSK_LOOKUP_TIMEOUT" env-default:"5s"`
	WriteTimeout  time.Duration `yaml:"write_timeout" env:"KIOSK_WRITE_TIMEOUT" env-default:"5s"`
}

// Actuator configures the door relay link.
type Actuator struct {
	SerialDevice string        `yaml:"serial_device" env:"KIOSK_SERIAL_DEVICE"`
	SerialBaud   int           `yaml:"serial_baud" env:"KIOSK_SERIAL_BAUD" env-default:"9600"`
	Hold         time.Duration `yaml:"hold" env:"KIOSK_ACTUATOR_HOLD" env-default:"2s"`
}

type Scan struct {
	DebounceWindow time.Duration `yaml:"debounce_window" env:"KIOSK_DEBOUNCE_WINDOW" env-default:"3s"`
}

type Overlay struct {
	TTL time.Duration `yaml:"ttl" env:"KIOSK_OVERLAY_TTL" env-default:"3s"`
}

type Rules struct {
	WeeklyLimit int `yaml:"weekly_limit" env:"KIOSK_WEEKLY_LIMIT" env-default:"3"`
}

// Load reads the file named by CONFIG_PATH when set, then applies
// environment overrides. With no file it runs on env and defaults alone.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	cfg.Env = strings.ToLower(cfg.Env)
	if cfg.Env != "dev" && cfg.Env != "prod" {
		// fail-soft: treat unknown as dev
		cfg.Env = "dev"
	}

	switch cfg.Store.Driver {
	case "sqlite", "postgres", "memory":
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if cfg.Store.Driver == "postgres" && cfg.Store.DatabaseURL == "" {
		return nil, fmt.Errorf("store driver postgres requires KIOSK_DATABASE_URL")
	}

	return &cfg, nil
}
