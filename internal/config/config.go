// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Relay kinds for the contact form.
const (
	RelayWeb3Forms = "web3forms"
	RelaySMTP      = "smtp"
)

// Config holds server configuration.
type Config struct {
	Env     string
	DevMode bool
	Port    string
	DBPath  string

	// Map provider.
	MapEnabled        bool
	GeocodeURL        string
	RouteURL          string
	UserAgent         string
	MapRequestsPerSec float64
	MapZoom           int

	// Contact form relay.
	Relay          string
	RelayEndpoint  string
	DestinationKey string
	SMTPHost       string
	SMTPPort       string
	SMTPUser       string
	SMTPPass       string
	SMTPFrom       string

	OfficesFile     string
	SessionTTL      time.Duration
	JanitorSchedule string

	// Per-IP limit on map actions and contact submissions.
	ClientRate  float64
	ClientBurst int
}

// Load reads a .env file if present, then COURIER_* environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the environment without touching .env.
func FromEnv() (*Config, error) {
	env := getEnv("COURIER_ENV", "development")

	cfg := &Config{
		Env:     env,
		DevMode: strings.EqualFold(getEnv("COURIER_DEV_MODE", ""), "true") || env == "development",
		Port:    getEnv("COURIER_PORT", "8080"),
		DBPath:  getEnv("COURIER_DB", ""),

		MapEnabled: !strings.EqualFold(getEnv("COURIER_MAP_ENABLED", "true"), "false"),
		GeocodeURL: getEnv("COURIER_GEOCODE_URL", ""),
		RouteURL:   getEnv("COURIER_ROUTE_URL", ""),
		UserAgent:  getEnv("COURIER_USER_AGENT", ""),

		Relay:          strings.ToLower(getEnv("COURIER_CONTACT_RELAY", RelayWeb3Forms)),
		RelayEndpoint:  getEnv("COURIER_RELAY_ENDPOINT", ""),
		DestinationKey: getEnv("COURIER_DESTINATION_KEY", ""),
		SMTPHost:       getEnv("COURIER_SMTP_HOST", ""),
		SMTPPort:       getEnv("COURIER_SMTP_PORT", "587"),
		SMTPUser:       getEnv("COURIER_SMTP_USER", ""),
		SMTPPass:       getEnv("COURIER_SMTP_PASS", ""),
		SMTPFrom:       getEnv("COURIER_SMTP_FROM", ""),

		OfficesFile:     getEnv("COURIER_OFFICES_FILE", ""),
		JanitorSchedule: getEnv("COURIER_JANITOR_SCHEDULE", "@every 1m"),
	}

	var err error
	if cfg.MapRequestsPerSec, err = parseFloat("COURIER_MAP_RPS", "1"); err != nil {
		return nil, err
	}
	if cfg.MapZoom, err = parseInt("COURIER_MAP_ZOOM", "5"); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = parseDuration("COURIER_SESSION_TTL", "30m"); err != nil {
		return nil, err
	}
	if cfg.ClientRate, err = parseFloat("COURIER_CLIENT_RATE", "2"); err != nil {
		return nil, err
	}
	if cfg.ClientBurst, err = parseInt("COURIER_CLIENT_BURST", "10"); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	switch c.Relay {
	case RelayWeb3Forms:
	case RelaySMTP:
		if c.SMTPHost == "" || c.SMTPFrom == "" {
			return fmt.Errorf("COURIER_SMTP_HOST and COURIER_SMTP_FROM are required when COURIER_CONTACT_RELAY is smtp")
		}
	default:
		return fmt.Errorf("COURIER_CONTACT_RELAY must be %q or %q, got %q", RelayWeb3Forms, RelaySMTP, c.Relay)
	}
	if c.MapZoom < 0 || c.MapZoom > 19 {
		return fmt.Errorf("COURIER_MAP_ZOOM must be between 0 and 19, got %d", c.MapZoom)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("COURIER_SESSION_TTL must be positive")
	}
	if c.ClientRate <= 0 || c.ClientBurst <= 0 {
		return fmt.Errorf("COURIER_CLIENT_RATE and COURIER_CLIENT_BURST must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func parseFloat(key, fallback string) (float64, error) {
	v, err := strconv.ParseFloat(getEnv(key, fallback), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return v, nil
}

func parseInt(key, fallback string) (int, error) {
	v, err := strconv.Atoi(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return v, nil
}

func parseDuration(key, fallback string) (time.Duration, error) {
	v, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return v, nil
}
