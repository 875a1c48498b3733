package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Strava    StravaConfig    `json:"strava"`
	Server    ServerConfig    `json:"server"`
	Challenge ChallengeConfig `json:"challenge"`
	Collect   CollectConfig   `json:"collect"`
}

// StravaConfig holds Strava API credentials
type StravaConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// ServerConfig holds the HTTP server settings
type ServerConfig struct {
	ListenAddr    string `json:"listen_addr"`
	BaseURL       string `json:"base_url"`
	AdminPassword string `json:"admin_password"`
	SessionSecret string `json:"session_secret"`
}

// ChallengeConfig defines the tracking window for the challenge
type ChallengeConfig struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"` // YYYY-MM-DD, inclusive
	EndDate   string `json:"end_date"`   // YYYY-MM-DD, inclusive
}

// CollectConfig tunes the collection pipeline
type CollectConfig struct {
	DatabasePath    string `json:"database_path"`
	IntervalMinutes int    `json:"interval_minutes"`
	PageSize        int    `json:"page_size"`
	Workers         int    `json:"workers"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr: ":8080",
			BaseURL:    "http://localhost:8080",
		},
		Collect: CollectConfig{
			DatabasePath:    "challenge.db",
			IntervalMinutes: 60,
			PageSize:        200,
			Workers:         4,
		},
	}
}

// Load reads the configuration from the given JSON file, applying defaults
// for unset values and environment overrides last. A .env file in the
// working directory is loaded first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = defaults.Server.ListenAddr
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = defaults.Server.BaseURL
	}
	if c.Collect.DatabasePath == "" {
		c.Collect.DatabasePath = defaults.Collect.DatabasePath
	}
	if c.Collect.IntervalMinutes == 0 {
		c.Collect.IntervalMinutes = defaults.Collect.IntervalMinutes
	}
	if c.Collect.PageSize == 0 {
		c.Collect.PageSize = defaults.Collect.PageSize
	}
	if c.Collect.Workers == 0 {
		c.Collect.Workers = defaults.Collect.Workers
	}
}

// applyEnv lets secrets come from the environment instead of the file
func (c *Config) applyEnv() {
	if v := os.Getenv("STRAVA_CLIENT_ID"); v != "" {
		c.Strava.ClientID = v
	}
	if v := os.Getenv("STRAVA_CLIENT_SECRET"); v != "" {
		c.Strava.ClientSecret = v
	}
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		c.Server.AdminPassword = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		c.Server.SessionSecret = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		c.Collect.DatabasePath = v
	}
}

// CreateExample creates an example config file if none exists
func CreateExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Strava = StravaConfig{
		ClientID:     "YOUR_CLIENT_ID",
		ClientSecret: "YOUR_CLIENT_SECRET",
	}
	example.Challenge = ChallengeConfig{
		Name:      "Team Distance Challenge",
		StartDate: "2026-01-01",
		EndDate:   "2026-12-31",
	}

	data, err := json.MarshalIndent(example, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks if the config has required fields
func (c *Config) Validate() error {
	if c.Strava.ClientID == "" || c.Strava.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.ClientSecret == "" || c.Strava.ClientSecret == "YOUR_CLIENT_SECRET" {
		return errors.New("strava.client_secret is required - get it from https://www.strava.com/settings/api")
	}
	if c.Server.AdminPassword == "" {
		return errors.New("server.admin_password is required")
	}
	if c.Server.SessionSecret == "" {
		return errors.New("server.session_secret is required")
	}

	start, err := c.WindowStart()
	if err != nil {
		return fmt.Errorf("challenge.start_date: %w", err)
	}
	end, err := c.WindowEnd()
	if err != nil {
		return fmt.Errorf("challenge.end_date: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("challenge.end_date (%s) must not be before challenge.start_date (%s)",
			c.Challenge.EndDate, c.Challenge.StartDate)
	}

	if c.Collect.PageSize < 1 || c.Collect.PageSize > 200 {
		return fmt.Errorf("collect.page_size must be between 1 and 200, got %d", c.Collect.PageSize)
	}
	if c.Collect.Workers < 1 {
		return fmt.Errorf("collect.workers must be at least 1, got %d", c.Collect.Workers)
	}

	return nil
}

// WindowStart returns the tracking window start as UTC midnight of the
// configured start date.
func (c *Config) WindowStart() (time.Time, error) {
	return parseDateUTC(c.Challenge.StartDate)
}

// WindowEnd returns the tracking window end as UTC midnight of the
// configured end date. The end date itself is inside the window.
func (c *Config) WindowEnd() (time.Time, error) {
	return parseDateUTC(c.Challenge.EndDate)
}

// Interval returns the collection interval as a duration
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Collect.IntervalMinutes) * time.Minute
}

func parseDateUTC(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD, got %q", s)
	}
	return t, nil
}
