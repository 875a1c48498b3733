package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("Server.ListenAddr = %q, want %q", cfg.Server.ListenAddr, ":8080")
	}
	if cfg.Collect.PageSize != 200 {
		t.Errorf("Collect.PageSize = %v, want 200", cfg.Collect.PageSize)
	}
	if cfg.Collect.IntervalMinutes != 60 {
		t.Errorf("Collect.IntervalMinutes = %v, want 60", cfg.Collect.IntervalMinutes)
	}
	if cfg.Collect.Workers != 4 {
		t.Errorf("Collect.Workers = %v, want 4", cfg.Collect.Workers)
	}

	// Strava config should be empty by default
	if cfg.Strava.ClientID != "" {
		t.Errorf("Strava.ClientID should be empty, got %q", cfg.Strava.ClientID)
	}
	if cfg.Strava.ClientSecret != "" {
		t.Errorf("Strava.ClientSecret should be empty, got %q", cfg.Strava.ClientSecret)
	}
}

func validTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Strava = StravaConfig{ClientID: "12345", ClientSecret: "abc123secret"}
	cfg.Server.AdminPassword = "hunter2"
	cfg.Server.SessionSecret = "sixteen-bytes-at-least"
	cfg.Challenge = ChallengeConfig{
		Name:      "Test Challenge",
		StartDate: "2026-01-01",
		EndDate:   "2026-06-30",
	}
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errContains string
	}{
		{
			name:        "valid config",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "empty client ID",
			mutate:      func(c *Config) { c.Strava.ClientID = "" },
			expectError: true,
			errContains: "client_id",
		},
		{
			name:        "placeholder client secret",
			mutate:      func(c *Config) { c.Strava.ClientSecret = "YOUR_CLIENT_SECRET" },
			expectError: true,
			errContains: "client_secret",
		},
		{
			name:        "missing admin password",
			mutate:      func(c *Config) { c.Server.AdminPassword = "" },
			expectError: true,
			errContains: "admin_password",
		},
		{
			name:        "bad start date",
			mutate:      func(c *Config) { c.Challenge.StartDate = "01/01/2026" },
			expectError: true,
			errContains: "start_date",
		},
		{
			name: "window ends before it starts",
			mutate: func(c *Config) {
				c.Challenge.StartDate = "2026-06-30"
				c.Challenge.EndDate = "2026-01-01"
			},
			expectError: true,
			errContains: "end_date",
		},
		{
			name:        "page size over provider max",
			mutate:      func(c *Config) { c.Collect.PageSize = 500 },
			expectError: true,
			errContains: "page_size",
		},
		{
			name:        "zero workers rejected",
			mutate:      func(c *Config) { c.Collect.Workers = -1 },
			expectError: true,
			errContains: "workers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q does not contain %q", err, tt.errContains)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestWindowDatesAreUTCMidnight(t *testing.T) {
	cfg := validTestConfig()

	start, err := cfg.WindowStart()
	if err != nil {
		t.Fatalf("WindowStart: %v", err)
	}
	want := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if !start.Equal(want) {
		t.Errorf("WindowStart = %v, want %v", start, want)
	}
	if start.Location() != time.UTC {
		t.Errorf("WindowStart location = %v, want UTC", start.Location())
	}

	end, err := cfg.WindowEnd()
	if err != nil {
		t.Fatalf("WindowEnd: %v", err)
	}
	if end.Hour() != 0 || end.Minute() != 0 {
		t.Errorf("WindowEnd not at midnight: %v", end)
	}
}
