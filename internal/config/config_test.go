package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		wantErr     bool
		errorString string
	}{
		{
			name: "valid config",
			config: Config{
				Port:               "8081",
				SQLiteDBPath:       "./test.db",
				SessionTTL:         720 * time.Hour,
				RateLimitPerMinute: 60,
			},
			wantErr: false,
		},
		{
			name: "invalid port - non-numeric",
			config: Config{
				Port:               "abc",
				SQLiteDBPath:       "./test.db",
				SessionTTL:         time.Hour,
				RateLimitPerMinute: 60,
			},
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name: "invalid port - out of range",
			config: Config{
				Port:               "70000",
				SQLiteDBPath:       "./test.db",
				SessionTTL:         time.Hour,
				RateLimitPerMinute: 60,
			},
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name: "missing database path",
			config: Config{
				Port:               "8080",
				SQLiteDBPath:       "",
				SessionTTL:         time.Hour,
				RateLimitPerMinute: 60,
			},
			wantErr:     true,
			errorString: "SQLite database path cannot be empty",
		},
		{
			name: "session TTL too short",
			config: Config{
				Port:               "8080",
				SQLiteDBPath:       "./test.db",
				SessionTTL:         time.Second,
				RateLimitPerMinute: 60,
			},
			wantErr:     true,
			errorString: "must be at least 1 minute",
		},
		{
			name: "rate limit below one",
			config: Config{
				Port:               "8080",
				SQLiteDBPath:       "./test.db",
				SessionTTL:         time.Hour,
				RateLimitPerMinute: 0,
			},
			wantErr:     true,
			errorString: "must be at least 1 request per minute",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errorString)
				}
				if !strings.Contains(err.Error(), tt.errorString) {
					t.Fatalf("expected error containing %q, got %q", tt.errorString, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "SQLITE_DB_PATH", "SESSION_TTL", "SECURE_COOKIES", "RATE_LIMIT_PER_MINUTE"} {
		os.Unsetenv(key)
	}

	cfg := Load()
	if cfg.Port != "8081" {
		t.Errorf("default port: expected 8081, got %s", cfg.Port)
	}
	if cfg.SessionTTL != 720*time.Hour {
		t.Errorf("default session TTL: expected 720h, got %v", cfg.SessionTTL)
	}
	if cfg.RateLimitPerMinute != 60 {
		t.Errorf("default rate limit: expected 60, got %d", cfg.RateLimitPerMinute)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL", "48h")
	t.Setenv("SECURE_COOKIES", "true")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.SessionTTL != 48*time.Hour {
		t.Errorf("expected session TTL 48h, got %v", cfg.SessionTTL)
	}
	if !cfg.SecureCookies {
		t.Error("expected secure cookies enabled")
	}
}

func TestConfig_ValidateDoesNotTouchFilesystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	cfg := Config{
		Port:               "8081",
		SQLiteDBPath:       filepath.Join(dir, "spendlog.db"),
		SessionTTL:         time.Hour,
		RateLimitPerMinute: 60,
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Directory creation belongs to storage.Open, not to validation.
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("expected %s to not exist after Validate, stat err: %v", dir, err)
	}
}
