// internal/config/config_test.go
package config

import (
	"testing"
	"time"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if s.Timeout != 30*time.Second {
		t.Fatalf("unexpected default timeout %v", s.Timeout)
	}
	if s.MaxRetries != 3 {
		t.Fatalf("unexpected default retries %d", s.MaxRetries)
	}
	if !s.Headless {
		t.Fatal("headless must default on")
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("BRIGHTDATA_API_KEY", "bd-key")
	t.Setenv("RELAY_ENABLED", "true")
	t.Setenv("SCRAPER_TIMEOUT", "45")
	t.Setenv("MIN_REQUEST_DELAY", "500ms")
	t.Setenv("MAX_RETRIES", "5")

	s, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.BrightDataAPIKey != "bd-key" {
		t.Fatalf("credential not read, got %q", s.BrightDataAPIKey)
	}
	if !s.RelayEnabled {
		t.Fatal("relay flag not read")
	}
	if s.Timeout != 45*time.Second {
		t.Fatalf("bare integer must mean seconds, got %v", s.Timeout)
	}
	if s.MinDelay != 500*time.Millisecond {
		t.Fatalf("duration syntax must be honored, got %v", s.MinDelay)
	}
	if s.MaxRetries != 5 {
		t.Fatalf("retries not read, got %d", s.MaxRetries)
	}
}

func TestFromEnvRejectsBadInteger(t *testing.T) {
	t.Setenv("MAX_RETRIES", "many")

	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for non-numeric MAX_RETRIES")
	}
}

func TestLoadFromBytes(t *testing.T) {
	data := []byte(`
timeout: 20s
max_retries: 2
requests_per_second: 4
relay_enabled: true
`)

	s, err := LoadFromBytes(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Timeout != 20*time.Second || s.MaxRetries != 2 || s.RequestsPerSecond != 4 {
		t.Fatalf("values not parsed: %+v", s)
	}
	if !s.RelayEnabled {
		t.Fatal("relay flag not parsed")
	}
	// Unset fields pick up defaults.
	if s.CacheTTL == 0 {
		t.Fatal("defaults must fill unset fields")
	}
}

func TestLoadFromBytesExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_BD_KEY", "secret-from-env")

	s, err := LoadFromBytes([]byte("brightdata_api_key: ${TEST_BD_KEY}\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.BrightDataAPIKey != "secret-from-env" {
		t.Fatalf("env expansion failed, got %q", s.BrightDataAPIKey)
	}
}

func TestLoadFromBytesDefaultFallback(t *testing.T) {
	s, err := LoadFromBytes([]byte("log_level: ${TEST_UNSET_VAR_XYZ:-debug}\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.LogLevel != "debug" {
		t.Fatalf("expected fallback default, got %q", s.LogLevel)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateRejectsInvertedDelays(t *testing.T) {
	s := DefaultSettings()
	s.MinDelay = 10 * time.Second
	s.MaxDelay = time.Second

	if err := s.Validate(); err == nil {
		t.Fatal("expected error when min delay exceeds max delay")
	}
}
