// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// FromEnv builds Settings from environment variables, applying defaults
// for everything unset.
func FromEnv() (*Settings, error) {
	s := &Settings{
		BrightDataAPIKey:  os.Getenv("BRIGHTDATA_API_KEY"),
		ScraperAPIKey:     os.Getenv("SCRAPERAPI_KEY"),
		RelayEnabled:      envBool("RELAY_ENABLED", false),
		Headless:          envBool("HEADLESS", true),
		UseSimplifiedHost: envBool("USE_SIMPLIFIED_HOST", true),
		UserAgent:         os.Getenv("SCRAPER_USER_AGENT"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		MetricsListen:     os.Getenv("METRICS_LISTEN"),
	}

	var err error
	if s.Timeout, err = envDuration("SCRAPER_TIMEOUT"); err != nil {
		return nil, err
	}
	if s.MinDelay, err = envDuration("MIN_REQUEST_DELAY"); err != nil {
		return nil, err
	}
	if s.MaxDelay, err = envDuration("MAX_REQUEST_DELAY"); err != nil {
		return nil, err
	}
	if s.MaxRetries, err = envInt("MAX_RETRIES"); err != nil {
		return nil, err
	}
	if s.RequestsPerSecond, err = envInt("REQUESTS_PER_SECOND"); err != nil {
		return nil, err
	}
	if s.RequestsPerMinute, err = envInt("REQUESTS_PER_MINUTE"); err != nil {
		return nil, err
	}
	if s.ViewportWidth, err = envInt("VIEWPORT_WIDTH"); err != nil {
		return nil, err
	}
	if s.ViewportHeight, err = envInt("VIEWPORT_HEIGHT"); err != nil {
		return nil, err
	}

	applyDefaults(s)
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return s, nil
}

// LoadFromFile loads Settings from a YAML file. Values of the form
// ${VAR} or ${VAR:-default} are substituted from the environment before
// parsing, so credentials can stay out of config files.
func LoadFromFile(filename string) (*Settings, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration filename cannot be empty")
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", filename)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %v", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes loads Settings from YAML bytes.
func LoadFromBytes(data []byte) (*Settings, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("configuration data cannot be empty")
	}

	expanded := expandEnvironmentVariables(string(data))

	var s Settings
	if err := yaml.Unmarshal([]byte(expanded), &s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %v", err)
	}

	applyDefaults(&s)
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}
	return &s, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// expandEnvironmentVariables substitutes ${VAR} and ${VAR:-default}.
func expandEnvironmentVariables(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if value, ok := os.LookupEnv(groups[1]); ok {
			return value
		}
		return groups[2]
	})
}

func envBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(key string) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %q", key, value)
	}
	return parsed, nil
}

func envDuration(key string) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return 0, nil
	}
	// Bare numbers are read as seconds; otherwise Go duration syntax.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q", key, value)
	}
	return parsed, nil
}
