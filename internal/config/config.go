package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	APIBaseURL     string        `yaml:"api_base_url"`
	CachePath      string        `yaml:"cache_path"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Outbound request budget; zero disables the limiter
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Auto-save debounce window for the assignment detail session
	SaveDebounce time.Duration `yaml:"save_debounce"`

	// Subtask population policy: when true, a draft that carries a
	// description drops its manual subtasks so the backend's generator
	// owns the breakdown
	SuppressManualSubtasks bool `yaml:"suppress_manual_subtasks"`

	// Deadline reminder configuration
	ReminderCron   string        `yaml:"reminder_cron"`
	ReminderWindow time.Duration `yaml:"reminder_window"`
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		APIBaseURL:        getEnv("TASKLINE_API_URL", "http://127.0.0.1:5000"),
		CachePath:         getEnv("TASKLINE_CACHE_PATH", defaultCachePath()),
		RequestTimeout:    getDurationEnv("TASKLINE_REQUEST_TIMEOUT", 15*time.Second),
		RequestsPerSecond: getFloatEnv("TASKLINE_REQUESTS_PER_SECOND", 5),

		SaveDebounce:           getDurationEnv("TASKLINE_SAVE_DEBOUNCE", 500*time.Millisecond),
		SuppressManualSubtasks: getBoolEnv("TASKLINE_SUPPRESS_MANUAL_SUBTASKS", true),

		ReminderCron:   getEnv("TASKLINE_REMINDER_CRON", "0 9 * * *"),
		ReminderWindow: getDurationEnv("TASKLINE_REMINDER_WINDOW", 72*time.Hour),
	}
}

// LoadFile overlays values from a YAML config file onto cfg. Missing file is
// an error; unset fields in the file keep their current values.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "taskline.db"
	}
	return home + "/.taskline/cache.db"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
