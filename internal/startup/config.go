package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"media-library/internal/authz"
	"media-library/internal/logging"
	"media-library/internal/photolibrary"
)

// Config holds all application configuration
type Config struct {
	MediaDir    string
	DatabaseDir string
	Port        string
	MetricsPort string

	MetricsEnabled  bool
	LogHealthChecks bool

	IndexInterval time.Duration
	WatchEnabled  bool
	MomentGap     time.Duration
	PlacesFile    string

	AuthMode    string
	SettingsURL string

	CacheTTL      time.Duration
	PrefetchRate  float64
	EnrichWorkers int // 0 = auto
	FetchTimeout  time.Duration
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config, err := loadConfig(os.Getenv)
	if err != nil {
		return nil, err
	}

	logging.Info("  MEDIA_DIR:           %s", config.MediaDir)
	logging.Info("  DATABASE_DIR:        %s", config.DatabaseDir)
	logging.Info("  PORT:                %s", config.Port)
	logging.Info("  METRICS_PORT:        %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", config.MetricsEnabled)
	logging.Info("  INDEX_INTERVAL:      %v", config.IndexInterval)
	logging.Info("  WATCH_ENABLED:       %v", config.WatchEnabled)
	logging.Info("  MOMENT_GAP:          %v", config.MomentGap)
	logging.Info("  PLACES_FILE:         %s", orNone(config.PlacesFile))
	logging.Info("  AUTH_MODE:           %s", config.AuthMode)
	logging.Info("  SETTINGS_URL:        %s", orNone(config.SettingsURL))
	logging.Info("  CACHE_TTL:           %v", config.CacheTTL)
	logging.Info("  PREFETCH_RATE:       %v/s", config.PrefetchRate)
	if config.EnrichWorkers > 0 {
		logging.Info("  ENRICH_WORKERS:      %d", config.EnrichWorkers)
	} else {
		logging.Info("  ENRICH_WORKERS:      auto")
	}
	logging.Info("  FETCH_TIMEOUT:       %v", config.FetchTimeout)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Media directory (absolute): %s", config.MediaDir)
	logging.Info("  Database directory (absolute): %s", config.DatabaseDir)

	// The media root may be mounted later; the indexer refuses to run
	// until it exists.
	if err := ensureDirectory(config.MediaDir, "media"); err != nil {
		logging.Warn("  Media directory issue: %v", err)
	}

	if err := ensureDirectory(config.DatabaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}
	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(config.DatabaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for catalogue): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	return config, nil
}

// ReadConfig parses and validates configuration from getenv without
// logging it or touching the filesystem.
func ReadConfig(getenv func(string) string) (*Config, error) {
	return loadConfig(getenv)
}

// loadConfig parses and validates the environment without logging it.
func loadConfig(getenv func(string) string) (*Config, error) {
	env := envReader{getenv: getenv}

	config := &Config{
		MediaDir:        env.str("MEDIA_DIR", "/media"),
		DatabaseDir:     env.str("DATABASE_DIR", "/database"),
		Port:            env.str("PORT", "8080"),
		MetricsPort:     env.str("METRICS_PORT", "9090"),
		MetricsEnabled:  env.boolean("METRICS_ENABLED", true),
		LogHealthChecks: env.boolean("LOG_HEALTH_CHECKS", true),
		IndexInterval:   env.duration("INDEX_INTERVAL", 30*time.Minute),
		WatchEnabled:    env.boolean("WATCH_ENABLED", true),
		MomentGap:       env.duration("MOMENT_GAP", 6*time.Hour),
		PlacesFile:      env.str("PLACES_FILE", ""),
		AuthMode:        strings.ToLower(env.str("AUTH_MODE", authz.ModeGrant)),
		SettingsURL:     env.str("SETTINGS_URL", ""),
		CacheTTL:        env.duration("CACHE_TTL", 10*time.Minute),
		PrefetchRate:    env.float("PREFETCH_RATE", 20),
		FetchTimeout:    env.duration("FETCH_TIMEOUT", 30*time.Second),
	}

	switch config.AuthMode {
	case authz.ModeGrant, authz.ModeDeny, authz.ModePrompt:
	default:
		return nil, fmt.Errorf("invalid AUTH_MODE %q (want %s, %s or %s)",
			config.AuthMode, authz.ModePrompt, authz.ModeGrant, authz.ModeDeny)
	}

	if workers := env.str("ENRICH_WORKERS", "auto"); workers != "auto" {
		n, err := strconv.Atoi(workers)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid ENRICH_WORKERS %q (want a positive integer or auto)", workers)
		}
		config.EnrichWorkers = n
	}

	if config.PrefetchRate < 0 {
		return nil, fmt.Errorf("invalid PREFETCH_RATE %v (must not be negative)", config.PrefetchRate)
	}
	if env.err != nil {
		return nil, env.err
	}

	var err error
	if config.MediaDir, err = filepath.Abs(config.MediaDir); err != nil {
		return nil, fmt.Errorf("failed to resolve media directory path: %w", err)
	}
	if config.DatabaseDir, err = filepath.Abs(config.DatabaseDir); err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}

	return config, nil
}

// Library returns the service configuration. memoryLimit is the heap
// limit prefetch backpressure works against.
func (c *Config) Library(memoryLimit int64) photolibrary.Config {
	return photolibrary.Config{
		MediaDir:         c.MediaDir,
		DatabaseDir:      c.DatabaseDir,
		AuthMode:         c.AuthMode,
		SettingsURL:      c.SettingsURL,
		CacheTTL:         c.CacheTTL,
		PrefetchRate:     c.PrefetchRate,
		EnrichWorkers:    c.EnrichWorkers,
		FetchTimeout:     c.FetchTimeout,
		MemoryLimitBytes: memoryLimit,
		Index:            true,
		IndexInterval:    c.IndexInterval,
		Watch:            c.WatchEnabled,
		MomentGap:        c.MomentGap,
		PlacesFile:       c.PlacesFile,
	}
}

// envReader reads typed values, falling back to defaults with a warning
// on malformed input. Durations are strict: err records the first bad one.
type envReader struct {
	getenv func(string) string
	err    error
}

func (e *envReader) str(key, defaultValue string) string {
	if value := e.getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (e *envReader) boolean(key string, defaultValue bool) bool {
	value := e.getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func (e *envReader) float(key string, defaultValue float64) float64 {
	value := e.getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logging.Warn("Invalid number for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func (e *envReader) duration(key string, defaultValue time.Duration) time.Duration {
	value := e.getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		if e.err == nil {
			e.err = fmt.Errorf("invalid %s %q: want a non-negative Go duration such as 30m", key, value)
		}
		return defaultValue
	}
	return parsed
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}
