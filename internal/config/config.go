package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type (
	// Config holds configuration settings for the flowchart service
	Config struct {
		// API Server
		APIHost  string
		APIPort  int
		LogLevel string

		// Stores & Archiving
		Store   StoreConfig
		Archive ArchiveConfig

		// Authoring
		Authoring AuthoringConfig

		ShutdownTimeout time.Duration
	}

	// StoreConfig locates the Redis instance that holds lesson graphs
	StoreConfig struct {
		Addr     string
		Password string
		Prefix   string
		DB       int
	}

	// ArchiveConfig locates the blob bucket that receives lesson archives.
	// An empty BucketURL disables archiving
	ArchiveConfig struct {
		BucketURL string
		Prefix    string
	}

	// AuthoringConfig holds the defaults applied by the graph mutators and
	// the lesson verifier
	AuthoringConfig struct {
		DefaultScreenTitle string
		WelcomeTitle       string
		EndTitle           string
		FinishMessage      string
		DefaultMaxAttempts int
	}
)

const (
	DefaultShutdownTimeout = 10 * time.Second

	DefaultAPIPort = 8080
	DefaultAPIHost = "0.0.0.0"
	MaxTCPPort     = 65535

	DefaultRedisEndpoint = "localhost:6379"
	DefaultRedisPrefix   = "flowchart"
	DefaultRedisDB       = 0
	MaxRedisDB           = 15

	DefaultArchivePrefix = "lessons/"

	DefaultScreenTitle   = "New Screen"
	DefaultWelcomeTitle  = "Welcome Screen"
	DefaultEndTitle      = "End of Lesson"
	DefaultFinishMessage = "Thank you for completing this exercise."
	DefaultMaxAttempts   = 3
	MaxMaxAttempts       = 100

	MaxShutdownSeconds = 3600
)

var (
	ErrInvalidAPIPort     = errors.New("invalid API port")
	ErrInvalidRedisDB     = errors.New("invalid Redis DB")
	ErrInvalidMaxAttempts = errors.New("default max attempts must be positive")
	ErrInvalidTimeout     = errors.New("shutdown timeout must be positive")
	ErrEmptyTitle         = errors.New("default titles must not be empty")
	ErrInvalidLogLevel    = errors.New("invalid log level")
)

var logLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// NewDefaultConfig creates a configuration with sensible defaults for the
// server, store, archive, and authoring behavior
func NewDefaultConfig() *Config {
	return &Config{
		APIPort: DefaultAPIPort,
		APIHost: DefaultAPIHost,
		Store: StoreConfig{
			Addr:   DefaultRedisEndpoint,
			Prefix: DefaultRedisPrefix,
			DB:     DefaultRedisDB,
		},
		Archive: ArchiveConfig{
			Prefix: DefaultArchivePrefix,
		},
		Authoring:       NewAuthoringConfig(),
		ShutdownTimeout: DefaultShutdownTimeout,
		LogLevel:        "info",
	}
}

// NewAuthoringConfig returns the authoring defaults on their own, for tools
// that run the graph operations without the rest of the service
func NewAuthoringConfig() AuthoringConfig {
	return AuthoringConfig{
		DefaultScreenTitle: DefaultScreenTitle,
		WelcomeTitle:       DefaultWelcomeTitle,
		EndTitle:           DefaultEndTitle,
		FinishMessage:      DefaultFinishMessage,
		DefaultMaxAttempts: DefaultMaxAttempts,
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed.
func (c *Config) LoadFromEnv() error {
	LoadStoreConfigFromEnv(&c.Store)

	if apiHost := os.Getenv("API_HOST"); apiHost != "" {
		c.APIHost = apiHost
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.LogLevel = strings.ToLower(logLevel)
	}
	if bucket := os.Getenv("ARCHIVE_BUCKET_URL"); bucket != "" {
		c.Archive.BucketURL = bucket
	}
	if prefix := os.Getenv("ARCHIVE_PREFIX"); prefix != "" {
		c.Archive.Prefix = prefix
	}
	if msg := os.Getenv("FINISH_MESSAGE"); msg != "" {
		c.Authoring.FinishMessage = msg
	}

	if err := loadEnvInt("API_PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}
	if err := loadEnvInt(
		"REDIS_DB", &c.Store.DB, -1, MaxRedisDB,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"DEFAULT_MAX_ATTEMPTS", &c.Authoring.DefaultMaxAttempts,
		0, MaxMaxAttempts,
	); err != nil {
		return err
	}

	var seconds int
	if err := loadEnvInt(
		"SHUTDOWN_TIMEOUT", &seconds, 0, MaxShutdownSeconds,
	); err != nil {
		return err
	}
	if seconds > 0 {
		c.ShutdownTimeout = time.Duration(seconds) * time.Second
	}

	return nil
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}

	if c.Store.DB < 0 || c.Store.DB > MaxRedisDB {
		return fmt.Errorf("%w: %d", ErrInvalidRedisDB, c.Store.DB)
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if !logLevels[c.LogLevel] {
		return fmt.Errorf("%w: %s", ErrInvalidLogLevel, c.LogLevel)
	}

	return c.Authoring.Validate()
}

// Validate checks the authoring defaults
func (a *AuthoringConfig) Validate() error {
	if a.DefaultMaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	if a.DefaultScreenTitle == "" || a.WelcomeTitle == "" ||
		a.EndTitle == "" {
		return ErrEmptyTitle
	}
	return nil
}

// LoadStoreConfigFromEnv loads Redis store configuration from environment
// variables
func LoadStoreConfigFromEnv(s *StoreConfig) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		s.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		s.Password = password
	}
	if envPrefix := os.Getenv("REDIS_PREFIX"); envPrefix != "" {
		s.Prefix = envPrefix
	}
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max]. Returns an error if
// the value cannot be parsed or falls outside the valid range.
func loadEnvInt[T ~int | ~int64](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	tv := T(v)
	if tv <= min || tv > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, tv, min+1, max)
	}
	*dst = tv
	return nil
}
