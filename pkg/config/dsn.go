package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment keys read at startup.
const (
	KeyDatabaseURL  = "DATABASE_URL"
	KeyDatabaseEcho = "DATABASE_ECHO"
	KeyLogLevel     = "LOG_LEVEL"
	KeyLogFormat    = "LOG_FORMAT"
	KeyHTTPAddr     = "HTTP_ADDR"
)

// ErrMissingDatabaseURL is returned when DATABASE_URL is unset or blank.
// There is no fallback locator: startup must abort.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL environment variable is not set")

// Config holds the settings needed to build the engine and serve requests.
type Config struct {
	DSN       string
	Echo      bool
	LogLevel  string
	LogFormat string
	HTTPAddr  string
}

// Load reads configuration from the process environment, after merging in
// any of the given dotenv files (".env" when none are given). Variables
// already present in the environment win over dotenv values.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault(KeyDatabaseEcho, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyHTTPAddr, ":8000")

	cfg := &Config{
		DSN:       strings.TrimSpace(v.GetString(KeyDatabaseURL)),
		Echo:      v.GetBool(KeyDatabaseEcho),
		LogLevel:  v.GetString(KeyLogLevel),
		LogFormat: v.GetString(KeyLogFormat),
		HTTPAddr:  v.GetString(KeyHTTPAddr),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants Load relies on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DSN) == "" {
		return ErrMissingDatabaseURL
	}
	return nil
}
