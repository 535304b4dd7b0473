// ABOUTME: Configuration loader for the crediteval client
// ABOUTME: Resolves settings from environment, optional .env file, and defaults

package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAPIURL is the backend base URL used when nothing else is configured
const DefaultAPIURL = "http://localhost:5000/api"

// AppName names the config directory and log files
const AppName = "crediteval"

type Config struct {
	APIURL    string
	ConfigDir string
	Timeout   time.Duration

	// Logging
	LogLevel  string // debug, info, warn, error (default: info)
	LogFormat string // text, json (default: text)

	// Tracing
	Trace bool // export client spans to trace.json in ConfigDir
}

// Overrides carries command-line flags, which win over the environment
type Overrides struct {
	APIURL    string
	ConfigDir string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first without overriding variables already set.
func Load() (*Config, error) {
	return LoadWith(Overrides{})
}

// LoadWith is Load with flag values applied before validation
func LoadWith(o Overrides) (*Config, error) {
	loadLocalEnv(".env")

	cfg := &Config{
		APIURL:    strings.TrimRight(getEnv("CREDITEVAL_API_URL", DefaultAPIURL), "/"),
		ConfigDir: getEnv("CREDITEVAL_CONFIG_DIR", DefaultConfigDir()),
		Timeout:   time.Duration(getEnvInt("CREDITEVAL_TIMEOUT_SEC", 30)) * time.Second,
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		Trace:     getEnvBool("CREDITEVAL_TRACE", false),
	}
	if o.APIURL != "" {
		cfg.APIURL = strings.TrimRight(o.APIURL, "/")
	}
	if o.ConfigDir != "" {
		cfg.ConfigDir = o.ConfigDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the resolved values are usable
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid API URL %q: %w", c.APIURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid API URL %q: scheme must be http or https", c.APIURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid API URL %q: missing host", c.APIURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// SessionFile is where the token/role pair is persisted
func (c *Config) SessionFile() string {
	return filepath.Join(c.ConfigDir, "session.json")
}

// LogFile is where the structured log is written
func (c *Config) LogFile() string {
	return filepath.Join(c.ConfigDir, AppName+".log")
}

// TraceFile is where exported spans are written when tracing is enabled
func (c *Config) TraceFile() string {
	return filepath.Join(c.ConfigDir, "trace.json")
}

// DefaultConfigDir returns the default config directory following XDG spec
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", AppName)
}

func loadLocalEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	// Existing environment wins over the file
	if err := godotenv.Load(path); err != nil {
		slog.Warn("ignoring unreadable env file", "path", path, "error", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
