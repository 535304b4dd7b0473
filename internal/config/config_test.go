// ABOUTME: Tests for configuration loading
// ABOUTME: Covers defaults, env overrides, .env merging and validation

package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CREDITEVAL_API_URL", "CREDITEVAL_CONFIG_DIR", "CREDITEVAL_TIMEOUT_SEC",
		"CREDITEVAL_TRACE", "LOG_LEVEL", "LOG_FORMAT", "XDG_CONFIG_HOME",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("Expected APIURL %s, got %s", DefaultAPIURL, cfg.APIURL)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %s", cfg.Timeout)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level info, got %s", cfg.LogLevel)
	}
	if cfg.Trace {
		t.Error("Expected tracing disabled by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("CREDITEVAL_API_URL", "https://credit.example.com/api/")
	t.Setenv("CREDITEVAL_CONFIG_DIR", dir)
	t.Setenv("CREDITEVAL_TIMEOUT_SEC", "5")
	t.Setenv("CREDITEVAL_TRACE", "true")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.APIURL != "https://credit.example.com/api" {
		t.Errorf("Expected trailing slash trimmed, got %s", cfg.APIURL)
	}
	if cfg.ConfigDir != dir {
		t.Errorf("Expected ConfigDir %s, got %s", dir, cfg.ConfigDir)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %s", cfg.Timeout)
	}
	if !cfg.Trace {
		t.Error("Expected tracing enabled")
	}
	if cfg.LogFormat != "json" {
		t.Errorf("Expected log format json, got %s", cfg.LogFormat)
	}
	if cfg.SessionFile() != filepath.Join(dir, "session.json") {
		t.Errorf("unexpected session file %s", cfg.SessionFile())
	}
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("CREDITEVAL_TIMEOUT_SEC", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Expected fallback timeout 30s, got %s", cfg.Timeout)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	if err := os.WriteFile(".env", []byte("CREDITEVAL_API_URL=http://dotenv.local:9000/api\nLOG_LEVEL=debug\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("CREDITEVAL_API_URL")
		os.Unsetenv("LOG_LEVEL")
	})
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.APIURL != "http://dotenv.local:9000/api" {
		t.Errorf("Expected APIURL from .env, got %s", cfg.APIURL)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected real env to win over .env, got %s", cfg.LogLevel)
	}
}

func TestLoad_MalformedDotEnvWarns(t *testing.T) {
	clearEnv(t)
	if err := os.WriteFile(".env", []byte("CREDITEVAL_API_URL=\"http://broken\n"), 0600); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("Expected default APIURL, got %s", cfg.APIURL)
	}
	if !strings.Contains(buf.String(), "ignoring unreadable env file") {
		t.Errorf("Expected a warning for the malformed file, got %q", buf.String())
	}
}

func TestLoad_RejectsBadURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"no scheme", "localhost:5000"},
		{"ftp scheme", "ftp://example.com"},
		{"no host", "http://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("CREDITEVAL_API_URL", tt.url)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %q", tt.url)
			}
		})
	}
}

func TestDefaultConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := DefaultConfigDir(); got != filepath.Join("/tmp/xdg", AppName) {
		t.Errorf("expected XDG path, got %s", got)
	}
}

func TestLoadWith_FlagsWin(t *testing.T) {
	clearEnv(t)
	t.Setenv("CREDITEVAL_API_URL", "ftp://not-valid")
	dir := t.TempDir()

	cfg, err := LoadWith(Overrides{APIURL: "http://flag.example.com/api/", ConfigDir: dir})
	if err != nil {
		t.Fatalf("Expected flag to replace invalid env URL, got %v", err)
	}
	if cfg.APIURL != "http://flag.example.com/api" {
		t.Errorf("Expected flag URL, got %s", cfg.APIURL)
	}
	if cfg.ConfigDir != dir {
		t.Errorf("Expected flag config dir, got %s", cfg.ConfigDir)
	}
}
