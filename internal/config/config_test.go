package config

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type validateCase struct {
	name    string
	modify  func(*Config)
	wantErr string
}

// validConfig returns a minimal Config that passes Validate().
func validConfig() Config {
	return Config{
		TMDb: TMDbConfig{APIKey: "tmdb-key"},
		App:  AppConfig{LogLevel: "info", DataDir: "/tmp/test"},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []validateCase{
		{"valid_minimal", nil, ""},
		{"missing_tmdb_key", func(c *Config) { c.TMDb.APIKey = "" }, "api_key: cannot be blank"},
		{"invalid_base_url", func(c *Config) { c.TMDb.BaseURL = "not a url" }, "base_url: must be a valid URL"},
		{"negative_popular_ttl", func(c *Config) { c.TMDb.PopularTTL = -time.Second }, "popular_ttl"},
		{"negative_cache_ttl", func(c *Config) { c.Cache.TTL = -time.Minute }, "cache"},
		{"page_size_too_large", func(c *Config) { c.Browse.PageSize = 500 }, "page_size"},
		{"negative_scroll_threshold", func(c *Config) { c.Browse.ScrollThreshold = -1 }, "scroll_threshold"},
		{"negative_carousel", func(c *Config) { c.Lottery.CarouselSize = -2 }, "carousel_size"},
		{"invalid_log_level", func(c *Config) { c.App.LogLevel = "trace" }, "log_level: must be one of"},
		{"warning_accepted", func(c *Config) { c.App.LogLevel = "warning" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			if tt.modify != nil {
				tt.modify(&cfg)
			}
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.TMDb.BaseURL != "https://api.themoviedb.org/3" {
		t.Errorf("BaseURL = %q", cfg.TMDb.BaseURL)
	}
	if cfg.TMDb.PopularTimeout != 2*time.Second {
		t.Errorf("PopularTimeout = %s, want 2s", cfg.TMDb.PopularTimeout)
	}
	if cfg.TMDb.PopularTTL != 0 {
		t.Errorf("PopularTTL = %s, want 0 (process lifetime)", cfg.TMDb.PopularTTL)
	}
	if cfg.Browse.Debounce != 500*time.Millisecond {
		t.Errorf("Debounce = %s, want 500ms", cfg.Browse.Debounce)
	}
	if cfg.Browse.PageSize != 20 {
		t.Errorf("PageSize = %d, want 20", cfg.Browse.PageSize)
	}
	if cfg.Lottery.SpinDuration != 3*time.Second {
		t.Errorf("SpinDuration = %s, want 3s", cfg.Lottery.SpinDuration)
	}
	if cfg.Lottery.CarouselSize != 8 {
		t.Errorf("CarouselSize = %d, want 8", cfg.Lottery.CarouselSize)
	}
	if cfg.Storage.Path != filepath.Join("/tmp/test", "moviecenter.db") {
		t.Errorf("Storage.Path = %q", cfg.Storage.Path)
	}
}

func TestLoad_ValidFile(t *testing.T) {
	t.Parallel()
	path := writeTempYAML(t, `
tmdb:
  api_key: yaml-key
  popular_timeout: 750ms
browse:
  page_size: 40
  debounce: 250ms
lottery:
  spin_duration: 1s
app:
  data_dir: /tmp/moviecenter
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TMDb.APIKey != "yaml-key" {
		t.Errorf("expected api key yaml-key, got %q", cfg.TMDb.APIKey)
	}
	if cfg.TMDb.PopularTimeout != 750*time.Millisecond {
		t.Errorf("PopularTimeout = %s", cfg.TMDb.PopularTimeout)
	}
	if cfg.Browse.PageSize != 40 || cfg.Browse.Debounce != 250*time.Millisecond {
		t.Errorf("unexpected browse config: %+v", cfg.Browse)
	}
	if cfg.Lottery.SpinDuration != time.Second {
		t.Errorf("SpinDuration = %s", cfg.Lottery.SpinDuration)
	}
	if cfg.App.LogLevel != "info" {
		t.Errorf("expected default log level info, got %q", cfg.App.LogLevel)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	t.Run("invalid_yaml", func(t *testing.T) {
		t.Parallel()
		path := writeTempYAML(t, "{{invalid yaml}}")
		_, err := Load(path)
		if err == nil {
			t.Fatal("expected error for invalid YAML")
		}
		if !strings.Contains(err.Error(), "failed to parse") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("missing_api_key", func(t *testing.T) {
		t.Parallel()
		path := writeTempYAML(t, "app:\n  log_level: debug\n")
		_, err := Load(path)
		if err == nil {
			t.Fatal("expected validation error")
		}
		if !strings.Contains(err.Error(), "invalid configuration") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("path_is_directory", func(t *testing.T) {
		t.Parallel()
		_, err := Load(t.TempDir())
		if err == nil {
			t.Fatal("expected error for directory path")
		}
		if !strings.Contains(err.Error(), "directory") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("MOVIECENTER_TMDB_API_KEY", "env-key")
	t.Setenv("MOVIECENTER_DATA_DIR", "/tmp/env-data")
	t.Setenv("MOVIECENTER_TMDB_POPULAR_TIMEOUT", "5s")
	t.Setenv("MOVIECENTER_LOTTERY_SPIN", "0s")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TMDb.APIKey != "env-key" {
		t.Errorf("expected env-key, got %q", cfg.TMDb.APIKey)
	}
	if cfg.App.DataDir != "/tmp/env-data" {
		t.Errorf("DataDir = %q", cfg.App.DataDir)
	}
	if cfg.TMDb.PopularTimeout != 5*time.Second {
		t.Errorf("PopularTimeout = %s, want 5s", cfg.TMDb.PopularTimeout)
	}
	// zero is replaced by the default
	if cfg.Lottery.SpinDuration != 3*time.Second {
		t.Errorf("SpinDuration = %s, want 3s", cfg.Lottery.SpinDuration)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeTempYAML(t, "tmdb:\n  api_key: yaml-key\napp:\n  log_level: info\n")
	t.Setenv("MOVIECENTER_TMDB_API_KEY", "env-key")
	t.Setenv("MOVIECENTER_LOG_LEVEL", "debug")
	t.Setenv("MOVIECENTER_PAGE_SIZE", "not-a-number")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TMDb.APIKey != "env-key" {
		t.Errorf("expected env-key, got %q", cfg.TMDb.APIKey)
	}
	if cfg.App.LogLevel != "debug" {
		t.Errorf("expected debug, got %q", cfg.App.LogLevel)
	}
	if cfg.Browse.PageSize != 20 {
		t.Errorf("invalid env page size should be ignored, got %d", cfg.Browse.PageSize)
	}
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger("warn", &buf)

	logger.Info("hidden")
	logger.Warn("visible", slog.Int("movie_id", 550))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if rec["msg"] != "visible" || rec["movie_id"] != float64(550) {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestLoggerContext(t *testing.T) {
	if LoggerFromContext(context.Background()) != slog.Default() {
		t.Error("empty context should yield the default logger")
	}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := ContextWithLogger(context.Background(), logger)
	if LoggerFromContext(ctx) != logger {
		t.Error("context logger not returned")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestOpenLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	f, err := OpenLogFile(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	if _, err := os.Stat(filepath.Join(dir, "moviecenter.log")); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

// writeTempYAML creates a temporary YAML file and returns its path.
func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp yaml: %v", err)
	}
	return path
}
