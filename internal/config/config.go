package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.yaml.in/yaml/v3"
)

func init() {
	// Report validation errors with the YAML key names users write.
	validation.ErrorTag = "yaml"
}

// Config represents the main application configuration
type Config struct {
	// Metadata provider
	TMDb TMDbConfig `yaml:"tmdb"`

	// Query cache
	Cache CacheConfig `yaml:"cache"`

	// Local persistence
	Storage StorageConfig `yaml:"storage"`

	// Interactive browsing
	Browse BrowseConfig `yaml:"browse"`

	// Lottery
	Lottery LotteryConfig `yaml:"lottery"`

	// Application settings
	App AppConfig `yaml:"app"`
}

// TMDbConfig holds TMDb API configuration
type TMDbConfig struct {
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url,omitempty"`
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`
	PopularTimeout time.Duration `yaml:"popular_timeout,omitempty"`
	PopularTTL     time.Duration `yaml:"popular_ttl,omitempty"` // 0 = keep for the process lifetime
}

// CacheConfig holds query cache settings
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl,omitempty"`
}

// StorageConfig holds the watchlist database location
type StorageConfig struct {
	Path string `yaml:"path,omitempty"` // defaults to <data_dir>/moviecenter.db
}

// BrowseConfig holds listing, search and scroll settings
type BrowseConfig struct {
	PageSize        int           `yaml:"page_size,omitempty"`
	Debounce        time.Duration `yaml:"debounce,omitempty"`
	ScrollThreshold int           `yaml:"scroll_threshold,omitempty"` // rows below the cursor
}

// LotteryConfig holds lottery settings
type LotteryConfig struct {
	SpinDuration time.Duration `yaml:"spin_duration,omitempty"`
	CarouselSize int           `yaml:"carousel_size,omitempty"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	LogLevel string `yaml:"log_level"` // "debug", "info", "warn", "error"
	DataDir  string `yaml:"data_dir"`  // Directory for database and logs
}

// Load loads configuration from a YAML file with environment variable overrides.
// A missing file is not an error: defaults and environment variables apply.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides overrides config values with environment variables
func (c *Config) applyEnvOverrides() {
	// TMDb
	if v := os.Getenv("MOVIECENTER_TMDB_API_KEY"); v != "" {
		c.TMDb.APIKey = v
	}
	if v := os.Getenv("MOVIECENTER_TMDB_BASE_URL"); v != "" {
		c.TMDb.BaseURL = v
	}
	if d, ok := durationEnv("MOVIECENTER_TMDB_POPULAR_TIMEOUT"); ok {
		c.TMDb.PopularTimeout = d
	}

	// Storage
	if v := os.Getenv("MOVIECENTER_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}

	// Browse
	if v := os.Getenv("MOVIECENTER_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Browse.PageSize = n
		}
	}

	// Lottery
	if d, ok := durationEnv("MOVIECENTER_LOTTERY_SPIN"); ok {
		c.Lottery.SpinDuration = d
	}

	// App
	if v := os.Getenv("MOVIECENTER_LOG_LEVEL"); v != "" {
		c.App.LogLevel = v
	}
	if v := os.Getenv("MOVIECENTER_DATA_DIR"); v != "" {
		c.App.DataDir = v
	}
}

func durationEnv(name string) (time.Duration, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}

// Validate fills in defaults and validates the configuration
func (c *Config) Validate() error {
	if err := c.applyDefaults(); err != nil {
		return err
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.TMDb),
		validation.Field(&c.Cache),
		validation.Field(&c.Browse),
		validation.Field(&c.Lottery),
		validation.Field(&c.App),
	)
}

func (c *Config) applyDefaults() error {
	if c.TMDb.BaseURL == "" {
		c.TMDb.BaseURL = "https://api.themoviedb.org/3"
	}
	if c.TMDb.RequestTimeout == 0 {
		c.TMDb.RequestTimeout = 30 * time.Second
	}
	if c.TMDb.PopularTimeout == 0 {
		c.TMDb.PopularTimeout = 2 * time.Second
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 15 * time.Minute
	}
	if c.Browse.PageSize == 0 {
		c.Browse.PageSize = 20
	}
	if c.Browse.Debounce == 0 {
		c.Browse.Debounce = 500 * time.Millisecond
	}
	if c.Browse.ScrollThreshold == 0 {
		c.Browse.ScrollThreshold = 5
	}
	if c.Lottery.SpinDuration == 0 {
		c.Lottery.SpinDuration = 3 * time.Second
	}
	if c.Lottery.CarouselSize == 0 {
		c.Lottery.CarouselSize = 8
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get user home directory: %w", err)
		}
		c.App.DataDir = filepath.Join(homeDir, ".moviecenter")
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.App.DataDir, "moviecenter.db")
	}
	return nil
}

// Validate validates the TMDb section.
func (t TMDbConfig) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.APIKey, validation.Required),
		validation.Field(&t.BaseURL, validation.Required, is.URL),
		validation.Field(&t.RequestTimeout, validation.Min(time.Millisecond)),
		validation.Field(&t.PopularTimeout, validation.Min(time.Millisecond)),
		validation.Field(&t.PopularTTL, validation.Min(time.Duration(0))),
	)
}

// Validate validates the cache section.
func (c CacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
	)
}

// Validate validates the browse section.
func (b BrowseConfig) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.PageSize, validation.Min(1), validation.Max(100)),
		validation.Field(&b.Debounce, validation.Min(time.Duration(0))),
		validation.Field(&b.ScrollThreshold, validation.Min(1)),
	)
}

// Validate validates the lottery section.
func (l LotteryConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.SpinDuration, validation.Min(time.Duration(0))),
		validation.Field(&l.CarouselSize, validation.Min(1)),
	)
}

// Validate validates the app section.
func (a AppConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.LogLevel, validation.In("debug", "info", "warn", "warning", "error").
			Error("must be one of debug, info, warn, error")),
	)
}
