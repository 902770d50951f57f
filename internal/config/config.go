package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mmcdole/marquee/internal/domain"
)

const (
	appName    = "marquee"
	envPrefix  = "MARQUEE"
	configName = "config"
	configType = "yaml"
)

// Config holds all application configuration
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	Browse  BrowseConfig  `mapstructure:"browse"`
	Filter  FilterConfig  `mapstructure:"filter"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CatalogConfig holds the remote catalog endpoint
type CatalogConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
}

// BrowseConfig holds paging and prefetch settings
type BrowseConfig struct {
	GridColumns     int    `mapstructure:"grid_columns"`
	RowsPerPage     int    `mapstructure:"rows_per_page"`
	PrefetchWorkers int    `mapstructure:"prefetch_workers"`
	DefaultView     string `mapstructure:"default_view"`
}

// FilterConfig holds the initial filter criteria
type FilterConfig struct {
	Genre     string  `mapstructure:"genre"`
	MinRating float64 `mapstructure:"min_rating"`
	Language  string  `mapstructure:"language"`
}

// CacheConfig holds local storage locations
type CacheConfig struct {
	Dir string `mapstructure:"dir"` // History database and cover images
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// PageSize is the number of movies requested per page: one screenful of the grid
func (b BrowseConfig) PageSize() int {
	return max(b.GridColumns, 1) * max(b.RowsPerPage, 1)
}

// Criteria converts the filter section to domain criteria
func (f FilterConfig) Criteria() domain.Criteria {
	return domain.Criteria{Genre: f.Genre, MinRating: f.MinRating, Language: f.Language}
}

// CoversDir is where cover images are cached
func (c CacheConfig) CoversDir() string {
	return filepath.Join(c.Dir, "covers")
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			URL:     "https://yts.mx/api/v2",
			Timeout: 30 * time.Second,
			Retries: 3,
		},
		Browse: BrowseConfig{
			GridColumns:     4,
			RowsPerPage:     5,
			PrefetchWorkers: 4,
			DefaultView:     string(domain.ViewRecent),
		},
		Cache: CacheConfig{
			Dir: defaultCachePath(),
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName, appName+".log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", appName, appName+".log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName)
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", appName)
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), appName, "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", appName, "cache")
	}
}

// Loader reads and writes one configuration file
type Loader struct {
	v    *viper.Viper
	file string // Explicit file; empty searches the default locations
}

// NewLoader creates a loader. An empty file searches the OS config directory
// and the working directory for config.yaml.
func NewLoader(file string) *Loader {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	// Environment variable overrides, e.g. MARQUEE_CATALOG_URL
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setAll(DefaultConfig(), v.SetDefault)
	return &Loader{v: v, file: file}
}

// Load reads the configuration. A missing file is not an error.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			// Config file not found is OK, use defaults
		case l.file != "" && errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.Logging.File = expandHome(cfg.Logging.File)
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	return cfg, nil
}

// Save writes cfg to Path
func (l *Loader) Save(cfg *Config) error {
	target := l.Path()
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	setAll(cfg, l.v.Set)

	if err := l.v.WriteConfigAs(target); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// File returns the config file in use, if any
func (l *Loader) File() string {
	if used := l.v.ConfigFileUsed(); used != "" {
		return used
	}
	return l.file
}

// Path is where Save writes: the file in use, or config.yaml in the OS
// config directory.
func (l *Loader) Path() string {
	if used := l.File(); used != "" {
		return used
	}
	return filepath.Join(defaultConfigPath(), configName+"."+configType)
}

func setAll(cfg *Config, set func(string, any)) {
	set("catalog.url", cfg.Catalog.URL)
	set("catalog.timeout", cfg.Catalog.Timeout)
	set("catalog.retries", cfg.Catalog.Retries)

	set("browse.grid_columns", cfg.Browse.GridColumns)
	set("browse.rows_per_page", cfg.Browse.RowsPerPage)
	set("browse.prefetch_workers", cfg.Browse.PrefetchWorkers)
	set("browse.default_view", cfg.Browse.DefaultView)

	set("filter.genre", cfg.Filter.Genre)
	set("filter.min_rating", cfg.Filter.MinRating)
	set("filter.language", cfg.Filter.Language)

	set("cache.dir", cfg.Cache.Dir)

	set("logging.file", cfg.Logging.File)
	set("logging.level", cfg.Logging.Level)
}

// expandHome expands a leading ~ in path
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
