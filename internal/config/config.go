package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Houeta/car-watch/internal/models"
	"github.com/spf13/viper"
)

var ErrNoSearches = errors.New("no search configured: set CW_CONFIG_PATH to a file with a \"searches\" list")

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
)

type Config struct {
	Env         string        // Env is the current environment: local, dev, prod.
	RunOnce     bool          // RunOnce exits after one sweep instead of serving the bot.
	Interval    time.Duration // Interval separates sweeps when RunOnce is false.
	Parallelism int           // Parallelism bounds how many searches run at the same time.
	Storage     Storage
	HTTP        HTTP
	Tg          Telegram
	SMTP        SMTP
	Searches    []models.Search
}

type Storage struct {
	Driver       string // Driver is "sqlite" or "file".
	Path         string // Path is the SQLite file or the root directory of documents.
	PathTemplate string // PathTemplate places source documents, "{source}" is replaced.
	ArchivePages bool   // ArchivePages keeps the raw pages of every run.
}

type HTTP struct {
	Timeout       time.Duration
	Rate          float64 // Rate is requests per second, 0 is unlimited.
	Retries       int
	RetryInterval time.Duration
}

type Telegram struct {
	Token   string        // Token is an unique telegram bot token; empty disables the bot.
	Timeout time.Duration // Timeout is a poller timeout duration.
	ChatID  int64         // ChatID always receives digests when set.
}

type SMTP struct {
	Host     string // Host empty disables email.
	Port     int
	Username string
	Password string
	From     string
}

// MustLoad loads the configuration from environment variables and an optional
// config file and returns a Config struct. It panics when the configuration is unusable.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the configuration using a fresh viper instance.
func Load() (*Config, error) {
	v := viper.New()

	// Automatically binds environment variables to config keys
	v.SetEnvPrefix("CW")
	v.AutomaticEnv()

	// optional args
	v.SetDefault("ENV", "production")
	v.SetDefault("RUN_ONCE", true)
	v.SetDefault("INTERVAL", "30m")
	v.SetDefault("PARALLELISM", 2)
	v.SetDefault("STORAGE_DRIVER", DriverSQLite)
	v.SetDefault("STORAGE_PATH", "car-watch.db")
	v.SetDefault("STORAGE_PATH_TEMPLATE", "{source}/found_results.json")
	v.SetDefault("ARCHIVE_PAGES", false)
	v.SetDefault("HTTP_TIMEOUT", "30s")
	v.SetDefault("HTTP_RATE", 1.0)
	v.SetDefault("HTTP_RETRIES", 3)
	v.SetDefault("HTTP_RETRY_INTERVAL", "2s")
	v.SetDefault("TELEGRAM_TIMEOUT", "15s")
	v.SetDefault("SMTP_PORT", 587)

	if path := v.GetString("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var searches []models.Search
	if err := v.UnmarshalKey("searches", &searches); err != nil {
		return nil, fmt.Errorf("failed to decode searches: %w", err)
	}
	if len(searches) == 0 {
		return nil, ErrNoSearches
	}
	withModel := make(map[string]bool, len(searches))
	for i, s := range searches {
		if s.Source == "" {
			return nil, fmt.Errorf("search #%d: source is required", i+1)
		}
		// Searches of one source share a document, flat or split by model, never both.
		hasModel := s.Model != ""
		if prev, seen := withModel[s.Source]; seen && prev != hasModel {
			return nil, fmt.Errorf("search #%d: source %s mixes searches with and without model", i+1, s.Source)
		}
		withModel[s.Source] = hasModel
	}

	if !v.GetBool("RUN_ONCE") && v.GetDuration("INTERVAL") <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", v.GetString("INTERVAL"))
	}

	driver := v.GetString("STORAGE_DRIVER")
	if driver != DriverSQLite && driver != DriverFile {
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}

	return &Config{
		Env:         v.GetString("ENV"),
		RunOnce:     v.GetBool("RUN_ONCE"),
		Interval:    v.GetDuration("INTERVAL"),
		Parallelism: v.GetInt("PARALLELISM"),
		Storage: Storage{
			Driver:       driver,
			Path:         v.GetString("STORAGE_PATH"),
			PathTemplate: v.GetString("STORAGE_PATH_TEMPLATE"),
			ArchivePages: v.GetBool("ARCHIVE_PAGES"),
		},
		HTTP: HTTP{
			Timeout:       v.GetDuration("HTTP_TIMEOUT"),
			Rate:          v.GetFloat64("HTTP_RATE"),
			Retries:       v.GetInt("HTTP_RETRIES"),
			RetryInterval: v.GetDuration("HTTP_RETRY_INTERVAL"),
		},
		Tg: Telegram{
			Token:   v.GetString("TELEGRAM_TOKEN"),
			Timeout: v.GetDuration("TELEGRAM_TIMEOUT"),
			ChatID:  v.GetInt64("TELEGRAM_CHAT_ID"),
		},
		SMTP: SMTP{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		Searches: searches,
	}, nil
}

// CheckSources returns an error naming the first search whose source is not in known.
func (c *Config) CheckSources(known []string) error {
	for i, s := range c.Searches {
		if !slices.Contains(known, s.Source) {
			return fmt.Errorf("search #%d: unknown source %q, expected one of %v", i+1, s.Source, known)
		}
	}
	return nil
}
