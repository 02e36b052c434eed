package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"
	_ "time/tzdata"

	"salonbook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Backend    BackendConfig    `yaml:"backend"`
	Booking    BookingConfig    `yaml:"booking"`
	Payment    PaymentConfig    `yaml:"payment"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Exports    ExportConfig     `yaml:"exports"`
	Bot        BotConfig        `yaml:"bot"`
}

type BotConfig struct {
	PaginationSize    int `yaml:"pagination_size"`
	RateLimitMessages int `yaml:"rate_limit_messages"`
	RateLimitWindow   int `yaml:"rate_limit_window"`
	UpdateTimeout     int `yaml:"update_timeout_seconds"`
}

// BackendConfig описывает REST backend салонов
type BackendConfig struct {
	BaseURL                string  `yaml:"base_url"`
	TimeoutSeconds         int     `yaml:"timeout_seconds"`
	RPS                    float64 `yaml:"rps"`
	Burst                  int     `yaml:"burst"`
	CatalogCacheTTLSeconds int     `yaml:"catalog_cache_ttl_seconds"`
}

type BookingConfig struct {
	TimeSlots             []string `yaml:"time_slots"`
	Currency              string   `yaml:"currency"`
	Timezone              string   `yaml:"timezone"`
	HorizonDays           int      `yaml:"horizon_days"`
	SlotCheckConcurrency  int      `yaml:"slot_check_concurrency"`
	StepTimeoutSeconds    int      `yaml:"step_timeout_seconds"`
	SessionTimeoutMinutes int      `yaml:"session_timeout_minutes"`
	NearbyRadiusKm        float64  `yaml:"nearby_radius_km"`
	NearbyLimit           int      `yaml:"nearby_limit"`
}

type PaymentConfig struct {
	StripeSecretKey       string `yaml:"stripe_secret_key"`
	PollIntervalSeconds   int    `yaml:"poll_interval_seconds"`
	CaptureTimeoutSeconds int    `yaml:"capture_timeout_seconds"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
}

type DatabaseConfig struct {
	Path   string       `yaml:"path"`
	Backup BackupConfig `yaml:"backup"`
}

// BackupConfig периодические копии локального журнала записей
type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Interval      string `yaml:"interval"`
	StoragePath   string `yaml:"storage_path"`
	RetentionDays int    `yaml:"retention_days"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

func Load(configPath string) (*Config, error) {
	// .env необязателен
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return errors.New("telegram bot token is required")
	}

	if c.Backend.BaseURL == "" {
		return errors.New("backend base url is required")
	}
	if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend base url %q is invalid", c.Backend.BaseURL)
	}

	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Booking.Currency == "" {
		return errors.New("booking currency is required")
	}

	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("booking timezone %q: %w", c.Booking.Timezone, err)
	}

	if c.Database.Backup.Enabled {
		if d, err := time.ParseDuration(c.Database.Backup.Interval); err != nil || d <= 0 {
			return fmt.Errorf("backup interval %q is invalid", c.Database.Backup.Interval)
		}
	}

	return ValidateTimeSlots(c.Booking.TimeSlots)
}

// ValidateTimeSlots проверяет формат HH:MM, уникальность и возрастание
func ValidateTimeSlots(slots []string) error {
	if len(slots) == 0 {
		return errors.New("at least one time slot is required")
	}
	var prev time.Time
	for i, s := range slots {
		t, err := time.Parse(models.TimeLayout, s)
		if err != nil || len(s) != len(models.TimeLayout) {
			return fmt.Errorf("time slot %q must be HH:MM", s)
		}
		if i > 0 && !t.After(prev) {
			return fmt.Errorf("time slot %q is not after %q", s, slots[i-1])
		}
		prev = t
	}
	return nil
}

// Location часовой пояс салонов; Validate гарантирует корректность
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) applyDefaults() {
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	// Backend defaults
	if c.Backend.TimeoutSeconds == 0 {
		c.Backend.TimeoutSeconds = 15
	}
	if c.Backend.RPS == 0 {
		c.Backend.RPS = 10
	}
	if c.Backend.Burst == 0 {
		c.Backend.Burst = 20
	}
	if c.Backend.CatalogCacheTTLSeconds == 0 {
		c.Backend.CatalogCacheTTLSeconds = models.CatalogCacheTTL
	}

	// Booking defaults
	if len(c.Booking.TimeSlots) == 0 {
		c.Booking.TimeSlots = append([]string(nil), models.DefaultTimeSlots...)
	}
	if c.Booking.Currency == "" {
		c.Booking.Currency = models.DefaultCurrency
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = models.DefaultTimezone
	}
	if c.Booking.HorizonDays == 0 {
		c.Booking.HorizonDays = models.BookingHorizonDays
	}
	if c.Booking.SlotCheckConcurrency == 0 {
		c.Booking.SlotCheckConcurrency = 4
	}
	if c.Booking.StepTimeoutSeconds == 0 {
		c.Booking.StepTimeoutSeconds = 15
	}
	if c.Booking.SessionTimeoutMinutes == 0 {
		c.Booking.SessionTimeoutMinutes = 30
	}
	if c.Booking.NearbyRadiusKm == 0 {
		c.Booking.NearbyRadiusKm = models.NearbyRadiusKm
	}
	if c.Booking.NearbyLimit == 0 {
		c.Booking.NearbyLimit = models.NearbyLimit
	}

	// Payment defaults
	if c.Payment.PollIntervalSeconds == 0 {
		c.Payment.PollIntervalSeconds = 2
	}
	if c.Payment.CaptureTimeoutSeconds == 0 {
		c.Payment.CaptureTimeoutSeconds = 300
	}

	if c.Database.Backup.Interval == "" {
		c.Database.Backup.Interval = "24h"
	}
	if c.Database.Backup.StoragePath == "" {
		c.Database.Backup.StoragePath = "backups"
	}

	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}

	// Bot defaults
	if c.Bot.PaginationSize == 0 {
		c.Bot.PaginationSize = models.DefaultPaginationSize
	}
	if c.Bot.RateLimitMessages == 0 {
		c.Bot.RateLimitMessages = models.RateLimitMessages
	}
	if c.Bot.RateLimitWindow == 0 {
		c.Bot.RateLimitWindow = models.RateLimitWindow
	}
	if c.Bot.UpdateTimeout == 0 {
		c.Bot.UpdateTimeout = 30
	}
}
