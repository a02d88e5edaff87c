package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"PortfolioCMS/internal/domain"
)

const (
	defaultTimezone = "Asia/Tashkent"
	configPathEnv   = "PORTFOLIO_CONFIG"

	databaseURLEnv       = "DATABASE_URL"
	storageDriverEnv     = "STORAGE_DRIVER"
	geminiAPIKeyEnv      = "GEMINI_API_KEY"
	googleAPIKeyEnv      = "GOOGLE_API_KEY"
	openAIAPIKeyEnv      = "OPENAI_API_KEY"
	generatorProviderEnv = "GENERATOR_PROVIDER"
	generatorModelEnv    = "GENERATOR_MODEL"
	telegramTokenEnv     = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv    = "TELEGRAM_CHAT_ID"
	smtpHostEnv          = "SMTP_HOST"
	smtpPortEnv          = "SMTP_PORT"
	smtpUserEnv          = "SMTP_USER"
	smtpPassEnv          = "SMTP_PASS"
	adminPasswordEnv     = "ADMIN_PASSWORD"
	portEnv              = "PORT"
	logLevelEnv          = "LOG_LEVEL"
	schedulerTimezoneEnv = "SCHEDULER_TIMEZONE"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Generator providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server        ServerConfig       `yaml:"server"`
	Logging       LoggingConfig      `yaml:"logging"`
	Storage       StorageConfig      `yaml:"storage"`
	Generator     GeneratorConfig    `yaml:"generator"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Admin         AdminConfig        `yaml:"admin"`
	Notifications NotificationConfig `yaml:"notifications"`
	Mail          MailConfig         `yaml:"mail"`
	Search        SearchConfig       `yaml:"search"`
	Author        string             `yaml:"author"`
}

// SearchConfig locates the full-text index. An empty path keeps the index
// in memory and rebuilds it from the store on every start.
type SearchConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr           string          `yaml:"addr"`
	TrustedProxies []string        `yaml:"trustedProxies"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
}

// RateLimitConfig caps public API requests per client IP.
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// LoggingConfig selects log verbosity and encoding.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StorageConfig selects the content store backend.
type StorageConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// GeneratorConfig defines how to contact the text generation API.
type GeneratorConfig struct {
	Provider          string        `yaml:"provider"`
	Model             string        `yaml:"model"`
	APIKey            string        `yaml:"apiKey"`
	Endpoint          string        `yaml:"endpoint"`
	SystemPrompt      string        `yaml:"systemPrompt"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerMinute int           `yaml:"requestsPerMinute"`
}

// SchedulerConfig defines when the background duties run.
type SchedulerConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Timezone        string        `yaml:"timezone"`
	BlogCron        string        `yaml:"blogCron"`
	CleanupCron     string        `yaml:"cleanupCron"`
	FollowUpCron    string        `yaml:"followUpCron"`
	DailyTarget     int           `yaml:"dailyTarget"`
	MaxPerFire      int           `yaml:"maxPerFire"`
	BaseHour        int           `yaml:"baseHour"`
	PacingDelay     time.Duration `yaml:"pacingDelay"`
	RetentionMonths int           `yaml:"retentionMonths"`
	CleanupLimit    int           `yaml:"cleanupLimit"`
	FollowUpLimit   int           `yaml:"followUpLimit"`
	FollowUpNote    string        `yaml:"followUpNote"`
	SeedOnBoot      bool          `yaml:"seedOnBoot"`
}

// Location resolves the scheduler timezone. An empty zone means Asia/Tashkent.
func (s SchedulerConfig) Location() (*time.Location, error) {
	tz := s.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", tz, err)
	}
	return loc, nil
}

// AdminConfig protects the admin API.
type AdminConfig struct {
	Password string        `yaml:"password"`
	TokenTTL time.Duration `yaml:"tokenTTL"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	SiteURL  string `yaml:"siteUrl"`
	Endpoint string `yaml:"endpoint"`
}

// Enabled reports whether both the token and the target chat are set.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// MailConfig describes the SMTP relay.
type MailConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	From         string `yaml:"from"`
	AdminAddress string `yaml:"adminAddress"`
	TLS          bool   `yaml:"tls"`
}

// Enabled reports whether an SMTP host is configured.
func (m MailConfig) Enabled() bool {
	return m.Host != ""
}

// Load reads .env and YAML configuration (if present) and applies
// environment overrides. Fields absent from the file keep their defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("config: cannot load .env", "error", err)
	}

	cfg := Default()
	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Validate rejects settings the application cannot start with.
func (c Config) Validate() error {
	if _, err := c.Scheduler.Location(); err != nil {
		return &domain.SchedulingConfigError{Spec: c.Scheduler.Timezone, Err: err}
	}
	for duty, spec := range c.Scheduler.CronSpecs() {
		if _, err := cron.ParseStandard(spec); err != nil {
			return &domain.SchedulingConfigError{Duty: duty, Spec: spec, Err: err}
		}
	}
	if c.Scheduler.BaseHour < 0 || c.Scheduler.BaseHour > 23 {
		return &domain.SchedulingConfigError{Err: fmt.Errorf("base hour %d out of range", c.Scheduler.BaseHour)}
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres, DriverSQLite:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage driver %s requires a dsn", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Generator.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown generator provider %q", c.Generator.Provider)
	}
	return nil
}

// CronSpecs maps each scheduled duty to its cron expression.
func (s SchedulerConfig) CronSpecs() map[string]string {
	return map[string]string{
		"blogGeneration": s.BlogCron,
		"cleanup":        s.CleanupCron,
		"leadFollowup":   s.FollowUpCron,
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseURLEnv); v != "" {
		c.Storage.DSN = v
		if c.Storage.Driver == DriverMemory {
			c.Storage.Driver = DriverPostgres
		}
	}
	if v := os.Getenv(storageDriverEnv); v != "" {
		c.Storage.Driver = strings.ToLower(v)
	}

	if v := os.Getenv(generatorProviderEnv); v != "" {
		c.Generator.Provider = strings.ToLower(v)
	}
	if v := os.Getenv(generatorModelEnv); v != "" {
		c.Generator.Model = v
	}
	switch c.Generator.Provider {
	case ProviderOpenAI:
		if v := os.Getenv(openAIAPIKeyEnv); v != "" {
			c.Generator.APIKey = v
		}
	default:
		if v := firstEnv(geminiAPIKeyEnv, googleAPIKeyEnv); v != "" {
			c.Generator.APIKey = v
		}
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(smtpHostEnv); v != "" {
		c.Mail.Host = v
	}
	if v := os.Getenv(smtpPortEnv); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Mail.Port = port
		} else {
			slog.Warn("config: ignoring invalid SMTP_PORT", "value", v)
		}
	}
	if v := os.Getenv(smtpUserEnv); v != "" {
		c.Mail.Username = v
		if c.Mail.From == "" {
			c.Mail.From = v
		}
		if c.Mail.AdminAddress == "" {
			c.Mail.AdminAddress = v
		}
	}
	if v := os.Getenv(smtpPassEnv); v != "" {
		c.Mail.Password = v
	}

	if v := os.Getenv(adminPasswordEnv); v != "" {
		c.Admin.Password = v
	}
	if v := os.Getenv(portEnv); v != "" {
		c.Server.Addr = ":" + v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(schedulerTimezoneEnv); v != "" {
		c.Scheduler.Timezone = v
	}
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":5000",
			RateLimit:    RateLimitConfig{Requests: 100, Window: 15 * time.Minute},
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 90 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Storage: StorageConfig{Driver: DriverMemory, MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxLifetime: 30 * time.Minute},
		Generator: GeneratorConfig{
			Provider:          ProviderGemini,
			Model:             "gemini-2.5-flash",
			Timeout:           60 * time.Second,
			RequestsPerMinute: 10,
		},
		Scheduler: SchedulerConfig{
			Enabled:         true,
			Timezone:        defaultTimezone,
			BlogCron:        "0 8-20/2 * * *",
			CleanupCron:     "0 2 1 * *",
			FollowUpCron:    "0 9 * * *",
			DailyTarget:     12,
			MaxPerFire:      2,
			BaseHour:        8,
			PacingDelay:     3 * time.Second,
			RetentionMonths: 6,
			CleanupLimit:    1000,
			FollowUpLimit:   50,
			FollowUpNote:    "Avtomatik follow-up eslatmasi",
			SeedOnBoot:      true,
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{SiteURL: "https://akramfarmonov.uz"},
		},
		Admin:  AdminConfig{TokenTTL: 24 * time.Hour},
		Mail:   MailConfig{Port: 587, TLS: true},
		Author: domain.DefaultAuthor,
	}
}
