package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Discord  DiscordConfig  `yaml:"discord"`
	JWT      JWTConfig      `yaml:"jwt"`
	Access   AccessConfig   `yaml:"access"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Listen string `yaml:"listen"` // Listen address, e.g. ":8080".
}

// DatabaseConfig configures the store connection.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"` // SQLite path or PostgreSQL DSN.
}

// RedisConfig configures optional Redis-backed rate limiting.
type RedisConfig struct {
	Addr            string `yaml:"addr"`                 // host:port; empty disables rate limiting.
	Password        string `yaml:"password"`             // Optional password.
	CheckLimit      int    `yaml:"check_limit"`          // Max /check requests per window per IP.
	CheckWindowSecs int    `yaml:"check_window_seconds"` // Window length in seconds.
}

// DiscordConfig configures the verification bot.
type DiscordConfig struct {
	Token             string `yaml:"token"`               // Bot token.
	GuildID           string `yaml:"guild_id"`            // Guild to register slash commands in.
	OwnerID           string `yaml:"owner_id"`            // Super-owner Discord ID, always an admin.
	CommandPrefix     string `yaml:"command_prefix"`      // Optional prefix before "verify <code>".
	IdentityChannelID string `yaml:"identity_channel_id"` // Channel users are pointed to after first verification.
	WebhookURL        string `yaml:"webhook_url"`         // Audit webhook for admin actions.
}

// JWTConfig configures admin API tokens.
type JWTConfig struct {
	Secret      string `yaml:"secret"`       // HS256 signing secret.
	ExpiryHours int    `yaml:"expiry_hours"` // Token lifetime in hours.
}

// AccessConfig configures verification defaults.
type AccessConfig struct {
	DefaultDuration string `yaml:"default_duration"` // Duration token applied without role rules.
}

// LogConfig configures logging output.
type LogConfig struct {
	Level      string `yaml:"level"`        // debug / info / warn / error.
	File       string `yaml:"file"`         // Log file path; empty logs to stderr.
	MaxSizeMB  int    `yaml:"max_size_mb"`  // Rotate after this many megabytes.
	MaxBackups int    `yaml:"max_backups"`  // Rotated files to keep.
	MaxAgeDays int    `yaml:"max_age_days"` // Days to keep rotated files.
}

// AdminConfig holds bootstrap credentials for the HTTP admin API.
type AdminConfig struct {
	Username string `yaml:"username"` // Bootstrap account username.
	Password string `yaml:"password"` // Bootstrap account password; empty skips seeding.
}

// Env variables overriding file values.
const (
	envConfigPath   = "HWIDGATE_CONFIG"
	envDiscordToken = "HWIDGATE_DISCORD_TOKEN"
	envDatabaseDSN  = "HWIDGATE_DATABASE_DSN"
	envListen       = "HWIDGATE_LISTEN"
	envJWTSecret    = "HWIDGATE_JWT_SECRET"
	envRedisAddr    = "HWIDGATE_REDIS_ADDR"
	envWebhookURL   = "HWIDGATE_WEBHOOK_URL"
)

// ResolveConfigPath decides the effective config file path: the explicit flag
// value, then the HWIDGATE_CONFIG env var, then the default.
func ResolveConfigPath(flagValue string) string {
	if trimmed := strings.TrimSpace(flagValue); trimmed != "" {
		return trimmed
	}
	if fromEnv := strings.TrimSpace(os.Getenv(envConfigPath)); fromEnv != "" {
		return fromEnv
	}
	return "config.yaml"
}

// Load reads the YAML config file, applies defaults and env overrides.
// A missing file is not an error; env variables alone can configure the
// service.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, errRead := os.ReadFile(path)
	if errRead != nil && !os.IsNotExist(errRead) {
		return nil, fmt.Errorf("config: read %s: %w", path, errRead)
	}
	if errRead == nil {
		if errUnmarshal := yaml.Unmarshal(data, cfg); errUnmarshal != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, fmt.Errorf("config: database dsn is required")
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(envDiscordToken)); v != "" {
		c.Discord.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(envDatabaseDSN)); v != "" {
		c.Database.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(envListen)); v != "" {
		c.Server.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv(envJWTSecret)); v != "" {
		c.JWT.Secret = v
	}
	if v := strings.TrimSpace(os.Getenv(envRedisAddr)); v != "" {
		c.Redis.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(envWebhookURL)); v != "" {
		c.Discord.WebhookURL = v
	}
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" && strings.TrimSpace(c.Server.Listen) == "" {
		c.Server.Listen = ":" + port
	}
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Server.Listen) == "" {
		c.Server.Listen = ":8080"
	}
	if strings.TrimSpace(c.Access.DefaultDuration) == "" {
		c.Access.DefaultDuration = "1d"
	}
	if c.JWT.ExpiryHours <= 0 {
		c.JWT.ExpiryHours = 24
	}
	if strings.TrimSpace(c.Log.Level) == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = 50
	}
	if c.Log.MaxBackups <= 0 {
		c.Log.MaxBackups = 5
	}
	if c.Log.MaxAgeDays <= 0 {
		c.Log.MaxAgeDays = 30
	}
	if c.Redis.CheckLimit <= 0 {
		c.Redis.CheckLimit = 60
	}
	if c.Redis.CheckWindowSecs <= 0 {
		c.Redis.CheckWindowSecs = 60
	}
}
