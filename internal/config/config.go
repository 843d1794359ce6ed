package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration, loaded once at startup from
// config.yaml (optional) and SCANVENTORY_* environment overrides.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	UploadDir string `mapstructure:"upload_dir"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type ScanConfig struct {
	CooldownMs     int `mapstructure:"cooldown_ms"`
	SuccessDelayMs int `mapstructure:"success_delay_ms"`
	HistoryLimit   int `mapstructure:"history_limit"`
}

func (s ScanConfig) Cooldown() time.Duration {
	return time.Duration(s.CooldownMs) * time.Millisecond
}

func (s ScanConfig) SuccessDelay() time.Duration {
	return time.Duration(s.SuccessDelayMs) * time.Millisecond
}

type AlertsConfig struct {
	From         string `mapstructure:"from"`
	To           string `mapstructure:"to"`
	SMTPServer   string `mapstructure:"smtp_server"`
	SMTPPort     string `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
	AuthDisabled bool   `mapstructure:"auth_disabled"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Environment string `mapstructure:"environment"`
}

// Load reads config.yaml from the working directory (if present) and applies
// environment overrides, e.g. SCANVENTORY_DATABASE_URL.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("scanventory")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.upload_dir", "uploads")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("auth.token_ttl", 15*time.Minute)
	v.SetDefault("scan.cooldown_ms", 500)
	v.SetDefault("scan.success_delay_ms", 1200)
	v.SetDefault("scan.history_limit", 50)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.environment", "development")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("database.url is required (SCANVENTORY_DATABASE_URL)")
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("auth.jwt_secret is required (SCANVENTORY_AUTH_JWT_SECRET)")
	}
	return cfg, nil
}
