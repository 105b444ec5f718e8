// Package config loads and exposes application configuration (TOML).
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath        = "config.toml"
	DefaultHTTPAddr          = ":8080"
	DefaultJWTExpiresIn      = "24h"
	DefaultPGHost            = "127.0.0.1"
	DefaultPGPort            = 5432
	DefaultPGUser            = "postgres"
	DefaultPGDatabase        = "parley"
	DefaultPGSSLMode         = "disable"
	DefaultAnthropicBaseURL  = "https://api.anthropic.com"
	DefaultParserModel       = "claude-3-opus-20240229"
	DefaultReplyModel        = "claude-3-haiku-20240307"
	DefaultLLMTimeoutSeconds = 30
	DefaultQueryRatePerSec   = 2
	DefaultOutboxSchedule    = "@every 1m"
	DefaultOutboxStaleAfter  = "5m"
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log       LogConfig       `toml:"log"`
	Server    ServerConfig    `toml:"server"`
	Admin     AdminConfig     `toml:"admin"`
	Auth      AuthConfig      `toml:"auth"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Anthropic AnthropicConfig `toml:"anthropic"`
	Query     QueryConfig     `toml:"query"`
	Outbox    OutboxConfig    `toml:"outbox"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP server listen address.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// AdminConfig holds the operator account. PasswordHash is a bcrypt hash;
// when empty, Password is compared directly (development only).
type AdminConfig struct {
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	PasswordHash string `toml:"password_hash"`
}

// AuthConfig holds JWT secret and token expiry (e.g. 24h).
type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// AnthropicConfig holds the LLM endpoint, credentials, and the two model
// tiers: ParserModel for query/action parsing, ReplyModel for auto-replies.
type AnthropicConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	ParserModel    string `toml:"parser_model"`
	ReplyModel     string `toml:"reply_model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// QueryConfig holds limits for the natural-language query endpoint.
type QueryConfig struct {
	RatePerSecond float64 `toml:"rate_per_second"`
}

// OutboxConfig holds the unsent-backlog watcher schedule and staleness cutoff.
type OutboxConfig struct {
	Schedule   string `toml:"schedule"`
	StaleAfter string `toml:"stale_after"`
}

// Load reads and parses the TOML config file at path and applies default values for missing fields.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Admin: AdminConfig{
			Username: "admin",
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Anthropic: AnthropicConfig{
			BaseURL:        DefaultAnthropicBaseURL,
			ParserModel:    DefaultParserModel,
			ReplyModel:     DefaultReplyModel,
			TimeoutSeconds: DefaultLLMTimeoutSeconds,
		},
		Query: QueryConfig{
			RatePerSecond: DefaultQueryRatePerSec,
		},
		Outbox: OutboxConfig{
			Schedule:   DefaultOutboxSchedule,
			StaleAfter: DefaultOutboxStaleAfter,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
