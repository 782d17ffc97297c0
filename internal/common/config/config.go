// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Mail     MailConfig     `mapstructure:"mail"`
	GenAI    GenAIConfig    `mapstructure:"genai"`
	Link     LinkConfig     `mapstructure:"link"`
	Reminder ReminderConfig `mapstructure:"reminder"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds settings for the acknowledgement HTTP server.
type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	BaseURL         string `mapstructure:"base_url"`         // externally reachable, embedded in links
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MailConfig holds settings for the outbound mail transport.
// Provider selects between "smtp" and "ses".
type MailConfig struct {
	Provider string `mapstructure:"provider"`
	From     string `mapstructure:"from"`

	SMTP struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		UseTLS   bool   `mapstructure:"use_tls"`
	} `mapstructure:"smtp"`

	SES struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"ses"`

	// MaxConcurrent bounds the notifier send pool. 1 means sequential.
	MaxConcurrent int `mapstructure:"max_concurrent"`
}

// GenAIConfig holds settings for the policy paraphrasing service.
type GenAIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// LinkConfig holds settings for acknowledgement link generation.
type LinkConfig struct {
	// SigningKey, when set, enables HMAC signing of tokens. Empty keeps the
	// unsigned baseline behavior.
	SigningKey string `mapstructure:"signing_key"`
}

// ReminderConfig holds settings for the reminder scheduler.
type ReminderConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Interval       int    `mapstructure:"interval"`        // milliseconds between scans
	ThrottleWindow int    `mapstructure:"throttle_window"` // milliseconds; 0 disables throttling
	Subject        string `mapstructure:"subject"`
	Body           string `mapstructure:"body"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
