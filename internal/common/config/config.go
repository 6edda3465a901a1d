// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	GitHub   GitHubConfig   `mapstructure:"github"`
	GenAI    GenAIConfig    `mapstructure:"genai"`
	Notifier NotifierConfig `mapstructure:"notifier"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	EnableCORS   bool   `mapstructure:"enable_cors"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
}

// GetAddr returns the host:port listen address
func (s ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AuthConfig holds the shared secret that inbound task requests must present.
type AuthConfig struct {
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// GitHubConfig holds settings for the repository-hosting API.
type GitHubConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Token   string `mapstructure:"token"`
	Owner   string `mapstructure:"owner"`
	Branch  string `mapstructure:"branch"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// GenAIConfig holds settings for the content-generation API.
type GenAIConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	Timeout     int     `mapstructure:"timeout"`     // milliseconds
	MaxRetries  int     `mapstructure:"max_retries"` // retries on top of the first attempt
}

// NotifierConfig holds settings for evaluation-callback delivery.
type NotifierConfig struct {
	MaxAttempts    int `mapstructure:"max_attempts"`
	InitialDelay   int `mapstructure:"initial_delay"`   // milliseconds
	MaxDelay       int `mapstructure:"max_delay"`       // milliseconds, backoff cap
	AttemptTimeout int `mapstructure:"attempt_timeout"` // milliseconds
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	RunTTL   int    `mapstructure:"run_ttl"` // seconds, lifetime of run records
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
