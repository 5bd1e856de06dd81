package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	History   HistoryConfig   `yaml:"history"`
	Auth      AuthConfig      `yaml:"auth"`
	Provider  ProviderConfig  `yaml:"provider"`
	Workspace WorkspaceConfig `yaml:"workspace"`
}

type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Transport string `yaml:"transport"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level     string `yaml:"level"`
	Path      string `yaml:"path"`
	MaxSizeMB int    `yaml:"max_size_mb"`
}

type HistoryConfig struct {
	Backend   string `yaml:"backend"`
	RedisAddr string `yaml:"redis_addr"`
	RedisKey  string `yaml:"redis_key"`
}

type AuthConfig struct {
	Enabled             bool   `yaml:"enabled"`
	LocalEmail          string `yaml:"local_email"`
	FirebaseCredentials string `yaml:"firebase_credentials"`
	GitHubClientID      string `yaml:"github_client_id"`
	GitHubClientSecret  string `yaml:"github_client_secret"`
}

type ProviderConfig struct {
	BaseURL           string        `yaml:"base_url"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxTokens         int           `yaml:"max_tokens"`
	Models            ModelsConfig  `yaml:"models"`
}

type ModelsConfig struct {
	OpenAI    string `yaml:"openai"`
	Anthropic string `yaml:"anthropic"`
	Grok      string `yaml:"grok"`
}

type WorkspaceConfig struct {
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	PruneSchedule string        `yaml:"prune_schedule"`
}

const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"

	HistorySQLite = "sqlite"
	HistoryRedis  = "redis"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8080,
			Transport: TransportHTTP,
		},
		DB: DBConfig{
			Path: "appforge.db",
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
		},
		History: HistoryConfig{
			Backend: HistorySQLite,
		},
		Auth: AuthConfig{
			Enabled:    true,
			LocalEmail: "local@appforge.dev",
		},
		Provider: ProviderConfig{
			RequestsPerSecond: 2,
			Burst:             4,
			Timeout:           120 * time.Second,
		},
		Workspace: WorkspaceConfig{
			IdleTimeout:   30 * time.Minute,
			PruneSchedule: "@every 5m",
		},
	}
}

// Load reads configuration from an optional .env file, an optional YAML
// file and environment variables, in that order of increasing precedence.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv("APPFORGE_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString("APPFORGE_SERVER_HOST", &cfg.Server.Host)
	setString("APPFORGE_TRANSPORT", &cfg.Server.Transport)
	setString("APPFORGE_DB_PATH", &cfg.DB.Path)
	setString("APPFORGE_LOG_LEVEL", &cfg.Log.Level)
	setString("APPFORGE_LOG_PATH", &cfg.Log.Path)
	setString("APPFORGE_HISTORY_BACKEND", &cfg.History.Backend)
	setString("APPFORGE_REDIS_ADDR", &cfg.History.RedisAddr)
	setString("APPFORGE_REDIS_KEY", &cfg.History.RedisKey)
	setString("APPFORGE_LOCAL_EMAIL", &cfg.Auth.LocalEmail)
	setString("APPFORGE_FIREBASE_CREDENTIALS", &cfg.Auth.FirebaseCredentials)
	setString("APPFORGE_GITHUB_CLIENT_ID", &cfg.Auth.GitHubClientID)
	setString("APPFORGE_GITHUB_CLIENT_SECRET", &cfg.Auth.GitHubClientSecret)
	setString("APPFORGE_PROVIDER_BASE_URL", &cfg.Provider.BaseURL)
	setString("APPFORGE_PRUNE_SCHEDULE", &cfg.Workspace.PruneSchedule)

	if err := setInt("APPFORGE_SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if err := setInt("APPFORGE_LOG_MAX_SIZE_MB", &cfg.Log.MaxSizeMB); err != nil {
		return err
	}
	if err := setInt("APPFORGE_PROVIDER_BURST", &cfg.Provider.Burst); err != nil {
		return err
	}
	if v := os.Getenv("APPFORGE_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid APPFORGE_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = enabled
	}
	if v := os.Getenv("APPFORGE_PROVIDER_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid APPFORGE_PROVIDER_RPS: %w", err)
		}
		cfg.Provider.RequestsPerSecond = rps
	}
	if err := setDuration("APPFORGE_PROVIDER_TIMEOUT", &cfg.Provider.Timeout); err != nil {
		return err
	}
	return setDuration("APPFORGE_WORKSPACE_IDLE_TIMEOUT", &cfg.Workspace.IdleTimeout)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Server.Transport {
	case TransportHTTP, TransportStdio:
	default:
		return fmt.Errorf("invalid transport %q (want http or stdio)", c.Server.Transport)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	switch c.History.Backend {
	case HistorySQLite:
	case HistoryRedis:
		if c.History.RedisAddr == "" {
			return errors.New("history backend redis requires a redis address")
		}
	default:
		return fmt.Errorf("invalid history backend %q (want sqlite or redis)", c.History.Backend)
	}
	if c.DB.Path == "" {
		return errors.New("db path is required")
	}
	if c.Provider.RequestsPerSecond < 0 {
		return errors.New("provider requests per second must not be negative")
	}
	if c.Provider.Timeout <= 0 {
		return errors.New("provider timeout must be positive")
	}
	if c.Workspace.IdleTimeout <= 0 {
		return errors.New("workspace idle timeout must be positive")
	}
	if _, err := cron.ParseStandard(c.Workspace.PruneSchedule); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", c.Workspace.PruneSchedule, err)
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
