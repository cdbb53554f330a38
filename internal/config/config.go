// filepath: internal/config/config.go
package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"courrierkit/internal/shared"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. COURRIER_DATABASE_PATH.
const EnvPrefix = "COURRIER"

// Config holds the application's configuration.
type Config struct {
	Database DatabaseConfig `toml:"database" mapstructure:"database"`
	Backend  BackendConfig  `toml:"backend" mapstructure:"backend"`
	Server   ServerConfig   `toml:"server" mapstructure:"server"`
	Logging  LoggingConfig  `toml:"logging" mapstructure:"logging"`
	Agent    AgentConfig    `toml:"agent" mapstructure:"agent"`
}

// DatabaseConfig points at the application's SQLite file.
type DatabaseConfig struct {
	Path      string `toml:"path" mapstructure:"path"`
	ReadOnly  bool   `toml:"read_only" mapstructure:"read_only"`
	MustExist bool   `toml:"must_exist" mapstructure:"must_exist"`
}

// BackendConfig describes the Node API probed by the smoke commands.
type BackendConfig struct {
	BaseURL    string `toml:"base_url" mapstructure:"base_url"`
	Email      string `toml:"email" mapstructure:"email"`
	Password   string `toml:"password" mapstructure:"password"`
	TimeoutSec int    `toml:"timeout_sec" mapstructure:"timeout_sec"`
}

// Timeout returns the request timeout as a duration.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSec) * time.Second
}

// ServerConfig holds the dashboard agent listen address.
type ServerConfig struct {
	Host string `toml:"host" mapstructure:"host"`
	Port int    `toml:"port" mapstructure:"port"`
}

// LoggingConfig holds the logging configuration.
type LoggingConfig struct {
	Level        string `toml:"level" mapstructure:"level"`
	Format       string `toml:"format" mapstructure:"format"` // json, text or auto
	AuditEnabled bool   `toml:"audit_enabled" mapstructure:"audit_enabled"`
}

// AgentConfig configures the dashboard agent.
type AgentConfig struct {
	ReadOnly     bool   `toml:"read_only" mapstructure:"read_only"`
	OpenAIAPIKey string `toml:"openai_api_key" mapstructure:"openai_api_key"`
	OpenAIURL    string `toml:"openai_url" mapstructure:"openai_url"`
	Model        string `toml:"model" mapstructure:"model"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "databasepnda.db"},
		Backend: BackendConfig{
			BaseURL:    "http://localhost:4000",
			Email:      "admin@mail.com",
			Password:   "adminpassword",
			TimeoutSec: 10,
		},
		Server:  ServerConfig{Host: "127.0.0.1", Port: 5000},
		Logging: LoggingConfig{Level: "info", Format: "auto", AuditEnabled: true},
		Agent: AgentConfig{
			ReadOnly:  true,
			OpenAIURL: "https://api.openai.com/v1/responses",
			Model:     "gpt-4.1-mini",
		},
	}
}

// setDefaults registers every key so that AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.read_only", d.Database.ReadOnly)
	v.SetDefault("database.must_exist", d.Database.MustExist)
	v.SetDefault("backend.base_url", d.Backend.BaseURL)
	v.SetDefault("backend.email", d.Backend.Email)
	v.SetDefault("backend.password", d.Backend.Password)
	v.SetDefault("backend.timeout_sec", d.Backend.TimeoutSec)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.audit_enabled", d.Logging.AuditEnabled)
	v.SetDefault("agent.read_only", d.Agent.ReadOnly)
	v.SetDefault("agent.openai_api_key", d.Agent.OpenAIAPIKey)
	v.SetDefault("agent.openai_url", d.Agent.OpenAIURL)
	v.SetDefault("agent.model", d.Agent.Model)
}

// FlagBindings maps config keys to the names of CLI flags that override them.
type FlagBindings map[string]string

// Load builds the configuration from, in increasing precedence: defaults,
// the TOML file at path (optional), a .env file, COURRIER_* variables and
// the bound flags that were explicitly set.
func Load(path string, flags *pflag.FlagSet, bindings FlagBindings) (*Config, error) {
	// .env is optional, same as the agent it replaces
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("toml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to load configuration from %s: %w", path, err)
			}
		}
	}

	if flags != nil {
		for key, name := range bindings {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if cfg.Agent.OpenAIAPIKey == "" {
		cfg.Agent.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}

	return cfg, nil
}

// Save writes the configuration to a TOML file.
func Save(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("trying to save the config: %w", shared.ErrorCreateFile)
	}
	defer f.Close()
	if err := Encode(f, cfg); err != nil {
		return fmt.Errorf("trying to save the config: %w", shared.ErrorEncodeFile)
	}
	return nil
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg *Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// Validate checks values that would otherwise fail late and obscurely.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path must not be empty")
	}

	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an absolute http(s) URL, got %q", c.Backend.BaseURL)
	}
	if c.Backend.TimeoutSec <= 0 {
		return fmt.Errorf("backend.timeout_sec must be positive, got %d", c.Backend.TimeoutSec)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text", "auto":
	default:
		return fmt.Errorf("logging.format must be json, text or auto; got %q", c.Logging.Format)
	}

	return nil
}
