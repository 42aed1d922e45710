package accounts

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// SigningMethodHS256 is the only accepted signing algorithm. The codec is
// pinned to it at configuration time so tokens signed with any other method
// are rejected.
const SigningMethodHS256 = "HS256"

// Config is the immutable service configuration. It is loaded once at
// startup and handed to each component through its constructor; nothing in
// the package reads it ambiently.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Admin    AdminConfig    `yaml:"admin"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig holds the SQLite database configuration.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds the token signing configuration.
type AuthConfig struct {
	SigningKey    string        `yaml:"signing_key"`
	SigningMethod string        `yaml:"signing_method"`
	TokenTTL      time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TokenTTLRaw string `yaml:"token_ttl"`
}

// AdminConfig optionally seeds a superuser account at startup. Seeding is
// skipped when the username already exists, so restarts are idempotent.
type AdminConfig struct {
	Email    string `yaml:"email"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Enabled reports whether a seed account is configured.
func (a AdminConfig) Enabled() bool {
	return a.Username != "" || a.Email != ""
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// LoadConfig reads a configuration file from the given path and returns a
// parsed Config. Environment variables in the format ${VAR_NAME} are
// expanded and duration strings are parsed into time.Duration values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := envVarPattern.ReplaceAllStringFunc(string(data), func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.Auth.TokenTTLRaw != "" {
		ttl, err := time.ParseDuration(cfg.Auth.TokenTTLRaw)
		if err != nil {
			return nil, fmt.Errorf("parsing auth.token_ttl: %w", err)
		}
		cfg.Auth.TokenTTL = ttl
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultConfig returns the configuration defaults applied before the YAML
// document is merged in.
func DefaultConfig() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: "accounts.db"},
		Auth: AuthConfig{
			SigningMethod: SigningMethodHS256,
			TokenTTL:      DefaultTokenTTL,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.Auth.SigningKey == "" {
		return fmt.Errorf("auth.signing_key is required")
	}
	if c.Auth.SigningMethod != SigningMethodHS256 {
		return fmt.Errorf("auth.signing_method must be %s, got %q", SigningMethodHS256, c.Auth.SigningMethod)
	}
	if c.Auth.TokenTTL < 0 {
		return fmt.Errorf("auth.token_ttl must not be negative")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Admin.Enabled() {
		if c.Admin.Email == "" || c.Admin.Username == "" || c.Admin.Password == "" {
			return fmt.Errorf("admin seed requires email, username, and password")
		}
	}
	return nil
}
