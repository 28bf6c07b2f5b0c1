// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

// Package config loads the commerce API configuration.
//
// Values come from an optional YAML file overlaid by command-line flags.
// Flags that were not set on the command line only fill keys the file left
// out. The database URL falls back to the DATABASE_URL environment variable.
package config

import (
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/loopers/commerce-api/internal/authn"
	"github.com/loopers/commerce-api/internal/logging"
	"github.com/loopers/commerce-api/internal/user"
)

// DatabaseURLEnv is consulted when neither the file nor a flag sets database-url.
const DatabaseURLEnv = "DATABASE_URL"

// Default values for flags.
const (
	DefaultHTTPAddr         = ":8080"
	DefaultMetricsAddr      = "127.0.0.1:9100"
	DefaultLogFormat        = "json"
	DefaultLogLevel         = "info"
	DefaultDBConnectRetries = 5
	DefaultShutdownTimeout  = 10 * time.Second
)

const redactedDatabaseURL = "[redacted]"

// Config is the effective configuration of the commerce API.
type Config struct {
	HTTPAddr         string        `koanf:"http-addr" yaml:"http-addr"`
	MetricsAddr      string        `koanf:"metrics-addr" yaml:"metrics-addr"`
	DatabaseURL      string        `koanf:"database-url" yaml:"database-url"`
	LogFormat        string        `koanf:"log-format" yaml:"log-format"`
	LogLevel         string        `koanf:"log-level" yaml:"log-level"`
	AdminLdap        string        `koanf:"admin-ldap" yaml:"admin-ldap"`
	PasswordHasher   string        `koanf:"password-hasher" yaml:"password-hasher"`
	BcryptCost       int           `koanf:"bcrypt-cost" yaml:"bcrypt-cost"`
	AutoMigrate      bool          `koanf:"auto-migrate" yaml:"auto-migrate"`
	DBConnectRetries int           `koanf:"db-connect-retries" yaml:"db-connect-retries"`
	ShutdownTimeout  time.Duration `koanf:"shutdown-timeout" yaml:"shutdown-timeout"`
}

// RegisterFlags adds every configuration key to fs with its default.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("http-addr", DefaultHTTPAddr, "API listen address")
	fs.String("metrics-addr", DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.String("database-url", "", "PostgreSQL connection URL (default: $"+DatabaseURLEnv+")")
	fs.String("log-format", DefaultLogFormat, "log format (json or text)")
	fs.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	fs.String("admin-ldap", authn.DefaultAdminValue, "expected value of the admin header")
	fs.String("password-hasher", user.HasherArgon2id, "password hashing algorithm (argon2id or bcrypt)")
	fs.Int("bcrypt-cost", 0, "bcrypt cost when password-hasher is bcrypt (0 = library default)")
	fs.Bool("auto-migrate", false, "apply pending migrations on startup")
	fs.Int("db-connect-retries", DefaultDBConnectRetries, "extra database ping attempts on startup")
	fs.Duration("shutdown-timeout", DefaultShutdownTimeout, "graceful shutdown timeout")
}

// Load reads the YAML file at path, when path is non-empty, then overlays fs.
// The result is validated.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrapf(err, "load config file")
		}
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").Wrapf(err, "load flags")
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrapf(err, "decode config")
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv(DatabaseURLEnv)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable.
// An empty database URL is allowed here; commands that connect check it.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return invalid("http-addr", "http-addr is required")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return invalid("log-format", "log-format must be 'json' or 'text', got %q", c.LogFormat)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return invalid("log-level", "log-level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	if strings.TrimSpace(c.AdminLdap) == "" {
		return invalid("admin-ldap", "admin-ldap cannot be blank")
	}
	if c.PasswordHasher != user.HasherArgon2id && c.PasswordHasher != user.HasherBcrypt {
		return invalid("password-hasher", "password-hasher must be %q or %q, got %q",
			user.HasherArgon2id, user.HasherBcrypt, c.PasswordHasher)
	}
	if c.BcryptCost < 0 {
		return invalid("bcrypt-cost", "bcrypt-cost cannot be negative")
	}
	if c.DBConnectRetries < 0 {
		return invalid("db-connect-retries", "db-connect-retries cannot be negative")
	}
	if c.ShutdownTimeout <= 0 {
		return invalid("shutdown-timeout", "shutdown-timeout must be positive")
	}
	return nil
}

// RequireDatabase fails when no database URL is configured.
func (c *Config) RequireDatabase() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return invalid("database-url", "database-url or the %s environment variable is required", DatabaseURLEnv)
	}
	return nil
}

// Redacted returns a copy safe to print. The database password is masked;
// a URL that cannot be parsed as one is hidden entirely.
func (c *Config) Redacted() Config {
	out := *c
	if out.DatabaseURL == "" {
		return out
	}
	u, err := url.Parse(out.DatabaseURL)
	if err != nil || u.Scheme == "" {
		out.DatabaseURL = redactedDatabaseURL
		return out
	}
	out.DatabaseURL = u.Redacted()
	return out
}

func invalid(key, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf(format, args...)
}
