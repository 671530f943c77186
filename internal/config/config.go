// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

// Package config loads the Sharebox server configuration from an optional
// YAML file, command-line flags and the environment.
package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// CodeInvalid classifies configuration errors.
const CodeInvalid = "CONFIG_INVALID"

// Default values.
const (
	DefaultHTTPAddr           = ":8000"
	DefaultMetricsAddr        = "127.0.0.1:9100"
	DefaultLogFormat          = "json"
	DefaultGinMode            = "release"
	DefaultPoolMaxConns       = 10
	DefaultPoolAcquireTimeout = 5 * time.Second
	DefaultConnectRetries     = 5
	DefaultSessionMaxAge      = 720 * time.Hour
	DefaultShutdownTimeout    = 10 * time.Second
)

// Environment variables read for secrets.
const (
	EnvDatabaseURL     = "DATABASE_URL"
	EnvSessionHashKey  = "SHAREBOX_SESSION_HASH_KEY"
	EnvSessionBlockKey = "SHAREBOX_SESSION_BLOCK_KEY"
)

// envKeys maps environment variables to configuration keys.
var envKeys = map[string]string{
	EnvDatabaseURL:     "database_url",
	EnvSessionHashKey:  "session_hash_key",
	EnvSessionBlockKey: "session_block_key",
}

// Config is the server configuration.
type Config struct {
	HTTPAddr           string        `koanf:"http_addr"`
	MetricsAddr        string        `koanf:"metrics_addr"`
	LogFormat          string        `koanf:"log_format"`
	GinMode            string        `koanf:"gin_mode"`
	DatabaseURL        string        `koanf:"database_url"`
	PoolMaxConns       int32         `koanf:"pool_max_conns"`
	PoolAcquireTimeout time.Duration `koanf:"pool_acquire_timeout"`
	ConnectRetries     uint64        `koanf:"connect_retries"`
	SessionHashKey     string        `koanf:"session_hash_key"`
	SessionBlockKey    string        `koanf:"session_block_key"`
	SecureCookies      bool          `koanf:"secure_cookies"`
	SessionMaxAge      time.Duration `koanf:"session_max_age"`
	ShutdownTimeout    time.Duration `koanf:"shutdown_timeout"`
}

// RegisterFlags adds the server flags to fs. Flag names use dashes; each
// maps to the configuration key with underscores.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("http-addr", DefaultHTTPAddr, "HTTP listen address")
	fs.String("metrics-addr", DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.String("log-format", DefaultLogFormat, "log format (json or text)")
	fs.String("gin-mode", DefaultGinMode, "gin mode (debug, release or test)")
	fs.String("database-url", "", "PostgreSQL connection URL (default: $DATABASE_URL)")
	fs.Int32("pool-max-conns", DefaultPoolMaxConns, "maximum pooled database connections")
	fs.Duration("pool-acquire-timeout", DefaultPoolAcquireTimeout, "maximum wait for a pooled connection")
	fs.Uint64("connect-retries", DefaultConnectRetries, "database ping retries at startup")
	fs.Bool("secure-cookies", false, "mark the session cookie Secure")
	fs.Duration("session-max-age", DefaultSessionMaxAge, "session cookie lifetime")
	fs.Duration("shutdown-timeout", DefaultShutdownTimeout, "graceful shutdown deadline")
}

// LoadDotEnv loads .env.local from the working directory, or its parent,
// into the process environment. Variables already set are kept.
func LoadDotEnv() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}
	cwd, err := os.Getwd()
	if err != nil {
		return
	}
	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}
	_ = godotenv.Load(filepath.Join(parent, ".env.local")) //nolint:errcheck // the file is optional
}

// Load builds the configuration. Values come from, in increasing priority:
// flag defaults, the YAML file at configPath (if non-empty), flags set on
// the command line and the secret environment variables. An environment
// variable never overrides a flag that was set explicitly.
// The result is validated.
func Load(fs *pflag.FlagSet, configPath string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg, err := load(fs, configPath, lookupEnv)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabaseURL resolves database_url alone, with the same precedence as
// Load. Commands that only reach the database use it so they need no
// session keys.
func LoadDatabaseURL(fs *pflag.FlagSet, configPath string, lookupEnv func(string) (string, bool)) (string, error) {
	cfg, err := load(fs, configPath, lookupEnv)
	if err != nil {
		return "", err
	}
	if cfg.DatabaseURL == "" {
		return "", invalid("database_url", "database_url is required (set %s)", EnvDatabaseURL)
	}
	return cfg.DatabaseURL, nil
}

func load(fs *pflag.FlagSet, configPath string, lookupEnv func(string) (string, bool)) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, oops.Code(CodeInvalid).
				With("path", configPath).
				Wrapf(err, "read config file")
		}
	}

	if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, flagKey(fs)), nil); err != nil {
		return nil, oops.Code(CodeInvalid).Wrapf(err, "read flags")
	}

	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	for env, key := range envKeys {
		value, ok := lookupEnv(env)
		if !ok || value == "" {
			continue
		}
		if f := fs.Lookup(strings.ReplaceAll(key, "_", "-")); f != nil && f.Changed {
			continue
		}
		if err := k.Set(key, value); err != nil {
			return nil, oops.Code(CodeInvalid).With("key", key).Wrap(err)
		}
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code(CodeInvalid).Wrapf(err, "decode config")
	}
	return cfg, nil
}

func flagKey(fs *pflag.FlagSet) func(f *pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(fs, f)
	}
}

func invalid(key, format string, args ...any) error {
	return oops.Code(CodeInvalid).With("key", key).Errorf(format, args...)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return invalid("http_addr", "http_addr is required")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return invalid("log_format", "log_format must be 'json' or 'text', got %q", c.LogFormat)
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return invalid("gin_mode", "gin_mode must be 'debug', 'release' or 'test', got %q", c.GinMode)
	}
	if c.DatabaseURL == "" {
		return invalid("database_url", "database_url is required (set %s)", EnvDatabaseURL)
	}
	if c.PoolMaxConns <= 0 {
		return invalid("pool_max_conns", "pool_max_conns must be positive, got %d", c.PoolMaxConns)
	}
	if c.PoolAcquireTimeout <= 0 {
		return invalid("pool_acquire_timeout", "pool_acquire_timeout must be positive")
	}
	if c.SessionMaxAge <= 0 {
		return invalid("session_max_age", "session_max_age must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return invalid("shutdown_timeout", "shutdown_timeout must be positive")
	}
	if _, _, err := c.SessionKeys(); err != nil {
		return err
	}
	return nil
}

// SessionKeys decodes the hex session cookie keys. The hash key signs the
// cookie and must be at least 32 bytes; the block key encrypts it and must
// be 16, 24 or 32 bytes.
func (c *Config) SessionKeys() (hashKey, blockKey []byte, err error) {
	hashKey, err = hex.DecodeString(c.SessionHashKey)
	if err != nil {
		return nil, nil, invalid("session_hash_key", "session_hash_key must be hex")
	}
	if len(hashKey) < 32 {
		return nil, nil, invalid("session_hash_key", "session_hash_key must be at least 32 bytes (set %s)", EnvSessionHashKey)
	}
	blockKey, err = hex.DecodeString(c.SessionBlockKey)
	if err != nil {
		return nil, nil, invalid("session_block_key", "session_block_key must be hex")
	}
	switch len(blockKey) {
	case 16, 24, 32:
	default:
		return nil, nil, invalid("session_block_key", "session_block_key must be 16, 24 or 32 bytes (set %s)", EnvSessionBlockKey)
	}
	return hashKey, blockKey, nil
}
