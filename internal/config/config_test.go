// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharebox/sharebox/internal/config"
	"github.com/sharebox/sharebox/pkg/errutil"
)

var (
	hashKeyHex  = strings.Repeat("ab", 32)
	blockKeyHex = strings.Repeat("cd", 32)
)

func env(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func secrets() map[string]string {
	return map[string]string{
		config.EnvDatabaseURL:     "postgres://sharebox@localhost/sharebox",
		config.EnvSessionHashKey:  hashKeyHex,
		config.EnvSessionBlockKey: blockKeyHex,
	}
}

func flags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sharebox.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(flags(t), "", env(secrets()))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultHTTPAddr, cfg.HTTPAddr)
	assert.Equal(t, config.DefaultMetricsAddr, cfg.MetricsAddr)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "release", cfg.GinMode)
	assert.Equal(t, "postgres://sharebox@localhost/sharebox", cfg.DatabaseURL)
	assert.Equal(t, int32(10), cfg.PoolMaxConns)
	assert.Equal(t, 5*time.Second, cfg.PoolAcquireTimeout)
	assert.Equal(t, uint64(5), cfg.ConnectRetries)
	assert.False(t, cfg.SecureCookies)
	assert.Equal(t, 720*time.Hour, cfg.SessionMaxAge)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
http_addr: ":9000"
log_format: text
pool_max_conns: 4
pool_acquire_timeout: 250ms
secure_cookies: true
metrics_addr: ""
`)
	cfg, err := config.Load(flags(t), path, env(secrets()))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, int32(4), cfg.PoolMaxConns)
	assert.Equal(t, 250*time.Millisecond, cfg.PoolAcquireTimeout)
	assert.True(t, cfg.SecureCookies)
	assert.Empty(t, cfg.MetricsAddr, "empty metrics address disables the server")
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := writeFile(t, "http_addr: \":9000\"\npool_max_conns: 4\n")
	cfg, err := config.Load(flags(t, "--http-addr=:7000"), path, env(secrets()))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, int32(4), cfg.PoolMaxConns, "unset flags keep file values")
}

func TestLoad_EnvironmentSecrets(t *testing.T) {
	path := writeFile(t, "database_url: postgres://file/sharebox\n")

	cfg, err := config.Load(flags(t), path, env(secrets()))
	require.NoError(t, err)
	assert.Equal(t, "postgres://sharebox@localhost/sharebox", cfg.DatabaseURL, "environment overrides the file")

	cfg, err = config.Load(flags(t, "--database-url=postgres://flag/sharebox"), path, env(secrets()))
	require.NoError(t, err)
	assert.Equal(t, "postgres://flag/sharebox", cfg.DatabaseURL, "explicit flag wins over environment")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(flags(t), filepath.Join(t.TempDir(), "absent.yaml"), env(secrets()))
	errutil.AssertErrorCode(t, err, config.CodeInvalid)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	values := secrets()
	delete(values, config.EnvDatabaseURL)

	_, err := config.Load(flags(t), "", env(values))
	errutil.AssertErrorCode(t, err, config.CodeInvalid)
	errutil.AssertErrorContext(t, err, "key", "database_url")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			HTTPAddr:           ":8000",
			LogFormat:          "json",
			GinMode:            "release",
			DatabaseURL:        "postgres://localhost/sharebox",
			PoolMaxConns:       10,
			PoolAcquireTimeout: time.Second,
			SessionHashKey:     hashKeyHex,
			SessionBlockKey:    blockKeyHex,
			SessionMaxAge:      time.Hour,
			ShutdownTimeout:    time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantKey string
	}{
		{"valid", func(*config.Config) {}, ""},
		{"empty http addr", func(c *config.Config) { c.HTTPAddr = "" }, "http_addr"},
		{"bad log format", func(c *config.Config) { c.LogFormat = "xml" }, "log_format"},
		{"bad gin mode", func(c *config.Config) { c.GinMode = "prod" }, "gin_mode"},
		{"no pool conns", func(c *config.Config) { c.PoolMaxConns = 0 }, "pool_max_conns"},
		{"no acquire timeout", func(c *config.Config) { c.PoolAcquireTimeout = 0 }, "pool_acquire_timeout"},
		{"no session max age", func(c *config.Config) { c.SessionMaxAge = 0 }, "session_max_age"},
		{"no shutdown timeout", func(c *config.Config) { c.ShutdownTimeout = 0 }, "shutdown_timeout"},
		{"non-hex hash key", func(c *config.Config) { c.SessionHashKey = "zz" }, "session_hash_key"},
		{"short hash key", func(c *config.Config) { c.SessionHashKey = strings.Repeat("ab", 16) }, "session_hash_key"},
		{"bad block key size", func(c *config.Config) { c.SessionBlockKey = strings.Repeat("cd", 20) }, "session_block_key"},
		{"16 byte block key", func(c *config.Config) { c.SessionBlockKey = strings.Repeat("cd", 16) }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantKey == "" {
				require.NoError(t, err)
				return
			}
			errutil.AssertErrorCode(t, err, config.CodeInvalid)
			errutil.AssertErrorContext(t, err, "key", tt.wantKey)
		})
	}
}

func TestConfig_SessionKeys(t *testing.T) {
	cfg := config.Config{SessionHashKey: hashKeyHex, SessionBlockKey: blockKeyHex}
	hashKey, blockKey, err := cfg.SessionKeys()
	require.NoError(t, err)
	assert.Len(t, hashKey, 32)
	assert.Len(t, blockKey, 32)
}

func TestLoadDatabaseURL(t *testing.T) {
	fs := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	fs.String("database-url", "", "")
	require.NoError(t, fs.Parse(nil))

	url, err := config.LoadDatabaseURL(fs, "", env(map[string]string{
		config.EnvDatabaseURL: "postgres://localhost/sharebox",
	}))

	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/sharebox", url)
}

func TestLoadDatabaseURL_FlagWinsAndNoSecretsNeeded(t *testing.T) {
	fs := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	fs.String("database-url", "", "")
	require.NoError(t, fs.Parse([]string{"--database-url", "postgres://flag/sharebox"}))

	url, err := config.LoadDatabaseURL(fs, "", env(map[string]string{
		config.EnvDatabaseURL: "postgres://env/sharebox",
	}))

	require.NoError(t, err)
	assert.Equal(t, "postgres://flag/sharebox", url)
}

func TestLoadDatabaseURL_Missing(t *testing.T) {
	fs := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	fs.String("database-url", "", "")
	require.NoError(t, fs.Parse(nil))

	_, err := config.LoadDatabaseURL(fs, "", env(nil))

	require.Error(t, err)
	errutil.AssertErrorCode(t, err, config.CodeInvalid)
	errutil.AssertErrorContext(t, err, "key", "database_url")
}
