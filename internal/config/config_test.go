// filepath: internal/config/config_test.go
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:4000", cfg.Backend.BaseURL)
	assert.Equal(t, "admin@mail.com", cfg.Backend.Email)
	assert.Equal(t, 10, cfg.Backend.TimeoutSec)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "gpt-4.1-mini", cfg.Agent.Model)
	assert.True(t, cfg.Agent.ReadOnly)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "courrier.toml")
	content := `
[database]
path = "from-file.db"

[backend]
base_url = "http://file:4000"
timeout_sec = 3

[server]
port = 6000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("COURRIER_BACKEND_BASE_URL", "http://env:4000")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 0, "")
	flags.String("db", "", "")
	require.NoError(t, flags.Parse([]string{"--port", "7000"}))

	cfg, err := Load(path, flags, FlagBindings{"server.port": "port", "database.path": "db"})
	require.NoError(t, err)

	assert.Equal(t, "from-file.db", cfg.Database.Path, "unset flag must not override the file")
	assert.Equal(t, "http://env:4000", cfg.Backend.BaseURL, "env overrides the file")
	assert.Equal(t, 3, cfg.Backend.TimeoutSec)
	assert.Equal(t, 7000, cfg.Server.Port, "explicit flag wins")
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("[database\npath="), 0o644))

	_, err := Load(path, nil, nil)
	assert.Error(t, err)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.toml")
	cfg := Default()
	cfg.Database.Path = "/srv/courrier/app.db"
	cfg.Logging.Format = "text"

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "/srv/courrier/app.db", loaded.Database.Path)
	assert.Equal(t, "text", loaded.Logging.Format)
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, Default()))
	assert.Contains(t, buf.String(), "[backend]")
	assert.Contains(t, buf.String(), `base_url = "http://localhost:4000"`)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty db path", func(c *Config) { c.Database.Path = " " }, true},
		{"relative base url", func(c *Config) { c.Backend.BaseURL = "localhost:4000" }, true},
		{"ftp base url", func(c *Config) { c.Backend.BaseURL = "ftp://host" }, true},
		{"zero timeout", func(c *Config) { c.Backend.TimeoutSec = 0 }, true},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, true},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"upper-case level", func(c *Config) { c.Logging.Level = "DEBUG" }, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
