// filepath: internal/cli/root_test.go
package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"courrierkit/internal/config"
	"courrierkit/internal/shared"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	dir     string
	cfgPath string
	dbPath  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	return &testEnv{
		dir:     dir,
		cfgPath: filepath.Join(dir, "config.toml"),
		dbPath:  filepath.Join(dir, "courrier.db"),
	}
}

// run executes the CLI against the env's config and database.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	full := append([]string{"--config_path", e.cfgPath, "--db", e.dbPath, "--log-level", "error"}, args...)
	err := Run(full, &out)
	return out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, out)
	return out
}

func TestConfigPrecedence(t *testing.T) {
	load := func(t *testing.T, args ...string) *config.Config {
		t.Helper()
		options := &GlobalOptions{}
		cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
		options.registerFlags(cmd)
		cmd.Flags().Int("port", 0, "")
		require.NoError(t, cmd.ParseFlags(args))
		require.NoError(t, options.initializeConfig(cmd))
		return options.Conf
	}

	t.Run("Defaults", func(t *testing.T) {
		conf := load(t, "--config_path", filepath.Join(t.TempDir(), "nonexistent.toml"))
		assert.Equal(t, 5000, conf.Server.Port)
		assert.Equal(t, "info", conf.Logging.Level)
		assert.Equal(t, "databasepnda.db", conf.Database.Path)
	})

	t.Run("Environment Overrides Defaults", func(t *testing.T) {
		t.Setenv("COURRIER_SERVER_PORT", "9090")
		t.Setenv("COURRIER_LOGGING_LEVEL", "warn")
		conf := load(t, "--config_path", filepath.Join(t.TempDir(), "nonexistent.toml"))
		assert.Equal(t, 9090, conf.Server.Port)
		assert.Equal(t, "warn", conf.Logging.Level)
	})

	t.Run("Flags Override Environment", func(t *testing.T) {
		t.Setenv("COURRIER_SERVER_PORT", "9090")
		t.Setenv("COURRIER_DATABASE_PATH", "env.db")
		conf := load(t, "--config_path", filepath.Join(t.TempDir(), "nonexistent.toml"), "--port", "7070", "--db", "flag.db")
		assert.Equal(t, 7070, conf.Server.Port)
		assert.Equal(t, "flag.db", conf.Database.Path)
	})

	t.Run("Config File Loading", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "test_config.toml")
		content := []byte(`
[server]
port = 6060
[logging]
level = "error"
`)
		require.NoError(t, os.WriteFile(tmpFile, content, 0o644))

		conf := load(t, "--config_path", tmpFile)
		assert.Equal(t, 6060, conf.Server.Port)
		assert.Equal(t, "error", conf.Logging.Level)
	})

	t.Run("Config Path From Environment", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "env_config.toml")
		require.NoError(t, os.WriteFile(tmpFile, []byte("[server]\nport = 6161\n"), 0o644))
		t.Setenv("COURRIER_CONFIG_PATH", tmpFile)

		options := &GlobalOptions{}
		cmd := &cobra.Command{Use: "test"}
		options.registerFlags(cmd)
		require.NoError(t, options.initializeConfig(cmd))
		assert.Equal(t, 6161, options.Conf.Server.Port)
	})

	t.Run("Invalid Values Are Rejected", func(t *testing.T) {
		options := &GlobalOptions{}
		cmd := &cobra.Command{Use: "test"}
		options.registerFlags(cmd)
		require.NoError(t, cmd.ParseFlags([]string{"--config_path", filepath.Join(t.TempDir(), "x.toml"), "--log-level", "loud"}))
		err := options.initializeConfig(cmd)
		assert.ErrorContains(t, err, "logging.level")
	})
}

func TestConfigCommands(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "config", "init")
	assert.Contains(t, out, "Configuration written to")

	var written config.Config
	_, err := toml.DecodeFile(env.cfgPath, &written)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4000", written.Backend.BaseURL)

	_, err = env.run(t, "config", "init")
	assert.ErrorContains(t, err, "already exists")
	env.mustRun(t, "config", "init", "--force")

	out = env.mustRun(t, "config", "show")
	assert.Contains(t, out, maskedSecret)
	assert.NotContains(t, out, "adminpassword")
	assert.Contains(t, out, env.dbPath)

	out = env.mustRun(t, "config", "show", "--show-secrets")
	assert.Contains(t, out, "adminpassword")
}

func TestDatabaseWorkflow(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "migrate", "check")
	assert.ErrorContains(t, err, "outdated")

	env.mustRun(t, "migrate", "up")
	out := env.mustRun(t, "migrate", "check")
	assert.Contains(t, out, "Schema up to date")

	out = env.mustRun(t, "inspect", "tables")
	assert.Contains(t, out, "incoming_mails")
	assert.Contains(t, out, "courriers_sortants")

	out = env.mustRun(t, "inspect", "columns", "services")
	assert.Contains(t, out, "has_archive_page")

	_, err = env.run(t, "inspect", "columns", "nope")
	assert.ErrorIs(t, err, shared.ErrTableNotFound)

	out = env.mustRun(t, "seed", "admin")
	assert.Contains(t, out, "User created")
	assert.Contains(t, out, "admin@mail.com")

	out = env.mustRun(t, "report", "users")
	assert.Contains(t, out, "admin@mail.com")

	out = env.mustRun(t, "report", "credentials")
	assert.Contains(t, out, `password is "adminpassword"`)

	out = env.mustRun(t, "inspect", "sample", "users", "--columns", "email,nope", "--where", "role_id=1")
	assert.Contains(t, out, "Column nope does not exist in users")
	assert.Contains(t, out, "admin@mail.com")

	_, err = env.run(t, "inspect", "sample", "users", "--where", "1=1")
	assert.ErrorIs(t, err, shared.ErrInvalidName)

	out = env.mustRun(t, "migrations", "mark", "002_consolidate_archives.sql")
	assert.Contains(t, out, "marked as applied")
	out = env.mustRun(t, "migrations", "mark", "002_consolidate_archives.sql")
	assert.Contains(t, out, "already marked")

	_, err = env.run(t, "migrations", "check", "003_refresh_tokens.sql")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	out = env.mustRun(t, "migrations", "fix")
	assert.Contains(t, out, "001_merge_users_personnel.sql marked as applied")
	assert.Contains(t, out, "refresh_tokens table present")
	out = env.mustRun(t, "migrations", "check", "001_merge_users_personnel.sql", "003_refresh_tokens.sql")
	assert.Contains(t, out, "003_refresh_tokens.sql applied")

	out = env.mustRun(t, "patch", "add-columns")
	assert.Contains(t, out, "entete already exists")

	_, err = env.run(t, "patch", "drop-outgoing")
	assert.ErrorIs(t, err, shared.ErrConfirmationRequired)
	env.mustRun(t, "patch", "drop-outgoing", "--yes")
	out = env.mustRun(t, "inspect", "tables")
	assert.NotContains(t, out, "courriers_sortants")

	_, err = env.run(t, "patch", "audit-logs")
	assert.ErrorIs(t, err, shared.ErrConfirmationRequired)
	out = env.mustRun(t, "patch", "audit-logs", "--yes")
	assert.Contains(t, out, "audit_logs recreated")
}

func TestSeedPlanCommand(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "migrate", "up")

	plan := filepath.Join(env.dir, "seed.toml")
	require.NoError(t, os.WriteFile(plan, []byte(`
[[role]]
id = 4
name = "comptable"

[[user]]
name = "comptable"
email = "comptable@mail.com"
role = "comptable"
`), 0o600))

	out := env.mustRun(t, "seed", "plan", plan)
	assert.Contains(t, out, "Generated passwords (shown once)")
	assert.Contains(t, out, "users created")

	out = env.mustRun(t, "report", "role-users", "comptable")
	assert.Contains(t, out, "comptable@mail.com")
}

func TestReadOnlyCommandsNeedTheFile(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "inspect", "tables")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSmokeListsScenarios(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun(t, "smoke")
	assert.Contains(t, out, "service-lifecycle")
	assert.Contains(t, out, "diagnose-401")

	_, err := env.run(t, "smoke", "nope")
	assert.ErrorIs(t, err, shared.ErrUnknownScenario)
}
