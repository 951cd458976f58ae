package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testOptions struct {
	Config string

	AuraConfigPath string        `toml:"aura.config_path" env:"AURA_CONFIG_PATH"`
	DBusEnabled    bool          `toml:"dbus.enabled" env:"DBUS_ENABLED"`
	APIAddr        string        `toml:"api.addr" env:"API_ADDR"`
	Retries        int           `toml:"store.retries" env:"STORE_RETRIES"`
	PollInterval   time.Duration `toml:"logind.poll_interval" env:"LOGIND_POLL_INTERVAL"`
	Modules        []string      `toml:"logging.modules" env:"LOGGING_MODULES"`
	NoTags         string
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleTOML = `
[aura]
config_path = "/var/lib/aurad/aura.conf"

[dbus]
enabled = true

[api]
addr = "0.0.0.0:9000"

[store]
retries = 3

[logind]
poll_interval = "500ms"

[logging]
modules = ["led", "store"]
`

func TestLoadConfigFromTOML(t *testing.T) {
	opts := &testOptions{Config: writeFile(t, "aurad.toml", sampleTOML), NoTags: "kept"}
	require.NoError(t, LoadConfig(opts, nil))

	assert.Equal(t, "/var/lib/aurad/aura.conf", opts.AuraConfigPath)
	assert.True(t, opts.DBusEnabled)
	assert.Equal(t, "0.0.0.0:9000", opts.APIAddr)
	assert.Equal(t, 3, opts.Retries)
	assert.Equal(t, 500*time.Millisecond, opts.PollInterval)
	assert.Equal(t, []string{"led", "store"}, opts.Modules)
	assert.Equal(t, "kept", opts.NoTags)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	t.Setenv("AURAD_API_ADDR", "127.0.0.1:1")
	t.Setenv("AURAD_DBUS_ENABLED", "false")
	t.Setenv("AURAD_STORE_RETRIES", "5")
	t.Setenv("AURAD_LOGIND_POLL_INTERVAL", "5s")
	t.Setenv("AURAD_LOGGING_MODULES", " led , api ")

	opts := &testOptions{Config: writeFile(t, "aurad.toml", sampleTOML)}
	require.NoError(t, LoadConfig(opts, nil))

	assert.Equal(t, "127.0.0.1:1", opts.APIAddr)
	assert.False(t, opts.DBusEnabled)
	assert.Equal(t, 5, opts.Retries)
	assert.Equal(t, 5*time.Second, opts.PollInterval)
	assert.Equal(t, []string{"led", "api"}, opts.Modules)
	assert.Equal(t, "/var/lib/aurad/aura.conf", opts.AuraConfigPath)
}

func TestLoadConfigKeepsChangedFlags(t *testing.T) {
	t.Setenv("AURAD_AURA_CONFIG_PATH", "/from/env")

	opts := &testOptions{Config: writeFile(t, "aurad.toml", sampleTOML)}
	cmd := &cobra.Command{Use: "aurad"}
	cmd.Flags().StringVar(&opts.APIAddr, "api-addr", "", "")
	cmd.Flags().StringVar(&opts.AuraConfigPath, "aura-config-path", "", "")
	cmd.Flags().BoolVar(&opts.DBusEnabled, "d-bus-enabled", false, "")
	require.NoError(t, cmd.ParseFlags([]string{"--api-addr", "[::1]:8091", "--aura-config-path", "/from/cli"}))

	require.NoError(t, LoadConfig(opts, cmd))

	assert.Equal(t, "[::1]:8091", opts.APIAddr)
	assert.Equal(t, "/from/cli", opts.AuraConfigPath)
	assert.True(t, opts.DBusEnabled, "unchanged flags still take file values")
}

func TestLoadConfigMissingFile(t *testing.T) {
	opts := &testOptions{Config: filepath.Join(t.TempDir(), "missing.toml"), APIAddr: "default"}
	require.NoError(t, LoadConfig(opts, nil))
	assert.Equal(t, "default", opts.APIAddr)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		env  map[string]string
	}{
		{name: "malformed file", toml: "[api\naddr = 1"},
		{name: "wrong type in file", toml: "[dbus]\nenabled = \"yes please\"\n"},
		{name: "mixed list", toml: "[logging]\nmodules = [\"led\", 2]\n"},
		{name: "bad env bool", env: map[string]string{"AURAD_DBUS_ENABLED": "maybe"}},
		{name: "bad env duration", env: map[string]string{"AURAD_LOGIND_POLL_INTERVAL": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			opts := &testOptions{}
			if tt.toml != "" {
				opts.Config = writeFile(t, "aurad.toml", tt.toml)
			}
			assert.Error(t, LoadConfig(opts, nil))
		})
	}

	assert.Error(t, LoadConfig(testOptions{}, nil))
}

func TestLoadConfigDurationSeconds(t *testing.T) {
	opts := &testOptions{Config: writeFile(t, "aurad.toml", "[logind]\npoll_interval = 3\n")}
	require.NoError(t, LoadConfig(opts, nil))
	assert.Equal(t, 3*time.Second, opts.PollInterval)
}

func TestKebab(t *testing.T) {
	tests := map[string]string{
		"Config":         "config",
		"APIAddr":        "api-addr",
		"DBusEnabled":    "d-bus-enabled",
		"LoggingDBus":    "logging-d-bus",
		"AuraConfigPath": "aura-config-path",
		"LoggingAPI":     "logging-api",
	}
	for in, want := range tests {
		assert.Equal(t, want, kebab(in), in)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := writeFile(t, "aurad.env", "AURAD_API_ADDR=from-file\nAURAD_STORE_RETRIES=7\n")

	// Variables already in the environment win over the file.
	t.Setenv("AURAD_STORE_RETRIES", "9")
	t.Setenv("AURAD_API_ADDR", "")
	require.NoError(t, os.Unsetenv("AURAD_API_ADDR"))

	require.NoError(t, LoadEnvFile(path))

	opts := &testOptions{}
	require.NoError(t, LoadConfig(opts, nil))
	assert.Equal(t, "from-file", opts.APIAddr)
	assert.Equal(t, 9, opts.Retries)
}

func TestLoadEnvFileMissing(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
	assert.NoError(t, LoadEnvFile(""))
}

func TestReadLoggingConfig(t *testing.T) {
	path := writeFile(t, "aurad.toml", "[logging]\nlevel = \"warn\"\nformat = \"json\"\nled = \"debug\"\n")

	cfg, err := ReadLoggingConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, map[string]string{"led": "debug"}, cfg.Modules)

	cfg, err = ReadLoggingConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "text", cfg.Format)

	require.NoError(t, os.WriteFile(path, []byte("[logging\n"), 0o644))
	_, err = ReadLoggingConfig(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("[logging]\nled = 3\n"), 0o644))
	_, err = ReadLoggingConfig(path)
	assert.Error(t, err)
}
