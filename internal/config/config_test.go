package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, home, content string) string {
	t.Helper()

	dir := filepath.Join(home, configDir)
	require.NoError(t, os.MkdirAll(dir, 0o700))
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, DefaultAppID, cfg.AppID)
	assert.Equal(t, StoreFile, cfg.StoreBackend)
	assert.Equal(t, filepath.Join(home, ".botctl", "store"), cfg.StorePath)
	assert.Equal(t, CredentialsChain, cfg.CredentialBackend)
	assert.Equal(t, filepath.Join(home, ".botctl", "credentials"), cfg.CredentialPath)
	assert.Equal(t, 3*time.Second, cfg.NotifyDuration)
	assert.Equal(t, zerolog.WarnLevel, cfg.LogLevel)
	assert.Empty(t, cfg.AuthToken)
	assert.Empty(t, cfg.File)
}

func TestLoadReadsConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := writeConfig(t, home, `
[app]
id = "my-app"

[store]
backend = "memory"
path = "~/data"

[notify]
duration = "5s"

[log]
level = "debug"
`)

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "my-app", cfg.AppID)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, filepath.Join(home, "data"), cfg.StorePath)
	assert.Equal(t, 5*time.Second, cfg.NotifyDuration)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.Equal(t, path, cfg.File)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeConfig(t, home, "[app]\nid = \"from-file\"\n")
	t.Setenv("BOTCTL_APP_ID", "from-env")
	t.Setenv("BOTCTL_AUTH_TOKEN", "  custom-token ")
	t.Setenv("BOTCTL_CREDENTIALS_BACKEND", "file")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.AppID)
	assert.Equal(t, "custom-token", cfg.AuthToken)
	assert.Equal(t, CredentialsFile, cfg.CredentialBackend)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	testCases := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "unknown backend", env: map[string]string{"BOTCTL_STORE_BACKEND": "redis"}, wantErr: "unsupported store.backend"},
		{name: "firestore without project", env: map[string]string{"BOTCTL_STORE_BACKEND": "firestore"}, wantErr: "firebase.project_id is required"},
		{name: "bad log level", env: map[string]string{"BOTCTL_LOG_LEVEL": "loud"}, wantErr: "parse log.level"},
		{name: "bad credentials backend", env: map[string]string{"BOTCTL_CREDENTIALS_BACKEND": "vault"}, wantErr: "unsupported credentials.backend"},
		{name: "zero notify duration", env: map[string]string{"BOTCTL_NOTIFY_DURATION": "0s"}, wantErr: "notify.duration must be positive"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			for key, value := range tc.env {
				t.Setenv(key, value)
			}

			_, err := Load(viper.New())
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestLoadRejectsMalformedConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeConfig(t, home, "[app\nid = ")

	_, err := Load(viper.New())
	require.Error(t, err)
	assert.ErrorContains(t, err, "read config file")
}
