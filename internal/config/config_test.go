package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Realtime.SendTimeoutSeconds)
	assert.Equal(t, 3*time.Second, cfg.SendTimeout())
	require.NoError(t, Validate(cfg))
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agora.toml")
	content := `
[server]
port = 9999

[database]
url = "postgres://u:p@localhost:5432/agora?sslmode=disable"

[realtime]
send_timeout_seconds = 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "postgres://u:p@localhost:5432/agora?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, 5*time.Second, cfg.SendTimeout())
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("AGORA_SERVER_PORT", "7070")
	t.Setenv("AGORA_DATABASE_URL", "postgres://env@localhost/agora")
	t.Setenv("AGORA_REALTIME_SEND_TIMEOUT_SECONDS", "9")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "postgres://env@localhost/agora", cfg.Database.URL)
	assert.Equal(t, 9, cfg.Realtime.SendTimeoutSeconds, "multi-word keys must map past the section separator")
}

func TestValidate(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	cfg.Server.Port = -1
	assert.Error(t, Validate(cfg))

	cfg.Server.Port = 8080
	cfg.Realtime.SendTimeoutSeconds = 0
	assert.Error(t, Validate(cfg))
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agora.toml")
	require.NoError(t, InitConfig(path))

	// re-initializing must not clobber an existing file
	assert.Error(t, InitConfig(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))
}
