package api

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, 8080, s.Port)
	assert.Equal(t, ":8080", s.Addr())
	assert.Equal(t, "./examples/scenarios", s.ScenarioDir)
	assert.Equal(t, time.Hour, s.ResultTTL)
	assert.False(t, s.Production())
}

func TestLoadSettingsFromEnv(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("API_ENV", "production")
	t.Setenv("SCENARIO_DIR", "/srv/scenarios")
	t.Setenv("RESULT_TTL", "15m")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	s, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, 9090, s.Port)
	assert.True(t, s.Production())
	assert.Equal(t, "/srv/scenarios", s.ScenarioDir)
	assert.Equal(t, 15*time.Minute, s.ResultTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, s.CORSOrigins)
}

func TestLoadSettingsFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_port: 7000\nstatic_dir: /srv/web\n"), 0o644))
	t.Setenv("API_PORT", "7001")

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, 7001, s.Port, "env wins over file")
	assert.Equal(t, "/srv/web", s.StaticDir)
}

func TestLoadSettingsInvalid(t *testing.T) {
	t.Setenv("API_PORT", "70000")
	_, err := LoadSettings("")
	assert.Error(t, err)

	_, err = LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
