package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into an empty directory so no stray .env or studydash.yaml is read.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendBolt, cfg.Store.Backend)
	assert.Equal(t, "data/studydash.db", cfg.Store.BoltPath)
	assert.Equal(t, time.Second, cfg.Store.OpenTimeout)
	assert.Equal(t, 10, cfg.Leveling.CompletionXP)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, "studydash:", cfg.Redis.KeyPrefix)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: production
store:
  backend: Memory
leveling:
  completion_xp: 20
observability:
  log_format: json
`), 0o600))
	t.Setenv("STUDYDASH_LEVELING_COMPLETION_XP", "15")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 15, cfg.Leveling.CompletionXP)
	assert.Equal(t, "json", cfg.Observability.LogFormat)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STUDYDASH_APP_DEFAULT_USER=dotenv-user\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("STUDYDASH_APP_DEFAULT_USER") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv-user", cfg.App.DefaultUser)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	chdir(t)
	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	chdir(t)
	cfg, err := Load("")
	require.NoError(t, err)

	bad := *cfg
	bad.Store.Backend = "sqlite"
	bad.Leveling.CompletionXP = 0
	bad.Notifications.PublishToRedis = true
	err = bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.backend")
	assert.Contains(t, err.Error(), "completion_xp")
	assert.Contains(t, err.Error(), "publish_to_redis")

	pg := *cfg
	pg.Store.Backend = BackendPostgres
	pg.Database.Host = ""
	assert.ErrorContains(t, pg.Validate(), "database.url")
}
