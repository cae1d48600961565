package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "configs")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0644))
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: test
jwt:
  secret: short
storage:
  type: minio
xp:
  perfect_score: 120
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 50, cfg.XP.QuizCompletion)
	assert.Equal(t, 120, cfg.XP.PerfectScore)
	assert.Equal(t, 30, cfg.XP.Attendance)
	assert.Equal(t, 20, cfg.XP.DefaultRewards["medium"])
	assert.Equal(t, 72, cfg.JWT.ExpireHours)
	assert.Equal(t, "leaderboard:total_xp", cfg.Leaderboard.Key)
	assert.Equal(t, 10*60, int(cfg.Cache.QuizTTL().Seconds()))
	assert.Equal(t, filepath.Join(dir, "config.yaml"), cfg.ConfigFile)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: test
storage:
  type: minio
`)
	t.Setenv("ENGLISH_CLUB_XP_ATTENDANCE", "45")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_DRIVER", "postgres")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 45, cfg.XP.Attendance)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "postgres", cfg.Database.Driver)
}

func TestLoadConfigRejectsWeakSecretInRelease(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
jwt:
  secret: too-short
storage:
  type: minio
`)

	_, err := LoadConfig(dir)
	assert.ErrorContains(t, err, "JWT secret is too short")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	assert.Error(t, err)
}
