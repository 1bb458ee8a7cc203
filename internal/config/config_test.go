package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithEnvSecret(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("GHOSTLOUNGE_AUTH_JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "ghostlounge.db", cfg.Database.SQLitePath)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Notifier.Interval)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.AMQP.URL)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lounge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
database:
  driver: postgres
  host: db.internal
  name: lounge
auth:
  jwt_secret: from-file
notifier:
  interval: 30s
`), 0o600))

	chdir(t, dir)
	t.Setenv("GHOSTLOUNGE_CONFIG", path)
	t.Setenv("GHOSTLOUNGE_DATABASE_PORT", "6543")
	t.Setenv("GHOSTLOUNGE_SERVER_CORS_ORIGINS", "http://a, http://b")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 30*time.Second, cfg.Notifier.Interval)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.Server.CORSOrigins)
	assert.Contains(t, cfg.Database.PostgresDSN(), "host=db.internal port=6543")
}

func TestValidate(t *testing.T) {
	base := Config{
		Database: DatabaseConfig{Driver: DriverSQLite, SQLitePath: "x.db"},
		Auth:     AuthConfig{JWTSecret: "k"},
		Notifier: NotifierConfig{Interval: time.Minute},
	}
	require.NoError(t, base.Validate())

	bad := base
	bad.Database.Driver = "mysql"
	assert.Error(t, bad.Validate())

	bad = base
	bad.Auth.JWTSecret = " "
	assert.Error(t, bad.Validate())

	bad = base
	bad.Notifier.Interval = 0
	assert.Error(t, bad.Validate())
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
