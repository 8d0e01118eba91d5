package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kd-resto/logger"
)

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("ORDER_RETENTION", "48h")
	t.Setenv("LOYALTY_WELCOME_BONUS", "50")

	cfg, err := Load(logger.Discard())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Realtime.KafkaBrokers)
	assert.Equal(t, 48*time.Hour, cfg.Jobs.OrderRetention)
	assert.Equal(t, 50, cfg.Loyalty.WelcomeBonus)
	assert.Equal(t, "mysql", cfg.DB.Driver)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "7070"
database:
  driver: postgres
  name: resto
auth:
  jwt_secret: from-yaml
loyalty:
  points_per_unit: 20
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DB_NAME", "resto_env")

	cfg, err := Load(logger.Discard())
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "resto_env", cfg.DB.Name)
	assert.Equal(t, "from-yaml", cfg.Auth.JWTSecret)
	assert.Equal(t, 20.0, cfg.Loyalty.PointsPerUnit)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load(logger.Discard())
	assert.Error(t, err)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("CLEANUP_INTERVAL", "soon")
	_, err := Load(logger.Discard())
	assert.Error(t, err)
}

func TestLoadRejectsZeroInterval(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("LOW_STOCK_INTERVAL", "0s")
	_, err := Load(logger.Discard())
	assert.Error(t, err)
}
