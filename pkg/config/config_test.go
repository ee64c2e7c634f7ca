package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_ENCRYPTION_KEY", "test-key")

	cfg, err := Load("v1.2.3")
	require.NoError(t, err)

	assert.Equal(t, "v1.2.3", cfg.Version)
	assert.Equal(t, "127.0.0.1", cfg.BindAddr)
	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "secret", cfg.Vault.Mount)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, 50, cfg.Analysis.SampleLimit)
	assert.Equal(t, 8, cfg.Analysis.MaxConcurrentColumns)
}

func TestLoad_RequiresEncryptionKey(t *testing.T) {
	t.Setenv("CONFIG_ENCRYPTION_KEY", "")

	_, err := Load("dev")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONFIG_ENCRYPTION_KEY")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_ENCRYPTION_KEY", "test-key")
	t.Setenv("PGHOST", "db.internal")
	t.Setenv("PGPASSWORD", "pw")
	t.Setenv("AI_PROVIDER", "anthropic")

	cfg, err := Load("dev")
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "pw", cfg.Database.Password)
	assert.Equal(t, "anthropic", cfg.AI.Provider)
}

func TestLoad_SampleLimitClamped(t *testing.T) {
	t.Setenv("CONFIG_ENCRYPTION_KEY", "test-key")

	t.Setenv("ANALYSIS_SAMPLE_LIMIT", "3")
	cfg, err := Load("dev")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Analysis.SampleLimit)

	t.Setenv("ANALYSIS_SAMPLE_LIMIT", "500")
	cfg, err = Load("dev")
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Analysis.SampleLimit)
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5433,
		User:     "app",
		Password: "pw",
		Database: "meta",
		SSLMode:  "disable",
	}
	assert.Equal(t,
		"host=localhost port=5433 user=app password=pw dbname=meta sslmode=disable",
		cfg.ConnectionString())
}
