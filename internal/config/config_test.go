package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MONGO_URI", "TESTING", "MONGO_DATABASE", "MONGO_CONNECT_TIMEOUT_SEC",
		"RUN_MIGRATIONS", "PORT", "CORS_ALLOWED_ORIGINS", "APP_ENV",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mongodb://mongo:27017", cfg.MongoURI)
	assert.Equal(t, "bank_accounts", cfg.Database)
	assert.False(t, cfg.Testing)
	assert.True(t, cfg.RunMigrations)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_TestingSelectsIsolatedDatabase(t *testing.T) {
	clearEnv(t)
	t.Setenv("TESTING", "1")
	t.Setenv("MONGO_DATABASE", "prod_accounts")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Testing)
	assert.Equal(t, TestDatabase, cfg.Database)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONGO_URI", "mongodb+srv://cluster.example.net")
	t.Setenv("MONGO_DATABASE", "ledger")
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("APP_ENV", "development")
	t.Setenv("RUN_MIGRATIONS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mongodb+srv://cluster.example.net", cfg.MongoURI)
	assert.Equal(t, "ledger", cfg.Database)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.RunMigrations)
}

func TestLoad_CollectsAllErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONGO_URI", "postgres://localhost")
	t.Setenv("PORT", "not-a-number")
	t.Setenv("APP_ENV", "staging")

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)

	msg := err.Error()
	assert.Contains(t, msg, "MONGO_URI")
	assert.Contains(t, msg, "PORT: expected integer")
	assert.Contains(t, msg, "APP_ENV")
}

func TestLoad_PortOutOfRange(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "70000")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT must be between 1 and 65535")
}

func TestLoad_BooleanForms(t *testing.T) {
	for _, v := range []string{"1", "true", "T"} {
		clearEnv(t)
		t.Setenv("TESTING", v)

		cfg, err := Load()
		require.NoError(t, err, "TESTING=%s", v)
		assert.Equal(t, TestDatabase, cfg.Database)
	}

	clearEnv(t)
	t.Setenv("TESTING", "yes")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TESTING")
}
