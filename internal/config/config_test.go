package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func baseEnv() map[string]string {
	return map[string]string{
		"APP_NAME":           "funnel",
		"APP_ENV":            "test",
		"HTTP_PORT":          "8080",
		"DB_HOST":            "localhost",
		"DB_NAME":            "funnel",
		"DB_USER":            "funnel",
		"JWT_ACCESS_SECRET":  "a",
		"JWT_REFRESH_SECRET": "r",
		"ANTHROPIC_API_KEY":  "sk-test",
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(envOf(baseEnv()))
	require.NoError(t, err)

	assert.Equal(t, "5432", cfg.Database.DBPort)
	assert.Equal(t, "disable", cfg.Database.DBSSLMode)
	assert.Equal(t, OracleProviderAnthropic, cfg.Oracle.Provider)
	assert.Equal(t, 30*time.Second, cfg.Oracle.Timeout)
	assert.Equal(t, "funnel.crm.pitch_matched", cfg.NATS.Subject)
	assert.Empty(t, cfg.App.MigrationsDir)
	assert.Equal(t, 20<<20, cfg.Deck.MaxBytes)
}

func TestFromLookup_MissingRequired(t *testing.T) {
	env := baseEnv()
	delete(env, "APP_NAME")
	delete(env, "JWT_ACCESS_SECRET")

	_, err := FromLookup(envOf(env))
	require.ErrorIs(t, err, errMissingRequiredEnv)
	assert.Contains(t, err.Error(), "APP_NAME")
	assert.Contains(t, err.Error(), "JWT_ACCESS_SECRET")
}

func TestFromLookup_GeminiNeedsKey(t *testing.T) {
	env := baseEnv()
	env["ORACLE_PROVIDER"] = "gemini"

	_, err := FromLookup(envOf(env))
	require.ErrorIs(t, err, errMissingRequiredEnv)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestFromLookup_InvalidValues(t *testing.T) {
	env := baseEnv()
	env["ORACLE_TIMEOUT"] = "soon"
	env["ORACLE_PROVIDER"] = "oracle-of-delphi"

	_, err := FromLookup(envOf(env))
	require.ErrorIs(t, err, errInvalidEnv)
	assert.Contains(t, err.Error(), "ORACLE_TIMEOUT")
	assert.Contains(t, err.Error(), "ORACLE_PROVIDER")
}

func TestOperatorFromLookup_NeedsOnlyDatabase(t *testing.T) {
	cfg, err := OperatorFromLookup(envOf(map[string]string{
		"DB_HOST": "db",
		"DB_NAME": "funnel",
		"DB_USER": "ops",
	}))
	require.NoError(t, err)
	assert.Equal(t, "db", cfg.Database.DBHost)
	assert.Equal(t, "funnel", cfg.App.AppName)
	assert.Empty(t, cfg.App.MigrationsDir)

	_, err = OperatorFromLookup(envOf(map[string]string{"DB_HOST": "db"}))
	require.ErrorIs(t, err, errMissingRequiredEnv)
	assert.Contains(t, err.Error(), "DB_NAME")
}
