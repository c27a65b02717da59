package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedEnv = []string{
	"ACCT_APP_NAME",
	"ACCT_APP_ENV",
	"ACCT_APP_PORT",
	"ACCT_DATABASE_HOST",
	"ACCT_DATABASE_PORT",
	"ACCT_DATABASE_PASSWORD",
	"ACCT_DATABASE_SSLMODE",
	"ACCT_DATABASE_MAX_OPEN_CONNS",
	"ACCT_DATABASE_MAX_IDLE_CONNS",
	"ACCT_JWT_SECRET",
	"ACCT_REDIS_ENABLED",
	"ACCT_INTERCOMPANY_LOCK_TTL",
	"ACCT_STORAGE_ENABLED",
	"ACCT_TELEMETRY_SAMPLING_RATIO",
	"ACCT_HTTP_CORS_ALLOW_ORIGINS",
}

// clearEnv unsets every managed variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedEnv {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "accounting-api", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "accounting", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
		assert.Equal(t, "0 2 * * *", cfg.Scheduler.SnapshotSchedule)
		assert.Equal(t, 24*time.Hour, cfg.Intercompany.IdempotencyTTL)
		assert.Equal(t, 30*time.Second, cfg.Intercompany.LockTTL)
		assert.Equal(t, 5*time.Minute, cfg.Report.CacheTTL)
		assert.Contains(t, cfg.HTTP.CORSAllowHeaders, "Idempotency-Key")
		assert.Empty(t, cfg.HTTP.CORSAllowOrigins)
	})

	t.Run("loads values from environment variables with ACCT prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ACCT_APP_NAME", "ledger-test")
		t.Setenv("ACCT_APP_PORT", "9000")
		t.Setenv("ACCT_DATABASE_HOST", "db.local")
		t.Setenv("ACCT_DATABASE_PORT", "5433")
		t.Setenv("ACCT_REDIS_ENABLED", "true")
		t.Setenv("ACCT_INTERCOMPANY_LOCK_TTL", "5s")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "ledger-test", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "db.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, 5*time.Second, cfg.Intercompany.LockTTL)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ACCT_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("ACCT_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ACCT_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("storage requires credentials", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ACCT_STORAGE_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.access_key_id")
	})

	t.Run("rejects sampling ratio above one", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ACCT_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ACCT_APP_ENV", "production")
		t.Setenv("ACCT_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("ACCT_DATABASE_PASSWORD", "secure-password")
		t.Setenv("ACCT_DATABASE_SSLMODE", "require")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
	})

	t.Run("requires a long jwt secret", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("ACCT_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret must be at least 32 characters")
	})

	t.Run("requires database password", func(t *testing.T) {
		setValidProductionBase(t)
		os.Unsetenv("ACCT_DATABASE_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("ACCT_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects wildcard CORS origin", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("ACCT_HTTP_CORS_ALLOW_ORIGINS", "*")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cors_allow_origins")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "u", Password: "p", DBName: "accounting", SSLMode: "disable"}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "/accounting")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "user", Password: "pass@word#123", DBName: "db", SSLMode: "disable"}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}
