package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"ERP_APP_NAME",
	"ERP_APP_ENV",
	"ERP_APP_PORT",
	"ERP_DATABASE_DRIVER",
	"ERP_DATABASE_HOST",
	"ERP_DATABASE_PORT",
	"ERP_DATABASE_USER",
	"ERP_DATABASE_PASSWORD",
	"ERP_DATABASE_DBNAME",
	"ERP_DATABASE_SSLMODE",
	"ERP_DATABASE_MAX_OPEN_CONNS",
	"ERP_DATABASE_MAX_IDLE_CONNS",
	"ERP_EVENT_SINK",
	"ERP_LEDGER_DEFAULT_CURRENCY",
	"ERP_LEDGER_OVERRIDE_ACTORS",
	"ERP_LEDGER_IDEMPOTENCY_BACKEND",
	"ERP_LEDGER_IDEMPOTENCY_TTL",
	"ERP_LEDGER_SEQUENCE_RESET_POLICY",
	"ERP_TELEMETRY_DB_LOG_FULL_SQL",
	"ERP_STORAGE_ENABLED",
	"ERP_STORAGE_BUCKET",
	"ERP_STORAGE_ACCESS_KEY",
	"ERP_STORAGE_SECRET_KEY",
}

// isolateEnv clears the config env vars for one test and restores them afterwards
func isolateEnv(t *testing.T) {
	t.Helper()
	saved := make(map[string]string, len(configEnvKeys))
	for _, k := range configEnvKeys {
		saved[k] = os.Getenv(k)
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for k, v := range saved {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		isolateEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "erp-ledger", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "ledger", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "log", cfg.Event.Sink)
		assert.Equal(t, "USD", cfg.Ledger.DefaultCurrency)
		assert.Equal(t, "memory", cfg.Ledger.IdempotencyBackend)
		assert.Equal(t, 24*time.Hour, cfg.Ledger.IdempotencyTTL)
		assert.Equal(t, "NEVER", cfg.Ledger.SequenceResetPolicy)
	})

	t.Run("loads values from environment variables with ERP prefix", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("ERP_APP_NAME", "test-app")
		os.Setenv("ERP_DATABASE_HOST", "testdb.local")
		os.Setenv("ERP_DATABASE_PORT", "5433")
		os.Setenv("ERP_DATABASE_MAX_OPEN_CONNS", "50")
		os.Setenv("ERP_DATABASE_MAX_IDLE_CONNS", "10")
		os.Setenv("ERP_LEDGER_DEFAULT_CURRENCY", "EUR")
		os.Setenv("ERP_LEDGER_IDEMPOTENCY_TTL", "1h")
		os.Setenv("ERP_LEDGER_SEQUENCE_RESET_POLICY", "YEARLY")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, "EUR", cfg.Ledger.DefaultCurrency)
		assert.Equal(t, time.Hour, cfg.Ledger.IdempotencyTTL)
		assert.Equal(t, "YEARLY", cfg.Ledger.SequenceResetPolicy)
	})

	t.Run("parses override actors", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("ERP_LEDGER_OVERRIDE_ACTORS", "11111111-1111-1111-1111-111111111111 22222222-2222-2222-2222-222222222222")

		cfg, err := Load()
		require.NoError(t, err)

		ids, err := cfg.Ledger.OverrideActorIDs()
		require.NoError(t, err)
		require.Len(t, ids, 2)
		assert.Equal(t, "11111111-1111-1111-1111-111111111111", ids[0].String())
	})

	t.Run("rejects malformed override actor", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("ERP_LEDGER_OVERRIDE_ACTORS", "not-a-uuid")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ledger.override_actors")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("ERP_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("ERP_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("ERP_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	tests := []struct {
		name    string
		key     string
		value   string
		message string
	}{
		{"unknown driver", "ERP_DATABASE_DRIVER", "mysql", "database.driver"},
		{"unknown event sink", "ERP_EVENT_SINK", "kafka", "event.sink"},
		{"unknown idempotency backend", "ERP_LEDGER_IDEMPOTENCY_BACKEND", "memcached", "ledger.idempotency_backend"},
		{"unknown reset policy", "ERP_LEDGER_SEQUENCE_RESET_POLICY", "WEEKLY", "ledger.sequence_reset_policy"},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			isolateEnv(t)
			os.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func() {
		os.Setenv("ERP_APP_ENV", "production")
		os.Setenv("ERP_DATABASE_PASSWORD", "secure-password")
		os.Setenv("ERP_DATABASE_SSLMODE", "require")
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("ERP_APP_ENV", "production")
		os.Setenv("ERP_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		isolateEnv(t)
		setValidProductionBase()
		os.Setenv("ERP_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects sqlite in production", func(t *testing.T) {
		isolateEnv(t)
		setValidProductionBase()
		os.Setenv("ERP_DATABASE_DRIVER", "sqlite")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sqlite in production")
	})

	t.Run("rejects full SQL logging in production", func(t *testing.T) {
		isolateEnv(t)
		setValidProductionBase()
		os.Setenv("ERP_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_log_full_sql")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		isolateEnv(t)
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestLoad_Storage(t *testing.T) {
	t.Run("disabled by default", func(t *testing.T) {
		isolateEnv(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.Storage.Enabled)
		assert.Equal(t, "ledger-archives", cfg.Storage.Bucket)
		assert.Equal(t, "us-east-1", cfg.Storage.Region)
	})

	t.Run("requires credentials when enabled", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("ERP_STORAGE_ENABLED", "true")
		os.Setenv("ERP_STORAGE_ACCESS_KEY", "minio")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.secret_key")
	})

	t.Run("reads bucket from env", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("ERP_STORAGE_ENABLED", "true")
		os.Setenv("ERP_STORAGE_BUCKET", "close-archive")
		os.Setenv("ERP_STORAGE_ACCESS_KEY", "minio")
		os.Setenv("ERP_STORAGE_SECRET_KEY", "minio123")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "close-archive", cfg.Storage.Bucket)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: 6380}.Addr())
}
