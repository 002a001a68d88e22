package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "secret")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("BCRYPT_COST", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "secret", cfg.JWTSecret)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, bcrypt.DefaultCost, cfg.BcryptCost)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.False(t, cfg.AllowAdminSignup)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SECRET_KEY", "secret")
	t.Setenv("JWT_SECRET", "jwt")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("ALLOW_ADMIN_SIGNUP", "true")
	t.Setenv("QUOTE_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "jwt", cfg.JWTSecret)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.True(t, cfg.AllowAdminSignup)
	assert.Equal(t, 10*time.Second, cfg.Quote.Timeout)
}

func TestValidate(t *testing.T) {
	valid := Config{SecretKey: "secret", BcryptCost: bcrypt.MinCost, Database: DatabaseConfig{Driver: "mysql"}}
	assert.NoError(t, valid.Validate())

	missingKey := valid
	missingKey.SecretKey = ""
	assert.ErrorIs(t, missingKey.Validate(), ErrMissingSecretKey)

	badDriver := valid
	badDriver.Database.Driver = "oracle"
	assert.EqualError(t, badDriver.Validate(), `unsupported DB_DRIVER "oracle"`)

	badCost := valid
	badCost.BcryptCost = 100
	assert.Error(t, badCost.Validate())
}

func TestSetupLogging(t *testing.T) {
	cfg := Config{LogLevel: "debug", LogFormat: "json"}
	assert.NoError(t, cfg.SetupLogging())

	cfg.LogLevel = "loud"
	assert.Error(t, cfg.SetupLogging())
}
