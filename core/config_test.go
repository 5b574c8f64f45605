package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("ENV", "")
		t.Setenv("PORT", "")

		conf := NewConfig()
		assert.Equal(t, "DEV", conf.Env)
		assert.True(t, conf.Debug)
		assert.False(t, conf.TestMode)
		assert.Equal(t, "Ratiba", conf.AppName)
		assert.Equal(t, 24*time.Hour, conf.JWTExpirationDelta)
		assert.Equal(t, ":8080", conf.Server.Address)
		assert.Equal(t, 5*time.Second, conf.Server.ShutdownTimeout)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("ENV", "test")
		t.Setenv("PORT", "9000")
		t.Setenv("TEST_SECRETKEY", "s3cret")
		t.Setenv("TEST_DATABASEURL", "memory://")
		t.Setenv("TEST_JWTEXPIRATIONDELTA", "1h")

		conf := NewConfig()
		assert.Equal(t, "TEST", conf.Env)
		assert.True(t, conf.TestMode)
		assert.Equal(t, "s3cret", conf.SecretKey)
		assert.Equal(t, "memory://", conf.DatabaseURL)
		assert.Equal(t, time.Hour, conf.JWTExpirationDelta)
		assert.Equal(t, ":9000", conf.Server.Address)
	})
}
