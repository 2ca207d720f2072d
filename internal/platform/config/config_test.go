package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKeyFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jwt.pub")
	require.NoError(t, os.WriteFile(path, []byte("-----BEGIN PUBLIC KEY-----\n"), 0o600))
	return path
}

func TestFromEnv(t *testing.T) {
	keyPath := writeKeyFile(t)

	t.Run("full configuration", func(t *testing.T) {
		t.Setenv("CONTACTS_ADDR", ":9090")
		t.Setenv("VERSION", "v1.2.3")
		t.Setenv("LOCAL_ROUTING_NUM", "123456789")
		t.Setenv("PUB_KEY_PATH", keyPath)
		t.Setenv("ACCOUNTS_DB_URI", "postgres://localhost/accounts")
		t.Setenv("REDIS_URL", "redis://localhost:6379/0")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Addr)
		assert.Equal(t, "v1.2.3", cfg.Version)
		assert.Equal(t, "123456789", cfg.LocalRoutingNum)
		assert.Equal(t, []byte("-----BEGIN PUBLIC KEY-----\n"), cfg.PublicKey)
		assert.Equal(t, "postgres://localhost/accounts", cfg.AccountsDBURI)
		assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	})

	t.Run("defaults addr", func(t *testing.T) {
		t.Setenv("CONTACTS_ADDR", "")
		t.Setenv("LOCAL_ROUTING_NUM", "123456789")
		t.Setenv("PUB_KEY_PATH", keyPath)

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Addr)
	})

	t.Run("requires local routing number", func(t *testing.T) {
		t.Setenv("LOCAL_ROUTING_NUM", "")
		t.Setenv("PUB_KEY_PATH", keyPath)

		_, err := FromEnv()
		assert.ErrorContains(t, err, "LOCAL_ROUTING_NUM")
	})

	t.Run("requires readable public key", func(t *testing.T) {
		t.Setenv("LOCAL_ROUTING_NUM", "123456789")
		t.Setenv("PUB_KEY_PATH", filepath.Join(t.TempDir(), "missing.pub"))

		_, err := FromEnv()
		assert.ErrorContains(t, err, "read public key")
	})
}
