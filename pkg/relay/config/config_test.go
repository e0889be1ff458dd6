package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "relay.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `bind = "0.0.0.0:8900"`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8900", c.Bind)
	assert.Equal(t, defaultMinKeyLength, c.MinKeyLength)
	assert.Equal(t, int64(defaultMaxTokenLifetime), c.MaxTokenLifetimeSeconds)
	assert.Equal(t, time.Duration(0), c.TransactionTimeout())
	assert.Equal(t, 250*time.Millisecond, c.TransactionPoll())
}

func TestLoadHonoursExplicitValues(t *testing.T) {
	path := writeConfig(t, `
bind = "127.0.0.1:9000"
min_key_length = 16
max_token_lifetime_seconds = 60
transaction_timeout_ms = 5000
transaction_poll_ms = 500
max_message_bytes = 2048

[secrets]
room = "topsecret"
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16, c.MinKeyLength)
	assert.Equal(t, 60*time.Second, c.MaxTokenLifetime())
	assert.Equal(t, 5*time.Second, c.TransactionTimeout())
	assert.Equal(t, int64(2048), c.MaxMessageBytes)

	lookup := c.SecretLookup()
	secret, ok := lookup("room")
	assert.True(t, ok)
	assert.Equal(t, "topsecret", secret)

	_, ok = lookup("missing")
	assert.False(t, ok)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
