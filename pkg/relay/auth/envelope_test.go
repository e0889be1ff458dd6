package auth

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "correct-horse-battery-staple"

func lookup(key string) (string, bool) {
	if key == "room-1" {
		return testSecret, true
	}
	return "", false
}

func newConfig() Config {
	return Config{MinKeyLength: 4, MaxTokenLifetime: time.Hour, Secrets: lookup}
}

func encodeToken(t *testing.T, tok Token) string {
	t.Helper()
	data, err := json.Marshal(tok)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(data)
}

func validToken(key string, ttl time.Duration, secret string) Token {
	expires := time.Now().Add(ttl).Unix()
	return Token{Expires: expires, Key: key, Hash: computeHash(expires, key, secret)}
}

func TestAuthorizeAcceptsValidToken(t *testing.T) {
	e := New(newConfig())
	tok := validToken("room-1", time.Minute, testSecret)
	raw := encodeToken(t, tok)

	expires, ok := e.Authorize(raw)
	assert.True(t, ok)
	assert.WithinDuration(t, time.Unix(tok.Expires, 0), expires, 0)
}

func TestAuthorizeRejectsMalformedBase64(t *testing.T) {
	e := New(newConfig())
	_, ok := e.Authorize("not-base64!!!")
	assert.False(t, ok)
}

func TestAuthorizeRejectsMalformedJSON(t *testing.T) {
	e := New(newConfig())
	raw := base64.StdEncoding.EncodeToString([]byte("not json"))
	_, ok := e.Authorize(raw)
	assert.False(t, ok)
}

func TestAuthorizeRejectsShortKey(t *testing.T) {
	e := New(newConfig())
	tok := validToken("ab", time.Minute, testSecret)
	raw := encodeToken(t, tok)
	_, ok := e.Authorize(raw)
	assert.False(t, ok)
}

func TestAuthorizeRejectsUnknownKey(t *testing.T) {
	e := New(newConfig())
	tok := validToken("nobody", time.Minute, testSecret)
	raw := encodeToken(t, tok)
	_, ok := e.Authorize(raw)
	assert.False(t, ok)
}

func TestAuthorizeRejectsWrongSecretHash(t *testing.T) {
	e := New(newConfig())
	tok := validToken("room-1", time.Minute, "wrong-secret")
	raw := encodeToken(t, tok)
	_, ok := e.Authorize(raw)
	assert.False(t, ok)
}

func TestAuthorizeRejectsExpiredToken(t *testing.T) {
	e := New(newConfig())
	tok := validToken("room-1", -time.Minute, testSecret)
	raw := encodeToken(t, tok)
	_, ok := e.Authorize(raw)
	assert.False(t, ok)
}

func TestAuthorizeRejectsBeyondMaxLifetime(t *testing.T) {
	e := New(newConfig())
	tok := validToken("room-1", 2*time.Hour, testSecret)
	raw := encodeToken(t, tok)
	_, ok := e.Authorize(raw)
	assert.False(t, ok)
}

func TestDecodeTokenRoundTrips(t *testing.T) {
	tok := validToken("room-1", time.Minute, testSecret)
	raw := encodeToken(t, tok)

	decoded, err := DecodeToken(raw)
	require.NoError(t, err)
	assert.Equal(t, tok, decoded)
}
