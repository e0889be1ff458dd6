// Package auth implements the Auth Envelope (spec §4.1): a symmetric-secret,
// time-bounded handshake gating every connection before any participant is
// spawned.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"

	"github.com/shadowmint/relay/pkg/utils/errorf"
)

// Token is the decoded shape of the handshake payload carried in the
// connection-initiation URL (spec §4.1, §6).
type Token struct {
	Expires int64  `json:"expires"`
	Key     string `json:"key"`
	Hash    string `json:"hash"`
}

// SecretLookup resolves a key to its shared secret. A miss is reported by
// returning ok=false; it is not distinguished from any other failure mode
// by Authorize (spec §4.1, "all collapse to a single external AuthFailed").
type SecretLookup func(key string) (secret string, ok bool)

// Config bounds what Authorize will accept.
type Config struct {
	MinKeyLength     int
	MaxTokenLifetime time.Duration
	Secrets          SecretLookup
}

// Envelope validates handshake tokens against a Config.
type Envelope struct {
	cfg Config
}

// New builds an Envelope from cfg.
func New(cfg Config) *Envelope {
	return &Envelope{cfg: cfg}
}

// DecodeToken reverses the wire encoding: base64 of a JSON Token, as
// carried in the connection-initiation URL's token query parameter.
func DecodeToken(raw string) (Token, error) {
	var tok Token
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return Token{}, errorf.E("auth token is not valid base64: %w", err)
	}
	if err := json.Unmarshal(data, &tok); err != nil {
		return Token{}, errorf.E("auth token is not valid json: %w", err)
	}
	return tok, nil
}

// Authorize validates raw (the base64 token as presented on the wire) and
// returns the granted expiry on success. Every failure mode - parse error,
// unknown key, hash mismatch, expired, not-yet-valid, out-of-window -
// collapses to ok=false so a prober cannot distinguish why a token was
// rejected (spec §4.1 "Failure modes").
func (e *Envelope) Authorize(raw string) (expires time.Time, ok bool) {
	tok, err := DecodeToken(raw)
	if err != nil {
		return time.Time{}, false
	}
	return e.authorizeToken(tok)
}

func (e *Envelope) authorizeToken(tok Token) (time.Time, bool) {
	if len(tok.Key) < e.cfg.MinKeyLength {
		return time.Time{}, false
	}
	secret, ok := e.cfg.Secrets(tok.Key)
	if !ok {
		return time.Time{}, false
	}

	expires := time.Unix(tok.Expires, 0)
	now := time.Now()
	if expires.Before(now) {
		return time.Time{}, false
	}
	if e.cfg.MaxTokenLifetime > 0 && expires.After(now.Add(e.cfg.MaxTokenLifetime)) {
		return time.Time{}, false
	}

	if !hashMatches(tok, secret) {
		return time.Time{}, false
	}
	return expires, true
}

func hashMatches(tok Token, secret string) bool {
	want := computeHash(tok.Expires, tok.Key, secret)
	return subtle.ConstantTimeCompare([]byte(want), []byte(tok.Hash)) == 1
}

// computeHash is also used by test fixtures to build valid tokens.
func computeHash(expires int64, key, secret string) string {
	input := strconv.FormatInt(expires, 10) + ":" + key + ":" + secret
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
