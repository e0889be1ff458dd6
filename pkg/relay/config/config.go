// Package config loads the relay's TOML configuration file (spec §6) and
// adapts it into the collaborator configs the core components expect.
package config

import (
	"time"

	"github.com/BurntSushi/toml"

	"github.com/shadowmint/relay/pkg/relay/auth"
	"github.com/shadowmint/relay/pkg/utils/errorf"
)

const (
	defaultMinKeyLength     = 8
	defaultMaxTokenLifetime = 3600
	defaultMaxMessageBytes  = 1 << 20
	defaultTransactionPoll  = 250
)

// C is the flat configuration shape read from the TOML file.
type C struct {
	Bind                    string            `toml:"bind"`
	MinKeyLength            int               `toml:"min_key_length"`
	MaxTokenLifetimeSeconds int64             `toml:"max_token_lifetime_seconds"`
	TransactionTimeoutMS    int64             `toml:"transaction_timeout_ms"`
	TransactionPollMS       int64             `toml:"transaction_poll_ms"`
	MaxMessageBytes         int64             `toml:"max_message_bytes"`
	Secrets                 map[string]string `toml:"secrets"`
}

// Load parses path as TOML into a C, applying the defaults spec §6 names
// for zero-valued fields.
func Load(path string) (*C, error) {
	var c C
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, errorf.E("loading config %q: %w", path, err)
	}
	c.applyDefaults()
	return &c, nil
}

func (c *C) applyDefaults() {
	if c.MinKeyLength == 0 {
		c.MinKeyLength = defaultMinKeyLength
	}
	if c.MaxTokenLifetimeSeconds == 0 {
		c.MaxTokenLifetimeSeconds = defaultMaxTokenLifetime
	}
	if c.TransactionPollMS == 0 {
		c.TransactionPollMS = defaultTransactionPoll
	}
	if c.MaxMessageBytes == 0 {
		c.MaxMessageBytes = defaultMaxMessageBytes
	}
	if c.Secrets == nil {
		c.Secrets = make(map[string]string)
	}
}

// SecretLookup adapts the parsed [secrets] table into an auth.SecretLookup.
func (c *C) SecretLookup() auth.SecretLookup {
	secrets := c.Secrets
	return func(key string) (string, bool) {
		secret, ok := secrets[key]
		return secret, ok
	}
}

// MaxTokenLifetime is the configured token lifetime as a duration.
func (c *C) MaxTokenLifetime() time.Duration {
	return time.Duration(c.MaxTokenLifetimeSeconds) * time.Second
}

// TransactionTimeout is the configured transaction sweeper timeout. Zero
// means the sweeper is disabled (spec §6).
func (c *C) TransactionTimeout() time.Duration {
	return time.Duration(c.TransactionTimeoutMS) * time.Millisecond
}

// TransactionPoll is the configured sweeper poll interval.
func (c *C) TransactionPoll() time.Duration {
	return time.Duration(c.TransactionPollMS) * time.Millisecond
}
