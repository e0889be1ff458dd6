// Package atomic re-exports go.uber.org/atomic's scalar types under the
// relay's naming, and adds a Bytes type for the one shape uber/atomic
// doesn't provide: a copy-on-read/copy-on-write atomic byte slice, used by
// the Connection Supervisor for each connection's remote-address cache.
package atomic

import (
	"sync"

	uatomic "go.uber.org/atomic"
)

// String is a goroutine-safe string value.
type String = uatomic.String

// Bool is a goroutine-safe bool value.
type Bool = uatomic.Bool

// Bytes is a goroutine-safe []byte value. Load and Store both copy, so
// callers can never observe or cause a data race by mutating a slice they
// received from or handed to a Bytes.
type Bytes struct {
	mu sync.RWMutex
	b  []byte
}

// NewBytes creates a Bytes initialized to a copy of v.
func NewBytes(v []byte) *Bytes {
	bb := &Bytes{}
	bb.Store(v)
	return bb
}

// Load returns a copy of the current value.
func (b *Bytes) Load() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]byte, len(b.b))
	copy(out, b.b)
	return out
}

// Store replaces the current value with a copy of v.
func (b *Bytes) Store(v []byte) {
	cp := make([]byte, len(v))
	copy(cp, v)
	b.mu.Lock()
	b.b = cp
	b.mu.Unlock()
}
