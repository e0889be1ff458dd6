// Package identity provides the opaque, unforgeable participant identity
// tokens assigned at participant spawn (spec §3). An Identity is handed to
// peers in internal events to address a specific participant and appears
// in outbound frames wherever a master references a client.
package identity

import (
	"github.com/google/uuid"
)

// Identity is an opaque 128-bit participant token. The zero value is not a
// valid identity; always obtain one from New.
type Identity struct {
	id uuid.UUID
}

// New generates a fresh, effectively-unique identity.
func New() Identity {
	return Identity{id: uuid.New()}
}

// Parse converts a wire identity string back into an Identity. Master's
// MessageToClient handler uses this to turn a client_id string into an
// Identity, reporting InvalidClientIdentityToken on failure.
func Parse(s string) (Identity, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return Identity{}, err
	}
	return Identity{id: id}, nil
}

// String renders the identity in its canonical printable form.
func (i Identity) String() string { return i.id.String() }

// IsZero reports whether this is the zero value rather than one obtained
// from New or Parse.
func (i Identity) IsZero() bool { return i.id == uuid.Nil }
