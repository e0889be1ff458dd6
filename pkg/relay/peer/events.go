// Package peer defines the internal (non-wire) events exchanged directly
// between a master participant and a client participant's mailboxes (spec
// §4.4: "internal-to-peer-by-identity" dispatches). These are never
// serialized; they carry Go identity values and mailbox references that
// the wire vocabulary in pkg/relay/events deliberately does not expose.
package peer

import (
	"github.com/shadowmint/relay/pkg/relay/events"
	"github.com/shadowmint/relay/pkg/relay/identity"
	"github.com/shadowmint/relay/pkg/relay/mailbox"
)

// JoinRequest is sent by a client participant to the master it is trying
// to join (spec §4.4.1 "ClientJoinRequest"). ReplyTo is the requesting
// client's own mailbox, so the master can answer without a registry
// round-trip.
type JoinRequest struct {
	TransactionID string
	ClientID      identity.Identity
	Name          string
	ReplyTo       *mailbox.Mailbox[any]
}

// JoinResponse is the master's reply to JoinRequest, delivered to the
// joining client's own mailbox (spec §4.4.2 "ClientJoinResponse").
type JoinResponse struct {
	TransactionID string
	Success       bool
	Error         *events.Error
}

// MessageFromClient is sent by a client participant to its master to
// forward data the client's own socket sent it (spec §4.4.1
// "MessageFromClient" peer event).
type MessageFromClient struct {
	TransactionID string
	ClientID      identity.Identity
	Data          string
	ReplyTo       *mailbox.Mailbox[any]
}

// MessageFromClientResponse is the master's reply to MessageFromClient,
// delivered to the sending client's mailbox verbatim (spec §4.4.2).
type MessageFromClientResponse struct {
	TransactionID string
	Success       bool
	Error         *events.Error
}

// MessageFromMaster is an unsolicited push from a master to one of its
// joined clients, originating from the master's own socket's
// MessageToClient frame (spec §4.4.2 "MessageFromMaster"). TransactionID
// is the master's own MessageToClient transaction; it never reaches the
// client's socket (the client's own MessageToClient frame carries no
// transaction id), but travels back to the master via DeliveryConfirmed
// so the master can finally resolve its caller's TransactionResult.
type MessageFromMaster struct {
	TransactionID string
	Data          string
}

// DeliveryConfirmed is sent by a client back to its master once it has
// queued a MessageFromMaster payload on its outbox for its own socket,
// letting the
// master emit the success TransactionResult spec §4.4.1 describes as
// "produced by the client side after delivery".
type DeliveryConfirmed struct {
	TransactionID string
}

// ClientDisconnected is sent by a client participant to its master when
// the client terminates, so the master can drop it from its client set
// (spec §4.4.1 "ClientDisconnected" peer event).
type ClientDisconnected struct {
	ClientID identity.Identity
	Reason   string
}

// MasterDisconnected is sent by a master to every client in its set when
// the master terminates (spec §4.4.2 "MasterDisconnected" peer event).
type MasterDisconnected struct {
	Reason string
}
