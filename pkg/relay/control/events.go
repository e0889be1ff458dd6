// Package control defines the events the Connection Supervisor delivers
// to the participant bound to its socket: shutdown and disconnect signals
// that originate from the transport, not from a peer or the participant's
// own socket frames (spec §4.4, "supervisor control" source column).
package control

// Halt terminates a participant's event loop immediately, without notifying
// any peer (spec §4.4.1). Server shutdown does not send it: it closes each
// socket, so the bound participant receives MasterDisconnected or
// ClientDisconnected instead.
type Halt struct{}

// MasterDisconnected tells a master participant its socket is gone. The
// master notifies every joined client and removes its registry entry
// before terminating (spec §4.4.1).
type MasterDisconnected struct {
	Reason string
}

// ClientDisconnected tells a client participant its socket is gone. The
// client notifies its master, if joined, before terminating (spec
// §4.4.2).
type ClientDisconnected struct {
	Reason string
}
