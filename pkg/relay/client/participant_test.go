package client

import (
	"testing"

	"github.com/shadowmint/relay/pkg/relay/analytics"
	"github.com/shadowmint/relay/pkg/relay/control"
	"github.com/shadowmint/relay/pkg/relay/events"
	"github.com/shadowmint/relay/pkg/relay/identity"
	"github.com/shadowmint/relay/pkg/relay/mailbox"
	"github.com/shadowmint/relay/pkg/relay/peer"
	"github.com/shadowmint/relay/pkg/relay/registry"
	"github.com/shadowmint/relay/pkg/relay/txn"
	"github.com/shadowmint/relay/pkg/utils/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParticipant() (*Participant, *registry.Registry, analytics.Analytics) {
	reg := registry.New()
	an := analytics.New()
	return New(identity.New(), reg, an, txn.New()), reg, an
}

func recvOutbox[T any](t *testing.T, box *mailbox.Mailbox[any]) T {
	t.Helper()
	v, ok := box.Recv(context.Bg())
	require.True(t, ok)
	typed, ok := v.(T)
	require.True(t, ok, "expected %T, got %T", *new(T), v)
	return typed
}

// awaitTxnReply drains the txnResult that awaitResult posts back into p's
// own inbox once txn.Manager resolves, and feeds it through handle,
// mirroring what Run's loop does. Needed because onJoin/onMessageFromClient
// now defer on the transaction manager instead of replying synchronously.
func awaitTxnReply(t *testing.T, p *Participant) {
	t.Helper()
	v, ok := p.Inbox().Recv(context.Bg())
	require.True(t, ok)
	tr, ok := v.(txnResult)
	require.True(t, ok, "expected txnResult, got %T", v)
	p.handle(tr)
}

func initialize(t *testing.T, p *Participant, name string) {
	t.Helper()
	p.handle(events.NewInitializeClient("tid-init", events.ClientMetadata{Name: name}))
	recvOutbox[*events.ClientTransactionResult](t, p.Outbox())
}

func TestInitializeClientSuccess(t *testing.T) {
	p, reg, _ := newTestParticipant()
	p.handle(events.NewInitializeClient("tid-1", events.ClientMetadata{Name: "alice"}))

	tr := recvOutbox[*events.ClientTransactionResult](t, p.Outbox())
	assert.True(t, tr.Success)

	found, ok := reg.FindClient(p.ID())
	assert.True(t, ok)
	assert.Same(t, p.Inbox(), found)
}

func TestJoinUnknownSession(t *testing.T) {
	p, _, _ := newTestParticipant()
	initialize(t, p, "alice")

	p.handle(events.NewJoin("tid-join", "nonexistent"))
	tr := recvOutbox[*events.ClientTransactionResult](t, p.Outbox())
	assert.False(t, tr.Success)
	assert.Equal(t, events.NoMatchingMasterID, tr.Error.Code)
}

func TestJoinSendsRequestToMaster(t *testing.T) {
	p, reg, _ := newTestParticipant()
	initialize(t, p, "alice")

	masterBox := mailbox.New[any]()
	reg.RegisterMaster("room-1", identity.New(), masterBox)

	p.handle(events.NewJoin("tid-join", "room-1"))
	req := recvOutbox[peer.JoinRequest](t, masterBox)
	assert.Equal(t, "tid-join", req.TransactionID)
	assert.Equal(t, "alice", req.Name)
	assert.Same(t, p.Inbox(), req.ReplyTo)
}

func TestJoinResponseSuccessMarksConnected(t *testing.T) {
	p, reg, _ := newTestParticipant()
	initialize(t, p, "alice")

	masterBox := mailbox.New[any]()
	reg.RegisterMaster("room-1", identity.New(), masterBox)
	p.handle(events.NewJoin("tid-join", "room-1"))
	recvOutbox[peer.JoinRequest](t, masterBox)

	p.handle(peer.JoinResponse{TransactionID: "tid-join", Success: true})
	assert.True(t, p.connected)

	awaitTxnReply(t, p)
	tr := recvOutbox[*events.ClientTransactionResult](t, p.Outbox())
	assert.True(t, tr.Success)
}

func TestMessageFromClientNotConnected(t *testing.T) {
	p, _, _ := newTestParticipant()
	initialize(t, p, "alice")

	p.handle(events.NewClientMessageFromClient("tid-1", "hello"))
	tr := recvOutbox[*events.ClientTransactionResult](t, p.Outbox())
	assert.False(t, tr.Success)
	assert.Equal(t, events.ClientNotConnected, tr.Error.Code)
}

func TestMessageFromClientForwardsWhenConnected(t *testing.T) {
	p, reg, _ := newTestParticipant()
	initialize(t, p, "alice")

	masterBox := mailbox.New[any]()
	reg.RegisterMaster("room-1", identity.New(), masterBox)
	p.handle(events.NewJoin("tid-join", "room-1"))
	recvOutbox[peer.JoinRequest](t, masterBox)
	p.handle(peer.JoinResponse{TransactionID: "tid-join", Success: true})
	awaitTxnReply(t, p)
	recvOutbox[*events.ClientTransactionResult](t, p.Outbox())

	p.handle(events.NewClientMessageFromClient("tid-2", "payload"))
	fwd := recvOutbox[peer.MessageFromClient](t, masterBox)
	assert.Equal(t, "payload", fwd.Data)
	assert.Equal(t, p.ID(), fwd.ClientID)
}

func TestMessageFromMasterPushesToSocketAndConfirms(t *testing.T) {
	p, _, _ := newTestParticipant()
	initialize(t, p, "alice")
	masterBox := mailbox.New[any]()
	p.masterInbox = masterBox

	p.handle(peer.MessageFromMaster{TransactionID: "tid-push", Data: "hi"})
	push := recvOutbox[*events.ClientMessageToClient](t, p.Outbox())
	assert.Equal(t, "hi", push.Data)

	confirm := recvOutbox[peer.DeliveryConfirmed](t, masterBox)
	assert.Equal(t, "tid-push", confirm.TransactionID)
}

func TestPeerMasterDisconnectedTerminates(t *testing.T) {
	p, reg, _ := newTestParticipant()
	initialize(t, p, "alice")
	reg.RegisterClient(p.ID(), p.Inbox())

	terminate := p.handle(peer.MasterDisconnected{Reason: "gone"})
	assert.True(t, terminate)

	notice := recvOutbox[*events.ClientMasterDisconnected](t, p.Outbox())
	assert.Equal(t, "gone", notice.Reason)

	_, ok := reg.FindClient(p.ID())
	assert.False(t, ok)
}

func TestControlDisconnectedNotifiesMasterAndTerminates(t *testing.T) {
	p, reg, _ := newTestParticipant()
	initialize(t, p, "alice")
	masterBox := mailbox.New[any]()
	p.masterInbox = masterBox
	p.connected = true

	terminate := p.handle(control.ClientDisconnected{Reason: "read error"})
	assert.True(t, terminate)

	notice := recvOutbox[peer.ClientDisconnected](t, masterBox)
	assert.Equal(t, "read error", notice.Reason)

	_, ok := reg.FindClient(p.ID())
	assert.False(t, ok)
}

func TestHaltTerminates(t *testing.T) {
	p, _, _ := newTestParticipant()
	assert.True(t, p.handle(control.Halt{}))
}
