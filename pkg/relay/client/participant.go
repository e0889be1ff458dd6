// Package client implements the Client participant state machine (spec
// §4.4.2): single-threaded, mailbox-driven, run-to-completion per event.
package client

import (
	"github.com/shadowmint/relay/pkg/relay/analytics"
	"github.com/shadowmint/relay/pkg/relay/control"
	"github.com/shadowmint/relay/pkg/relay/events"
	"github.com/shadowmint/relay/pkg/relay/identity"
	"github.com/shadowmint/relay/pkg/relay/mailbox"
	"github.com/shadowmint/relay/pkg/relay/peer"
	"github.com/shadowmint/relay/pkg/relay/registry"
	"github.com/shadowmint/relay/pkg/relay/txn"
	"github.com/shadowmint/relay/pkg/utils/context"
	"github.com/shadowmint/relay/pkg/utils/log"
)

// Participant is one spawned client. It owns no socket; the Connection
// Supervisor drains Outbox and writes it to the socket, and feeds decoded
// socket frames into Inbox.
type Participant struct {
	id        identity.Identity
	registry  *registry.Registry
	analytics analytics.Analytics
	txn       *txn.Manager

	inbox  *mailbox.Mailbox[any]
	outbox *mailbox.Mailbox[any]

	active      bool
	connected   bool
	name        string
	masterInbox *mailbox.Mailbox[any]
}

// txnResult carries the outcome of a deferred Join or MessageFromClient
// request back into the client's own event loop, once txn.Manager resolves
// it (by the master's reply, by sweeper timeout, or by shutdown).
type txnResult struct {
	tid    string
	result txn.Result
}

// New creates an unstarted client bound to id.
func New(id identity.Identity, reg *registry.Registry, an analytics.Analytics, tm *txn.Manager) *Participant {
	return &Participant{
		id:        id,
		registry:  reg,
		analytics: an,
		txn:       tm,
		inbox:     mailbox.New[any](),
		outbox:    mailbox.New[any](),
	}
}

// awaitResult blocks on the transaction manager's waiter and hands the
// eventual result back to the client's own event loop as txnResult, so the
// outbox reply is only ever sent from the single-threaded handle loop.
func (p *Participant) awaitResult(tid string, waiter <-chan txn.Result) {
	p.inbox.Send(txnResult{tid: tid, result: <-waiter})
}

// ID is the identity this participant was spawned with.
func (p *Participant) ID() identity.Identity { return p.id }

// Inbox is where the Connection Supervisor delivers decoded socket
// frames and where a peer master delivers peer events.
func (p *Participant) Inbox() *mailbox.Mailbox[any] { return p.inbox }

// Outbox is drained by the Connection Supervisor and serialized to the
// client's own socket.
func (p *Participant) Outbox() *mailbox.Mailbox[any] { return p.outbox }

// Run processes events from Inbox one at a time until the loop
// terminates or Inbox is closed.
func (p *Participant) Run(ctx context.T) {
	defer p.outbox.Close()
	for {
		v, ok := p.inbox.Recv(ctx)
		if !ok {
			return
		}
		if p.handle(v) {
			return
		}
	}
}

func (p *Participant) handle(v any) (terminate bool) {
	switch e := v.(type) {
	case *events.InitializeClient:
		p.onInitializeClient(e)
	case *events.Join:
		p.onJoin(e)
	case *events.ClientMessageFromClient:
		p.onMessageFromClient(e)
	case peer.JoinResponse:
		p.onJoinResponse(e)
	case peer.MessageFromClientResponse:
		p.onMessageFromClientResponse(e)
	case peer.MessageFromMaster:
		p.onMessageFromMaster(e)
	case txnResult:
		p.reply(e.tid, e.result.Success, e.result.Code)
	case peer.MasterDisconnected:
		p.onPeerMasterDisconnected(e)
		return true
	case control.ClientDisconnected:
		p.onControlDisconnected(e)
		return true
	case control.Halt:
		return true
	default:
		log.W.F("client %s: unrecognised event %T", p.id, v)
	}
	return false
}

func (p *Participant) onInitializeClient(e *events.InitializeClient) {
	p.name = e.Metadata.Name
	p.active = true
	p.registry.RegisterClient(p.id, p.inbox)
	p.reply(e.TransactionID, true, 0)
}

func (p *Participant) onJoin(e *events.Join) {
	_, masterInbox, ok := p.registry.FindMaster(e.SessionID)
	if !ok {
		p.reply(e.TransactionID, false, events.NoMatchingMasterID)
		return
	}
	waiter, err := p.txn.Defer(e.TransactionID)
	if err != nil {
		p.reply(e.TransactionID, false, events.InvalidRequest)
		return
	}
	p.masterInbox = masterInbox
	go p.awaitResult(e.TransactionID, waiter)
	masterInbox.Send(peer.JoinRequest{
		TransactionID: e.TransactionID,
		ClientID:      p.id,
		Name:          p.name,
		ReplyTo:       p.inbox,
	})
}

func (p *Participant) onMessageFromClient(e *events.ClientMessageFromClient) {
	if !p.connected {
		p.reply(e.TransactionID, false, events.ClientNotConnected)
		return
	}
	waiter, err := p.txn.Defer(e.TransactionID)
	if err != nil {
		p.reply(e.TransactionID, false, events.InvalidRequest)
		return
	}
	go p.awaitResult(e.TransactionID, waiter)
	p.masterInbox.Send(peer.MessageFromClient{
		TransactionID: e.TransactionID,
		ClientID:      p.id,
		Data:          e.Data,
		ReplyTo:       p.inbox,
	})
}

func (p *Participant) onJoinResponse(e peer.JoinResponse) {
	if e.Success {
		p.connected = true
		p.txn.Resolve(e.TransactionID, txn.Ok())
		return
	}
	p.txn.Resolve(e.TransactionID, txn.Result{Success: false, Code: e.Error.Code, Reason: e.Error.Reason})
}

func (p *Participant) onMessageFromClientResponse(e peer.MessageFromClientResponse) {
	if e.Success {
		p.txn.Resolve(e.TransactionID, txn.Ok())
		return
	}
	p.txn.Resolve(e.TransactionID, txn.Result{Success: false, Code: e.Error.Code, Reason: e.Error.Reason})
}

func (p *Participant) onMessageFromMaster(e peer.MessageFromMaster) {
	p.outbox.Send(events.NewClientMessageToClient(e.Data))
	if p.masterInbox != nil {
		p.masterInbox.Send(peer.DeliveryConfirmed{TransactionID: e.TransactionID})
	}
}

func (p *Participant) onPeerMasterDisconnected(e peer.MasterDisconnected) {
	p.outbox.Send(events.NewClientMasterDisconnected(e.Reason))
	p.connected = false
	p.registry.RemoveClient(p.id)
}

func (p *Participant) onControlDisconnected(e control.ClientDisconnected) {
	if p.connected && p.masterInbox != nil {
		p.masterInbox.Send(peer.ClientDisconnected{ClientID: p.id, Reason: e.Reason})
	}
	p.registry.RemoveClient(p.id)
}

func (p *Participant) reply(tid string, success bool, code events.ErrorCode) {
	var e *events.Error
	if !success {
		e = events.NewError(code)
	}
	p.outbox.Send(events.NewClientTransactionResult(tid, success, e))
}
