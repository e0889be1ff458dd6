// Package master implements the Master participant state machine (spec
// §4.4.1): single-threaded, mailbox-driven, run-to-completion per event.
package master

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

type clientEntry struct {
	name  string
	inbox *mailbox.Mailbox[any]
}

// Participant is one spawned master. It owns no socket; the Connection
// Supervisor drains Outbox and writes it to the socket, and feeds decoded
// socket frames into Inbox.
type Participant struct {
	id        identity.Identity
	registry  *registry.Registry
	analytics analytics.Analytics
	txn       *txn.Manager

	inbox  *mailbox.Mailbox[any]
	outbox *mailbox.Mailbox[any]

	active     bool
	name       string
	maxClients uint32
	clients    map[identity.Identity]clientEntry
}

// deliveryResult carries the outcome of a deferred MessageToClient delivery
// back into the master's own event loop, once txn.Manager resolves it (by
// DeliveryConfirmed, by sweeper timeout, or by shutdown).
type deliveryResult struct {
	tid    string
	result txn.Result
}

// New creates an unstarted master bound to id. The registry, analytics and
// transaction manager collaborators are shared across all participants on
// the relay.
func New(id identity.Identity, reg *registry.Registry, an analytics.Analytics, tm *txn.Manager) *Participant {
	return &Participant{
		id:        id,
		registry:  reg,
		analytics: an,
		txn:       tm,
		inbox:     mailbox.New[any](),
		outbox:    mailbox.New[any](),
		clients:   make(map[identity.Identity]clientEntry),
	}
}

// ID is the identity this participant was spawned with.
func (p *Participant) ID() identity.Identity { return p.id }

// Inbox is where the Connection Supervisor delivers decoded socket
// frames and where a peer client delivers peer events.
func (p *Participant) Inbox() *mailbox.Mailbox[any] { return p.inbox }

// Outbox is drained by the Connection Supervisor and serialized to the
// master's own socket.
func (p *Participant) Outbox() *mailbox.Mailbox[any] { return p.outbox }

// Run processes events from Inbox one at a time until the loop
// terminates (Halt, MasterDisconnected, or ctx cancellation) or Inbox is
// closed.
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

// handle processes one event and reports whether the loop should
// terminate.
func (p *Participant) handle(v any) (terminate bool) {
	switch e := v.(type) {
	case *events.InitializeMaster:
		p.onInitializeMaster(e)
	case *events.MasterMessageToClient:
		p.onMessageToClient(e)
	case peer.JoinRequest:
		p.onJoinRequest(e)
	case peer.MessageFromClient:
		p.onMessageFromClient(e)
	case peer.ClientDisconnected:
		p.onClientDisconnected(e)
	case peer.DeliveryConfirmed:
		p.onDeliveryConfirmed(e)
	case deliveryResult:
		p.reply(e.tid, e.result.Success, e.result.Code)
	case control.Halt:
		return true
	case control.MasterDisconnected:
		p.onControlDisconnected(e)
		return true
	default:
		log.W.F("master %s: unrecognised event %T", p.id, v)
	}
	return false
}

func (p *Participant) onInitializeMaster(e *events.InitializeMaster) {
	if !p.registry.RegisterMaster(e.Metadata.MasterID, p.id, p.inbox) {
		p.reply(e.TransactionID, false, events.MasterIDConflict)
		return
	}
	p.name = e.Metadata.MasterID
	p.maxClients = e.Metadata.MaxClients
	p.active = true
	p.analytics.TrackEvent(analytics.LabelMaster, 1)
	p.analytics.TrackEvent(analytics.LabelMasterTotal, 1)
	p.reply(e.TransactionID, true, 0)
}

func (p *Participant) onMessageToClient(e *events.MasterMessageToClient) {
	clientID, err := identity.Parse(e.ClientID)
	if err != nil {
		p.reply(e.TransactionID, false, events.InvalidClientIdentityToken)
		return
	}
	entry, ok := p.clients[clientID]
	if !ok {
		p.reply(e.TransactionID, false, events.NoMatchingClientID)
		return
	}
	waiter, err := p.txn.Defer(e.TransactionID)
	if err != nil {
		p.reply(e.TransactionID, false, events.InvalidRequest)
		return
	}
	go p.awaitDelivery(e.TransactionID, waiter)
	entry.inbox.Send(peer.MessageFromMaster{TransactionID: e.TransactionID, Data: e.Data})
}

// awaitDelivery blocks on the transaction manager's waiter and hands the
// eventual result back to the master's own event loop as deliveryResult,
// so the outbox reply is only ever sent from the single-threaded handle
// loop (spec §4.2's defer/resolve contract, applied to master-to-client
// delivery confirmation).
func (p *Participant) awaitDelivery(tid string, waiter <-chan txn.Result) {
	p.inbox.Send(deliveryResult{tid: tid, result: <-waiter})
}

func (p *Participant) onJoinRequest(e peer.JoinRequest) {
	switch {
	case !p.active:
		e.ReplyTo.Send(peer.JoinResponse{TransactionID: e.TransactionID, Success: false, Error: events.NewError(events.NotActive)})
	case p.hasClient(e.ClientID):
		e.ReplyTo.Send(peer.JoinResponse{TransactionID: e.TransactionID, Success: false, Error: events.NewError(events.ClientIDConflict)})
	case uint32(len(p.clients)) >= p.maxClients:
		e.ReplyTo.Send(peer.JoinResponse{TransactionID: e.TransactionID, Success: false, Error: events.NewError(events.ClientLimitExceeded)})
	default:
		p.clients[e.ClientID] = clientEntry{name: e.Name, inbox: e.ReplyTo}
		p.outbox.Send(events.NewClientJoined(e.ClientID.String(), e.Name))
		e.ReplyTo.Send(peer.JoinResponse{TransactionID: e.TransactionID, Success: true})
		p.analytics.TrackEvent(analytics.LabelClient, 1)
		p.analytics.TrackEvent(analytics.LabelClientTotal, 1)
	}
}

func (p *Participant) onMessageFromClient(e peer.MessageFromClient) {
	if !p.hasClient(e.ClientID) {
		e.ReplyTo.Send(peer.MessageFromClientResponse{TransactionID: e.TransactionID, Success: false, Error: events.NewError(events.NoMatchingClientID)})
		return
	}
	p.outbox.Send(events.NewMasterMessageFromClient(e.ClientID.String(), e.Data))
	e.ReplyTo.Send(peer.MessageFromClientResponse{TransactionID: e.TransactionID, Success: true})
}

func (p *Participant) onClientDisconnected(e peer.ClientDisconnected) {
	if !p.hasClient(e.ClientID) {
		return
	}
	delete(p.clients, e.ClientID)
	p.outbox.Send(events.NewMasterClientDisconnected(e.ClientID.String(), e.Reason))
	p.analytics.TrackEvent(analytics.LabelClient, -1)
}

func (p *Participant) onDeliveryConfirmed(e peer.DeliveryConfirmed) {
	p.txn.Resolve(e.TransactionID, txn.Ok())
}

func (p *Participant) onControlDisconnected(e control.MasterDisconnected) {
	wasActive := p.active
	p.active = false
	for id, entry := range p.clients {
		entry.inbox.Send(peer.MasterDisconnected{Reason: e.Reason})
		delete(p.clients, id)
		p.analytics.TrackEvent(analytics.LabelClient, -1)
	}
	p.registry.RemoveMaster(p.id)
	if wasActive {
		p.analytics.TrackEvent(analytics.LabelMaster, -1)
	}
}

func (p *Participant) hasClient(id identity.Identity) bool {
	_, ok := p.clients[id]
	return ok
}

func (p *Participant) reply(tid string, success bool, code events.ErrorCode) {
	var e *events.Error
	if !success {
		e = events.NewError(code)
	}
	p.outbox.Send(events.NewMasterTransactionResult(tid, success, e))
}
