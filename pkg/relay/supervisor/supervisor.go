// Package supervisor implements the Connection Supervisor (spec §4.5):
// the per-socket front end that authenticates, classifies a connection as
// master or client, spawns the matching participant, and pumps frames
// between the socket and the participant's mailboxes in both directions.
package supervisor

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/shadowmint/relay/pkg/relay/analytics"
	"github.com/shadowmint/relay/pkg/relay/auth"
	"github.com/shadowmint/relay/pkg/relay/client"
	"github.com/shadowmint/relay/pkg/relay/control"
	"github.com/shadowmint/relay/pkg/relay/events"
	"github.com/shadowmint/relay/pkg/relay/identity"
	"github.com/shadowmint/relay/pkg/relay/master"
	"github.com/shadowmint/relay/pkg/relay/registry"
	"github.com/shadowmint/relay/pkg/relay/txn"
	"github.com/shadowmint/relay/pkg/utils/atomic"
	utilctx "github.com/shadowmint/relay/pkg/utils/context"
	"github.com/shadowmint/relay/pkg/utils/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Config bounds a Supervisor's behaviour.
type Config struct {
	MaxMessageBytes int64
	PingInterval    time.Duration
	PongWait        time.Duration
}

// DefaultConfig matches the keepalive cadence the teacher's socket layer
// uses (spec is silent on keepalive; see SPEC_FULL.md Connection
// Supervisor module).
func DefaultConfig() Config {
	return Config{
		MaxMessageBytes: 1 << 20,
		PingInterval:    30 * time.Second,
		PongWait:        60 * time.Second,
	}
}

// Supervisor serves every accepted socket of the relay, running each
// connection's lifecycle in its own ServeHTTP call, and tracks the live
// connections so Shutdown can close them.
type Supervisor struct {
	registry  *registry.Registry
	txn       *txn.Manager
	analytics analytics.Analytics
	envelope  *auth.Envelope
	cfg       Config

	mu    sync.Mutex
	conns map[*connection]struct{}
}

// New builds a Supervisor sharing the relay's registry, transaction
// manager, analytics and auth envelope with every participant it spawns.
func New(reg *registry.Registry, tm *txn.Manager, an analytics.Analytics, envelope *auth.Envelope, cfg Config) *Supervisor {
	return &Supervisor{
		registry:  reg,
		txn:       tm,
		analytics: an,
		envelope:  envelope,
		cfg:       cfg,
		conns:     make(map[*connection]struct{}),
	}
}

// Shutdown force-closes every currently tracked connection, giving their
// bound participant a disconnect reason of reason (spec §9 teardown).
func (s *Supervisor) Shutdown(reason string) {
	s.mu.Lock()
	conns := make([]*connection, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.forceClose(reason)
	}
}

func (s *Supervisor) track(c *connection) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Supervisor) untrack(c *connection) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

// ServeHTTP upgrades r to a websocket and runs the full connection
// lifecycle to completion: None -> Authorized -> {Master,Client} -> close
// (spec §4.5).
func (s *Supervisor) ServeHTTP(ctx utilctx.T, w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusBadRequest)
		return
	}
	expires, ok := s.envelope.Authorize(token)
	if !ok {
		s.analytics.TrackEvent(analytics.LabelAuthFailed, 1)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.E.F("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	connCtx, cancel := utilctx.Cancel(ctx)
	defer cancel()

	conn.SetReadLimit(s.cfg.MaxMessageBytes)
	conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
		return nil
	})

	session := &connection{
		sup:     s,
		conn:    conn,
		expires: expires,
	}
	session.remoteAddr.Store([]byte(conn.RemoteAddr().String()))

	go func() {
		ticker := time.NewTicker(s.cfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-connCtx.Done():
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.cfg.PongWait)); err != nil {
					return
				}
			}
		}
	}()

	s.track(session)
	defer s.untrack(session)
	session.run(connCtx, cancel)
}

// connection is the mutable state of one socket for the lifetime of
// ServeHTTP. Only pumpOutbound writes data frames to the socket; the
// keepalive goroutine writes pings with WriteControl, and Supervisor.Shutdown
// may call forceClose from another goroutine, which is why the fields
// forceClose touches are atomics.
type connection struct {
	sup     *Supervisor
	conn    *websocket.Conn
	expires time.Time

	role role

	remoteAddr  atomic.Bytes
	closeReason atomic.String
	closed      atomic.Bool
}

// forceClose sets reason as this connection's disconnect reason and
// closes the underlying socket, unblocking whichever pump is currently in
// ReadMessage so the participant sees a control-disconnect with reason.
// Shutdown may race an organic read error on the same socket, so the actual
// close only happens once.
func (c *connection) forceClose(reason string) {
	c.closeReason.Store(reason)
	if c.closed.CAS(false, true) {
		c.conn.Close()
	}
}

type role int

const (
	roleUnclassified role = iota
	roleMaster
	roleClient
)

func (c *connection) run(ctx utilctx.T, cancel utilctx.F) {
	raw, classified, ok := c.classify(ctx)
	if !ok {
		return
	}

	switch c.role {
	case roleMaster:
		c.runMaster(ctx, cancel, raw, classified)
	case roleClient:
		c.runClient(ctx, cancel, raw, classified)
	}
}

// classify reads frames until one successfully trial-deserializes as a
// MasterExternalEvent (tried first) or ClientExternalEvent (tried
// second), per spec §4.5. Binary frames are dropped and counted; frames
// that match neither vocabulary are logged and dropped; the connection
// survives both. It returns the raw bytes and decoded event of the frame
// that won classification.
func (c *connection) classify(ctx utilctx.T) (raw []byte, decoded any, ok bool) {
	for {
		if ctx.Err() != nil {
			return nil, nil, false
		}
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, nil, false
		}
		if msgType == websocket.BinaryMessage {
			c.sup.analytics.TrackEvent(analytics.LabelFramesBinaryDropped, 1)
			continue
		}

		if v, derr := events.DecodeMasterEvent(data); derr == nil {
			c.role = roleMaster
			return data, v, true
		}
		if v, derr := events.DecodeClientEvent(data); derr == nil {
			c.role = roleClient
			return data, v, true
		}
		log.D.F("dropping unclassifiable frame: %s", string(data))
	}
}

func (c *connection) runMaster(ctx utilctx.T, cancel utilctx.F, _ []byte, first any) {
	id := identity.New()
	p := master.New(id, c.sup.registry, c.sup.analytics, c.sup.txn)
	log.D.F("master %s connected from %s", id, c.remoteAddr.Load())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { p.Run(gctx); return nil })
	g.Go(func() error { return c.pumpOutbound(gctx, p.Outbox()) })

	p.Inbox().Send(first)
	c.pumpInbound(ctx, p.Inbox(), func(raw []byte) (any, error) { return events.DecodeMasterEvent(raw) })

	reason := c.disconnectReason()
	p.Inbox().Send(control.MasterDisconnected{Reason: reason})
	cancel()
	g.Wait()
	log.D.F("master %s disconnected: %s", id, reason)
}

func (c *connection) runClient(ctx utilctx.T, cancel utilctx.F, _ []byte, first any) {
	id := identity.New()
	p := client.New(id, c.sup.registry, c.sup.analytics, c.sup.txn)
	log.D.F("client %s connected from %s", id, c.remoteAddr.Load())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { p.Run(gctx); return nil })
	g.Go(func() error { return c.pumpOutbound(gctx, p.Outbox()) })

	p.Inbox().Send(first)
	c.pumpInbound(ctx, p.Inbox(), func(raw []byte) (any, error) { return events.DecodeClientEvent(raw) })

	reason := c.disconnectReason()
	p.Inbox().Send(control.ClientDisconnected{Reason: reason})
	cancel()
	g.Wait()
	log.D.F("client %s disconnected: %s", id, reason)
}

// pumpInbound reads frames off the socket until it closes or auth expires.
// The expiry check runs after each ReadMessage returns and before the frame
// is dispatched, so a frame that arrives the instant the token expires is
// still dropped and the socket closed on the same iteration, rather than
// forwarded and only caught one iteration later (spec §4.5, Scenario E).
func (c *connection) pumpInbound(ctx utilctx.T, inbox inboxSender, decode func([]byte) (any, error)) {
	for {
		if ctx.Err() != nil {
			return
		}
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if time.Now().After(c.expires) {
			log.D.F("auth expired, closing connection")
			return
		}
		if msgType == websocket.BinaryMessage {
			c.sup.analytics.TrackEvent(analytics.LabelFramesBinaryDropped, 1)
			continue
		}
		v, err := decode(data)
		if err != nil {
			log.D.F("dropping unparseable frame: %v", err)
			continue
		}
		inbox.Send(v)
	}
}

// pumpOutbound drains a participant's outbox and writes each event to the
// socket as a JSON text frame, until the outbox closes or ctx is done.
func (c *connection) pumpOutbound(ctx utilctx.T, outbox outboxReceiver) error {
	for {
		v, ok := outbox.Recv(ctx)
		if !ok {
			return nil
		}
		data, err := json.Marshal(v)
		if err != nil {
			log.E.F("failed to marshal outbound event %T: %v", v, err)
			continue
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return err
		}
	}
}

func (c *connection) disconnectReason() string {
	if reason := c.closeReason.Load(); reason != "" {
		return reason
	}
	return "socket closed"
}

// inboxSender and outboxReceiver narrow *mailbox.Mailbox[any] to the one
// method each pump needs, so this file doesn't need to import the
// mailbox package just to name the concrete type.
type inboxSender interface {
	Send(v any)
}

type outboxReceiver interface {
	Recv(ctx utilctx.T) (any, bool)
}
