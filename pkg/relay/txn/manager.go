// Package txn implements the transaction-correlated asynchronous request
// protocol shared by masters, clients, and the relay itself (spec §4.2): a
// caller defers on a transaction id it chose, and some other goroutine
// later resolves that id with a result, unblocking the deferring caller.
package txn

import (
	"sync"
	"time"

	"github.com/shadowmint/relay/pkg/relay/analytics"
	"github.com/shadowmint/relay/pkg/relay/events"
	"github.com/shadowmint/relay/pkg/utils/errorf"
	"github.com/shadowmint/relay/pkg/utils/log"
)

// Result is what a deferred call eventually resolves with.
type Result struct {
	Success bool
	Code    events.ErrorCode
	Reason  string
}

// Ok is the successful, errorless Result.
func Ok() Result { return Result{Success: true} }

// Fail builds a failure Result carrying a stable error code.
func Fail(code events.ErrorCode) Result {
	e := events.NewError(code)
	return Result{Success: false, Code: e.Code, Reason: e.Reason}
}

type pending struct {
	waiter  chan Result
	started time.Time
}

// Manager correlates outbound requests with inbound replies via a
// transaction-id to waiter map (spec §4.2, "Transaction record").
type Manager struct {
	mu        sync.Mutex
	records   map[string]pending
	analytics analytics.Analytics

	sweepStop chan struct{}
	sweepDone chan struct{}
}

// New creates an empty Manager. The timeout sweeper is disabled until
// SetTimeout is called (spec default: "disabled unless explicitly enabled").
func New() *Manager {
	return &Manager{records: make(map[string]pending)}
}

// SetAnalytics attaches the counter sink the sweeper reports expiries to.
// Matches spec §9's init order, where analytics exists only after the
// transaction manager is constructed.
func (m *Manager) SetAnalytics(an analytics.Analytics) {
	m.mu.Lock()
	m.analytics = an
	m.mu.Unlock()
}

// Defer registers tid and returns a channel that receives exactly one
// Result: from Resolve, from the timeout sweeper, or from Close. Calling
// Defer again for a tid that is already pending is reported as an error
// rather than panicking, since tid is ultimately caller-supplied wire data
// and a colliding or replayed tid is reachable from a misbehaving remote
// participant, not only from a local programming mistake.
func (m *Manager) Defer(tid string) (<-chan Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[tid]; exists {
		return nil, errorf.E("transaction %q is already pending", tid)
	}
	waiter := make(chan Result, 1)
	m.records[tid] = pending{waiter: waiter, started: time.Now()}
	return waiter, nil
}

// Resolve removes tid's record, if any, and delivers r to its waiter. A
// resolve for an absent tid (already resolved, expired, or never
// deferred) is a silent no-op — late or duplicate replies are expected
// traffic, not errors (spec §5, "late resolves after expiry are silently
// discarded").
func (m *Manager) Resolve(tid string, r Result) {
	m.mu.Lock()
	p, ok := m.records[tid]
	if ok {
		delete(m.records, tid)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	p.waiter <- r
	close(p.waiter)
}

// SetTimeout enables a background sweeper that, every poll interval,
// resolves any record older than timeout with a TransactionExpired-coded
// Result. It
// is safe to call SetTimeout again to change the interval; the previous
// sweeper goroutine is stopped first.
func (m *Manager) SetTimeout(timeout, poll time.Duration) {
	m.StopTimeout()
	stop := make(chan struct{})
	done := make(chan struct{})
	m.mu.Lock()
	m.sweepStop = stop
	m.sweepDone = done
	m.mu.Unlock()
	go m.sweep(timeout, poll, stop, done)
}

func (m *Manager) sweep(timeout, poll time.Duration, stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.expire(timeout)
		}
	}
}

func (m *Manager) expire(timeout time.Duration) {
	threshold := time.Now().Add(-timeout)
	var expired []string
	m.mu.Lock()
	for tid, p := range m.records {
		if p.started.Before(threshold) {
			expired = append(expired, tid)
		}
	}
	m.mu.Unlock()
	for _, tid := range expired {
		log.D.F("transaction %q expired", tid)
		m.Resolve(tid, Fail(events.TransactionExpired))
	}
	if len(expired) == 0 {
		return
	}
	m.mu.Lock()
	an := m.analytics
	m.mu.Unlock()
	if an != nil {
		an.TrackEvent(analytics.LabelTransactionsExpired, len(expired))
	}
}

// StopTimeout disables the sweeper, if one is running. Pending records are
// left untouched; callers become responsible for their own timeouts again.
func (m *Manager) StopTimeout() {
	m.mu.Lock()
	stop := m.sweepStop
	done := m.sweepDone
	m.sweepStop = nil
	m.sweepDone = nil
	m.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Close stops the sweeper and resolves every still-pending waiter with a
// SyncError Result (spec §5, "dropping a participant mailbox... transaction
// waiters observe SyncError").
func (m *Manager) Close() {
	m.StopTimeout()
	m.mu.Lock()
	remaining := m.records
	m.records = make(map[string]pending)
	m.mu.Unlock()
	for _, p := range remaining {
		p.waiter <- Fail(events.SyncError)
		close(p.waiter)
	}
}
