// Package mailbox implements the unbounded, FIFO, single-consumer message
// queue each participant reads its event stream from (spec §5: "mailbox
// sends never deadlock the sender... unbounded mailboxes are acceptable").
// A plain buffered channel cannot give that guarantee under an unknown
// number of concurrent senders, so Mailbox queues internally and only
// blocks a receiver, never a sender.
package mailbox

import (
	"sync"

	"github.com/shadowmint/relay/pkg/utils/context"
)

// Mailbox is an unbounded FIFO queue of events of type T, closable exactly
// once. Send after Close is a silent no-op; Recv after Close and after the
// backlog drains reports ok=false.
type Mailbox[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []T
	closed bool
}

// New creates an empty, open Mailbox.
func New[T any]() *Mailbox[T] {
	m := &Mailbox[T]{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Send appends v to the queue. It never blocks and never fails; a send to
// a closed mailbox is dropped, matching the "dropping a participant
// mailbox receiver terminates that participant" cancellation semantics
// (spec §5) — nothing downstream depends on Send reporting that.
func (m *Mailbox[T]) Send(v T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.queue = append(m.queue, v)
	m.cond.Signal()
}

// Recv blocks until an event is available, the mailbox is closed and
// drained, or ctx is cancelled. ok is false only in the latter two cases.
func (m *Mailbox[T]) Recv(ctx context.T) (v T, ok bool) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			m.cond.Broadcast()
			m.mu.Unlock()
		case <-done:
		}
	}()

	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.queue) == 0 && !m.closed {
		if ctx.Err() != nil {
			var zero T
			return zero, false
		}
		m.cond.Wait()
	}
	if len(m.queue) == 0 {
		var zero T
		return zero, false
	}
	v = m.queue[0]
	m.queue = m.queue[1:]
	return v, true
}

// Close marks the mailbox closed. Events already queued remain available
// to Recv until drained; after that Recv reports ok=false. Idempotent.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.cond.Broadcast()
}

// Len reports the number of events currently queued.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
