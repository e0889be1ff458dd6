// Package registry implements the Session Registry (spec §4.3): the
// injective name-to-master map that lets clients discover which master to
// join, plus the identity-to-mailbox dereference the spec describes as
// "the master/client pool" — find_master is a two-step lookup (name to
// identity to mailbox) and find_client a one-step lookup (identity to
// mailbox); both end at a participant's inbound mailbox.
package registry

import (
	"sync"

	"github.com/shadowmint/relay/pkg/relay/identity"
	"github.com/shadowmint/relay/pkg/relay/mailbox"
)

type masterEntry struct {
	name  string
	inbox *mailbox.Mailbox[any]
}

// Registry is the single process-wide mapping from session name to the
// master that owns it, and from participant identity to its inbound
// mailbox. All mutations happen under one short critical section; no I/O
// is ever performed while the lock is held (spec §4.3 design note).
type Registry struct {
	mu      sync.Mutex
	names   map[string]identity.Identity // session name -> master identity
	masters map[identity.Identity]masterEntry
	clients map[identity.Identity]*mailbox.Mailbox[any]
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		names:   make(map[string]identity.Identity),
		masters: make(map[identity.Identity]masterEntry),
		clients: make(map[identity.Identity]*mailbox.Mailbox[any]),
	}
}

// RegisterMaster associates name with id and its inbox. It reports false,
// making no change, if name is already bound to a different master (spec
// §4.3, "names are injective"; callers raise wire error MasterIDConflict
// on a false return).
func (r *Registry) RegisterMaster(name string, id identity.Identity, inbox *mailbox.Mailbox[any]) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.names[name]; ok && existing != id {
		return false
	}
	r.names[name] = id
	r.masters[id] = masterEntry{name: name, inbox: inbox}
	return true
}

// RemoveMaster removes the session owned by id, if any. Idempotent.
func (r *Registry) RemoveMaster(id identity.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.masters[id]
	if !ok {
		return
	}
	delete(r.masters, id)
	delete(r.names, entry.name)
}

// FindMaster resolves name to the identity and inbox of the master
// currently bound to it (spec §4.3 "find_master", two-step lookup).
func (r *Registry) FindMaster(name string) (id identity.Identity, inbox *mailbox.Mailbox[any], ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok = r.names[name]
	if !ok {
		return identity.Identity{}, nil, false
	}
	entry, ok := r.masters[id]
	if !ok {
		return identity.Identity{}, nil, false
	}
	return id, entry.inbox, true
}

// RegisterClient records id's inbox. It reports false if id is already
// registered (ClientIDConflict).
func (r *Registry) RegisterClient(id identity.Identity, inbox *mailbox.Mailbox[any]) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.clients[id]; exists {
		return false
	}
	r.clients[id] = inbox
	return true
}

// RemoveClient forgets id. Idempotent.
func (r *Registry) RemoveClient(id identity.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
}

// FindClient dereferences id to its inbox (spec §4.3 "find_client").
func (r *Registry) FindClient(id identity.Identity) (*mailbox.Mailbox[any], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inbox, ok := r.clients[id]
	return inbox, ok
}

// Len reports the number of active sessions, for the diagnostic health
// endpoint.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.masters)
}
