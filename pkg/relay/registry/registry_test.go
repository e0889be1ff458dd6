package registry

import (
	"sync"
	"testing"

	"github.com/shadowmint/relay/pkg/relay/identity"
	"github.com/shadowmint/relay/pkg/relay/mailbox"
	"github.com/stretchr/testify/assert"
)

func TestRegisterMasterInjective(t *testing.T) {
	r := New()
	a, b := identity.New(), identity.New()
	boxA, boxB := mailbox.New[any](), mailbox.New[any]()

	assert.True(t, r.RegisterMaster("room-1", a, boxA))
	assert.False(t, r.RegisterMaster("room-1", b, boxB), "second master must not steal an existing name")

	id, inbox, ok := r.FindMaster("room-1")
	assert.True(t, ok)
	assert.Equal(t, a, id)
	assert.Same(t, boxA, inbox)
}

func TestRegisterMasterSameIdentityIsIdempotent(t *testing.T) {
	r := New()
	a := identity.New()
	box := mailbox.New[any]()
	assert.True(t, r.RegisterMaster("room-1", a, box))
	assert.True(t, r.RegisterMaster("room-1", a, box))
}

func TestRemoveMasterFreesName(t *testing.T) {
	r := New()
	a, b := identity.New(), identity.New()
	r.RegisterMaster("room-1", a, mailbox.New[any]())
	r.RemoveMaster(a)

	_, _, ok := r.FindMaster("room-1")
	assert.False(t, ok)
	assert.True(t, r.RegisterMaster("room-1", b, mailbox.New[any]()))
}

func TestClientRegistration(t *testing.T) {
	r := New()
	c := identity.New()
	box := mailbox.New[any]()
	assert.True(t, r.RegisterClient(c, box))
	assert.False(t, r.RegisterClient(c, box))

	found, ok := r.FindClient(c)
	assert.True(t, ok)
	assert.Same(t, box, found)

	r.RemoveClient(c)
	_, ok = r.FindClient(c)
	assert.False(t, ok)
}

func TestLenCounts(t *testing.T) {
	r := New()
	r.RegisterMaster("room-1", identity.New(), mailbox.New[any]())
	r.RegisterMaster("room-2", identity.New(), mailbox.New[any]())

	assert.Equal(t, 2, r.Len())
}

func TestConcurrentRegistration(t *testing.T) {
	r := New()
	ids := make([]identity.Identity, 100)
	for i := range ids {
		ids[i] = identity.New()
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.RegisterClient(id, mailbox.New[any]())
		}()
	}
	wg.Wait()

	for _, id := range ids {
		_, ok := r.FindClient(id)
		assert.True(t, ok)
	}
}
