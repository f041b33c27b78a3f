// ABOUTME: Tests for the presence registry.
// ABOUTME: Validates last-wins registration, exact-match unregistration, and listing.

package presence

import (
	"sync"
	"testing"

	"github.com/chatsapp/relay/internal/auth"
	"github.com/chatsapp/relay/internal/relay"
)

// fakeSession implements relay.Session for registry tests.
type fakeSession struct {
	claims auth.Claims
	mu     sync.Mutex
	events []relay.Event
}

func newFakeSession(username string) *fakeSession {
	return &fakeSession{claims: auth.Claims{UserID: "id-" + username, Username: username}}
}

func (s *fakeSession) Deliver(event relay.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *fakeSession) Claims() *auth.Claims {
	return &s.claims
}

func TestRegisterAndLookup(t *testing.T) {
	reg := NewRegistry(nil)
	sess := newFakeSession("alice")

	if _, ok := reg.Lookup("alice"); ok {
		t.Fatal("lookup should miss before registration")
	}

	reg.Register("alice", sess)

	got, ok := reg.Lookup("alice")
	if !ok {
		t.Fatal("lookup missed after registration")
	}
	if got != relay.Session(sess) {
		t.Error("lookup returned a different session")
	}
}

func TestRegister_LastWins(t *testing.T) {
	reg := NewRegistry(nil)
	first := newFakeSession("alice")
	second := newFakeSession("alice")

	reg.Register("alice", first)
	reg.Register("alice", second)

	got, ok := reg.Lookup("alice")
	if !ok {
		t.Fatal("lookup missed")
	}
	if got != relay.Session(second) {
		t.Error("registration did not displace the prior session")
	}
}

func TestUnregister_ExactMatch(t *testing.T) {
	reg := NewRegistry(nil)
	sess := newFakeSession("alice")

	reg.Register("alice", sess)
	reg.Unregister("alice", sess)

	if _, ok := reg.Lookup("alice"); ok {
		t.Error("session should be gone after unregister")
	}
}

func TestUnregister_DisplacedSessionCannotEvict(t *testing.T) {
	reg := NewRegistry(nil)
	old := newFakeSession("alice")
	current := newFakeSession("alice")

	reg.Register("alice", old)
	reg.Register("alice", current)

	// The displaced connection disconnects late; the newer binding stays.
	reg.Unregister("alice", old)

	got, ok := reg.Lookup("alice")
	if !ok {
		t.Fatal("newer session was evicted by a stale unregister")
	}
	if got != relay.Session(current) {
		t.Error("lookup returned the wrong session")
	}
}

func TestUnregister_UnknownUser(t *testing.T) {
	reg := NewRegistry(nil)
	// Must not panic or affect anything.
	reg.Unregister("ghost", newFakeSession("ghost"))
}

func TestOnline(t *testing.T) {
	reg := NewRegistry(nil)

	if got := reg.Online(); len(got) != 0 {
		t.Fatalf("expected empty online list, got %v", got)
	}

	reg.Register("carol", newFakeSession("carol"))
	reg.Register("alice", newFakeSession("alice"))
	reg.Register("bob", newFakeSession("bob"))

	got := reg.Online()
	want := []string{"alice", "bob", "carol"}
	if len(got) != len(want) {
		t.Fatalf("online = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("online[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewRegistry(nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess := newFakeSession("alice")
			reg.Register("alice", sess)
			reg.Lookup("alice")
			reg.Online()
			reg.Unregister("alice", sess)
		}()
	}
	wg.Wait()
}
