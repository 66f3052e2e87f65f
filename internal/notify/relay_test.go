package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/menucraft/go-badge-backend/internal/domain"
)

// fakeClock lets tests move time instead of sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestRelay(ttl time.Duration, max int) (*Relay, *fakeClock) {
	clk := &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	r := NewRelay(ttl, max)
	r.now = clk.now
	return r, clk
}

func badge(id string) domain.Badge {
	return domain.Badge{ID: id, Name: id, Points: 10}
}

func TestAdd_NewestFirst(t *testing.T) {
	r, clk := newTestRelay(DefaultTTL, DefaultMax)

	r.Add(badge("b1"))
	clk.advance(time.Second)
	r.Add(badge("b2"))

	got := r.Events()
	if len(got) != 2 || got[0].Badge.ID != "b2" || got[1].Badge.ID != "b1" {
		t.Fatalf("events = %+v, want newest first [b2 b1]", got)
	}
	if got[0].ID == got[1].ID {
		t.Fatalf("events share an id")
	}
}

func TestTTL_EventAbsentAfterWindow(t *testing.T) {
	r, clk := newTestRelay(5*time.Second, DefaultMax)

	r.Add(badge("b1"))
	clk.advance(5*time.Second + time.Millisecond)

	if got := r.Events(); len(got) != 0 {
		t.Fatalf("event still present after TTL: %+v", got)
	}
}

func TestTTL_EventPresentWithinWindow(t *testing.T) {
	r, clk := newTestRelay(5*time.Second, DefaultMax)

	r.Add(badge("b1"))
	clk.advance(4 * time.Second)

	if got := r.Events(); len(got) != 1 {
		t.Fatalf("event expired early: %+v", got)
	}
}

func TestRemove_Dismissal(t *testing.T) {
	r, _ := newTestRelay(DefaultTTL, DefaultMax)

	n1 := r.Add(badge("b1"))
	r.Add(badge("b2"))

	r.Remove(n1.ID)

	got := r.Events()
	if len(got) != 1 || got[0].Badge.ID != "b2" {
		t.Fatalf("events after dismissal = %+v", got)
	}
}

func TestRemove_UnknownOrExpired_NoOp(t *testing.T) {
	r, clk := newTestRelay(5*time.Second, DefaultMax)

	n := r.Add(badge("b1"))

	// Unknown id.
	r.Remove("not-an-id")
	if r.Len() != 1 {
		t.Fatalf("unknown-id removal changed state")
	}

	// Expired id: the race between manual dismissal and auto expiry.
	clk.advance(6 * time.Second)
	r.Remove(n.ID)
	if r.Len() != 0 {
		t.Fatalf("relay not empty after expiry")
	}
}

func TestBoundedLength_DropsOldest(t *testing.T) {
	r, clk := newTestRelay(time.Hour, 3)

	for _, id := range []string{"b1", "b2", "b3", "b4"} {
		r.Add(badge(id))
		clk.advance(time.Millisecond)
	}

	got := r.Events()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Badge.ID != "b4" || got[2].Badge.ID != "b2" {
		t.Fatalf("events = %+v, want [b4 b3 b2]", got)
	}
}

func TestEvents_ReturnsCopy(t *testing.T) {
	r, _ := newTestRelay(DefaultTTL, DefaultMax)
	r.Add(badge("b1"))

	got := r.Events()
	got[0].Badge.ID = "mutated"

	if r.Events()[0].Badge.ID != "b1" {
		t.Fatalf("Events exposed internal state")
	}
}

func TestRelay_ConcurrentUse(t *testing.T) {
	r := NewRelay(time.Minute, 100)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			r.Add(badge("b"))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			r.Events()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			r.Remove("whatever")
		}
	}()
	wg.Wait()

	if r.Len() > 100 {
		t.Fatalf("relay exceeded bound: %d", r.Len())
	}
}
