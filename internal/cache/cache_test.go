package cache

import (
	"testing"
	"time"

	"datacode/internal/value"

	"github.com/google/go-cmp/cmp"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func args(fs ...float64) []value.Value {
	out := make([]value.Value, len(fs))
	for i, f := range fs {
		out[i] = &value.Number{Value: f}
	}
	return out
}

func TestHitAndMiss(t *testing.T) {
	c := New(10, 0)
	k := NewKey("fib", args(10))

	if _, ok := c.Get(k); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Put(k, &value.Number{Value: 55})
	v, ok := c.Get(k)
	if !ok || v.Inspect() != "55" {
		t.Fatalf("expected hit with 55, got %v %v", v, ok)
	}

	want := Stats{Hits: 1, Misses: 1, Size: 1}
	if diff := cmp.Diff(want, c.Stats()); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}

	e, _ := c.Entry(k)
	if e.AccessCount != 1 {
		t.Fatalf("expected access count 1, got %d", e.AccessCount)
	}
}

func TestKeyIsStructural(t *testing.T) {
	c := New(10, 0)
	c.Put(NewKey("f", args(1, 2)), value.TRUE)
	if _, ok := c.Get(NewKey("f", args(1, 2))); !ok {
		t.Fatal("expected equal arguments to share an entry")
	}
	if _, ok := c.Get(NewKey("f", args(2, 1))); ok {
		t.Fatal("expected different argument order to miss")
	}
	if _, ok := c.Get(NewKey("g", args(1, 2))); ok {
		t.Fatal("expected different function name to miss")
	}
}

func TestInProgressBypass(t *testing.T) {
	c := New(10, 0)
	k := NewKey("f", args(3))
	c.Put(k, value.TRUE)

	c.MarkInProgress(k)
	c.MarkInProgress(k)
	if _, ok := c.Get(k); ok {
		t.Fatal("expected in-progress key to miss")
	}
	c.MarkCompleted(k)
	if _, ok := c.Get(k); ok {
		t.Fatal("expected key to stay in progress until the outer call completes")
	}
	c.MarkCompleted(k)
	if _, ok := c.Get(k); !ok {
		t.Fatal("expected hit after all calls completed")
	}
}

func TestTTLExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	c := New(10, 300*time.Second, WithClock(clock.now))
	k := NewKey("f", args(1))
	c.Put(k, value.TRUE)

	clock.advance(299 * time.Second)
	if _, ok := c.Get(k); !ok {
		t.Fatal("expected hit before ttl")
	}

	clock.advance(2 * time.Second)
	if _, ok := c.Get(k); ok {
		t.Fatal("expected miss after ttl")
	}
	if c.Len() != 0 {
		t.Fatalf("expected expired entry to be evicted, len=%d", c.Len())
	}
	if s := c.Stats(); s.Evictions != 1 {
		t.Fatalf("expected 1 eviction, got %d", s.Evictions)
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	c := New(10, 0, WithClock(clock.now))
	k := NewKey("f", nil)
	c.Put(k, value.NULL)
	clock.advance(1000 * time.Hour)
	if _, ok := c.Get(k); !ok {
		t.Fatal("expected hit with ttl disabled")
	}
}

func TestEvictsOldestInsert(t *testing.T) {
	c := New(2, 0)
	k1, k2, k3 := NewKey("f", args(1)), NewKey("f", args(2)), NewKey("f", args(3))
	c.Put(k1, value.TRUE)
	c.Put(k2, value.TRUE)
	c.Get(k1) // access does not change insertion order
	c.Put(k3, value.TRUE)

	if _, ok := c.Entry(k1); ok {
		t.Fatal("expected oldest insert to be evicted")
	}
	for i, k := range []Key{k2, k3} {
		if _, ok := c.Entry(k); !ok {
			t.Fatalf("tests[%d] - expected key to survive", i)
		}
	}
	if s := c.Stats(); s.Evictions != 1 || s.Size != 2 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestInvalidateFunction(t *testing.T) {
	c := New(10, 0)
	c.Put(NewKey("f", args(1)), value.TRUE)
	c.Put(NewKey("f", args(2)), value.TRUE)
	c.Put(NewKey("g", args(1)), value.TRUE)

	if n := c.InvalidateFunction("f"); n != 2 {
		t.Fatalf("expected 2 entries dropped, got %d", n)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry left, got %d", c.Len())
	}
}
