package pool

import "testing"

func TestAddGet(t *testing.T) {
	p := New[string](4)
	h := p.Add("hello")

	v, ok := p.Get(h)
	if !ok {
		t.Fatal("expected Get to succeed for a freshly added handle")
	}
	if *v != "hello" {
		t.Errorf("got %q, want %q", *v, "hello")
	}
	if p.Len() != 1 {
		t.Errorf("Len() = %d, want 1", p.Len())
	}
}

func TestUseAfterFree(t *testing.T) {
	p := New[int](4)
	h := p.Add(42)

	if !p.Remove(h) {
		t.Fatal("Remove of a live handle should succeed")
	}
	if _, ok := p.Get(h); ok {
		t.Error("Get on a freed handle should fail (use-after-free)")
	}
	if p.Remove(h) {
		t.Error("double Remove should fail")
	}
}

func TestGenerationalSafety(t *testing.T) {
	p := New[int](4)
	h1 := p.Add(1)
	p.Remove(h1)
	h2 := p.Add(2)

	if h1.Index() != h2.Index() {
		t.Fatalf("expected slot reuse: h1.Index()=%d h2.Index()=%d", h1.Index(), h2.Index())
	}
	if h1 == h2 {
		t.Error("reused slot must produce a handle distinguishable from every prior handle to that slot")
	}
	if _, ok := p.Get(h1); ok {
		t.Error("stale handle into a reused slot must not resolve")
	}
	v, ok := p.Get(h2)
	if !ok || *v != 2 {
		t.Errorf("Get(h2) = (%v, %v), want (2, true)", v, ok)
	}
}

func TestInvalidHandle(t *testing.T) {
	p := New[int](4)
	if _, ok := p.Get(Invalid[int]()); ok {
		t.Error("Get on the invalid sentinel must fail")
	}
	if p.Remove(Invalid[int]()) {
		t.Error("Remove on the invalid sentinel must fail")
	}
}

func TestIterationVisitsOnlyOccupied(t *testing.T) {
	p := New[int](4)
	a := p.Add(1)
	_ = p.Add(2)
	c := p.Add(3)
	p.Remove(a)

	seen := map[uint32]int{}
	p.Each(func(h Handle[int], v *int) bool {
		seen[h.Index()] = *v
		return true
	})

	if len(seen) != 2 {
		t.Fatalf("expected 2 occupied slots, saw %d", len(seen))
	}
	// Nothing was added after Remove(a), so a's slot is still free and must
	// be absent.
	if _, ok := seen[a.Index()]; ok {
		t.Error("expected freed slot a to be skipped")
	}
	if _, ok := seen[c.Index()]; !ok {
		t.Error("expected c to remain visible")
	}
}

func TestEachEarlyStop(t *testing.T) {
	p := New[int](4)
	p.Add(1)
	p.Add(2)
	p.Add(3)

	count := 0
	p.Each(func(Handle[int], *int) bool {
		count++
		return false
	})
	if count != 1 {
		t.Errorf("expected Each to stop after first callback, got %d calls", count)
	}
}
