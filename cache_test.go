package silo

import "testing"

func TestSimpleCacheRegisterAndLookup(t *testing.T) {
	c := NewSimpleCache[uint64](4)
	idx, err := c.Register("a:b", 42)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	got, ok := c.GetIndex("a:b")
	if !ok || got != idx {
		t.Fatalf("GetIndex(%q) = (%d, %v), want (%d, true)", "a:b", got, ok, idx)
	}
	if *c.GetItem(idx) != 42 {
		t.Fatalf("GetItem(%d) = %d, want 42", idx, *c.GetItem(idx))
	}
}

func TestSimpleCacheReregisterOverwrites(t *testing.T) {
	c := NewSimpleCache[uint64](4)
	idx1, _ := c.Register("k", 1)
	idx2, err := c.Register("k", 2)
	if err != nil {
		t.Fatalf("re-Register failed: %v", err)
	}
	if idx1 != idx2 {
		t.Fatalf("re-registering the same key changed its index: %d != %d", idx1, idx2)
	}
	if *c.GetItem(idx2) != 2 {
		t.Fatalf("GetItem after overwrite = %d, want 2", *c.GetItem(idx2))
	}
}

func TestSimpleCacheFullReturnsErrCacheFull(t *testing.T) {
	c := NewSimpleCache[uint64](1)
	if _, err := c.Register("one", 1); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if _, err := c.Register("two", 2); err == nil {
		t.Fatalf("Register past capacity did not error")
	}
}

func TestSimpleCacheClear(t *testing.T) {
	c := NewSimpleCache[uint64](4)
	c.Register("k", 1)
	c.Clear()
	if _, ok := c.GetIndex("k"); ok {
		t.Fatalf("key survived Clear()")
	}
}
