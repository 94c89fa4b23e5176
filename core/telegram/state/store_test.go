package state

import (
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestStoreLifecycle(t *testing.T) {
	s := NewStore[string](nil)
	if _, ok := s.Get(1); ok {
		t.Fatal("unexpected session")
	}
	s.Put(1, "draft")
	if v, ok := s.Touch(1); !ok || v != "draft" {
		t.Fatalf("touch = %q %v", v, ok)
	}
	if v, ok := s.Get(1); !ok || v != "draft" || s.Len() != 1 {
		t.Fatal("session missing")
	}
	if s.CompareAndDelete(1, func(v string) bool { return v == "other" }) {
		t.Fatal("deleted a non matching session")
	}
	if !s.CompareAndDelete(1, func(v string) bool { return v == "draft" }) {
		t.Fatal("matching session kept")
	}
	if _, ok := s.Get(1); ok || s.Len() != 0 {
		t.Fatal("session survived delete")
	}
}

func TestStoreEvictIdle(t *testing.T) {
	c := &clock{t: time.Unix(1_000, 0)}
	s := NewStore[int](c.now)
	s.Put(1, 10)
	s.Put(2, 20)

	c.t = c.t.Add(400 * time.Second)
	s.Touch(2)

	c.t = c.t.Add(200 * time.Second)
	evicted := s.EvictIdle(600 * time.Second)
	if len(evicted) != 1 || evicted[1] != 10 {
		t.Fatalf("evicted = %v", evicted)
	}
	_, kept := s.Get(2)
	if _, gone := s.Get(1); !kept || gone {
		t.Fatal("wrong session evicted")
	}
}
