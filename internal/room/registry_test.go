package room

import "testing"

func TestRegistryBindResolve(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Resolve("u1"); ok {
		t.Fatal("empty registry resolved an identity")
	}

	r.Bind("u1", "c1")
	if got, ok := r.Resolve("u1"); !ok || got != "c1" {
		t.Fatalf("Resolve = %q, %v", got, ok)
	}
	if got, ok := r.FindIdentityByConnection("c1"); !ok || got != "u1" {
		t.Fatalf("FindIdentityByConnection = %q, %v", got, ok)
	}
}

func TestRegistryReconnectOverwrites(t *testing.T) {
	r := NewRegistry()
	r.Bind("u1", "c1")
	if displaced := r.Bind("u1", "c2"); displaced != "" {
		t.Errorf("reconnect displaced %q", displaced)
	}

	if got, _ := r.Resolve("u1"); got != "c2" {
		t.Errorf("Resolve = %q, want c2", got)
	}
	if _, ok := r.FindIdentityByConnection("c1"); ok {
		t.Error("stale connection still maps to the identity")
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestRegistryConnectionSwitchesIdentity(t *testing.T) {
	r := NewRegistry()
	if displaced := r.Bind("u1", "c1"); displaced != "" {
		t.Errorf("first bind displaced %q", displaced)
	}
	if displaced := r.Bind("u2", "c1"); displaced != "u1" {
		t.Errorf("displaced = %q, want u1", displaced)
	}
	if displaced := r.Bind("u2", "c1"); displaced != "" {
		t.Errorf("rebinding the same identity displaced %q", displaced)
	}

	if _, ok := r.Resolve("u1"); ok {
		t.Error("old identity still bound to the connection")
	}
	if got, _ := r.FindIdentityByConnection("c1"); got != "u2" {
		t.Errorf("FindIdentityByConnection = %q, want u2", got)
	}
}

func TestRegistryUnbind(t *testing.T) {
	r := NewRegistry()
	r.Bind("u1", "c1")
	r.Unbind("u1")

	if _, ok := r.Resolve("u1"); ok {
		t.Error("identity still bound after Unbind")
	}
	if _, ok := r.FindIdentityByConnection("c1"); ok {
		t.Error("connection still maps after Unbind")
	}

	r.Unbind("never-bound")
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
}
