package memory

import "testing"

func TestSetGetDelete(t *testing.T) {
	s := NewStore()
	if _, ok := s.Get("missing"); ok {
		t.Fatal("expected miss on empty store")
	}
	_ = s.Set("access_token", "tok")
	v, ok := s.Get("access_token")
	if !ok || v != "tok" {
		t.Fatalf("expected tok, got %q ok=%v", v, ok)
	}
	_ = s.Delete("access_token")
	if _, ok := s.Get("access_token"); ok {
		t.Fatal("expected delete to remove key")
	}
}

func TestKeysWithPrefix(t *testing.T) {
	s := NewStore()
	_ = s.Set("notified_1_accepted", "true")
	_ = s.Set("notified_1_completed", "true")
	_ = s.Set("cart", "[]")
	if got := s.Keys("notified_"); len(got) != 2 {
		t.Fatalf("expected 2 keys, got %v", got)
	}
	if got := s.Keys(""); len(got) != 3 {
		t.Fatalf("expected all keys, got %v", got)
	}
}

func TestClear(t *testing.T) {
	s := NewStore()
	_ = s.Set("a", "1")
	_ = s.Clear()
	if _, ok := s.Get("a"); ok {
		t.Fatal("expected empty store after clear")
	}
}
