package storage

import (
	"errors"
	"strings"
	"testing"
)

func TestNewAEADFromPassphrase(t *testing.T) {
	aead1, err := NewAEADFromPassphrase([]byte("correct horse"))
	if err != nil {
		t.Fatalf("derive AEAD failed: %v", err)
	}
	aead2, err := NewAEADFromPassphrase([]byte("correct horse"))
	if err != nil {
		t.Fatalf("derive AEAD second time: %v", err)
	}

	// same passphrase => same key, so aead2 opens what aead1 sealed
	nonce := make([]byte, aead1.NonceSize())
	ct := aead1.Seal(nil, nonce, []byte("helloworld"), nil)
	plain, err := aead2.Open(nil, nonce, ct, nil)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if string(plain) != "helloworld" {
		t.Errorf("unexpected plaintext: got %q, want %q", plain, "helloworld")
	}
}

func TestSealedStore_RoundTrip(t *testing.T) {
	aead, _ := NewAEADFromPassphrase([]byte("pw"))
	inner := NewMemoryStore()
	s := NewSealedStore(inner, aead)

	if err := s.Set("user", `{"id":"1","email":"a@b.c"}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	raw, _, _ := inner.Get("user")
	if strings.Contains(raw, "a@b.c") {
		t.Errorf("value stored in clear: %q", raw)
	}

	got, ok, err := s.Get("user")
	if err != nil || !ok || got != `{"id":"1","email":"a@b.c"}` {
		t.Errorf("Get = %q, %v, %v", got, ok, err)
	}

	if _, ok, err := s.Get("missing"); ok || err != nil {
		t.Errorf("Get missing = %v, %v", ok, err)
	}
}

func TestSealedStore_WrongPassphrase(t *testing.T) {
	good, _ := NewAEADFromPassphrase([]byte("pw"))
	bad, _ := NewAEADFromPassphrase([]byte("other"))
	inner := NewMemoryStore()
	if err := NewSealedStore(inner, good).Set("cart", "[]"); err != nil {
		t.Fatal(err)
	}
	_, _, err := NewSealedStore(inner, bad).Get("cart")
	if !errors.Is(err, ErrCorrupted) {
		t.Errorf("expected ErrCorrupted, got %v", err)
	}
}

func TestSealedStore_ValueBoundToKey(t *testing.T) {
	aead, _ := NewAEADFromPassphrase([]byte("pw"))
	inner := NewMemoryStore()
	s := NewSealedStore(inner, aead)
	if err := s.Set("cart", "[]"); err != nil {
		t.Fatal(err)
	}
	raw, _, _ := inner.Get("cart")
	_ = inner.Set("wishlist", raw)
	if _, _, err := s.Get("wishlist"); !errors.Is(err, ErrCorrupted) {
		t.Errorf("moved value opened under another key: %v", err)
	}
}
