package secretbox

import (
	"encoding/base64"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	box, err := New(key)
	if err != nil {
		t.Fatalf("new box: %v", err)
	}
	sealed, err := box.Encrypt("access-token-value")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if sealed == "access-token-value" {
		t.Fatal("expected ciphertext to differ from plaintext")
	}
	plain, err := box.Decrypt(sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if plain != "access-token-value" {
		t.Fatalf("round trip mismatch: %q", plain)
	}
}

func TestNewRejectsBadKeys(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, err := New("not base64!!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
	short := base64.StdEncoding.EncodeToString(make([]byte, 16))
	if _, err := New(short); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestDecryptRejectsGarbage(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	box, _ := New(key)
	if _, err := box.Decrypt("AAAA"); err == nil {
		t.Fatal("expected error for truncated ciphertext")
	}
}
