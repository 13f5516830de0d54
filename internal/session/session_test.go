package session

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"shopsync/internal/domain"
	"shopsync/internal/kv/memory"
	"shopsync/internal/secretbox"
)

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestSaveAndReadTokens(t *testing.T) {
	m := NewManager(memory.NewStore(), nil)
	if m.Authenticated() {
		t.Fatal("expected fresh manager to be signed out")
	}
	pair := domain.TokenPair{Access: "acc", Refresh: "ref"}
	if err := m.SaveTokens(pair); err != nil {
		t.Fatalf("save: %v", err)
	}
	if m.AccessToken() != "acc" || m.RefreshToken() != "ref" {
		t.Fatal("expected stored tokens back")
	}
	if !m.Authenticated() {
		t.Fatal("expected authenticated after save")
	}
}

func TestClearSignsOut(t *testing.T) {
	m := NewManager(memory.NewStore(), nil)
	_ = m.SaveTokens(domain.TokenPair{Access: "acc", Refresh: "ref"})
	if err := m.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if m.Authenticated() || m.AccessToken() != "" {
		t.Fatal("expected signed-out state after clear")
	}
}

func TestExpired(t *testing.T) {
	m := NewManager(memory.NewStore(), nil)
	if !m.Expired() {
		t.Fatal("expected missing token to read as expired")
	}

	_ = m.SaveTokens(domain.TokenPair{Access: signedToken(t, time.Now().Add(time.Hour))})
	if m.Expired() {
		t.Fatal("expected fresh token to not be expired")
	}

	_ = m.SaveTokens(domain.TokenPair{Access: signedToken(t, time.Now().Add(-time.Hour))})
	if !m.Expired() {
		t.Fatal("expected past exp claim to read as expired")
	}

	// Opaque tokens have no readable expiry; the backend decides.
	_ = m.SaveTokens(domain.TokenPair{Access: "opaque-token"})
	if m.Expired() {
		t.Fatal("expected opaque token to not be treated as expired")
	}
}

func TestTokensEncryptedAtRest(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	box, err := secretbox.New(key)
	if err != nil {
		t.Fatalf("new box: %v", err)
	}
	state := memory.NewStore()
	m := NewManager(state, box)
	_ = m.SaveTokens(domain.TokenPair{Access: "acc", Refresh: "ref"})

	raw, ok := state.Get("access_token")
	if !ok {
		t.Fatal("expected stored access token")
	}
	if raw == "acc" {
		t.Fatal("expected token to be encrypted at rest")
	}
	if m.AccessToken() != "acc" {
		t.Fatal("expected decrypted token on read")
	}
}

func TestUndecryptableTokenReadsAsSignedOut(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	box, _ := secretbox.New(key)
	state := memory.NewStore()
	_ = state.Set("access_token", "garbage")

	m := NewManager(state, box)
	if m.AccessToken() != "" || m.Authenticated() {
		t.Fatal("expected undecryptable token to read as signed out")
	}
}
