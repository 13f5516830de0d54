package session

import (
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"shopsync/internal/domain"
	"shopsync/internal/kv"
	"shopsync/internal/secretbox"
)

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
)

// Manager owns the persisted token pair for the current session. When a
// secretbox is configured, token values are encrypted before they reach the
// client-state store.
type Manager struct {
	store kv.Store
	box   *secretbox.Box
}

func NewManager(store kv.Store, box *secretbox.Box) *Manager {
	return &Manager{store: store, box: box}
}

func (m *Manager) SaveTokens(pair domain.TokenPair) error {
	if err := m.put(keyAccessToken, pair.Access); err != nil {
		return err
	}
	return m.put(keyRefreshToken, pair.Refresh)
}

// AccessToken returns the stored access token, or "" when the session is
// signed out or the stored value cannot be decrypted.
func (m *Manager) AccessToken() string {
	return m.get(keyAccessToken)
}

func (m *Manager) RefreshToken() string {
	return m.get(keyRefreshToken)
}

func (m *Manager) Authenticated() bool {
	return m.AccessToken() != ""
}

// Expired reports whether the stored access token carries an exp claim in the
// past. The signature is not verified; only the backend can do that, the
// client just avoids calls it knows will be rejected.
func (m *Manager) Expired() bool {
	token := m.AccessToken()
	if token == "" {
		return true
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		// Opaque tokens have no readable expiry; let the backend decide.
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now().UTC())
}

// Clear removes both tokens, signing the session out. Store teardown on
// logout is wired by the caller.
func (m *Manager) Clear() error {
	if err := m.store.Delete(keyAccessToken); err != nil {
		return err
	}
	return m.store.Delete(keyRefreshToken)
}

func (m *Manager) put(key, value string) error {
	if value == "" {
		return m.store.Delete(key)
	}
	if m.box != nil {
		sealed, err := m.box.Encrypt(value)
		if err != nil {
			return err
		}
		value = sealed
	}
	return m.store.Set(key, value)
}

func (m *Manager) get(key string) string {
	raw, ok := m.store.Get(key)
	if !ok {
		return ""
	}
	if m.box == nil {
		return raw
	}
	value, err := m.box.Decrypt(raw)
	if err != nil {
		log.Printf("discarding undecryptable %s: %v", key, err)
		return ""
	}
	return value
}
