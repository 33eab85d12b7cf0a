// Package session implements the server-side session manager: it
// issues, validates, and expires bearer tokens binding a session to an
// organization name.
package session

import (
	"crypto/rand"
	"sync"
	"time"

	vaulterr "github.com/allisson/vault/internal/errors"
)

// TokenSize is the length in bytes of a bearer token.
const TokenSize = 32

// DefaultInactivityTimeout is the default duration after which an unused
// session expires.
const DefaultInactivityTimeout = 300 * time.Second

type entry struct {
	organization string
	lastActivity time.Time
}

// Manager holds the token → organization table. It is safe for concurrent
// use; callers that also touch the object store under the same critical
// section should still serialize through their own lock per the server's
// concurrency model.
type Manager struct {
	mu                sync.Mutex
	tokens            map[string]entry
	inactivityTimeout time.Duration
	now               func() time.Time
}

// NewManager creates a session manager with the given inactivity timeout.
func NewManager(inactivityTimeout time.Duration) *Manager {
	return &Manager{
		tokens:            make(map[string]entry),
		inactivityTimeout: inactivityTimeout,
		now:               time.Now,
	}
}

// NewSession samples a fresh, cryptographically random token, binds it to
// organization, and returns it.
func (m *Manager) NewSession(organization string) (string, error) {
	token := make([]byte, TokenSize)
	if _, err := rand.Read(token); err != nil {
		return "", vaulterr.Wrap(vaulterr.CryptographyError, err, "could not sample session token")
	}
	tokenStr := string(token)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeExpiredLocked()
	m.tokens[tokenStr] = entry{organization: organization, lastActivity: m.now()}
	return tokenStr, nil
}

// Lookup purges expired entries, then looks up token. A successful lookup
// refreshes the entry's last-activity instant. An expired token behaves
// identically to an unknown one.
func (m *Manager) Lookup(token string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeExpiredLocked()

	e, ok := m.tokens[token]
	if !ok {
		return "", false
	}
	e.lastActivity = m.now()
	m.tokens[token] = e
	return e.organization, true
}

// EndSession removes token's entry. Idempotent: ending an already-absent
// token is not an error.
func (m *Manager) EndSession(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeExpiredLocked()
	delete(m.tokens, token)
}

// Count purges expired entries and reports how many sessions remain live.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeExpiredLocked()
	return len(m.tokens)
}

// purgeExpiredLocked removes every entry whose inactivity timeout has
// elapsed. Callers must hold m.mu.
func (m *Manager) purgeExpiredLocked() {
	cutoff := m.now().Add(-m.inactivityTimeout)
	for token, e := range m.tokens {
		if e.lastActivity.Before(cutoff) {
			delete(m.tokens, token)
		}
	}
}
