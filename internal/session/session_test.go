package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/allisson/vault/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNewSessionThenLookupReturnsOrganization(t *testing.T) {
	mgr := session.NewManager(time.Minute)
	token, err := mgr.NewSession("apsci")
	require.NoError(t, err)

	org, ok := mgr.Lookup(token)
	require.True(t, ok)
	assert.Equal(t, "apsci", org)
}

func TestUnknownTokenFails(t *testing.T) {
	mgr := session.NewManager(time.Minute)
	_, ok := mgr.Lookup("not-a-real-token")
	assert.False(t, ok)
}

func TestExpiredTokenBehavesLikeUnknown(t *testing.T) {
	mgr := session.NewManager(time.Millisecond)
	token, err := mgr.NewSession("apsci")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, ok := mgr.Lookup(token)
	assert.False(t, ok)
}

func TestEndSessionIsIdempotent(t *testing.T) {
	mgr := session.NewManager(time.Minute)
	token, err := mgr.NewSession("apsci")
	require.NoError(t, err)

	mgr.EndSession(token)
	mgr.EndSession(token)

	_, ok := mgr.Lookup(token)
	assert.False(t, ok)
}

func TestTokensAreUnique(t *testing.T) {
	mgr := session.NewManager(time.Minute)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := mgr.NewSession("apsci")
		require.NoError(t, err)
		assert.False(t, seen[token])
		seen[token] = true
	}
}

func TestLookupRefreshesLastActivity(t *testing.T) {
	mgr := session.NewManager(20 * time.Millisecond)
	token, err := mgr.NewSession("apsci")
	require.NoError(t, err)

	time.Sleep(12 * time.Millisecond)
	_, ok := mgr.Lookup(token)
	require.True(t, ok)

	time.Sleep(12 * time.Millisecond)
	_, ok = mgr.Lookup(token)
	assert.True(t, ok, "activity should have been refreshed by the previous lookup")
}
