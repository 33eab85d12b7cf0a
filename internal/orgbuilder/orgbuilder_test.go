package orgbuilder_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vaulterr "github.com/allisson/vault/internal/errors"
	"github.com/allisson/vault/internal/naming"
	"github.com/allisson/vault/internal/orgbuilder"
	"github.com/allisson/vault/internal/session"
	"github.com/allisson/vault/internal/store"
	"github.com/allisson/vault/internal/transport"
	"github.com/allisson/vault/internal/vaultserver"
)

func testHashParams() naming.ArgonConfig {
	return naming.ArgonConfig{MemoryKiB: 8 * 1024, Time: 1, Threads: 1}
}

func newInProcessTransport(t *testing.T) *transport.InProcessTransport {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := store.New(t.TempDir())
	sessions := session.NewManager(time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := vaultserver.NewServer(st, sessions, logger, nil, "127.0.0.1", 0, vaultserver.Options{})
	tr := transport.NewInProcessTransport(srv)
	t.Cleanup(tr.Close)
	return tr
}

func TestNewNormalizesName(t *testing.T) {
	b, err := orgbuilder.New("ApSci", testHashParams())
	require.NoError(t, err)
	require.NotNil(t, b)
}

func TestNewRejectsInvalidName(t *testing.T) {
	_, err := orgbuilder.New("../evil", testHashParams())
	require.Error(t, err)
	assert.Equal(t, vaulterr.ValidationError, vaulterr.KindOf(err))
}

func TestAddUserRejectsWeakPassword(t *testing.T) {
	b, err := orgbuilder.New("apsci", testHashParams())
	require.NoError(t, err)

	err = b.AddUser("chell", "weak")
	require.Error(t, err)
	assert.Equal(t, vaulterr.PasswordNotStrong, vaulterr.KindOf(err))
}

func TestAddUserAcceptsStrongPassword(t *testing.T) {
	b, err := orgbuilder.New("apsci", testHashParams())
	require.NoError(t, err)

	require.NoError(t, b.AddUser("chell", "correct horse battery staple zebra"))
	assert.Equal(t, 1, b.UserCount())
}

func TestSubmitRefusesBelowTwoUsers(t *testing.T) {
	b, err := orgbuilder.New("apsci", testHashParams())
	require.NoError(t, err)
	require.NoError(t, b.AddUser("chell", "correct horse battery staple zebra"))

	err = b.Submit(newInProcessTransport(t))
	require.Error(t, err)
	assert.Equal(t, vaulterr.NotEnoughUsers, vaulterr.KindOf(err))
}

func TestSubmitCreatesOrganization(t *testing.T) {
	tr := newInProcessTransport(t)

	b, err := orgbuilder.New("apsci", testHashParams())
	require.NoError(t, err)
	require.NoError(t, b.AddUser("chell", "correct horse battery staple zebra"))
	require.NoError(t, b.AddUser("cave", "another very strong passphrase 42"))

	require.NoError(t, b.Submit(tr))

	publicKey, err := tr.GetPublicKeyOfOrganization("apsci")
	require.NoError(t, err)
	assert.Len(t, publicKey, 32)
}
