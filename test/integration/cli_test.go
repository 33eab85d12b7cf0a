// Package integration drives the vault end to end through the same
// clientcli entry points cmd/vault-client uses, rather than calling
// sessioncontroller/orgbuilder directly, to exercise the CLI menu-loop
// glue itself against a live vault server.
package integration_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/vault/internal/clientcli"
	"github.com/allisson/vault/internal/naming"
	"github.com/allisson/vault/internal/session"
	"github.com/allisson/vault/internal/store"
	"github.com/allisson/vault/internal/transport"
	"github.com/allisson/vault/internal/vaultserver"
)

// scriptedPrompter answers ReadLine/ReadPassword from a fixed queue of
// scripted responses and Confirm from a fixed queue of booleans,
// simulating a user typing the organization-creation and menu-loop
// prompts in order.
type scriptedPrompter struct {
	t          *testing.T
	lines      []string
	confirms   []bool
	lineIdx    int
	confirmIdx int
}

func (p *scriptedPrompter) ReadLine(prompt string) (string, error) {
	p.t.Helper()
	require.Less(p.t, p.lineIdx, len(p.lines), "script ran out of lines at prompt %q", prompt)
	v := p.lines[p.lineIdx]
	p.lineIdx++
	return v, nil
}

func (p *scriptedPrompter) ReadPassword(prompt string) (string, error) {
	return p.ReadLine(prompt)
}

func (p *scriptedPrompter) Confirm(prompt string) (bool, error) {
	p.t.Helper()
	require.Less(p.t, p.confirmIdx, len(p.confirms), "script ran out of confirmations at prompt %q", prompt)
	v := p.confirms[p.confirmIdx]
	p.confirmIdx++
	return v, nil
}

func newVault(t *testing.T) transport.Transport {
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

func TestCreateOrganizationThenLogInUploadAndList(t *testing.T) {
	tr := newVault(t)

	createPrompter := &scriptedPrompter{
		t: t,
		lines: []string{
			"apsci",                               // organization name
			"1",                                    // password-hash memory limit (GB)
			"chell", "correct horse battery staple zebra", "correct horse battery staple zebra",
			"cave", "another very strong passphrase 42", "another very strong passphrase 42",
		},
		confirms: []bool{false},
	}
	require.NoError(t, clientcli.RunCreateOrganizationWithTarget(createPrompter, tr, naming.MinWallTime))

	loginPrompter := &scriptedPrompter{
		t: t,
		lines: []string{
			"apsci",
			"chell", "correct horse battery staple zebra",
			"cave", "another very strong passphrase 42",
			"upload",
			"note", "hello from the integration test",
			"list",
			"exit",
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, clientcli.RunLogin(loginPrompter, tr, logger))
}

func TestCreateOrganizationRejectsWeakPasswordThenAcceptsRetry(t *testing.T) {
	tr := newVault(t)

	createPrompter := &scriptedPrompter{
		t: t,
		lines: []string{
			"weakco",
			"1",
			"chell", "weak", "weak", // rejected: too weak, loop retries the same user
			"chell", "correct horse battery staple zebra", "correct horse battery staple zebra",
			"cave", "another very strong passphrase 42", "another very strong passphrase 42",
		},
		confirms: []bool{false},
	}
	require.NoError(t, clientcli.RunCreateOrganizationWithTarget(createPrompter, tr, naming.MinWallTime))

	publicKey, err := tr.GetPublicKeyOfOrganization("weakco")
	require.NoError(t, err)
	assert.Len(t, publicKey, 32)
}
