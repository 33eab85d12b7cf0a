package vaultserver_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/vault/internal/keypair"
	"github.com/allisson/vault/internal/naming"
	"github.com/allisson/vault/internal/sealedbox"
	"github.com/allisson/vault/internal/session"
	"github.com/allisson/vault/internal/store"
	"github.com/allisson/vault/internal/vaultserver"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := store.New(t.TempDir())
	sessions := session.NewManager(time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := vaultserver.NewMetrics(prometheus.NewRegistry())
	srv := vaultserver.NewServer(st, sessions, logger, metrics, "127.0.0.1", 0, vaultserver.Options{})
	return httptest.NewServer(srv.Handler())
}

func post(t *testing.T, ts *httptest.Server, path string, body interface{}, out interface{}) *http.Response {
	t.Helper()
	encoded, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := ts.Client().Post(ts.URL+path, "application/json", bytes.NewReader(encoded))
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func createTestOrganization(t *testing.T, ts *httptest.Server, name string) ([]byte, map[string]keypair.UserRecord, map[string]string) {
	t.Helper()
	hashParams := naming.ArgonConfig{MemoryKiB: 8 * 1024, Time: 1, Threads: 4}
	passwords := map[string]string{"chell": "pw1-correct-horse", "cave": "pw2-battery-staple"}

	records, publicKey, err := keypair.Protect(passwords, hashParams)
	require.NoError(t, err)

	resp := post(t, ts, "/create_organization", vaultserver.CreateOrganizationRequest{
		Name:       name,
		Users:      records,
		PublicKey:  publicKey,
		HashParams: hashParams,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	return publicKey, records, passwords
}

func TestCreateOrganizationThenUnlock(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	createTestOrganization(t, ts, "apsci")

	var unlockResp vaultserver.UnlockVaultResponse
	resp := post(t, ts, "/unlock_vault", vaultserver.UnlockVaultRequest{
		Name: "apsci", User1: "chell", User2: "cave",
	}, &unlockResp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, unlockResp.SealedToken)
}

func TestCreateOrganizationRejectsFewerThanTwoUsers(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp := post(t, ts, "/create_organization", vaultserver.CreateOrganizationRequest{
		Name:  "apsci",
		Users: map[string]keypair.UserRecord{"chell": {}},
	}, nil)
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)
}

func TestCreateOrganizationRejectsInvalidName(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	hashParams := naming.ArgonConfig{MemoryKiB: 8 * 1024, Time: 1, Threads: 4}
	records, publicKey, err := keypair.Protect(map[string]string{"chell": "pw1", "cave": "pw2"}, hashParams)
	require.NoError(t, err)

	resp := post(t, ts, "/create_organization", vaultserver.CreateOrganizationRequest{
		Name: "../evil", Users: records, PublicKey: publicKey, HashParams: hashParams,
	}, nil)
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)
}

func unlockToken(t *testing.T, ts *httptest.Server, name string, publicKey []byte, records map[string]keypair.UserRecord, passwords map[string]string) []byte {
	t.Helper()

	var unlockResp vaultserver.UnlockVaultResponse
	post(t, ts, "/unlock_vault", vaultserver.UnlockVaultRequest{Name: name, User1: "chell", User2: "cave"}, &unlockResp)

	secretKey, err := keypair.Reconstruct(passwords["chell"], records["chell"], passwords["cave"], records["cave"], unlockResp.HashParams)
	require.NoError(t, err)

	tokenBytes, err := sealedbox.Open(unlockResp.SealedToken, publicKey, secretKey)
	require.NoError(t, err)
	return tokenBytes
}

func TestUnlockThenNewDocumentReturnsDocID(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	publicKey, records, passwords := createTestOrganization(t, ts, "apsci")
	tokenBytes := unlockToken(t, ts, "apsci", publicKey, records, passwords)

	var newDocResp vaultserver.NewDocumentResponse
	resp := post(t, ts, "/new_document", vaultserver.NewDocumentRequest{
		Token:            tokenBytes,
		EncryptedName:    []byte("enc-name"),
		EncryptedContent: []byte("enc-content"),
		WrappedKey:       []byte("wrapped-key"),
	}, &newDocResp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, newDocResp.DocID)
}

func TestConcurrentNewDocumentsAreAllStored(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	publicKey, records, passwords := createTestOrganization(t, ts, "apsci")
	tokenBytes := unlockToken(t, ts, "apsci", publicKey, records, passwords)

	const uploads = 8
	var g errgroup.Group
	for i := 0; i < uploads; i++ {
		i := i
		g.Go(func() error {
			body, err := json.Marshal(vaultserver.NewDocumentRequest{
				Token:            tokenBytes,
				EncryptedName:    []byte(fmt.Sprintf("enc-name-%d", i)),
				EncryptedContent: []byte(fmt.Sprintf("enc-content-%d", i)),
				WrappedKey:       []byte(fmt.Sprintf("wrapped-key-%d", i)),
			})
			if err != nil {
				return err
			}
			resp, err := ts.Client().Post(ts.URL+"/new_document", "application/json", bytes.NewReader(body))
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("new_document returned status %d", resp.StatusCode)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var entries []vaultserver.DocumentListEntry
	resp := post(t, ts, "/list_documents", vaultserver.ListDocumentsRequest{Token: tokenBytes}, &entries)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, entries, uploads)
}
