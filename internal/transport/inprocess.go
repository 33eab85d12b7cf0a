package transport

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"

	vaulterr "github.com/allisson/vault/internal/errors"
	"github.com/allisson/vault/internal/vaultserver"
)

// InProcessTransport drives a vaultserver.Server's handler through an
// httptest server on a loopback listener, over plain HTTP with no TLS.
// Intended for tests that exercise the client logic end-to-end without
// the production TLS setup.
type InProcessTransport struct {
	server *httptest.Server
}

// NewInProcessTransport wraps srv's handler for in-process use. Callers
// own the returned server's lifetime and must Close it.
func NewInProcessTransport(srv *vaultserver.Server) *InProcessTransport {
	return &InProcessTransport{server: httptest.NewServer(srv.Handler())}
}

// Close shuts down the underlying in-memory listener.
func (t *InProcessTransport) Close() {
	t.server.Close()
}

func (t *InProcessTransport) post(path string, req, resp interface{}) error {
	body, err := json.Marshal(req)
	if err != nil {
		return vaulterr.Wrap(vaulterr.ServerError, err, "could not encode request")
	}

	httpResp, err := t.server.Client().Post(t.server.URL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return vaulterr.Wrap(vaulterr.ServerError, err, "request failed")
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return vaulterr.New(vaulterr.ServerError, "server rejected request")
	}
	if resp == nil {
		return nil
	}
	if httpResp.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(httpResp.Body).Decode(resp); err != nil {
		return vaulterr.Wrap(vaulterr.ServerError, err, "could not decode response")
	}
	return nil
}

func (t *InProcessTransport) CreateOrganization(input CreateOrganizationInput) error {
	return t.post("/create_organization", vaultserver.CreateOrganizationRequest{
		Name:       input.Name,
		Users:      input.Users,
		PublicKey:  input.PublicKey,
		HashParams: input.HashParams,
	}, nil)
}

func (t *InProcessTransport) UnlockVault(name, user1, user2 string) (UnlockVaultOutput, error) {
	var resp vaultserver.UnlockVaultResponse
	if err := t.post("/unlock_vault", vaultserver.UnlockVaultRequest{Name: name, User1: user1, User2: user2}, &resp); err != nil {
		return UnlockVaultOutput{}, err
	}
	return UnlockVaultOutput{
		Record1: resp.Record1, Record2: resp.Record2,
		HashParams: resp.HashParams, PublicKey: resp.PublicKey, SealedToken: resp.SealedToken,
	}, nil
}

func (t *InProcessTransport) RevokeUser(token []byte, user string) error {
	return t.post("/revoke_user", vaultserver.RevokeUserRequest{Token: token, User: user}, nil)
}

func (t *InProcessTransport) RevokeToken(token []byte) error {
	return t.post("/revoke_token", vaultserver.RevokeTokenRequest{Token: token}, nil)
}

func (t *InProcessTransport) NewDocument(token []byte, encryptedName, encryptedContent, wrappedKey []byte) (string, error) {
	var resp vaultserver.NewDocumentResponse
	err := t.post("/new_document", vaultserver.NewDocumentRequest{
		Token: token, EncryptedName: encryptedName, EncryptedContent: encryptedContent, WrappedKey: wrappedKey,
	}, &resp)
	return resp.DocID, err
}

func (t *InProcessTransport) ListDocuments(token []byte) ([]DocumentListEntry, error) {
	var resp []vaultserver.DocumentListEntry
	if err := t.post("/list_documents", vaultserver.ListDocumentsRequest{Token: token}, &resp); err != nil {
		return nil, err
	}
	entries := make([]DocumentListEntry, len(resp))
	for i, e := range resp {
		entries[i] = DocumentListEntry{DocID: e.DocID, EncryptedName: e.EncryptedName, WrappedKey: e.WrappedKey}
	}
	return entries, nil
}

func (t *InProcessTransport) GetDocumentKey(token []byte, docID string) ([]byte, error) {
	var resp vaultserver.GetDocumentKeyResponse
	err := t.post("/get_document_key", vaultserver.GetDocumentKeyRequest{Token: token, DocID: docID}, &resp)
	return resp.WrappedKey, err
}

func (t *InProcessTransport) GetDocument(token []byte, docID string) ([]byte, []byte, error) {
	var resp vaultserver.GetDocumentResponse
	err := t.post("/get_document", vaultserver.GetDocumentRequest{Token: token, DocID: docID}, &resp)
	return resp.EncryptedName, resp.EncryptedContent, err
}

func (t *InProcessTransport) UpdateDocument(token []byte, docID string, encryptedName, encryptedContent []byte) error {
	return t.post("/update_document", vaultserver.UpdateDocumentRequest{
		Token: token, DocID: docID, EncryptedName: encryptedName, EncryptedContent: encryptedContent,
	}, nil)
}

func (t *InProcessTransport) DeleteDocument(token []byte, docID string) error {
	return t.post("/delete_document", vaultserver.DeleteDocumentRequest{Token: token, DocID: docID}, nil)
}

func (t *InProcessTransport) GetPublicKeyOfOrganization(name string) ([]byte, error) {
	var resp vaultserver.GetPublicKeyOfOrganizationResponse
	err := t.post("/get_public_key_of_organization", vaultserver.GetPublicKeyOfOrganizationRequest{Name: name}, &resp)
	return resp.PublicKey, err
}

func (t *InProcessTransport) AddOwner(token []byte, docID, otherOrg string, wrappedKey []byte) error {
	return t.post("/add_owner", vaultserver.AddOwnerRequest{
		Token: token, DocID: docID, OtherOrg: otherOrg, WrappedKey: wrappedKey,
	}, nil)
}

var _ Transport = (*HTTPSTransport)(nil)
var _ Transport = (*InProcessTransport)(nil)
