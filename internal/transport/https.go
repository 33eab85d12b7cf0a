package transport

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"net/http"

	vaulterr "github.com/allisson/vault/internal/errors"
	"github.com/allisson/vault/internal/vaultserver"
)

// HTTPSTransport is the production binding: TLS 1.3 only, exactly one
// trusted CA certificate, system roots disabled.
type HTTPSTransport struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSTransport builds a transport that trusts exactly caCertPEM and
// speaks only TLS 1.3 to baseURL.
func NewHTTPSTransport(baseURL string, caCertPEM []byte) (*HTTPSTransport, error) {
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCertPEM) {
		return nil, vaulterr.New(vaulterr.ServerError, "could not parse CA certificate")
	}

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS13,
		MaxVersion: tls.VersionTLS13,
		RootCAs:    pool,
	}

	return &HTTPSTransport{
		baseURL: baseURL,
		client: &http.Client{
			Transport: &http.Transport{TLSClientConfig: tlsConfig},
		},
	}, nil
}

func (t *HTTPSTransport) post(path string, req, resp interface{}) error {
	body, err := json.Marshal(req)
	if err != nil {
		return vaulterr.Wrap(vaulterr.ServerError, err, "could not encode request")
	}

	httpResp, err := t.client.Post(fmt.Sprintf("%s%s", t.baseURL, path), "application/json", bytes.NewReader(body))
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
	if err := json.NewDecoder(httpResp.Body).Decode(resp); err != nil {
		return vaulterr.Wrap(vaulterr.ServerError, err, "could not decode response")
	}
	return nil
}

func (t *HTTPSTransport) CreateOrganization(input CreateOrganizationInput) error {
	return t.post("/create_organization", vaultserver.CreateOrganizationRequest{
		Name:       input.Name,
		Users:      input.Users,
		PublicKey:  input.PublicKey,
		HashParams: input.HashParams,
	}, nil)
}

func (t *HTTPSTransport) UnlockVault(name, user1, user2 string) (UnlockVaultOutput, error) {
	var resp vaultserver.UnlockVaultResponse
	if err := t.post("/unlock_vault", vaultserver.UnlockVaultRequest{Name: name, User1: user1, User2: user2}, &resp); err != nil {
		return UnlockVaultOutput{}, err
	}
	return UnlockVaultOutput{
		Record1: resp.Record1, Record2: resp.Record2,
		HashParams: resp.HashParams, PublicKey: resp.PublicKey, SealedToken: resp.SealedToken,
	}, nil
}

func (t *HTTPSTransport) RevokeUser(token []byte, user string) error {
	return t.post("/revoke_user", vaultserver.RevokeUserRequest{Token: token, User: user}, nil)
}

func (t *HTTPSTransport) RevokeToken(token []byte) error {
	return t.post("/revoke_token", vaultserver.RevokeTokenRequest{Token: token}, nil)
}

func (t *HTTPSTransport) NewDocument(token []byte, encryptedName, encryptedContent, wrappedKey []byte) (string, error) {
	var resp vaultserver.NewDocumentResponse
	err := t.post("/new_document", vaultserver.NewDocumentRequest{
		Token: token, EncryptedName: encryptedName, EncryptedContent: encryptedContent, WrappedKey: wrappedKey,
	}, &resp)
	return resp.DocID, err
}

func (t *HTTPSTransport) ListDocuments(token []byte) ([]DocumentListEntry, error) {
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

func (t *HTTPSTransport) GetDocumentKey(token []byte, docID string) ([]byte, error) {
	var resp vaultserver.GetDocumentKeyResponse
	err := t.post("/get_document_key", vaultserver.GetDocumentKeyRequest{Token: token, DocID: docID}, &resp)
	return resp.WrappedKey, err
}

func (t *HTTPSTransport) GetDocument(token []byte, docID string) ([]byte, []byte, error) {
	var resp vaultserver.GetDocumentResponse
	err := t.post("/get_document", vaultserver.GetDocumentRequest{Token: token, DocID: docID}, &resp)
	return resp.EncryptedName, resp.EncryptedContent, err
}

func (t *HTTPSTransport) UpdateDocument(token []byte, docID string, encryptedName, encryptedContent []byte) error {
	return t.post("/update_document", vaultserver.UpdateDocumentRequest{
		Token: token, DocID: docID, EncryptedName: encryptedName, EncryptedContent: encryptedContent,
	}, nil)
}

func (t *HTTPSTransport) DeleteDocument(token []byte, docID string) error {
	return t.post("/delete_document", vaultserver.DeleteDocumentRequest{Token: token, DocID: docID}, nil)
}

func (t *HTTPSTransport) GetPublicKeyOfOrganization(name string) ([]byte, error) {
	var resp vaultserver.GetPublicKeyOfOrganizationResponse
	err := t.post("/get_public_key_of_organization", vaultserver.GetPublicKeyOfOrganizationRequest{Name: name}, &resp)
	return resp.PublicKey, err
}

func (t *HTTPSTransport) AddOwner(token []byte, docID, otherOrg string, wrappedKey []byte) error {
	return t.post("/add_owner", vaultserver.AddOwnerRequest{
		Token: token, DocID: docID, OtherOrg: otherOrg, WrappedKey: wrappedKey,
	}, nil)
}
