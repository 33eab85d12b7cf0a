// Package transport implements the typed request/response carrier
// between client and server. Transport is the only allowed path between
// the session controller and the vault server; the client logic runs
// unchanged against any implementation.
package transport

import (
	"github.com/allisson/vault/internal/keypair"
	"github.com/allisson/vault/internal/naming"
)

// CreateOrganizationInput is the typed input for create_organization.
type CreateOrganizationInput struct {
	Name       string
	Users      map[string]keypair.UserRecord
	PublicKey  []byte
	HashParams naming.ArgonConfig
}

// UnlockVaultOutput is the typed output of unlock_vault.
type UnlockVaultOutput struct {
	Record1     keypair.UserRecord
	Record2     keypair.UserRecord
	HashParams  naming.ArgonConfig
	PublicKey   []byte
	SealedToken []byte
}

// DocumentListEntry mirrors one row of list_documents.
type DocumentListEntry struct {
	DocID         string
	EncryptedName []byte
	WrappedKey    []byte
}

// Transport is the one interface the session controller is allowed to
// call through: one method per wire endpoint.
type Transport interface {
	CreateOrganization(input CreateOrganizationInput) error
	UnlockVault(name, user1, user2 string) (UnlockVaultOutput, error)
	RevokeUser(token []byte, user string) error
	RevokeToken(token []byte) error
	NewDocument(token []byte, encryptedName, encryptedContent, wrappedKey []byte) (docID string, err error)
	ListDocuments(token []byte) ([]DocumentListEntry, error)
	GetDocumentKey(token []byte, docID string) (wrappedKey []byte, err error)
	GetDocument(token []byte, docID string) (encryptedName, encryptedContent []byte, err error)
	UpdateDocument(token []byte, docID string, encryptedName, encryptedContent []byte) error
	DeleteDocument(token []byte, docID string) error
	GetPublicKeyOfOrganization(name string) ([]byte, error)
	AddOwner(token []byte, docID, otherOrg string, wrappedKey []byte) error
}
