package vaultserver

import (
	"github.com/allisson/vault/internal/keypair"
	"github.com/allisson/vault/internal/naming"
)

// CreateOrganizationRequest is the body of create_organization.
type CreateOrganizationRequest struct {
	Name       string                        `json:"name"`
	Users      map[string]keypair.UserRecord `json:"users"`
	PublicKey  []byte                        `json:"public_key"`
	HashParams naming.ArgonConfig            `json:"hash_params"`
}

// UnlockVaultRequest is the body of unlock_vault.
type UnlockVaultRequest struct {
	Name  string `json:"name"`
	User1 string `json:"user1"`
	User2 string `json:"user2"`
}

// UnlockVaultResponse carries both members' share records, the stored hash
// parameters, the organization public key, and a bearer token sealed under
// that same public key.
type UnlockVaultResponse struct {
	Record1     keypair.UserRecord `json:"record1"`
	Record2     keypair.UserRecord `json:"record2"`
	HashParams  naming.ArgonConfig `json:"hash_params"`
	PublicKey   []byte             `json:"public_key"`
	SealedToken []byte             `json:"sealed_token"`
}

// RevokeUserRequest is the body of revoke_user.
type RevokeUserRequest struct {
	Token []byte `json:"token"`
	User  string `json:"user"`
}

// RevokeTokenRequest is the body of revoke_token.
type RevokeTokenRequest struct {
	Token []byte `json:"token"`
}

// NewDocumentRequest is the body of new_document.
type NewDocumentRequest struct {
	Token            []byte `json:"token"`
	EncryptedName    []byte `json:"encrypted_name"`
	EncryptedContent []byte `json:"encrypted_content"`
	WrappedKey       []byte `json:"wrapped_key"`
}

// NewDocumentResponse returns the server-generated document id.
type NewDocumentResponse struct {
	DocID string `json:"doc_id"`
}

// ListDocumentsRequest is the body of list_documents.
type ListDocumentsRequest struct {
	Token []byte `json:"token"`
}

// DocumentListEntry is one row of list_documents' response.
type DocumentListEntry struct {
	DocID         string `json:"doc_id"`
	EncryptedName []byte `json:"encrypted_name"`
	WrappedKey    []byte `json:"wrapped_key"`
}

// GetDocumentKeyRequest is the body of get_document_key.
type GetDocumentKeyRequest struct {
	Token []byte `json:"token"`
	DocID string `json:"doc_id"`
}

// GetDocumentKeyResponse returns the caller's wrapped key for a document.
type GetDocumentKeyResponse struct {
	WrappedKey []byte `json:"wrapped_key"`
}

// GetDocumentRequest is the body of get_document.
type GetDocumentRequest struct {
	Token []byte `json:"token"`
	DocID string `json:"doc_id"`
}

// GetDocumentResponse returns a document's ciphertext payload.
type GetDocumentResponse struct {
	EncryptedName    []byte `json:"encrypted_name"`
	EncryptedContent []byte `json:"encrypted_content"`
}

// UpdateDocumentRequest is the body of update_document.
type UpdateDocumentRequest struct {
	Token            []byte `json:"token"`
	DocID            string `json:"doc_id"`
	EncryptedName    []byte `json:"encrypted_name"`
	EncryptedContent []byte `json:"encrypted_content"`
}

// DeleteDocumentRequest is the body of delete_document.
type DeleteDocumentRequest struct {
	Token []byte `json:"token"`
	DocID string `json:"doc_id"`
}

// GetPublicKeyOfOrganizationRequest is the body of get_public_key_of_organization.
type GetPublicKeyOfOrganizationRequest struct {
	Name string `json:"name"`
}

// GetPublicKeyOfOrganizationResponse returns an organization's public key.
type GetPublicKeyOfOrganizationResponse struct {
	PublicKey []byte `json:"public_key"`
}

// AddOwnerRequest is the body of add_owner.
type AddOwnerRequest struct {
	Token      []byte `json:"token"`
	DocID      string `json:"doc_id"`
	OtherOrg   string `json:"other_org"`
	WrappedKey []byte `json:"wrapped_key"`
}
