// Package sessioncontroller implements the client-side session
// controller: it holds an unlocked session (the decrypted organization
// key pair, the bearer token, a transport handle), exposes the
// user-visible document operations, and scrubs the token on teardown.
//
// A Controller is the sole holder of the plaintext key pair and the
// bearer token for its session; both are dropped when Close runs.
package sessioncontroller

import (
	"log/slog"

	"github.com/allisson/vault/internal/doccrypt"
	vaulterr "github.com/allisson/vault/internal/errors"
	"github.com/allisson/vault/internal/keypair"
	"github.com/allisson/vault/internal/naming"
	"github.com/allisson/vault/internal/sealedbox"
	"github.com/allisson/vault/internal/transport"
)

// Controller is the sole holder of an unlocked session's plaintext key
// pair and bearer token.
type Controller struct {
	transport transport.Transport
	keyPair   doccrypt.KeyPair
	token     []byte
	org       string
	logger    *slog.Logger
}

// Unlock validates the organization and member names, requests
// unlock_vault, reconstructs the organization's secret key from the two
// given (password, share) pairs, and decrypts the server-sealed bearer
// token. The returned Controller is the only thing in the process that
// ever holds the plaintext key pair or token.
func Unlock(t transport.Transport, org, user1, password1, user2, password2 string, logger *slog.Logger) (*Controller, error) {
	normalizedOrg, err := naming.Normalize(org)
	if err != nil {
		return nil, err
	}
	normalizedUser1, err := naming.Normalize(user1)
	if err != nil {
		return nil, err
	}
	normalizedUser2, err := naming.Normalize(user2)
	if err != nil {
		return nil, err
	}

	out, err := t.UnlockVault(normalizedOrg, normalizedUser1, normalizedUser2)
	if err != nil {
		return nil, err
	}

	secretKey, err := keypair.Reconstruct(password1, out.Record1, password2, out.Record2, out.HashParams)
	if err != nil {
		return nil, err
	}

	token, err := sealedbox.Open(out.SealedToken, out.PublicKey, secretKey)
	if err != nil {
		zero(secretKey)
		return nil, err
	}

	return &Controller{
		transport: t,
		keyPair:   doccrypt.KeyPair{PublicKey: out.PublicKey, PrivateKey: secretKey},
		token:     token,
		org:       normalizedOrg,
		logger:    logger,
	}, nil
}

// Organization returns the normalized name of the unlocked organization.
func (c *Controller) Organization() string {
	return c.org
}

// Upload wraps doc under the organization's public key and uploads it as
// a brand-new document.
func (c *Controller) Upload(doc doccrypt.Document) error {
	enc, wrappedKey, err := doccrypt.Wrap(doc, c.keyPair.PublicKey)
	if err != nil {
		return err
	}
	_, err = c.transport.NewDocument(c.token, enc.EncryptedName, enc.EncryptedContent, wrappedKey)
	return err
}

// ListDocumentNames lists the session's documents and decrypts each name.
func (c *Controller) ListDocumentNames() ([]string, error) {
	entries, err := c.transport.ListDocuments(c.token)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name, err := doccrypt.NameOf(e.EncryptedName, e.WrappedKey, c.keyPair)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// findByName lists documents and returns the id and wrapped key of the
// one whose decrypted name matches name. It fails with DocumentNotFound
// if no match exists in the session's listing.
func (c *Controller) findByName(name string) (docID string, wrappedKey []byte, err error) {
	entries, err := c.transport.ListDocuments(c.token)
	if err != nil {
		return "", nil, err
	}
	for _, e := range entries {
		candidate, err := doccrypt.NameOf(e.EncryptedName, e.WrappedKey, c.keyPair)
		if err != nil {
			return "", nil, err
		}
		if candidate == name {
			return e.DocID, e.WrappedKey, nil
		}
	}
	return "", nil, vaulterr.New(vaulterr.DocumentNotFound, "no document with that name")
}

// Download finds a document by its decrypted name and returns its
// decrypted content.
func (c *Controller) Download(name string) (doccrypt.Document, error) {
	docID, wrappedKey, err := c.findByName(name)
	if err != nil {
		return doccrypt.Document{}, err
	}

	encName, encContent, err := c.transport.GetDocument(c.token, docID)
	if err != nil {
		return doccrypt.Document{}, err
	}

	return doccrypt.Unwrap(doccrypt.Encrypted{EncryptedName: encName, EncryptedContent: encContent}, wrappedKey, c.keyPair)
}

// Update finds oldName, re-wraps newDoc under the same document key, and
// overwrites the stored payload; this mutation is visible to every owner.
func (c *Controller) Update(oldName string, newDoc doccrypt.Document) error {
	docID, wrappedKey, err := c.findByName(oldName)
	if err != nil {
		return err
	}

	key, err := sealedbox.Open(wrappedKey, c.keyPair.PublicKey, c.keyPair.PrivateKey)
	if err != nil {
		return err
	}
	defer zero(key)

	enc, err := doccrypt.WrapWithKey(newDoc, key)
	if err != nil {
		return err
	}

	return c.transport.UpdateDocument(c.token, docID, enc.EncryptedName, enc.EncryptedContent)
}

// Share finds name, fetches otherOrg's public key, re-wraps the document
// key for it, and adds otherOrg as an owner. The document key itself
// never leaves this call's stack.
func (c *Controller) Share(name, otherOrg string) error {
	normalizedOther, err := naming.Normalize(otherOrg)
	if err != nil {
		return err
	}

	docID, wrappedKey, err := c.findByName(name)
	if err != nil {
		return err
	}

	otherPublicKey, err := c.transport.GetPublicKeyOfOrganization(normalizedOther)
	if err != nil {
		return err
	}

	newWrappedKey, err := doccrypt.Rewrap(wrappedKey, c.keyPair, otherPublicKey)
	if err != nil {
		return err
	}

	return c.transport.AddOwner(c.token, docID, normalizedOther, newWrappedKey)
}

// Delete finds name and removes this organization's ownership of it;
// other owners, if any, keep their copy.
func (c *Controller) Delete(name string) error {
	docID, _, err := c.findByName(name)
	if err != nil {
		return err
	}
	return c.transport.DeleteDocument(c.token, docID)
}

// RevokeUser forwards a member-removal request after normalizing user.
func (c *Controller) RevokeUser(user string) error {
	normalizedUser, err := naming.Normalize(user)
	if err != nil {
		return err
	}
	return c.transport.RevokeUser(c.token, normalizedUser)
}

// Close attempts to revoke the session's bearer token and scrubs the
// key pair and token from memory. Teardown always attempts revoke_token
// regardless of why the session is ending; failure is logged, never
// propagated.
func (c *Controller) Close() {
	if err := c.transport.RevokeToken(c.token); err != nil {
		c.logger.Warn("could not revoke session token", slog.String("organization", c.org))
	}
	zero(c.keyPair.PrivateKey)
	zero(c.token)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
