// Package doccrypt implements the document cryptor: hybrid encryption
// of documents with a fresh symmetric key per document, sealed to an
// organization's public key, with support for re-wrapping that key to
// other recipients for sharing.
package doccrypt

import (
	"crypto/rand"
	"unicode/utf8"

	"github.com/allisson/vault/internal/cryptobox"
	vaulterr "github.com/allisson/vault/internal/errors"
	"github.com/allisson/vault/internal/sealedbox"
)

// Document is the plaintext form: a name and arbitrary content bytes.
type Document struct {
	Name    string
	Content []byte
}

// Encrypted is the ciphertext form persisted by the object store: the
// encrypted name and content, independently sealed under the same
// document key.
type Encrypted struct {
	EncryptedName    []byte
	EncryptedContent []byte
}

// KeyPair is an organization's X25519 public/private key pair, as produced
// by the key-pair protector.
type KeyPair struct {
	PublicKey  []byte
	PrivateKey []byte
}

// Wrap samples a fresh 32-byte symmetric key, encrypts the document's name
// and content separately under it, and seals the key to orgPublicKey with
// sealed-box semantics: the result binds to the recipient but carries no
// sender identity.
func Wrap(doc Document, orgPublicKey []byte) (Encrypted, []byte, error) {
	key := make([]byte, cryptobox.KeySize)
	if _, err := rand.Read(key); err != nil {
		return Encrypted{}, nil, vaulterr.Wrap(vaulterr.CryptographyError, err, "could not sample document key")
	}

	encName, err := cryptobox.Seal([]byte(doc.Name), key)
	if err != nil {
		return Encrypted{}, nil, err
	}
	encContent, err := cryptobox.Seal(doc.Content, key)
	if err != nil {
		return Encrypted{}, nil, err
	}

	wrappedKey, err := sealedbox.Seal(key, orgPublicKey)
	if err != nil {
		return Encrypted{}, nil, err
	}

	return Encrypted{EncryptedName: encName, EncryptedContent: encContent}, wrappedKey, nil
}

// WrapWithKey encrypts doc's name and content under an already-known
// document key, without sampling a fresh key or producing a new
// wrapped-key blob. update_document must keep a document's existing key
// so every owner's previously issued wrapped key stays valid: only
// new_document mints a fresh key via Wrap.
func WrapWithKey(doc Document, key []byte) (Encrypted, error) {
	encName, err := cryptobox.Seal([]byte(doc.Name), key)
	if err != nil {
		return Encrypted{}, err
	}
	encContent, err := cryptobox.Seal(doc.Content, key)
	if err != nil {
		return Encrypted{}, err
	}
	return Encrypted{EncryptedName: encName, EncryptedContent: encContent}, nil
}

// Unwrap opens wrappedKey with the organization's key pair to recover the
// document key, then decrypts the name and content.
func Unwrap(enc Encrypted, wrappedKey []byte, keyPair KeyPair) (Document, error) {
	key, err := sealedbox.Open(wrappedKey, keyPair.PublicKey, keyPair.PrivateKey)
	if err != nil {
		return Document{}, err
	}

	nameBytes, err := cryptobox.Open(enc.EncryptedName, key)
	if err != nil {
		return Document{}, err
	}
	if !utf8.Valid(nameBytes) {
		return Document{}, vaulterr.New(vaulterr.CryptographyError, "decrypted name is not valid UTF-8")
	}

	content, err := cryptobox.Open(enc.EncryptedContent, key)
	if err != nil {
		return Document{}, err
	}

	return Document{Name: string(nameBytes), Content: content}, nil
}

// Rewrap opens wrappedKey with keyPair to recover the document key and
// re-seals it for otherPublicKey. The document key itself is never
// returned to the caller.
func Rewrap(wrappedKey []byte, keyPair KeyPair, otherPublicKey []byte) ([]byte, error) {
	key, err := sealedbox.Open(wrappedKey, keyPair.PublicKey, keyPair.PrivateKey)
	if err != nil {
		return nil, err
	}
	return sealedbox.Seal(key, otherPublicKey)
}

// NameOf opens wrappedKey and decrypts only the encrypted name, enabling
// fingerprint-style lookup by name without decrypting the document content.
func NameOf(encryptedName []byte, wrappedKey []byte, keyPair KeyPair) (string, error) {
	key, err := sealedbox.Open(wrappedKey, keyPair.PublicKey, keyPair.PrivateKey)
	if err != nil {
		return "", err
	}

	nameBytes, err := cryptobox.Open(encryptedName, key)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(nameBytes) {
		return "", vaulterr.New(vaulterr.CryptographyError, "decrypted name is not valid UTF-8")
	}
	return string(nameBytes), nil
}
