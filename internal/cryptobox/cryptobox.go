// Package cryptobox implements the vault's symmetric AEAD box:
// authenticated encryption of opaque byte strings with a fresh nonce per
// message. A successful Open implies integrity; there is no raw-decrypt
// fallback.
package cryptobox

import (
	"crypto/rand"

	"golang.org/x/crypto/nacl/secretbox"

	vaulterr "github.com/allisson/vault/internal/errors"
)

// KeySize is the length in bytes of a symmetric box key.
const KeySize = 32

const nonceSize = 24

// Seal encrypts plaintext under key, sampling a fresh uniformly random
// nonce and prepending it to the returned ciphertext.
func Seal(plaintext, key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, vaulterr.New(vaulterr.CryptographyError, "symmetric key must be 32 bytes")
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, vaulterr.Wrap(vaulterr.CryptographyError, err, "could not sample nonce")
	}

	var k [KeySize]byte
	copy(k[:], key)

	out := make([]byte, nonceSize, nonceSize+len(plaintext)+secretbox.Overhead)
	copy(out, nonce[:])
	out = secretbox.Seal(out, plaintext, &nonce, &k)
	return out, nil
}

// Open verifies and decrypts a ciphertext produced by Seal. Any integrity
// failure returns a CryptographyError; the caller cannot distinguish a
// tampered ciphertext from a wrong key.
func Open(ciphertext, key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, vaulterr.New(vaulterr.CryptographyError, "symmetric key must be 32 bytes")
	}
	if len(ciphertext) < nonceSize {
		return nil, vaulterr.New(vaulterr.CryptographyError, "ciphertext too short")
	}

	var nonce [nonceSize]byte
	copy(nonce[:], ciphertext[:nonceSize])

	var k [KeySize]byte
	copy(k[:], key)

	plaintext, ok := secretbox.Open(nil, ciphertext[nonceSize:], &nonce, &k)
	if !ok {
		return nil, vaulterr.New(vaulterr.CryptographyError, "authentication failed")
	}
	return plaintext, nil
}
