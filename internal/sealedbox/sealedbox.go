// Package sealedbox implements anonymous public-key encryption: the
// ciphertext binds to the recipient's public key but carries no sender
// identity, using a fresh ephemeral key pair per call. It is the sealing
// primitive behind document-key wrapping.
package sealedbox

import (
	"crypto/rand"

	"golang.org/x/crypto/nacl/box"

	vaulterr "github.com/allisson/vault/internal/errors"
)

// KeySize is the length in bytes of a public or private X25519 key.
const KeySize = 32

const overhead = box.AnonymousOverhead

// GenerateKeyPair samples a fresh X25519 key pair.
func GenerateKeyPair() (publicKey, privateKey []byte, err error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, vaulterr.Wrap(vaulterr.CryptographyError, err, "could not generate key pair")
	}
	return pub[:], priv[:], nil
}

// Seal encrypts message anonymously for the holder of recipientPublicKey.
// A fresh ephemeral sender key pair is generated and discarded per call.
func Seal(message, recipientPublicKey []byte) ([]byte, error) {
	if len(recipientPublicKey) != KeySize {
		return nil, vaulterr.New(vaulterr.CryptographyError, "recipient public key must be 32 bytes")
	}
	var pub [KeySize]byte
	copy(pub[:], recipientPublicKey)

	sealed, err := box.SealAnonymous(nil, message, &pub, rand.Reader)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.CryptographyError, err, "could not seal message")
	}
	return sealed, nil
}

// Open decrypts a message sealed with Seal using the recipient's key pair.
func Open(sealed, recipientPublicKey, recipientPrivateKey []byte) ([]byte, error) {
	if len(recipientPublicKey) != KeySize || len(recipientPrivateKey) != KeySize {
		return nil, vaulterr.New(vaulterr.CryptographyError, "key pair must be 32 bytes each")
	}
	if len(sealed) < overhead {
		return nil, vaulterr.New(vaulterr.CryptographyError, "sealed message too short")
	}

	var pub, priv [KeySize]byte
	copy(pub[:], recipientPublicKey)
	copy(priv[:], recipientPrivateKey)

	message, ok := box.OpenAnonymous(nil, sealed, &pub, &priv)
	if !ok {
		return nil, vaulterr.New(vaulterr.CryptographyError, "could not open sealed message")
	}
	return message, nil
}
