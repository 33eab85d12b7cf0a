// Package keypair implements the key-pair protector: it generates an
// organization's asymmetric key pair, splits the private key into shares
// under a (t=2, n=N) threshold scheme, and wraps each share with a
// password-derived key so that any two members presenting the correct
// password for their share can reconstruct the secret key.
package keypair

import (
	"crypto/rand"

	vaulterr "github.com/allisson/vault/internal/errors"
	"github.com/allisson/vault/internal/cryptobox"
	"github.com/allisson/vault/internal/naming"
	"github.com/allisson/vault/internal/sealedbox"
	"github.com/allisson/vault/internal/threshold"
)

// SaltSize is the length in bytes of a freshly sampled per-user salt.
const SaltSize = 16

// UserRecord is what gets persisted per member: a fresh salt and the
// ciphertext of that member's threshold share, encrypted under a key
// derived from their password and the salt.
type UserRecord struct {
	Salt            []byte
	CiphertextShare []byte
}

// Protect generates a fresh X25519 key pair, splits its secret key into
// len(passwords) shares, and wraps each share under a password-derived
// key. The secret key itself is never returned; it exists only transiently
// during this call.
func Protect(passwords map[string]string, hashParams naming.ArgonConfig) (map[string]UserRecord, []byte, error) {
	if len(passwords) < threshold.Threshold {
		return nil, nil, vaulterr.New(vaulterr.NotEnoughUsers, "at least two users are required")
	}

	publicKey, secretKey, err := sealedbox.GenerateKeyPair()
	if err != nil {
		return nil, nil, err
	}
	defer zero(secretKey)

	shares, err := threshold.Split(secretKey, len(passwords))
	if err != nil {
		return nil, nil, err
	}

	usernames := make([]string, 0, len(passwords))
	for username := range passwords {
		usernames = append(usernames, username)
	}

	records := make(map[string]UserRecord, len(passwords))
	for i, username := range usernames {
		salt := make([]byte, SaltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, nil, vaulterr.Wrap(vaulterr.CryptographyError, err, "could not sample salt")
		}

		key := naming.DeriveKey(passwords[username], salt, hashParams)
		ciphertext, err := cryptobox.Seal(shares[i], key)
		zero(key)
		if err != nil {
			return nil, nil, err
		}

		records[username] = UserRecord{Salt: salt, CiphertextShare: ciphertext}
	}

	return records, publicKey, nil
}

// Reconstruct re-derives each user's key from their stored salt and given
// password, decrypts their share, and combines the two shares to recover
// the 32-byte secret key. Any of a hash mismatch, AEAD failure, or
// share-recovery failure fails with a single CryptographyError; the caller
// cannot distinguish which went wrong, and a wrong password is
// observationally identical to a tampered share.
func Reconstruct(
	password1 string, record1 UserRecord,
	password2 string, record2 UserRecord,
	hashParams naming.ArgonConfig,
) ([]byte, error) {
	share1, err := decryptShare(password1, record1, hashParams)
	if err != nil {
		return nil, err
	}
	defer zero(share1)

	share2, err := decryptShare(password2, record2, hashParams)
	if err != nil {
		return nil, err
	}
	defer zero(share2)

	secretKey, err := threshold.Combine(share1, share2)
	if err != nil {
		return nil, err
	}
	if len(secretKey) != sealedbox.KeySize {
		zero(secretKey)
		return nil, vaulterr.New(vaulterr.CryptographyError, "reconstructed key has wrong length")
	}
	return secretKey, nil
}

func decryptShare(password string, record UserRecord, hashParams naming.ArgonConfig) ([]byte, error) {
	key := naming.DeriveKey(password, record.Salt, hashParams)
	defer zero(key)

	share, err := cryptobox.Open(record.CiphertextShare, key)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.CryptographyError, err, "could not recover share")
	}
	return share, nil
}

// zero scrubs sensitive key material from memory once it is no longer needed.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
