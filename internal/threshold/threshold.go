// Package threshold wraps a (t=2, n=N) secret-sharing scheme over a
// 32-byte secret: any two shares reconstruct it, one share leaks nothing.
package threshold

import (
	"github.com/hashicorp/vault/shamir"

	vaulterr "github.com/allisson/vault/internal/errors"
)

// Threshold is fixed at two shares to reconstruct, per the key-pair
// protector's contract.
const Threshold = 2

// Split produces n opaque shares of secret, any two of which reconstruct it.
func Split(secret []byte, n int) ([][]byte, error) {
	if n < Threshold {
		return nil, vaulterr.New(vaulterr.ServerError, "need at least two shares")
	}
	shares, err := shamir.Split(secret, n, Threshold)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.CryptographyError, err, "could not split secret")
	}
	return shares, nil
}

// Combine reconstructs the original secret from any two valid shares.
// A malformed or mismatched pair of shares fails with a CryptographyError
// that is observationally identical to any other reconstruction failure.
func Combine(shareA, shareB []byte) ([]byte, error) {
	secret, err := shamir.Combine([][]byte{shareA, shareB})
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.CryptographyError, err, "could not reconstruct secret")
	}
	return secret, nil
}
