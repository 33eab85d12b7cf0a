// Package naming implements name validation/normalization and the
// empirical selection of an Argon2 cost parameter targeting a fixed wall
// time. Every name that reaches the wire or the filesystem passes through
// Normalize exactly once at the first boundary that sees it.
package naming

import (
	"strings"

	validation "github.com/jellydator/validation"

	vaulterr "github.com/allisson/vault/internal/errors"
)

const (
	minLength = 1
	maxLength = 100
)

// Normalize accepts a name iff its length is within [1, 100] and every
// character is ASCII alphanumeric; it returns the lowercased form.
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(name string) (string, error) {
	if err := validation.Validate(name,
		validation.Required,
		validation.Length(minLength, maxLength),
		validation.By(mustBeASCIIAlphanumeric),
	); err != nil {
		return "", vaulterr.Wrap(vaulterr.ValidationError, err, "invalid name")
	}
	return strings.ToLower(name), nil
}

func mustBeASCIIAlphanumeric(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_name_type", "name must be a string")
	}
	for _, r := range s {
		isDigit := r >= '0' && r <= '9'
		isUpper := r >= 'A' && r <= 'Z'
		isLower := r >= 'a' && r <= 'z'
		if !isDigit && !isUpper && !isLower {
			return validation.NewError("validation_name_alnum", "name must be ASCII alphanumeric")
		}
	}
	return nil
}
