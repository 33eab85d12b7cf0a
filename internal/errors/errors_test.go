package errors_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vaulterr "github.com/allisson/vault/internal/errors"
)

func TestIsMatchesKind(t *testing.T) {
	err := vaulterr.New(vaulterr.DocumentNotFound, "no such document")
	assert.True(t, vaulterr.Is(err, vaulterr.DocumentNotFound))
	assert.False(t, vaulterr.Is(err, vaulterr.ServerError))
}

func TestWrapPreservesCauseForLoggingOnly(t *testing.T) {
	cause := vaulterr.New(vaulterr.FileError, "disk full")
	err := vaulterr.Wrap(vaulterr.ServerError, cause, "could not persist")
	require.Error(t, err)
	assert.Equal(t, vaulterr.ServerError, vaulterr.KindOf(err))
	assert.ErrorIs(t, err, cause)
}

func TestWithAdviceCarriesStructuredPayload(t *testing.T) {
	err := vaulterr.WithAdvice("too weak", "add a digit", "avoid the organization name")
	assert.Equal(t, vaulterr.PasswordNotStrong, err.Kind)
	assert.Equal(t, []string{"add a digit", "avoid the organization name"}, err.Advice)
}

func TestKindOfDefaultsToServerErrorForForeignErrors(t *testing.T) {
	assert.Equal(t, vaulterr.ServerError, vaulterr.KindOf(assertNewPlainError()))
}

func assertNewPlainError() error {
	return plainError("boom")
}

type plainError string

func (p plainError) Error() string { return string(p) }
