// Package errors defines the vault's single closed error taxonomy.
//
// Every failure in the system collapses to one of these kinds. Callers on
// the wire never see anything more specific than the kind itself; only
// PasswordNotStrong carries a user-facing payload.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind identifies one of the vault's error categories. There is no
// subclassing: every failure in the system is exactly one of these.
type Kind int

const (
	// ServerError covers transport failure, unknown/expired token, missing
	// object, and authorisation denial. Any condition that must be
	// indistinguishable from another on the wire collapses here.
	ServerError Kind = iota
	// FileError is a local persistence failure: read, write, or a missing parent.
	FileError
	// ValidationError means a name failed the alphanumeric/length rule.
	ValidationError
	// PasswordNotStrong means the password-strength estimator scored below threshold.
	PasswordNotStrong
	// NotEnoughUsers means organization creation or a revoke would leave fewer than two users.
	NotEnoughUsers
	// DocumentNotFound means a name lookup found no matching document in the session's listing.
	DocumentNotFound
	// CryptographyError covers any cryptographic failure: AEAD tag mismatch,
	// share recovery failure, key-length mismatch, sealed-box open failure,
	// or invalid UTF-8 in a decrypted name.
	CryptographyError
	// InputError is a terminal I/O failure in the interactive CLI.
	InputError
)

func (k Kind) String() string {
	switch k {
	case ServerError:
		return "server_error"
	case FileError:
		return "file_error"
	case ValidationError:
		return "validation_error"
	case PasswordNotStrong:
		return "password_not_strong"
	case NotEnoughUsers:
		return "not_enough_users"
	case DocumentNotFound:
		return "document_not_found"
	case CryptographyError:
		return "cryptography_error"
	case InputError:
		return "input_error"
	default:
		return "unknown_error"
	}
}

// VaultError is the single error type used across the module. It wraps an
// optional underlying cause (kept for local logging only, never serialized
// to the wire) and, for PasswordNotStrong, structured advice.
type VaultError struct {
	Kind   Kind
	Msg    string
	Advice []string
	cause  error
}

func (e *VaultError) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the underlying cause to errors.Is/errors.As, for local
// diagnostics only. It must never be used to recover wire-visible detail.
func (e *VaultError) Unwrap() error {
	return e.cause
}

// New creates a VaultError of the given kind with a local message.
func New(kind Kind, msg string) *VaultError {
	return &VaultError{Kind: kind, Msg: msg}
}

// Wrap creates a VaultError of the given kind around an underlying cause.
// The cause is retained for logging but never exposed by Error() beyond msg.
func Wrap(kind Kind, cause error, msg string) *VaultError {
	if cause == nil {
		return New(kind, msg)
	}
	return &VaultError{Kind: kind, Msg: msg, cause: cause}
}

// WithAdvice attaches user-facing advice to a PasswordNotStrong error.
func WithAdvice(msg string, advice ...string) *VaultError {
	return &VaultError{Kind: PasswordNotStrong, Msg: msg, Advice: advice}
}

// Is reports whether err is a VaultError of the given kind.
func Is(err error, kind Kind) bool {
	var ve *VaultError
	if stderrors.As(err, &ve) {
		return ve.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, defaulting to ServerError for anything
// that is not a VaultError (an unexpected failure must never leak detail).
func KindOf(err error) Kind {
	var ve *VaultError
	if stderrors.As(err, &ve) {
		return ve.Kind
	}
	return ServerError
}
