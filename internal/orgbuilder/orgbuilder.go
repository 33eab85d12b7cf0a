// Package orgbuilder implements the client-side organization builder:
// a linear builder (fresh → validated name → users → submitted) that
// validates names, enforces password strength, collects credentials,
// invokes the key-pair protector, and submits an organization-creation
// request over a transport.
package orgbuilder

import (
	"github.com/allisson/vault/internal/keypair"
	"github.com/allisson/vault/internal/naming"
	"github.com/allisson/vault/internal/passwordstrength"
	"github.com/allisson/vault/internal/threshold"
	"github.com/allisson/vault/internal/transport"
	vaulterr "github.com/allisson/vault/internal/errors"
)

// Builder collects an organization's name, password-hash parameters, and
// member credentials before submitting a create_organization request.
type Builder struct {
	name       string
	hashParams naming.ArgonConfig
	passwords  map[string]string
}

// New validates and normalizes name and starts a fresh builder with the
// given password-hash cost parameters (see naming.EmpiricallyChooseArgonConfig).
func New(name string, hashParams naming.ArgonConfig) (*Builder, error) {
	normalized, err := naming.Normalize(name)
	if err != nil {
		return nil, err
	}
	return &Builder{
		name:       normalized,
		hashParams: hashParams,
		passwords:  make(map[string]string),
	}, nil
}

// AddUser validates and normalizes username, scores password against the
// organization and user names as context, and rejects with
// PasswordNotStrong (carrying the estimator's warning and suggestions,
// never the password itself) if the score is below threshold.
func (b *Builder) AddUser(username, password string) error {
	normalizedUser, err := naming.Normalize(username)
	if err != nil {
		return err
	}

	result := passwordstrength.Estimate(password, b.name, normalizedUser)
	if result.Score < passwordstrength.Threshold {
		return vaulterr.WithAdvice(result.Warning, result.Suggestions...)
	}

	b.passwords[normalizedUser] = password
	return nil
}

// UserCount reports how many members have been added so far.
func (b *Builder) UserCount() int {
	return len(b.passwords)
}

// Submit refuses below two users, calls the key-pair protector to
// generate and split the organization's key pair, and sends the
// creation request over t.
func (b *Builder) Submit(t transport.Transport) error {
	if len(b.passwords) < threshold.Threshold {
		return vaulterr.New(vaulterr.NotEnoughUsers, "at least two users are required")
	}

	records, publicKey, err := keypair.Protect(b.passwords, b.hashParams)
	if err != nil {
		return err
	}

	return t.CreateOrganization(transport.CreateOrganizationInput{
		Name:       b.name,
		Users:      records,
		PublicKey:  publicKey,
		HashParams: b.hashParams,
	})
}
