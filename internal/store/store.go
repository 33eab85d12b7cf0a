// Package store implements the server-side object store: an
// append-oriented, per-organization and per-document key-value store with
// ownership semantics for documents. Every path it touches is built
// exclusively from names already normalized by internal/naming or from
// base32-encoded document ids — never from arbitrary user input.
package store

import (
	"encoding/base32"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"

	vaulterr "github.com/allisson/vault/internal/errors"
	"github.com/allisson/vault/internal/keypair"
	"github.com/allisson/vault/internal/naming"
)

// DocIDSize is the length in bytes of a document id.
const DocIDSize = 32

var docIDEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// normalizedNameRe guards the anti-path-traversal invariant defensively:
// every path component this package writes must already be the output of
// naming.Normalize (ASCII alphanumeric, lowercased) or a base32 document
// id. This regexp is the store's own last line of defense, independent of
// whatever validated the name upstream.
var normalizedNameRe = regexp.MustCompile(`^[a-z0-9]{1,100}$`)

// Store is a filesystem-backed object store rooted at a configurable
// directory.
type Store struct {
	root string
}

// New creates a Store rooted at root. The root must already exist.
func New(root string) *Store {
	return &Store{root: root}
}

// EncodeDocID renders a document id as the base32 string used for its
// filesystem path component.
func EncodeDocID(docID []byte) string {
	return docIDEncoding.EncodeToString(docID)
}

func decodeDocID(s string) ([]byte, error) {
	id, err := docIDEncoding.DecodeString(s)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.FileError, err, "malformed document id")
	}
	return id, nil
}

func guardName(name string) error {
	if !normalizedNameRe.MatchString(name) {
		return vaulterr.New(vaulterr.ServerError, "refusing to touch filesystem with an unnormalized name")
	}
	return nil
}

func guardDocIDString(id string) error {
	if _, err := decodeDocID(id); err != nil {
		return err
	}
	return nil
}

// --- organizations ---

func (s *Store) orgDir(org string) string {
	return filepath.Join(s.root, "organizations", org)
}

// OrganizationExists reports whether org has already been created.
func (s *Store) OrganizationExists(org string) bool {
	if guardName(org) != nil {
		return false
	}
	_, err := os.Stat(s.orgDir(org))
	return err == nil
}

type organizationRecord struct {
	HashParams naming.ArgonConfig `json:"hash_params"`
}

// CreateOrganization atomically writes an organization's immutable
// records: public key and hash parameters. It fails if the organization
// already exists.
func (s *Store) CreateOrganization(org string, publicKey []byte, hashParams naming.ArgonConfig) error {
	if err := guardName(org); err != nil {
		return err
	}

	dir := s.orgDir(org)
	if err := os.MkdirAll(filepath.Join(dir, "users"), 0o700); err != nil {
		return vaulterr.Wrap(vaulterr.FileError, err, "could not create organization directory")
	}
	if err := os.MkdirAll(filepath.Join(dir, "documents_keys"), 0o700); err != nil {
		return vaulterr.Wrap(vaulterr.FileError, err, "could not create organization directory")
	}

	if err := writeCreateOnly(filepath.Join(dir, "public_key"), publicKey); err != nil {
		return err
	}

	encoded, err := json.Marshal(organizationRecord{HashParams: hashParams})
	if err != nil {
		return vaulterr.Wrap(vaulterr.FileError, err, "could not encode hash parameters")
	}
	return writeCreateOnly(filepath.Join(dir, "argon_config"), encoded)
}

// GetPublicKey returns org's public key.
func (s *Store) GetPublicKey(org string) ([]byte, error) {
	if err := guardName(org); err != nil {
		return nil, err
	}
	return readFile(filepath.Join(s.orgDir(org), "public_key"))
}

// GetHashParams returns org's stored password-hash cost parameters.
func (s *Store) GetHashParams(org string) (naming.ArgonConfig, error) {
	if err := guardName(org); err != nil {
		return naming.ArgonConfig{}, err
	}
	raw, err := readFile(filepath.Join(s.orgDir(org), "argon_config"))
	if err != nil {
		return naming.ArgonConfig{}, err
	}
	var rec organizationRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return naming.ArgonConfig{}, vaulterr.Wrap(vaulterr.FileError, err, "corrupt hash parameters")
	}
	return rec.HashParams, nil
}

// --- users ---

// AddUser atomically writes a new member's threshold-share record. It
// fails if the username is already taken within org.
func (s *Store) AddUser(org, user string, record keypair.UserRecord) error {
	if err := guardName(org); err != nil {
		return err
	}
	if err := guardName(user); err != nil {
		return err
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		return vaulterr.Wrap(vaulterr.FileError, err, "could not encode user record")
	}
	return writeCreateOnly(filepath.Join(s.orgDir(org), "users", user), encoded)
}

// GetUser returns a member's stored threshold-share record.
func (s *Store) GetUser(org, user string) (keypair.UserRecord, error) {
	if err := guardName(org); err != nil {
		return keypair.UserRecord{}, err
	}
	if err := guardName(user); err != nil {
		return keypair.UserRecord{}, err
	}

	raw, err := readFile(filepath.Join(s.orgDir(org), "users", user))
	if err != nil {
		return keypair.UserRecord{}, err
	}
	var rec keypair.UserRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return keypair.UserRecord{}, vaulterr.Wrap(vaulterr.FileError, err, "corrupt user record")
	}
	return rec, nil
}

// RemoveUser deletes a member's record. It refuses if this would drop the
// organization below two members.
func (s *Store) RemoveUser(org, user string) error {
	if err := guardName(org); err != nil {
		return err
	}
	if err := guardName(user); err != nil {
		return err
	}

	users, err := s.ListUsers(org)
	if err != nil {
		return err
	}
	if len(users) <= 2 {
		return vaulterr.New(vaulterr.NotEnoughUsers, "organization must keep at least two users")
	}

	path := filepath.Join(s.orgDir(org), "users", user)
	if err := os.Remove(path); err != nil {
		return vaulterr.Wrap(vaulterr.FileError, err, "could not remove user record")
	}
	return nil
}

// ListUsers lists the normalized usernames belonging to org.
func (s *Store) ListUsers(org string) ([]string, error) {
	if err := guardName(org); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.orgDir(org), "users"))
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.FileError, err, "could not list users")
	}
	users := make([]string, 0, len(entries))
	for _, e := range entries {
		users = append(users, e.Name())
	}
	return users, nil
}

// --- documents ---

func (s *Store) documentPath(docIDStr string) string {
	return filepath.Join(s.root, "documents", docIDStr)
}

func (s *Store) ownerKeyPath(org, docIDStr string) string {
	return filepath.Join(s.orgDir(org), "documents_keys", docIDStr)
}

// DocumentPayload is the ciphertext blob persisted at documents/<doc-id>.
type DocumentPayload struct {
	EncryptedName    []byte `json:"encrypted_name"`
	EncryptedContent []byte `json:"encrypted_content"`
}

// CreateDocument atomically writes a brand-new document payload, keyed by
// its base32-encoded id. It fails if the id already exists (ids are 32
// random bytes, so collision is not an expected path).
func (s *Store) CreateDocument(docIDStr string, payload DocumentPayload) error {
	if err := guardDocIDString(docIDStr); err != nil {
		return err
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return vaulterr.Wrap(vaulterr.FileError, err, "could not encode document payload")
	}
	return writeCreateOnly(s.documentPath(docIDStr), encoded)
}

// GetDocument reads a document's payload.
func (s *Store) GetDocument(docIDStr string) (DocumentPayload, error) {
	if err := guardDocIDString(docIDStr); err != nil {
		return DocumentPayload{}, err
	}
	raw, err := readFile(s.documentPath(docIDStr))
	if err != nil {
		return DocumentPayload{}, err
	}
	var payload DocumentPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return DocumentPayload{}, vaulterr.Wrap(vaulterr.FileError, err, "corrupt document payload")
	}
	return payload, nil
}

// UpdateDocument overwrites an existing document's payload. This is the
// only path through the store that allows an overwrite.
func (s *Store) UpdateDocument(docIDStr string, payload DocumentPayload) error {
	if err := guardDocIDString(docIDStr); err != nil {
		return err
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return vaulterr.Wrap(vaulterr.FileError, err, "could not encode document payload")
	}
	if err := os.WriteFile(s.documentPath(docIDStr), encoded, 0o600); err != nil {
		return vaulterr.Wrap(vaulterr.FileError, err, "could not update document payload")
	}
	return nil
}

// IsOwner reports whether org owns the document identified by docIDStr:
// an organization owns a document iff a per-owner wrapped-key file
// exists for it.
func (s *Store) IsOwner(org, docIDStr string) bool {
	if guardName(org) != nil || guardDocIDString(docIDStr) != nil {
		return false
	}
	_, err := os.Stat(s.ownerKeyPath(org, docIDStr))
	return err == nil
}

// AddOwnerKey writes a new per-owner wrapped key. It does not copy the
// document payload; ownership is defined entirely by this file's
// existence.
func (s *Store) AddOwnerKey(org, docIDStr string, wrappedKey []byte) error {
	if err := guardName(org); err != nil {
		return err
	}
	if err := guardDocIDString(docIDStr); err != nil {
		return err
	}
	return writeCreateOnly(s.ownerKeyPath(org, docIDStr), wrappedKey)
}

// GetOwnerKey returns org's wrapped key for the document, if it owns it.
func (s *Store) GetOwnerKey(org, docIDStr string) ([]byte, error) {
	if err := guardName(org); err != nil {
		return nil, err
	}
	if err := guardDocIDString(docIDStr); err != nil {
		return nil, err
	}
	return readFile(s.ownerKeyPath(org, docIDStr))
}

// RemoveOwnerKey removes only org's per-owner key for the document. The
// payload and any other owners' keys are untouched; the document is fully
// gone from the store only once every owner has removed its key.
func (s *Store) RemoveOwnerKey(org, docIDStr string) error {
	if err := guardName(org); err != nil {
		return err
	}
	if err := guardDocIDString(docIDStr); err != nil {
		return err
	}
	if err := os.Remove(s.ownerKeyPath(org, docIDStr)); err != nil {
		return vaulterr.Wrap(vaulterr.FileError, err, "could not remove owner key")
	}
	return nil
}

// OwnedDocumentIDs lists the base32 document ids owned by org.
func (s *Store) OwnedDocumentIDs(org string) ([]string, error) {
	if err := guardName(org); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.orgDir(org), "documents_keys"))
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.FileError, err, "could not list owned documents")
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.Name())
	}
	return ids, nil
}

// --- low-level file helpers ---

func writeCreateOnly(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return vaulterr.New(vaulterr.ServerError, "already exists")
		}
		return vaulterr.Wrap(vaulterr.FileError, err, "could not create file")
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return vaulterr.Wrap(vaulterr.FileError, err, "could not write file")
	}
	return nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, vaulterr.New(vaulterr.ServerError, "not found")
		}
		return nil, vaulterr.Wrap(vaulterr.FileError, err, "could not read file")
	}
	return data, nil
}
