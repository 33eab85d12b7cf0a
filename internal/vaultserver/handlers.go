package vaultserver

import (
	"crypto/rand"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	vaulterr "github.com/allisson/vault/internal/errors"
	"github.com/allisson/vault/internal/naming"
	"github.com/allisson/vault/internal/sealedbox"
	"github.com/allisson/vault/internal/store"
)

// respondFailure writes a single non-2xx status with no body, regardless
// of err's kind. The real kind is logged server-side only; the wire never
// carries more than "the request failed".
func (s *Server) respondFailure(c *gin.Context, err error) {
	s.logger.Warn("request failed", slog.String("kind", vaulterr.KindOf(err).String()), slog.Any("err", err))
	c.Status(http.StatusBadRequest)
}

func (s *Server) bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		s.respondFailure(c, vaulterr.Wrap(vaulterr.ServerError, err, "malformed request"))
		return false
	}
	return true
}

func (s *Server) handleCreateOrganization(c *gin.Context) {
	var req CreateOrganizationRequest
	if !s.bindJSON(c, &req) {
		return
	}

	if len(req.Users) < 2 {
		s.respondFailure(c, vaulterr.New(vaulterr.NotEnoughUsers, "need at least two users"))
		return
	}

	name, err := naming.Normalize(req.Name)
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	for user := range req.Users {
		if _, err := naming.Normalize(user); err != nil {
			s.respondFailure(c, err)
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.OrganizationExists(name) {
		s.respondFailure(c, vaulterr.New(vaulterr.ServerError, "organization already exists"))
		return
	}
	if err := s.store.CreateOrganization(name, req.PublicKey, req.HashParams); err != nil {
		s.respondFailure(c, err)
		return
	}
	for user, record := range req.Users {
		normalizedUser, _ := naming.Normalize(user)
		if err := s.store.AddUser(name, normalizedUser, record); err != nil {
			s.respondFailure(c, err)
			return
		}
	}

	c.Status(http.StatusOK)
}

func (s *Server) handleUnlockVault(c *gin.Context) {
	var req UnlockVaultRequest
	if !s.bindJSON(c, &req) {
		return
	}

	name, err := naming.Normalize(req.Name)
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	user1, err := naming.Normalize(req.User1)
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	user2, err := naming.Normalize(req.User2)
	if err != nil {
		s.respondFailure(c, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record1, err := s.store.GetUser(name, user1)
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	record2, err := s.store.GetUser(name, user2)
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	hashParams, err := s.store.GetHashParams(name)
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	publicKey, err := s.store.GetPublicKey(name)
	if err != nil {
		s.respondFailure(c, err)
		return
	}

	token, err := s.sessions.NewSession(name)
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	sealedToken, err := sealedbox.Seal([]byte(token), publicKey)
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	if s.metrics != nil {
		s.metrics.SetLiveSessions(s.sessions.Count())
	}

	c.JSON(http.StatusOK, UnlockVaultResponse{
		Record1:     record1,
		Record2:     record2,
		HashParams:  hashParams,
		PublicKey:   publicKey,
		SealedToken: sealedToken,
	})
}

// authenticate purges expired sessions and resolves token to an
// organization name. Callers must hold s.mu.
func (s *Server) authenticate(token string) (string, error) {
	org, ok := s.sessions.Lookup(token)
	if !ok {
		return "", vaulterr.New(vaulterr.ServerError, "unknown or expired token")
	}
	return org, nil
}

func (s *Server) handleRevokeUser(c *gin.Context) {
	var req RevokeUserRequest
	if !s.bindJSON(c, &req) {
		return
	}
	user, err := naming.Normalize(req.User)
	if err != nil {
		s.respondFailure(c, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	org, err := s.authenticate(string(req.Token))
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	if err := s.store.RemoveUser(org, user); err != nil {
		s.respondFailure(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) handleRevokeToken(c *gin.Context) {
	var req RevokeTokenRequest
	if !s.bindJSON(c, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.EndSession(string(req.Token))
	if s.metrics != nil {
		s.metrics.SetLiveSessions(s.sessions.Count())
	}
	c.Status(http.StatusOK)
}

func (s *Server) handleNewDocument(c *gin.Context) {
	var req NewDocumentRequest
	if !s.bindJSON(c, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	org, err := s.authenticate(string(req.Token))
	if err != nil {
		s.respondFailure(c, err)
		return
	}

	docID := make([]byte, store.DocIDSize)
	if _, err := rand.Read(docID); err != nil {
		s.respondFailure(c, vaulterr.Wrap(vaulterr.CryptographyError, err, "could not sample document id"))
		return
	}
	docIDStr := store.EncodeDocID(docID)

	if err := s.store.CreateDocument(docIDStr, store.DocumentPayload{
		EncryptedName:    req.EncryptedName,
		EncryptedContent: req.EncryptedContent,
	}); err != nil {
		s.respondFailure(c, err)
		return
	}
	if err := s.store.AddOwnerKey(org, docIDStr, req.WrappedKey); err != nil {
		s.respondFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, NewDocumentResponse{DocID: docIDStr})
}

func (s *Server) handleListDocuments(c *gin.Context) {
	var req ListDocumentsRequest
	if !s.bindJSON(c, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	org, err := s.authenticate(string(req.Token))
	if err != nil {
		s.respondFailure(c, err)
		return
	}

	docIDs, err := s.store.OwnedDocumentIDs(org)
	if err != nil {
		s.respondFailure(c, err)
		return
	}

	entries := make([]DocumentListEntry, 0, len(docIDs))
	for _, docID := range docIDs {
		wrappedKey, err := s.store.GetOwnerKey(org, docID)
		if err != nil {
			s.respondFailure(c, err)
			return
		}
		payload, err := s.store.GetDocument(docID)
		if err != nil {
			s.respondFailure(c, err)
			return
		}
		entries = append(entries, DocumentListEntry{
			DocID:         docID,
			EncryptedName: payload.EncryptedName,
			WrappedKey:    wrappedKey,
		})
	}

	c.JSON(http.StatusOK, entries)
}

func (s *Server) handleGetDocumentKey(c *gin.Context) {
	var req GetDocumentKeyRequest
	if !s.bindJSON(c, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	org, err := s.authenticate(string(req.Token))
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	if !s.store.IsOwner(org, req.DocID) {
		s.respondFailure(c, vaulterr.New(vaulterr.ServerError, "not an owner"))
		return
	}
	wrappedKey, err := s.store.GetOwnerKey(org, req.DocID)
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, GetDocumentKeyResponse{WrappedKey: wrappedKey})
}

func (s *Server) handleGetDocument(c *gin.Context) {
	var req GetDocumentRequest
	if !s.bindJSON(c, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	org, err := s.authenticate(string(req.Token))
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	if !s.store.IsOwner(org, req.DocID) {
		s.respondFailure(c, vaulterr.New(vaulterr.ServerError, "not an owner"))
		return
	}
	payload, err := s.store.GetDocument(req.DocID)
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, GetDocumentResponse{
		EncryptedName:    payload.EncryptedName,
		EncryptedContent: payload.EncryptedContent,
	})
}

func (s *Server) handleUpdateDocument(c *gin.Context) {
	var req UpdateDocumentRequest
	if !s.bindJSON(c, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	org, err := s.authenticate(string(req.Token))
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	if !s.store.IsOwner(org, req.DocID) {
		s.respondFailure(c, vaulterr.New(vaulterr.ServerError, "not an owner"))
		return
	}
	if err := s.store.UpdateDocument(req.DocID, store.DocumentPayload{
		EncryptedName:    req.EncryptedName,
		EncryptedContent: req.EncryptedContent,
	}); err != nil {
		s.respondFailure(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) handleDeleteDocument(c *gin.Context) {
	var req DeleteDocumentRequest
	if !s.bindJSON(c, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	org, err := s.authenticate(string(req.Token))
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	if !s.store.IsOwner(org, req.DocID) {
		s.respondFailure(c, vaulterr.New(vaulterr.ServerError, "not an owner"))
		return
	}
	if err := s.store.RemoveOwnerKey(org, req.DocID); err != nil {
		s.respondFailure(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) handleGetPublicKeyOfOrganization(c *gin.Context) {
	var req GetPublicKeyOfOrganizationRequest
	if !s.bindJSON(c, &req) {
		return
	}
	name, err := naming.Normalize(req.Name)
	if err != nil {
		s.respondFailure(c, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	publicKey, err := s.store.GetPublicKey(name)
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, GetPublicKeyOfOrganizationResponse{PublicKey: publicKey})
}

func (s *Server) handleAddOwner(c *gin.Context) {
	var req AddOwnerRequest
	if !s.bindJSON(c, &req) {
		return
	}
	otherOrg, err := naming.Normalize(req.OtherOrg)
	if err != nil {
		s.respondFailure(c, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	org, err := s.authenticate(string(req.Token))
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	if !s.store.IsOwner(org, req.DocID) {
		s.respondFailure(c, vaulterr.New(vaulterr.ServerError, "not an owner"))
		return
	}
	if !s.store.OrganizationExists(otherOrg) {
		s.respondFailure(c, vaulterr.New(vaulterr.ServerError, "unknown organization"))
		return
	}
	if err := s.store.AddOwnerKey(otherOrg, req.DocID, req.WrappedKey); err != nil {
		s.respondFailure(c, err)
		return
	}
	c.Status(http.StatusOK)
}
