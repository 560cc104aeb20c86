package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/pat"

	"github.com/hgcsasdas/FFHS/internal/core"
	"github.com/hgcsasdas/FFHS/internal/users"
)

// apiKeyHeader carries the bucket API key. The engine performs its own
// existence check on the key; the server only extracts it.
const apiKeyHeader = "X-API-Key"

// Server exposes the engine and the management surface over HTTP.
type Server struct {
	registry *core.Registry
	store    *core.Store
	users    *users.Service
	tokens   *users.TokenIssuer
	logger   core.Logger
}

// New creates a Server with the provided dependencies.
func New(registry *core.Registry, store *core.Store, userSvc *users.Service, tokens *users.TokenIssuer, logger core.Logger) *Server {
	return &Server{
		registry: registry,
		store:    store,
		users:    userSvc,
		tokens:   tokens,
		logger:   logger,
	}
}

// Handler returns the routed HTTP handler. pat matches routes in
// registration order, so more specific paths are registered first.
func (s *Server) Handler() http.Handler {
	r := pat.New()

	r.Post("/auth/login", s.handleLogin)

	r.Post("/buckets/rotate-key", s.handleRotateKey)
	r.Post("/buckets", s.requireAdmin(s.handleCreateBucket))
	r.Get("/buckets", s.requireAdmin(s.handleListBuckets))
	r.Delete("/buckets", s.handleDeleteBucket)

	r.Post("/files/batch", s.handleUploadMany)
	r.Post("/files", s.handleUpload)
	r.Get("/files/{id}/content", s.handleGetBytes)
	r.Get("/files/{id}", s.handleGetMetadata)
	r.Get("/files", s.handleListFiles)
	r.Delete("/files/{id}", s.handleDeleteFile)
	r.Delete("/files", s.handleDeleteMany)

	r.Post("/users", s.requireAdmin(s.handleCreateUser))
	r.Get("/users", s.requireAdmin(s.handleListUsers))
	r.Delete("/users/{id}", s.requireAdmin(s.handleDeleteUser))

	return r
}

// requireAdmin wraps a handler with bearer-token verification and an
// admin-role check.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(w, users.ErrInvalidToken)
			return
		}

		claims, err := s.tokens.Verify(token)
		if err != nil {
			writeError(w, err)
			return
		}
		if claims.Role != users.RoleAdmin {
			writeJSON(w, http.StatusForbidden, Response{
				Status: "error", Code: "FORBIDDEN", Message: "Admin role required",
			})
			return
		}

		next(w, r)
	}
}
