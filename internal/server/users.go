package server

import (
	"encoding/json"
	"net/http"

	"github.com/hgcsasdas/FFHS/internal/users"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Status: "error", Code: "BAD_REQUEST", Message: "Username and password are required",
		})
		return
	}

	user, err := s.users.Authenticate(req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Authenticated", token)
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, Response{
			Status: "error", Code: "BAD_REQUEST", Message: "Username and password are required",
		})
		return
	}
	if req.Role == "" {
		req.Role = users.RoleUser
	}

	user, err := s.users.Create(req.Username, req.Password, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "User created", toUserDTO(user))
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := s.users.List()
	if err != nil {
		writeError(w, err)
		return
	}

	dtos := make([]UserDTO, len(list))
	for i, u := range list {
		dtos[i] = toUserDTO(u)
	}
	writeSuccess(w, http.StatusOK, "Users listed", dtos)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get(":id")
	if err := s.users.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "User deleted", nil)
}
