package server

import (
	"encoding/json"
	"net/http"
)

type createBucketRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateBucket(w http.ResponseWriter, r *http.Request) {
	var req createBucketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, Response{
			Status: "error", Code: "BAD_REQUEST", Message: "Bucket name is required",
		})
		return
	}

	apiKey, err := s.registry.Create(req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "Bucket created", apiKey)
}

func (s *Server) handleListBuckets(w http.ResponseWriter, r *http.Request) {
	buckets, err := s.registry.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Buckets listed", toBucketDTOs(buckets))
}

func (s *Server) handleDeleteBucket(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Delete(r.Header.Get(apiKeyHeader)); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Bucket deleted", nil)
}

func (s *Server) handleRotateKey(w http.ResponseWriter, r *http.Request) {
	newKey, err := s.registry.RotateKey(r.Header.Get(apiKeyHeader))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "API key rotated", newKey)
}
