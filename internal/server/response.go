package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hgcsasdas/FFHS/internal/core"
	"github.com/hgcsasdas/FFHS/internal/users"
)

// Response is the uniform envelope rendered to clients: a status tag, a
// machine-readable code, a human message, an optional detail description
// and an optional payload.
type Response struct {
	Status      string `json:"status"` // "success" | "partial" | "error"
	Code        string `json:"code"`
	Message     string `json:"message"`
	Description string `json:"description,omitempty"`
	Data        any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, httpStatus int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(resp)
}

func writeSuccess(w http.ResponseWriter, httpStatus int, message string, data any) {
	writeJSON(w, httpStatus, Response{
		Status:  "success",
		Code:    http.StatusText(httpStatus),
		Message: message,
		Data:    data,
	})
}

// writeError classifies err into the envelope and an HTTP status code.
func writeError(w http.ResponseWriter, err error) {
	var consistency *core.ConsistencyError

	switch {
	case errors.Is(err, core.ErrInvalidKey):
		writeJSON(w, http.StatusUnauthorized, Response{
			Status: "error", Code: "INVALID_API_KEY", Message: "Invalid API key",
		})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Response{
			Status: "error", Code: "FILE_NOT_FOUND", Message: "File not found",
		})
	case errors.Is(err, core.ErrAccessDenied):
		writeJSON(w, http.StatusForbidden, Response{
			Status: "error", Code: "ACCESS_DENIED", Message: "File does not belong to this bucket",
		})
	case errors.Is(err, core.ErrDuplicateName):
		writeJSON(w, http.StatusConflict, Response{
			Status: "error", Code: "BUCKET_EXISTS", Message: "Bucket already exists",
		})
	case errors.Is(err, core.ErrInvalidName):
		writeJSON(w, http.StatusBadRequest, Response{
			Status: "error", Code: "INVALID_BUCKET_NAME", Message: "Invalid bucket name",
		})
	case errors.Is(err, core.ErrBlobMissing):
		writeJSON(w, http.StatusInternalServerError, Response{
			Status: "error", Code: "BLOB_MISSING", Message: "Stored content is missing",
			Description: err.Error(),
		})
	case errors.As(err, &consistency):
		writeJSON(w, http.StatusInternalServerError, Response{
			Status: "error", Code: "BUCKET_DIR_FAIL", Message: "Bucket directory creation failed",
			Description: consistency.Error(),
		})
	case errors.Is(err, users.ErrBadCredentials), errors.Is(err, users.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, Response{
			Status: "error", Code: "UNAUTHORIZED", Message: "Invalid credentials",
		})
	case errors.Is(err, users.ErrUsernameTaken):
		writeJSON(w, http.StatusConflict, Response{
			Status: "error", Code: "USERNAME_TAKEN", Message: "Username already exists",
		})
	case errors.Is(err, users.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, Response{
			Status: "error", Code: "USER_NOT_FOUND", Message: "User not found",
		})
	case errors.Is(err, users.ErrLastAdmin):
		writeJSON(w, http.StatusConflict, Response{
			Status: "error", Code: "LAST_ADMIN", Message: "Cannot delete the last admin user",
		})
	default:
		writeJSON(w, http.StatusInternalServerError, Response{
			Status: "error", Code: "INTERNAL", Message: "Operation failed",
			Description: err.Error(),
		})
	}
}
