package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/hgcsasdas/FFHS/internal/core"
)

// maxUploadMemory bounds the multipart form buffer. Uploads are whole
// in-memory payloads; anything beyond this spills to temp files during
// parsing and is still read fully into memory afterwards.
const maxUploadMemory = 32 << 20

// readPart extracts one multipart file into an UploadItem.
func readPart(header *multipart.FileHeader) (core.UploadItem, error) {
	f, err := header.Open()
	if err != nil {
		return core.UploadItem{}, fmt.Errorf("opening multipart file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return core.UploadItem{}, fmt.Errorf("reading multipart file: %w", err)
	}

	return core.UploadItem{
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Status: "error", Code: "BAD_REQUEST", Message: "Invalid multipart form",
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Status: "error", Code: "BAD_REQUEST", Message: "Form field 'file' is required",
		})
		return
	}
	file.Close()

	item, err := readPart(header)
	if err != nil {
		writeError(w, err)
		return
	}

	record, err := s.store.Upload(item.Data, item.Filename, item.MimeType, r.Header.Get(apiKeyHeader))
	if err != nil {
		if errors.Is(err, core.ErrDuplicate) {
			// Duplicate is a reported outcome, not a failure.
			writeJSON(w, http.StatusOK, Response{
				Status: "error", Code: "FILE_DUPLICATED",
				Message:     "File already exists in this bucket",
				Description: item.Filename,
			})
			return
		}
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "File uploaded successfully", toFileDTO(record))
}

func (s *Server) handleUploadMany(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Status: "error", Code: "BAD_REQUEST", Message: "Invalid multipart form",
		})
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, Response{
			Status: "error", Code: "BAD_REQUEST", Message: "Form field 'files' is required",
		})
		return
	}

	items := make([]core.UploadItem, 0, len(headers))
	for _, header := range headers {
		item, err := readPart(header)
		if err != nil {
			writeError(w, err)
			return
		}
		items = append(items, item)
	}

	batch, err := s.store.UploadMany(items, r.Header.Get(apiKeyHeader))
	if err != nil {
		writeError(w, err)
		return
	}

	httpStatus := http.StatusCreated
	var description string
	if batch.Status() == core.StatusPartial {
		httpStatus = http.StatusMultiStatus
		var notes []string
		if len(batch.Duplicates) > 0 {
			notes = append(notes, "Duplicate files: "+strings.Join(batch.Duplicates, ", "))
		}
		if len(batch.Failed) > 0 {
			notes = append(notes, "Failed files: "+strings.Join(batch.Failed, ", "))
		}
		description = strings.Join(notes, "; ")
	}

	writeJSON(w, httpStatus, Response{
		Status:      batch.Status(),
		Code:        strconv.Itoa(httpStatus),
		Message:     "Multi-file upload complete",
		Description: description,
		Data:        toFileDTOs(batch.Uploaded),
	})
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Header.Get(apiKeyHeader))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Files listed", toFileDTOs(records))
}

func (s *Server) handleGetMetadata(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	record, err := s.store.GetMetadata(id, r.Header.Get(apiKeyHeader))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "File metadata", toFileDTO(record))
}

func (s *Server) handleGetBytes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	apiKey := r.Header.Get(apiKeyHeader)
	record, err := s.store.GetMetadata(id, apiKey)
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := s.store.GetBytes(id, apiKey)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", record.MimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+record.OriginalName+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.store.Delete(id, r.Header.Get(apiKeyHeader)); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "File deleted", nil)
}

type deleteManyRequest struct {
	IDs []int64 `json:"ids"`
}

func (s *Server) handleDeleteMany(w http.ResponseWriter, r *http.Request) {
	var req deleteManyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		writeJSON(w, http.StatusBadRequest, Response{
			Status: "error", Code: "BAD_REQUEST", Message: "File id list is required",
		})
		return
	}

	batch, err := s.store.DeleteMany(req.IDs, r.Header.Get(apiKeyHeader))
	if err != nil {
		writeError(w, err)
		return
	}

	httpStatus := http.StatusOK
	var description string
	if batch.Status() == core.StatusPartial {
		httpStatus = http.StatusMultiStatus
		ids := make([]string, len(batch.Failed))
		for i, id := range batch.Failed {
			ids[i] = strconv.FormatInt(id, 10)
		}
		description = "Failed deletions: " + strings.Join(ids, ", ")
	}

	writeJSON(w, httpStatus, Response{
		Status:      batch.Status(),
		Code:        strconv.Itoa(httpStatus),
		Message:     "Batch delete complete",
		Description: description,
		Data:        batch.Deleted,
	})
}

// pathID parses the {id} route parameter, writing a bad-request response
// on failure.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get(":id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Status: "error", Code: "BAD_REQUEST", Message: "Invalid file id",
		})
		return 0, false
	}
	return id, true
}
