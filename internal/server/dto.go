package server

import (
	"time"

	"github.com/hgcsasdas/FFHS/internal/core"
	"github.com/hgcsasdas/FFHS/internal/users"
)

// FileDTO is the JSON projection of a stored file.
type FileDTO struct {
	ID           int64     `json:"id"`
	OriginalName string    `json:"originalName"`
	StoredName   string    `json:"storedName"`
	RelativePath string    `json:"relativePath"`
	MimeType     string    `json:"mimeType"`
	SizeBytes    int64     `json:"sizeBytes"`
	Hash         string    `json:"hash"`
	UploadTime   time.Time `json:"uploadTime"`
	BucketID     int64     `json:"bucketId"`
}

func toFileDTO(f *core.FileRecord) FileDTO {
	return FileDTO{
		ID:           f.ID,
		OriginalName: f.OriginalName,
		StoredName:   f.StoredName,
		RelativePath: f.RelativePath,
		MimeType:     f.MimeType,
		SizeBytes:    f.SizeBytes,
		Hash:         f.Hash,
		UploadTime:   f.UploadTime,
		BucketID:     f.BucketID,
	}
}

func toFileDTOs(records []*core.FileRecord) []FileDTO {
	dtos := make([]FileDTO, len(records))
	for i, f := range records {
		dtos[i] = toFileDTO(f)
	}
	return dtos
}

// BucketDTO is the JSON projection of a bucket. It includes the API key;
// bucket listing is an admin-only surface.
type BucketDTO struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	APIKey    string    `json:"apiKey"`
	CreatedAt time.Time `json:"createdAt"`
}

func toBucketDTOs(buckets []*core.Bucket) []BucketDTO {
	dtos := make([]BucketDTO, len(buckets))
	for i, b := range buckets {
		dtos[i] = BucketDTO{
			ID:        b.ID,
			Name:      b.Name,
			Path:      b.Path,
			APIKey:    b.APIKey,
			CreatedAt: b.CreatedAt,
		}
	}
	return dtos
}

// UserDTO is the JSON projection of a user account. Password hashes never
// leave the server.
type UserDTO struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserDTO(u *users.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		Enabled:   u.Enabled,
		CreatedAt: u.CreatedAt,
	}
}
