package core

// Batch statuses reported by UploadMany and DeleteMany.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
)

// UploadBatch aggregates the outcome of a continue-on-error batch upload.
type UploadBatch struct {
	Uploaded   []*FileRecord
	Duplicates []string // original filenames whose content was already stored
	Failed     []string // original filenames that hit a hard failure
}

// Status is "success" only if every file produced a new record.
func (b *UploadBatch) Status() string {
	if len(b.Duplicates) == 0 && len(b.Failed) == 0 {
		return StatusSuccess
	}
	return StatusPartial
}

// DeleteBatch aggregates the outcome of a continue-on-error batch delete.
type DeleteBatch struct {
	Deleted []int64
	Failed  []int64
}

// Status is "success" only if every id was deleted.
func (b *DeleteBatch) Status() string {
	if len(b.Failed) == 0 {
		return StatusSuccess
	}
	return StatusPartial
}
