// Package storage archives analysis artifacts, grouped by run.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("artifact not found")

// FileInfo contains metadata about a stored artifact
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	RunID       uuid.UUID `json:"run_id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // Relative to the run directory
	CreatedAt   time.Time `json:"created_at"`
}

// Archive stores the inputs and outputs of analysis runs.
type Archive interface {
	// Save stores an artifact for a run and returns its metadata
	Save(ctx context.Context, runID uuid.UUID, filename string, contentType string, r io.Reader) (*FileInfo, error)

	// Open returns a reader for an artifact
	Open(ctx context.Context, runID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// List returns all artifacts of a run
	List(ctx context.Context, runID uuid.UUID) ([]*FileInfo, error)

	// Delete removes an artifact
	Delete(ctx context.Context, runID uuid.UUID, fileID uuid.UUID) error
}

// ContentType maps an export format extension to a MIME type.
func ContentType(ext string) string {
	switch ext {
	case "json", ".json":
		return "application/json"
	case "csv", ".csv":
		return "text/csv"
	case "xlsx", ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf", ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
