// Package storage keeps converted statement files on disk so they can be
// downloaded after the conversion request has finished.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no file is stored under a job id.
var ErrNotFound = errors.New("stored file not found")

// FileInfo contains metadata about a stored file
type FileInfo struct {
	JobID       uuid.UUID `json:"job_id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // Relative to the storage root
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the interface for conversion output storage
type Storage interface {
	// Save stores the output of a job, replacing any earlier one
	Save(ctx context.Context, jobID uuid.UUID, name, contentType string, r io.Reader) (*FileInfo, error)

	// Open returns the stored output of a job
	Open(ctx context.Context, jobID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// Delete removes the output of a job
	Delete(ctx context.Context, jobID uuid.UUID) error

	// List returns metadata for every stored job
	List(ctx context.Context) ([]*FileInfo, error)
}
