package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const metaFile = "meta.json"

// LocalStorage implements Storage on the local filesystem. Every job gets
// its own directory holding the output file and a metadata file.
type LocalStorage struct {
	basePath string
	now      func() time.Time
}

// NewLocalStorage creates a new local filesystem storage
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{basePath: basePath, now: time.Now}, nil
}

// Save stores a job output and returns its metadata
func (s *LocalStorage) Save(ctx context.Context, jobID uuid.UUID, name, contentType string, r io.Reader) (*FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	jobDir := filepath.Join(s.basePath, jobID.String())
	if err := os.RemoveAll(jobDir); err != nil {
		return nil, fmt.Errorf("failed to clear job directory: %w", err)
	}
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create job directory: %w", err)
	}

	stored := sanitizeFilename(name)
	if stored == "" || stored == "." || stored == metaFile {
		stored = "output"
	}
	filePath := filepath.Join(jobDir, stored)

	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	size, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.RemoveAll(jobDir)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	info := &FileInfo{
		JobID:       jobID,
		Name:        name,
		Size:        size,
		ContentType: contentType,
		Path:        filepath.Join(jobID.String(), stored),
		CreatedAt:   s.now(),
	}

	if err := s.saveMetadata(jobDir, info); err != nil {
		os.RemoveAll(jobDir)
		return nil, err
	}

	return info, nil
}

// Open retrieves a job output
func (s *LocalStorage) Open(ctx context.Context, jobID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	info, err := s.info(jobID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.basePath, info.Path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	return f, info, nil
}

// Delete removes a job output. Deleting an unknown job is not an error.
func (s *LocalStorage) Delete(ctx context.Context, jobID uuid.UUID) error {
	if err := os.RemoveAll(filepath.Join(s.basePath, jobID.String())); err != nil {
		return fmt.Errorf("failed to delete job %s: %w", jobID, err)
	}
	return nil
}

// List returns all stored outputs
func (s *LocalStorage) List(ctx context.Context) ([]*FileInfo, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list storage directory: %w", err)
	}

	files := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := uuid.Parse(entry.Name())
		if err != nil {
			continue
		}

		info, err := s.info(id)
		if err != nil {
			continue
		}
		files = append(files, info)
	}

	return files, nil
}

func (s *LocalStorage) info(jobID uuid.UUID) (*FileInfo, error) {
	data, err := os.ReadFile(filepath.Join(s.basePath, jobID.String(), metaFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var info FileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	return &info, nil
}

func (s *LocalStorage) saveMetadata(jobDir string, info *FileInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(filepath.Join(jobDir, metaFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

// sanitizeFilename removes unsafe characters from filenames
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(filepath.Base(name))
}
