package syncstatus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	apperrors "invtrack/internal/errors"
)

// FileStore keeps the marker as a single human-readable line in a text file.
type FileStore struct {
	path string
	loc  *time.Location
}

// NewFileStore creates a FileStore writing to path. Times are rendered in loc.
func NewFileStore(path string, loc *time.Location) *FileStore {
	if loc == nil {
		loc = time.UTC
	}
	return &FileStore{path: path, loc: loc}
}

// Path returns the marker file location.
func (s *FileStore) Path() string { return s.path }

// Write atomically replaces the marker file: readers never see a partial line.
func (s *FileStore) Write(_ context.Context, status Status) error {
	status.LastCompletedAt = status.LastCompletedAt.In(s.loc)

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp marker: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(status.Text()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing marker: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing marker: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing marker: %w", err)
	}
	return nil
}

// Read parses the marker file.
func (s *FileStore) Read(_ context.Context) (*Status, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.ErrSyncStatusNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	status, err := ParseText(string(data), s.loc)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, fmt.Errorf("parsing marker %s: %w", s.path, err))
	}
	return &status, nil
}
