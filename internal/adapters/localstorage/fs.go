package localstorage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// FileBody implements ports.BodySource for a payload saved on disk.
// The path "-" reads standard input.
type FileBody struct {
	Path string
}

// NewFileBody creates a new FileBody.
func NewFileBody(path string) *FileBody {
	return &FileBody{Path: path}
}

// ReadBody returns the whole file.
func (b *FileBody) ReadBody(ctx context.Context) ([]byte, error) {
	if b.Path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read stdin")
		}
		return data, nil
	}
	data, err := os.ReadFile(b.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read payload %s", b.Path)
	}
	return data, nil
}

// LocalStorage keeps raw notification payloads on the local filesystem so
// they can be replayed with FileBody.
type LocalStorage struct {
	BaseDir string
}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{BaseDir: baseDir}
}

// SavePayload writes data under notifications/<jobID>/ and returns its path.
// An empty jobID is stored as "unknown".
func (s *LocalStorage) SavePayload(ctx context.Context, jobID string, data []byte) (string, error) {
	if jobID == "" {
		jobID = "unknown"
	}
	dir := s.GetJobPath(jobID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, "failed to create payload directory %s", dir)
	}

	name := fmt.Sprintf("%s-%s.xml", time.Now().UTC().Format("20060102T150405Z"), uuid.New().String())
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", errors.Wrap(err, "failed to save payload")
	}
	return path, nil
}

// GetJobPath returns the directory holding payloads for a job ID.
func (s *LocalStorage) GetJobPath(jobID string) string {
	return filepath.Join(s.BaseDir, "notifications", filepath.Base(jobID))
}
