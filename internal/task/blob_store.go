package task

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const blobExtension = ".wav"

// BlobStore keeps audio payloads outside of the persisted task metadata
type BlobStore interface {
	// Put stores the audio under a name derived from id and returns its path
	Put(id string, audio Audio) (string, error)

	// Read returns the stored WAV bytes. A missing blob yields ErrMissingAudio.
	Read(path string) ([]byte, error)

	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete(path string) error

	// Exists reports whether the blob is still on disk
	Exists(path string) bool
}

// FileBlobStore writes one WAV file per task into a scratch directory
type FileBlobStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileBlobStore creates the scratch directory if needed
func NewFileBlobStore(dir string, logger *slog.Logger) (*FileBlobStore, error) {
	if dir == "" {
		return nil, errors.New("blob directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	return &FileBlobStore{
		dir:    dir,
		logger: logger.With("component", "blob_store"),
	}, nil
}

// Dir returns the scratch directory
func (s *FileBlobStore) Dir() string {
	return s.dir
}

// Put encodes audio as WAV into <dir>/<name>.wav. It never overwrites an
// existing blob.
func (s *FileBlobStore) Put(id string, audio Audio) (string, error) {
	f, path, err := s.create(blobName(id))
	if err != nil {
		return "", &BlobError{Op: "write", Path: path, Err: err}
	}

	if err := EncodeWAV(f, audio); err != nil {
		f.Close()
		os.Remove(path)
		return "", &BlobError{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", &BlobError{Op: "write", Path: path, Err: err}
	}

	s.logger.Debug("audio blob written",
		"task_id", id,
		"path", path,
		"samples", len(audio.Samples),
		"duration", audio.Duration())
	return path, nil
}

// Read returns the WAV bytes stored at path
func (s *FileBlobStore) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &BlobError{Op: "read", Path: path, Err: ErrMissingAudio}
		}
		return nil, &BlobError{Op: "read", Path: path, Err: err}
	}
	return data, nil
}

// Delete removes the blob at path
func (s *FileBlobStore) Delete(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &BlobError{Op: "delete", Path: path, Err: err}
	}
	s.logger.Debug("audio blob deleted", "path", path)
	return nil
}

// Exists reports whether a regular file is present at path
func (s *FileBlobStore) Exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// create opens a fresh file for name, adding a random suffix when a stale
// blob already holds the plain name
func (s *FileBlobStore) create(name string) (*os.File, string, error) {
	path := filepath.Join(s.dir, name+blobExtension)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		s.logger.Warn("audio blob name taken, using a suffixed name", "path", path)
		path = filepath.Join(s.dir, name+"_"+uuid.NewString()[:8]+blobExtension)
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	}
	if err != nil {
		return nil, path, err
	}
	return f, path, nil
}

// blobName keeps caller-supplied ids from escaping the scratch directory.
// Ids that had to be rewritten carry a digest of the raw id so two ids
// never share a name.
func blobName(id string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, id)
	name = strings.TrimLeft(name, ".")
	if name == id && name != "" {
		return name
	}

	sum := sha1.Sum([]byte(id))
	digest := hex.EncodeToString(sum[:4])
	if name == "" {
		return "audio_task_" + digest
	}
	return name + "_" + digest
}
