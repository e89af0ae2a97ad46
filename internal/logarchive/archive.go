// Package logarchive stores raw uploaded log exports content-addressed on
// the local filesystem, so the original bytes behind a story can be
// downloaded or re-parsed later.
package logarchive

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
)

// ErrNotFound is returned when a requested log is not in the archive.
var ErrNotFound = errors.New("log not found")

// validHash matches a lowercase hex-encoded SHA256 hash (64 characters).
var validHash = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Archive is a filesystem-backed content-addressed store. Logs are kept in
// a two-level directory structure using the first two characters of the
// hash as a prefix directory.
type Archive struct {
	root string
}

// New creates an archive rooted at the given directory.
func New(root string) (*Archive, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create archive root: %w", err)
	}
	return &Archive{root: root}, nil
}

// Put stores one log export and returns its content hash. Storing the same
// content twice is a no-op that returns the same hash.
func (a *Archive) Put(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	path := a.logPath(hash)
	if _, err := os.Stat(path); err == nil {
		return hash, nil // idempotent
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	// Write to a temp file and rename so a crash never leaves a partial
	// log under its final name.
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write log data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename log: %w", err)
	}

	return hash, nil
}

// Has checks whether a log with the given hash exists.
func (a *Archive) Has(hash string) (bool, error) {
	if !validHash.MatchString(hash) {
		return false, nil
	}
	_, err := os.Stat(a.logPath(hash))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat log %s: %w", hash, err)
	}
	return true, nil
}

// Open returns a reader for the log data and its size in bytes. Returns
// ErrNotFound if the log does not exist.
func (a *Archive) Open(hash string) (io.ReadCloser, int64, error) {
	if !validHash.MatchString(hash) {
		return nil, 0, ErrNotFound
	}

	f, err := os.Open(a.logPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("open log %s: %w", hash, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat log %s: %w", hash, err)
	}

	return f, info.Size(), nil
}

// Delete removes a log. No error if it doesn't exist.
func (a *Archive) Delete(hash string) error {
	if !validHash.MatchString(hash) {
		return nil
	}
	os.Remove(a.logPath(hash))
	return nil
}

// logPath returns the filesystem path for a log hash.
func (a *Archive) logPath(hash string) string {
	if len(hash) < 2 {
		return filepath.Join(a.root, hash)
	}
	return filepath.Join(a.root, hash[:2], hash[2:])
}
