package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"wallet-ledger-service/internal/logger"
)

// LocalArchive stores files under a directory on the local filesystem.
type LocalArchive struct {
	dir string
}

func NewLocalArchive(uploadDir string) (*LocalArchive, error) {
	dir := filepath.Join(uploadDir, "provider-files")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &LocalArchive{dir: dir}, nil
}

// Save copies r into the archive under a uuid-prefixed key derived from
// fileName, and returns the key together with the size and SHA-256 of the
// stored bytes.
func (a *LocalArchive) Save(ctx context.Context, fileName string, r io.Reader) (*StoredFile, error) {
	key := uuid.NewString() + "_" + sanitizeName(fileName)
	fullPath := filepath.Join(a.dir, key)

	f, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(f, hash), r)
	if err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	logger.Debug("Provider file archived", "key", key, "size", size)
	return &StoredFile{Key: key, Size: size, Checksum: hex.EncodeToString(hash.Sum(nil))}, nil
}

func (a *LocalArchive) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := a.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

func (a *LocalArchive) Exists(ctx context.Context, key string) (bool, int64, error) {
	fullPath, err := a.path(key)
	if err != nil {
		return false, 0, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return true, info.Size(), nil
}

func (a *LocalArchive) Delete(ctx context.Context, key string) error {
	fullPath, err := a.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// path rejects keys that would escape the archive directory.
func (a *LocalArchive) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) {
		return "", fmt.Errorf("invalid archive key %q", key)
	}
	return filepath.Join(a.dir, key), nil
}

func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
