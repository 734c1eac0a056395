package storage

import (
	"context"
	"io"
)

// StoredFile describes an archived provider file.
type StoredFile struct {
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	Checksum string `json:"sha256"`
}

// Archive keeps the raw provider files that were ingested, so a report can
// be traced back to the exact bytes it was computed from.
type Archive interface {
	Save(ctx context.Context, fileName string, r io.Reader) (*StoredFile, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, int64, error)
	Delete(ctx context.Context, key string) error
}
