package archive

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"sync"

	"github.com/yanqian/clearday/internal/domain/dailylog"
	apperrors "github.com/yanqian/clearday/pkg/errors"
)

// MemoryArchive keeps exports in memory for tests and local dev.
type MemoryArchive struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryArchive constructs an empty archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{blobs: make(map[string][]byte)}
}

// Put stores a copy of data.
func (a *MemoryArchive) Put(_ context.Context, key string, data []byte, mimeType string) (dailylog.StoredObject, error) {
	hash := md5.Sum(data)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.blobs[key] = append([]byte(nil), data...)
	return dailylog.StoredObject{
		Key:      key,
		Size:     int64(len(data)),
		MimeType: mimeType,
		ETag:     hex.EncodeToString(hash[:]),
	}, nil
}

// Get returns a reader over the stored copy.
func (a *MemoryArchive) Get(_ context.Context, key string) (io.ReadCloser, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	data, ok := a.blobs[key]
	if !ok {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "export not found", nil)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

var _ dailylog.Archive = (*MemoryArchive)(nil)
