package dailylog

import (
	"context"
	"io"

	"github.com/yanqian/clearday/pkg/caldate"
)

// Repository persists one record per (user, date). Implementations may be
// shared by several processes.
type Repository interface {
	// Load returns the stored record; found is false when the day has none.
	Load(ctx context.Context, userID string, date caldate.Date) (rec Record, found bool, err error)
	// StoreField writes only field of rec into the stored day as a single atomic
	// step, leaving every other stored field untouched, and returns the record
	// as stored afterwards.
	StoreField(ctx context.Context, userID string, rec Record, field Field) (Record, error)
	LoadMonth(ctx context.Context, userID string, month caldate.YearMonth) (map[caldate.Date]Record, error)
}

// Archive stores exported month documents.
type Archive interface {
	Put(ctx context.Context, key string, data []byte, mimeType string) (StoredObject, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// StoredObject describes an archived export.
type StoredObject struct {
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	ETag     string `json:"etag,omitempty"`
}

// MergeObserver is told about every merged field.
type MergeObserver interface {
	RecordMerged(ctx context.Context, field string)
}
