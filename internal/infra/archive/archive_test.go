package archive

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/clearday/pkg/errors"
)

func TestMemoryArchive(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryArchive()

	obj, err := a.Put(ctx, "exports/u1/2024-05/x.json", []byte(`{"ok":true}`), "application/json")
	require.NoError(t, err)
	require.Equal(t, int64(11), obj.Size)
	require.NotEmpty(t, obj.ETag)

	rc, err := a.Get(ctx, obj.Key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(data))

	_, err = a.Get(ctx, "exports/u1/2024-05/missing.json")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestSanitizeEndpoint(t *testing.T) {
	require.Equal(t, "acct.r2.cloudflarestorage.com", sanitizeEndpoint("https://acct.r2.cloudflarestorage.com/bucket"))
	require.Equal(t, "localhost:9000", sanitizeEndpoint(" http://localhost:9000 "))
	require.Equal(t, "", sanitizeEndpoint(""))
}
