package profilerepo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/clearday/internal/domain/pollen"
	"github.com/yanqian/clearday/internal/domain/profile"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	_, found, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.False(t, found)

	p := profile.Default("u1")
	p.TrackedAllergens = []pollen.PlantCode{"BIRCH"}
	require.NoError(t, repo.Save(ctx, p))
	p.TrackedAllergens[0] = "OLIVE"

	got, found, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []pollen.PlantCode{"BIRCH"}, got.TrackedAllergens)
}
