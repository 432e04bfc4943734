package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResourcesCloseInReverseOrder(t *testing.T) {
	res := NewResources(slog.New(slog.NewTextHandler(io.Discard, nil)))

	var order []string
	res.AddFunc("pool", func() { order = append(order, "pool") })
	res.Add("mqtt", func(context.Context) error {
		order = append(order, "mqtt")
		return errors.New("broker gone")
	})
	res.AddFunc("metrics", func() { order = append(order, "metrics") })

	err := res.Close(context.Background())
	require.ErrorContains(t, err, "close mqtt: broker gone")
	require.Equal(t, []string{"metrics", "mqtt", "pool"}, order)

	require.NoError(t, res.Close(context.Background()))
	require.Len(t, order, 3)
}

func TestNilResourcesClose(t *testing.T) {
	var res *Resources
	require.NoError(t, res.Close(context.Background()))
}
