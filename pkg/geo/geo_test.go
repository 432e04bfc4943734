package geo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	require.NoError(t, Point{Lat: 1.35, Lon: 103.8}.Validate())
	require.Error(t, Point{Lat: 91}.Validate())
	require.Error(t, Point{Lon: -181}.Validate())
}

func TestRoundedKey(t *testing.T) {
	p := Point{Lat: 51.50735, Lon: -0.12776}
	require.Equal(t, "51.51,-0.13", p.Rounded(2).Key())
	require.Equal(t, p.Rounded(2), Point{Lat: 51.5071, Lon: -0.1281}.Rounded(2))
}
