package waqi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/clearday/internal/domain/airquality"
	"github.com/yanqian/clearday/pkg/geo"
)

func serve(t *testing.T, payload string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feed/geo:52.52;13.405/" || r.URL.Query().Get("token") != "tok" {
			http.Error(w, "unexpected request "+r.URL.String(), http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "tok", time.Second)
}

var berlin = geo.Point{Lat: 52.52, Lon: 13.405}

func TestFetch(t *testing.T) {
	c := serve(t, `{"status":"ok","data":{"aqi":57,"idx":6132,"time":{"iso":"2024-06-01T12:00:00+02:00"},"iaqi":{"pm25":{"v":57}}}}`)

	rec, err := c.Fetch(context.Background(), berlin)
	require.NoError(t, err)
	require.Equal(t, airquality.ScaleEPA, rec.Scale)
	require.Equal(t, 57, rec.Score)
	require.Nil(t, rec.Pollutants)
	require.Equal(t, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), rec.ObservedAt)
}

func TestFetchSaturatesAboveScale(t *testing.T) {
	c := serve(t, `{"status":"ok","data":{"aqi":612,"time":{"iso":""}}}`)
	fixed := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	rec, err := c.Fetch(context.Background(), berlin)
	require.NoError(t, err)
	require.Equal(t, 500, rec.Score)
	require.Equal(t, fixed, rec.ObservedAt)
}

func TestFetchErrors(t *testing.T) {
	_, err := serve(t, `{"status":"error","data":"Invalid key"}`).Fetch(context.Background(), berlin)
	require.ErrorContains(t, err, "Invalid key")

	_, err = serve(t, `{"status":"ok","data":{"aqi":"-"}}`).Fetch(context.Background(), berlin)
	require.ErrorContains(t, err, "no current aqi")
}
