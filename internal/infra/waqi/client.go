package waqi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/clearday/internal/domain/airquality"
	"github.com/yanqian/clearday/pkg/geo"
)

const defaultBaseURL = "https://api.waqi.info"

// Name identifies this provider in logs and metrics.
const Name = "waqi"

// Client reads the nearest station feed from the World Air Quality Index project.
// Station AQI values are already on the US EPA 0-500 scale.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient builds an API client.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	u := strings.TrimSpace(baseURL)
	if u == "" {
		u = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(u, "/"),
		token:   strings.TrimSpace(token),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
}

func (c *Client) Name() string { return Name }

// Fetch returns the station AQI closest to at.
func (c *Client) Fetch(ctx context.Context, at geo.Point) (airquality.Record, error) {
	endpoint := fmt.Sprintf("%s/feed/geo:%s;%s/?token=%s", c.baseURL,
		strconv.FormatFloat(at.Lat, 'f', -1, 64),
		strconv.FormatFloat(at.Lon, 'f', -1, 64),
		url.QueryEscape(c.token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return airquality.Record{}, fmt.Errorf("build waqi request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return airquality.Record{}, fmt.Errorf("waqi request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return airquality.Record{}, fmt.Errorf("waqi request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	var raw apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return airquality.Record{}, fmt.Errorf("decode waqi response: %w", err)
	}
	if raw.Status != "ok" {
		var msg string
		_ = json.Unmarshal(raw.Data, &msg)
		return airquality.Record{}, fmt.Errorf("waqi api error: %s", msg)
	}

	var data feed
	if err := json.Unmarshal(raw.Data, &data); err != nil {
		return airquality.Record{}, fmt.Errorf("decode waqi feed: %w", err)
	}
	return data.record(c.now())
}

type apiResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type feed struct {
	// AQI is a number, or "-" when the station has no current value.
	AQI  json.RawMessage `json:"aqi"`
	Time struct {
		ISO string `json:"iso"`
	} `json:"time"`
}

func (f feed) record(fallback time.Time) (airquality.Record, error) {
	var score float64
	if err := json.Unmarshal(f.AQI, &score); err != nil {
		return airquality.Record{}, fmt.Errorf("waqi station has no current aqi")
	}
	// Some stations report past the top of the scale.
	if score > airquality.MaxEPAScore {
		score = airquality.MaxEPAScore
	}
	observed := fallback
	if ts, err := time.Parse(time.RFC3339, f.Time.ISO); err == nil {
		observed = ts
	}
	// iaqi values are per-pollutant sub-indices, not concentrations, so no
	// PollutantReading is attached.
	rec, err := airquality.NewRecord(int(score+0.5), airquality.ScaleEPA, nil, observed)
	if err != nil {
		return airquality.Record{}, fmt.Errorf("normalize waqi air quality: %w", err)
	}
	return rec, nil
}
