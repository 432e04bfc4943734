package googlepollen

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/clearday/internal/domain/pollen"
	"github.com/yanqian/clearday/pkg/caldate"
	"github.com/yanqian/clearday/pkg/geo"
)

const defaultBaseURL = "https://pollen.googleapis.com/v1"

// Name identifies this provider in logs and metrics.
const Name = "google_pollen"

// Client reads the Google Pollen forecast:lookup endpoint.
type Client struct {
	baseURL      string
	apiKey       string
	languageCode string
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewClient builds an API client.
func NewClient(baseURL, apiKey, languageCode string, timeout time.Duration, logger *slog.Logger) *Client {
	u := strings.TrimSpace(baseURL)
	if u == "" {
		u = defaultBaseURL
	}
	if languageCode == "" {
		languageCode = "en"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:      strings.TrimRight(u, "/"),
		apiKey:       strings.TrimSpace(apiKey),
		languageCode: languageCode,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With("component", "googlepollen.client"),
	}
}

// Forecast returns one record per day starting today, with plant detail.
func (c *Client) Forecast(ctx context.Context, at geo.Point, days int) ([]pollen.DayRecord, error) {
	if days < 1 || days > 5 {
		return nil, fmt.Errorf("pollen forecast days %d outside 1-5", days)
	}
	q := url.Values{}
	q.Set("location.latitude", strconv.FormatFloat(at.Lat, 'f', -1, 64))
	q.Set("location.longitude", strconv.FormatFloat(at.Lon, 'f', -1, 64))
	q.Set("days", strconv.Itoa(days))
	q.Set("pageSize", strconv.Itoa(days))
	q.Set("plantsDescription", "false")
	q.Set("languageCode", c.languageCode)
	q.Set("key", c.apiKey)
	endpoint := fmt.Sprintf("%s/forecast:lookup?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build pollen request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pollen request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("pollen request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	var raw forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode pollen response: %w", err)
	}
	return c.normalize(raw.DailyInfo), nil
}

type forecastResponse struct {
	RegionCode string      `json:"regionCode"`
	DailyInfo  []dailyInfo `json:"dailyInfo"`
}

type dailyInfo struct {
	Date struct {
		Year  int `json:"year"`
		Month int `json:"month"`
		Day   int `json:"day"`
	} `json:"date"`
	PollenTypeInfo []typeInfo `json:"pollenTypeInfo"`
	PlantInfo      []typeInfo `json:"plantInfo"`
}

type typeInfo struct {
	Code      string     `json:"code"`
	InSeason  *bool      `json:"inSeason"`
	IndexInfo *indexInfo `json:"indexInfo"`
}

type indexInfo struct {
	Code     string `json:"code"`
	Value    int    `json:"value"`
	Category string `json:"category"`
}

// normalize drops entries without index data, out-of-range values and plants
// outside the registry.
func (c *Client) normalize(days []dailyInfo) []pollen.DayRecord {
	out := make([]pollen.DayRecord, 0, len(days))
	for _, d := range days {
		rec := pollen.DayRecord{
			Date:   caldate.Date{Year: d.Date.Year, Month: time.Month(d.Date.Month), Day: d.Date.Day},
			Types:  make(map[pollen.TypeCode]pollen.TypeIndex, len(d.PollenTypeInfo)),
			Plants: make(map[pollen.PlantCode]pollen.PlantIndex, len(d.PlantInfo)),
		}
		for _, t := range d.PollenTypeInfo {
			if t.IndexInfo == nil || !inRange(t.IndexInfo.Value) {
				continue
			}
			code := pollen.TypeCode(strings.ToUpper(t.Code))
			switch code {
			case pollen.TypeTree, pollen.TypeGrass, pollen.TypeWeed:
			default:
				continue
			}
			rec.Types[code] = pollen.TypeIndex{
				Value:    t.IndexInfo.Value,
				Category: pollen.ParseCategory(t.IndexInfo.Category, t.IndexInfo.Value),
			}
		}
		for _, p := range d.PlantInfo {
			if p.IndexInfo == nil || !inRange(p.IndexInfo.Value) {
				continue
			}
			code, err := pollen.ParsePlantCode(p.Code)
			if err != nil {
				c.logger.Debug("skipping unregistered plant", "code", p.Code)
				continue
			}
			rec.Plants[code] = pollen.PlantIndex{
				Value:    p.IndexInfo.Value,
				InSeason: p.InSeason != nil && *p.InSeason,
			}
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func inRange(v int) bool {
	return v >= 0 && v <= pollen.MaxIndex
}
