package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/clearday/internal/domain/airquality"
	"github.com/yanqian/clearday/internal/domain/weather"
	"github.com/yanqian/clearday/pkg/geo"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5"

// Name identifies this provider in logs and metrics.
const Name = "openweather"

// Client talks to the OpenWeatherMap weather, forecast and air pollution endpoints.
// It satisfies both weather.Source and airquality.Source.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds an API client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	u := strings.TrimSpace(baseURL)
	if u == "" {
		u = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(u, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Name() string { return Name }

// Current returns the current conditions in metric units.
func (c *Client) Current(ctx context.Context, at geo.Point) (weather.Snapshot, error) {
	var raw currentResponse
	if err := c.get(ctx, "weather", at, true, &raw); err != nil {
		return weather.Snapshot{}, err
	}
	return raw.snapshot(), nil
}

// Forecast returns the 5 day / 3 hour forecast.
func (c *Client) Forecast(ctx context.Context, at geo.Point) ([]weather.ForecastPoint, error) {
	var raw forecastResponse
	if err := c.get(ctx, "forecast", at, true, &raw); err != nil {
		return nil, err
	}
	return raw.points(), nil
}

// Fetch returns the current air quality. Particulate concentrations are placed on
// the EPA scale; without them the provider's 1-5 index is kept on the station scale.
func (c *Client) Fetch(ctx context.Context, at geo.Point) (airquality.Record, error) {
	var raw pollutionResponse
	if err := c.get(ctx, "air_pollution", at, false, &raw); err != nil {
		return airquality.Record{}, err
	}
	return raw.record()
}

func (c *Client) get(ctx context.Context, path string, at geo.Point, metric bool, out any) error {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(at.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(at.Lon, 'f', -1, 64))
	q.Set("appid", c.apiKey)
	if metric {
		q.Set("units", "metric")
	}
	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, path, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build openweather %s request: %w", path, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openweather %s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("openweather %s request error: status=%d body=%s", path, resp.StatusCode, string(payload))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode openweather %s response: %w", path, err)
	}
	return nil
}

type currentResponse struct {
	Name string `json:"name"`
	Dt   int64  `json:"dt"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
}

func (r currentResponse) snapshot() weather.Snapshot {
	snap := weather.Snapshot{
		TemperatureC: r.Main.Temp,
		FeelsLikeC:   r.Main.FeelsLike,
		Humidity:     r.Main.Humidity,
		Location:     r.Name,
		ObservedAt:   unixUTC(r.Dt),
	}
	if len(r.Weather) > 0 {
		snap.Description = r.Weather[0].Description
		snap.Icon = r.Weather[0].Icon
	}
	return snap
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
	} `json:"list"`
}

func (r forecastResponse) points() []weather.ForecastPoint {
	out := make([]weather.ForecastPoint, 0, len(r.List))
	for _, item := range r.List {
		if item.Dt == 0 {
			continue
		}
		out = append(out, weather.ForecastPoint{At: unixUTC(item.Dt), TemperatureC: item.Main.Temp})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

type pollutionResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
		Components map[string]float64 `json:"components"`
	} `json:"list"`
}

func (r pollutionResponse) record() (airquality.Record, error) {
	if len(r.List) == 0 {
		return airquality.Record{}, fmt.Errorf("openweather air_pollution response has no entries")
	}
	item := r.List[0]
	reading := airquality.PollutantReading{
		PM25: component(item.Components, "pm2_5"),
		PM10: component(item.Components, "pm10"),
		NO2:  component(item.Components, "no2"),
		O3:   component(item.Components, "o3"),
		SO2:  component(item.Components, "so2"),
		CO:   component(item.Components, "co"),
	}
	rec, err := airquality.FromReport(item.Main.AQI, reading, unixUTC(item.Dt))
	if err != nil {
		return airquality.Record{}, fmt.Errorf("normalize openweather air quality: %w", err)
	}
	return rec, nil
}

func component(components map[string]float64, key string) *float64 {
	v, ok := components[key]
	if !ok {
		return nil
	}
	return &v
}

func unixUTC(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
