package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

const defaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5"

// Main holds the temperature block of an OpenWeather response.
type Main struct {
	Temp     float64 `json:"temp"`
	Humidity int64   `json:"humidity"`
}

// Condition is one entry of the OpenWeather "weather" array.
type Condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

// CurrentResponse is the subset of /weather we use.
type CurrentResponse struct {
	Dt       int64       `json:"dt"`
	Timezone int         `json:"timezone"` // seconds east of UTC
	Main     Main        `json:"main"`
	Weather  []Condition `json:"weather"`
}

// ForecastEntry is one 3-hour step of the 5-day forecast.
type ForecastEntry struct {
	Dt      int64       `json:"dt"`
	Main    Main        `json:"main"`
	Weather []Condition `json:"weather"`
}

// ForecastResponse is the subset of /forecast we use.
type ForecastResponse struct {
	City struct {
		Timezone int `json:"timezone"`
	} `json:"city"`
	List []ForecastEntry `json:"list"`
}

// OpenWeatherOptions configures an OpenWeatherProvider.
type OpenWeatherOptions struct {
	APIKey  string
	Units   string // metric, imperial or standard
	Lang    string
	BaseURL string // defaults to the public API
}

// OpenWeatherProvider talks to the OpenWeatherMap 2.5 API.
type OpenWeatherProvider struct {
	name    string
	opts    OpenWeatherOptions
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, opts OpenWeatherOptions) *OpenWeatherProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	if opts.BaseURL == "" {
		opts.BaseURL = defaultOpenWeatherURL
	}

	return &OpenWeatherProvider{
		name: "openweathermap",
		opts: opts,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// WithBackoff overrides the retry policy.
func (p *OpenWeatherProvider) WithBackoff(b BackoffConfig) *OpenWeatherProvider {
	p.httpCfg.Backoff = b
	return p
}

// Current fetches current conditions for a "City[,Country]" query.
func (p *OpenWeatherProvider) Current(ctx context.Context, city string) (CurrentResponse, error) {
	var out CurrentResponse
	if err := p.get(ctx, "/weather", city, &out); err != nil {
		return CurrentResponse{}, fmt.Errorf("openweather current for %q: %w", city, err)
	}
	return out, nil
}

// Forecast fetches the 5-day / 3-hour forecast for a "City[,Country]" query.
func (p *OpenWeatherProvider) Forecast(ctx context.Context, city string) (ForecastResponse, error) {
	var out ForecastResponse
	if err := p.get(ctx, "/forecast", city, &out); err != nil {
		return ForecastResponse{}, fmt.Errorf("openweather forecast for %q: %w", city, err)
	}
	return out, nil
}

func (p *OpenWeatherProvider) get(ctx context.Context, path, city string, out any) error {
	if p.opts.APIKey == "" {
		return fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("q", city)
		values.Set("appid", p.opts.APIKey)
		if p.opts.Units != "" {
			values.Set("units", p.opts.Units)
		}
		if p.opts.Lang != "" {
			values.Set("lang", p.opts.Lang)
		}

		u := fmt.Sprintf("%s%s?%s", p.opts.BaseURL, path, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(out)
}
