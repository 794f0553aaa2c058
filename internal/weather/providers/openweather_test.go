package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastBackoff = BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}

func newTestProvider(t *testing.T, h http.HandlerFunc) *OpenWeatherProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewOpenWeatherProvider(srv.Client(), OpenWeatherOptions{
		APIKey:  "key",
		Units:   "metric",
		Lang:    "en",
		BaseURL: srv.URL,
	}).WithBackoff(fastBackoff)
}

func TestOpenWeatherCurrent(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Berlin,DE", q.Get("q"))
		assert.Equal(t, "key", q.Get("appid"))
		assert.Equal(t, "metric", q.Get("units"))
		assert.Equal(t, "en", q.Get("lang"))
		_, _ = w.Write([]byte(`{"dt":1717236000,"timezone":7200,"main":{"temp":21.5,"humidity":40},"weather":[{"main":"Clear","description":"clear sky"}]}`))
	})

	cur, err := p.Current(context.Background(), "Berlin,DE")
	require.NoError(t, err)
	assert.Equal(t, int64(1717236000), cur.Dt)
	assert.Equal(t, 7200, cur.Timezone)
	assert.Equal(t, 21.5, cur.Main.Temp)
	assert.Equal(t, int64(40), cur.Main.Humidity)
	require.Len(t, cur.Weather, 1)
	assert.Equal(t, "clear sky", cur.Weather[0].Description)
}

func TestOpenWeatherForecast(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		_, _ = w.Write([]byte(`{"city":{"timezone":-3600},"list":[{"dt":1,"main":{"temp":3},"weather":[]},{"dt":2,"main":{"temp":4},"weather":[{"description":"snow"}]}]}`))
	})

	fc, err := p.Forecast(context.Background(), "Reykjavik")
	require.NoError(t, err)
	assert.Equal(t, -3600, fc.City.Timezone)
	assert.Len(t, fc.List, 2)
}

func TestOpenWeatherClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"cod":"404","message":"city not found"}`, http.StatusNotFound)
	})

	_, err := p.Current(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.ErrorIs(t, err, errUnexpected)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenWeatherServerErrorIsRetried(t *testing.T) {
	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"dt":1,"timezone":0,"main":{"temp":1},"weather":[]}`))
	})

	_, err := p.Current(context.Background(), "Oslo")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenWeatherGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := p.Current(context.Background(), "Oslo")
	require.ErrorIs(t, err, errRateLimited)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenWeatherRequiresAPIKey(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, OpenWeatherOptions{})

	_, err := p.Current(context.Background(), "Oslo")
	assert.Error(t, err)
	assert.Equal(t, "openweathermap", p.Name())
}

func TestDoRequestRejectsBadConfig(t *testing.T) {
	_, err := doRequestWithResilience(context.Background(), HTTPClientConfig{}, nil, nil)
	assert.ErrorIs(t, err, errNoHTTPClient)

	_, err = doRequestWithResilience(context.Background(), HTTPClientConfig{Client: http.DefaultClient}, nil, nil)
	assert.ErrorIs(t, err, errInvalidConfig)
}
