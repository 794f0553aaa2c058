package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-web/internal/weather"
)

func fakeOpenWeather(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/weather":
			_, _ = w.Write([]byte(`{"dt":1717236000,"timezone":7200,"main":{"temp":21.5,"humidity":40},"weather":[{"description":"clear sky"}]}`))
		case "/forecast":
			_, _ = w.Write([]byte(`{"city":{"timezone":7200},"list":[{"dt":1717236000,"main":{"temp":20},"weather":[{"description":"light rain"}]}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeFetcherConfig(t *testing.T, baseURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rust.yaml")
	content := "openweather:\n  api_key: test\n  base_url: " + baseURL + "\napp:\n  cities: [\"Berlin,DE\"]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFetchPrintsValidPayload(t *testing.T) {
	srv := fakeOpenWeather(t)
	cfgPath := writeFetcherConfig(t, srv.URL)

	var stdout bytes.Buffer
	cmd := newRootCmd(&stdout)
	cmd.SetArgs([]string{"--config", cfgPath})
	require.NoError(t, cmd.Execute())

	p, err := weather.ParsePayload(stdout.Bytes())
	require.NoError(t, err)
	require.NoError(t, p.Validate())

	var out struct {
		Current []struct {
			City      string `json:"city"`
			Condition string `json:"condition"`
		} `json:"current"`
		Forecasts []struct {
			City string `json:"city"`
			Days []struct {
				Date string `json:"date"`
			} `json:"days"`
		} `json:"forecasts"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	require.Len(t, out.Current, 1)
	assert.Equal(t, "Berlin", out.Current[0].City)
	assert.Equal(t, "Clear sky", out.Current[0].Condition)
	require.Len(t, out.Forecasts, 1)
	assert.Equal(t, "01-06-2024", out.Forecasts[0].Days[0].Date)
}

func TestFetchWritesOutFile(t *testing.T) {
	srv := fakeOpenWeather(t)
	cfgPath := writeFetcherConfig(t, srv.URL)
	outPath := filepath.Join(t.TempDir(), "weather.json")

	var stdout bytes.Buffer
	cmd := newRootCmd(&stdout)
	cmd.SetArgs([]string{"--config", cfgPath, "--out", outPath})
	require.NoError(t, cmd.Execute())

	assert.Empty(t, stdout.String())
	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	p, err := weather.ParsePayload(raw)
	require.NoError(t, err)
	assert.NoError(t, p.Validate())
}

func TestFetchFailsOnMissingConfig(t *testing.T) {
	var stdout bytes.Buffer
	cmd := newRootCmd(&stdout)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")})
	t.Setenv("WEATHER_CONFIG", "")
	t.Chdir(t.TempDir())

	err := cmd.Execute()
	if err == nil {
		t.Skip("a user-level weather-app config exists on this machine")
	}
	assert.Empty(t, stdout.String())
}
