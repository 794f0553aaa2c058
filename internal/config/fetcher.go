package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoFetcherConfig is returned when the fetcher CLI finds no config file.
var ErrNoFetcherConfig = errors.New("no config file found; use --config or provide one at ./config/rust.yaml")

// FetcherConfig is the configuration of the weather-fetch CLI.
type FetcherConfig struct {
	OpenWeather OpenWeatherConfig `yaml:"openweather"`
	App         struct {
		Cities []string `yaml:"cities" validate:"required,min=1,dive,required"`
	} `yaml:"app"`
}

// OpenWeatherConfig holds OpenWeatherMap API settings.
type OpenWeatherConfig struct {
	APIKey string `yaml:"api_key" validate:"required"`
	Units  string `yaml:"units"`
	Lang   string `yaml:"lang"`
	// BaseURL overrides the API endpoint; used by tests.
	BaseURL string `yaml:"base_url"`
}

// LoadFetcher reads the fetcher config from the first existing candidate.
// Search order: explicit, $WEATHER_CONFIG, ./config/rust.yaml, ./config.yaml,
// <user config dir>/weather-app/config.yaml.
func LoadFetcher(explicit string) (*FetcherConfig, error) {
	var candidates []string
	if explicit != "" {
		candidates = append(candidates, explicit)
	}
	if p := os.Getenv("WEATHER_CONFIG"); p != "" {
		candidates = append(candidates, p)
	}
	candidates = append(candidates,
		filepath.Join("config", "rust.yaml"),
		"config.yaml",
	)
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "weather-app", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return LoadFetcherFile(path)
		}
	}
	return nil, ErrNoFetcherConfig
}

// LoadFetcherFile reads and validates the fetcher config at path.
func LoadFetcherFile(path string) (*FetcherConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	var cfg FetcherConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML in %s: %w", path, err)
	}

	cfg.OpenWeather.APIKey = strings.TrimSpace(cfg.OpenWeather.APIKey)
	cfg.OpenWeather.Units = strings.ToLower(cfg.OpenWeather.Units)
	if cfg.OpenWeather.Units == "" {
		cfg.OpenWeather.Units = "metric"
	}
	cfg.OpenWeather.Lang = strings.ToLower(cfg.OpenWeather.Lang)
	if cfg.OpenWeather.Lang == "" {
		cfg.OpenWeather.Lang = "en"
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}
