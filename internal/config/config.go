package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Fetch modes.
const (
	ModeFile  = "file"
	ModeSpawn = "spawn"
)

// Defaults applied when the YAML file leaves a key out.
const (
	DefaultTTLSeconds          = 120
	DefaultSpawnTimeoutSeconds = 90
	DefaultHost                = "127.0.0.1"
	DefaultPort                = 3000
	DefaultLogLevel            = "info"
	DefaultBreakerFailures     = 3
	DefaultBreakerOpenSeconds  = 60
)

// ErrNoConfig is returned when no config file exists in any search location.
var ErrNoConfig = errors.New("no web config found; put one at config/web.yaml or set WEATHER_CONFIG")

var validate = validator.New()

// AppConfig is the resolved configuration of the web service.
type AppConfig struct {
	Fetch FetchConfig
	// RefreshInterval runs a background cache refresh (0 = disabled).
	RefreshInterval time.Duration
	Breaker         BreakerConfig
	Server          ServerConfig
	LogLevel        string

	// Path is the config file the values were read from.
	Path string
}

// FetchConfig selects and parameterizes the weather source.
type FetchConfig struct {
	Mode string `validate:"oneof=file spawn"`

	// File mode.
	JSONPath string `validate:"required_if=Mode file"`

	// Spawn mode.
	Binary       string `validate:"required_if=Mode spawn"`
	BinaryConfig string `validate:"required_if=Mode spawn"`
	Timeout      time.Duration

	// CacheTTL is how long a fetched payload may be reused (<= 0 = never).
	CacheTTL time.Duration
}

// BreakerConfig controls the optional circuit breaker around the source.
type BreakerConfig struct {
	Enabled     bool
	MaxFailures uint32 `validate:"gte=1"`
	OpenTimeout time.Duration
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host  string
	Port  int `validate:"gte=1,lte=65535"`
	Debug bool
	// ExposeErrors includes error details in error responses.
	ExposeErrors bool
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// fileConfig mirrors the YAML layout. Pointers distinguish "unset" from zero.
type fileConfig struct {
	Mode                   string `yaml:"mode"`
	JSONPath               string `yaml:"json_path"`
	WeatherBin             string `yaml:"weather_bin"`
	RustConfig             string `yaml:"rust_config"`
	SpawnTimeoutSeconds    *int   `yaml:"spawn_timeout_seconds"`
	CacheTTLSeconds        *int   `yaml:"cache_ttl_seconds"`
	RefreshIntervalSeconds int    `yaml:"refresh_interval_seconds"`

	Breaker struct {
		Enabled     bool    `yaml:"enabled"`
		MaxFailures *uint32 `yaml:"max_failures"`
		OpenSeconds *int    `yaml:"open_seconds"`
	} `yaml:"breaker"`

	Server struct {
		Host         string `yaml:"host"`
		Port         int    `yaml:"port"`
		Debug        bool   `yaml:"debug"`
		ExposeErrors *bool  `yaml:"expose_errors"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// LoadDotenv loads a .env file into the environment if one exists.
func LoadDotenv() error {
	return godotenv.Load()
}

// Load reads configuration from the first YAML file found, with environment overrides.
// Search order: $WEATHER_CONFIG, ./config/web.yaml, ./web.yaml.
func Load() (*AppConfig, error) {
	path, err := findConfig()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads configuration from path, applying defaults and environment overrides.
func LoadFile(path string) (*AppConfig, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", abs, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", abs, err)
	}

	cfg, err := fc.resolve(filepath.Dir(abs))
	if err != nil {
		return nil, err
	}
	cfg.Path = abs

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg.Fetch); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", abs, err)
	}
	if err := validate.Struct(cfg.Server); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", abs, err)
	}
	if err := validate.Struct(cfg.Breaker); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", abs, err)
	}

	return cfg, nil
}

func findConfig() (string, error) {
	if p := os.Getenv("WEATHER_CONFIG"); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("WEATHER_CONFIG not found: %s", p)
		}
		return p, nil
	}

	for _, candidate := range []string{
		filepath.Join("config", "web.yaml"),
		"web.yaml",
	} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", ErrNoConfig
}

func (fc fileConfig) resolve(base string) (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.Fetch.Mode = fc.Mode
	if cfg.Fetch.Mode == "" {
		cfg.Fetch.Mode = ModeFile
	}
	cfg.Fetch.JSONPath = resolvePath(base, fc.JSONPath)
	cfg.Fetch.Binary = resolvePath(base, fc.WeatherBin)
	cfg.Fetch.BinaryConfig = resolvePath(base, fc.RustConfig)
	cfg.Fetch.Timeout = seconds(fc.SpawnTimeoutSeconds, DefaultSpawnTimeoutSeconds)
	if cfg.Fetch.Timeout <= 0 {
		cfg.Fetch.Timeout = DefaultSpawnTimeoutSeconds * time.Second
	}
	cfg.Fetch.CacheTTL = seconds(fc.CacheTTLSeconds, DefaultTTLSeconds)

	if fc.RefreshIntervalSeconds < 0 {
		return nil, fmt.Errorf("refresh_interval_seconds must not be negative")
	}
	cfg.RefreshInterval = time.Duration(fc.RefreshIntervalSeconds) * time.Second

	cfg.Breaker.Enabled = fc.Breaker.Enabled
	cfg.Breaker.MaxFailures = DefaultBreakerFailures
	if fc.Breaker.MaxFailures != nil {
		cfg.Breaker.MaxFailures = *fc.Breaker.MaxFailures
	}
	cfg.Breaker.OpenTimeout = seconds(fc.Breaker.OpenSeconds, DefaultBreakerOpenSeconds)

	cfg.Server.Host = fc.Server.Host
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultHost
	}
	cfg.Server.Port = fc.Server.Port
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	cfg.Server.Debug = fc.Server.Debug
	cfg.Server.ExposeErrors = true
	if fc.Server.ExposeErrors != nil {
		cfg.Server.ExposeErrors = *fc.Server.ExposeErrors
	}

	cfg.LogLevel = fc.Log.Level
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	return cfg, nil
}

func applyEnv(cfg *AppConfig) error {
	cfg.Server.Host = getenvDefault("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getenvInt("PORT", cfg.Server.Port)
	cfg.LogLevel = getenvDefault("LOG_LEVEL", cfg.LogLevel)

	if v := os.Getenv("CACHE_TTL_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CACHE_TTL_SECONDS: %w", err)
		}
		cfg.Fetch.CacheTTL = time.Duration(n) * time.Second
	}
	return nil
}

// resolvePath resolves a possibly-relative path against the config file directory.
func resolvePath(base, p string) string {
	if p == "" {
		return ""
	}
	if len(p) > 1 && p[0] == '~' && p[1] == '/' {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

func seconds(v *int, def int) time.Duration {
	if v == nil {
		return time.Duration(def) * time.Second
	}
	return time.Duration(*v) * time.Second
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
