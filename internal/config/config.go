package config

import (
	"sync/atomic"
)

var configValue atomic.Value

func GetConfig() *Config {
	return configValue.Load().(*Config)
}

func SetConfig(cfg *Config) {
	configValue.Store(cfg)
}

type Config struct {
	Version     string          `mapstructure:"version"`
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Providers   ProvidersConfig `mapstructure:"providers"`
	Page        PageConfig      `mapstructure:"page"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Host         string `mapstructure:"host"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

// ProvidersConfig is everything the orchestrator needs to reach the weather
// and photo providers. Keys are supplied at deploy time, usually via
// WPAGE_PROVIDERS_WEATHER_API_KEY and WPAGE_PROVIDERS_PHOTO_API_ACCESS_KEY.
type ProvidersConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	WeatherAPIKey     string `mapstructure:"weather_api_key"`
	PhotoBaseURL      string `mapstructure:"photo_base_url"`
	PhotoAPIAccessKey string `mapstructure:"photo_api_access_key"`
	// Timeout in seconds applied to each outbound call. Zero leaves the
	// transport default in place.
	Timeout int `mapstructure:"timeout"`
}

// PageConfig holds the initial state of the page.
type PageConfig struct {
	DefaultUnits    string `mapstructure:"default_units"`
	InitialLocation string `mapstructure:"initial_location"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Version:     "1.0.0",
		Environment: "development",
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  60,
		},
		Providers: ProvidersConfig{
			BaseURL:           "https://api.openweathermap.org/data/2.5",
			WeatherAPIKey:     "",
			PhotoBaseURL:      "https://api.unsplash.com",
			PhotoAPIAccessKey: "",
			Timeout:           0,
		},
		Page: PageConfig{
			DefaultUnits:    "metric",
			InitialLocation: "",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "",
		},
		Telemetry: TelemetryConfig{
			Enabled:  false,
			Endpoint: "tempo:4317",
		},
	}
}
