package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "gdpwaterfall/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Data      DataConfig      `yaml:"data" envconfig:"DATA"`
	Sheets    SheetsConfig    `yaml:"sheets" envconfig:"SHEETS"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" validate:"gte=0"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format      string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// DataConfig describes where the GDP table comes from and how to read it
type DataConfig struct {
	// Source is a file path or an http(s) URL; unused for Google Sheets
	Source       string        `yaml:"source" envconfig:"SOURCE"`
	Type         string        `yaml:"type" envconfig:"TYPE" validate:"omitempty,oneof=file http sheets"`
	Format       string        `yaml:"format" envconfig:"FORMAT" validate:"oneof=auto dsv xlsx"`
	Delimiter    string        `yaml:"delimiter" envconfig:"DELIMITER" validate:"required"`
	Sheet        string        `yaml:"sheet" envconfig:"SHEET"`
	Columns      ColumnsConfig `yaml:"columns" envconfig:"COLUMNS"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT" validate:"gt=0"`
	Watch        bool          `yaml:"watch" envconfig:"WATCH"`
	WatchDelay   time.Duration `yaml:"watch_delay" envconfig:"WATCH_DELAY" validate:"gte=0"`
}

// ColumnsConfig overrides the header names used for each column role
type ColumnsConfig struct {
	Country string `yaml:"country" envconfig:"COUNTRY"`
	Year    string `yaml:"year" envconfig:"YEAR"`
	GDP     string `yaml:"gdp" envconfig:"GDP"`
}

// SheetsConfig selects a Google Sheets range as the data source
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	Range           string `yaml:"range" envconfig:"RANGE"`
	APIKey          string `yaml:"api_key" envconfig:"API_KEY"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
}

// ExportConfig controls CSV and XLSX downloads
type ExportConfig struct {
	Precision int  `yaml:"precision" envconfig:"PRECISION" validate:"gte=0,lte=12"`
	BOM       bool `yaml:"bom" envconfig:"BOM"`

	// DecimalComma writes amounts as 1000,50 instead of 1000.50
	DecimalComma bool `yaml:"decimal_comma" envconfig:"DECIMAL_COMMA"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" validate:"gt=0"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" validate:"gt=0"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" validate:"gt=0"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" validate:"gtfield=PingPeriod"`
}

// TelemetryConfig controls metrics and tracing
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
	TracesExporter string `yaml:"traces_exporter" envconfig:"TRACES_EXPORTER" validate:"oneof=none stdout"`
}

// Load builds the configuration from defaults, an optional YAML file and
// GDPW_* environment variables, in increasing order of precedence.
// An empty path falls back to GDPW_CONFIG and then to the usual locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext("path", path)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg; absent keys keep their value
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// findConfigFile returns the first config file found, or ""
func findConfigFile() string {
	if p := os.Getenv(ConfigFileEnv); p != "" {
		return p
	}
	for _, location := range []string{"config.yaml", "configs/config.yaml"} {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field constraints and the rules that span sections
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}

	if utf8.RuneCountInString(c.Data.Delimiter) != 1 {
		return apperrors.NewConfigError(fmt.Sprintf("delimiter must be a single character, got %q", c.Data.Delimiter), nil)
	}

	switch c.Data.SourceType() {
	case SourceSheets:
		if c.Sheets.SpreadsheetID == "" || c.Sheets.Range == "" {
			return apperrors.NewConfigError("sheets source requires spreadsheet_id and range", nil)
		}
		if c.Sheets.APIKey == "" && c.Sheets.CredentialsFile == "" {
			return apperrors.NewConfigError("sheets source requires api_key or credentials_file", nil)
		}
	default:
		if c.Data.Source == "" {
			return apperrors.NewConfigError("data source is required", nil)
		}
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return apperrors.NewConfigError("at least one allowed origin must be specified when CORS is enabled", nil)
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return apperrors.NewConfigError("logging file_path is required for file output", nil)
	}
	return nil
}

// SourceType returns the configured source type, inferring it from Source
// when not set explicitly
func (d DataConfig) SourceType() string {
	if d.Type != "" {
		return d.Type
	}
	lower := strings.ToLower(d.Source)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return SourceHTTP
	}
	return SourceFile
}

// DelimiterRune returns the configured delimiter as a rune
func (d DataConfig) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(d.Delimiter)
	if r == utf8.RuneError {
		return ';'
	}
	return r
}

// Address returns the host:port the server listens on
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/gdpwaterfall.log",
		},
		Data: DataConfig{
			Source:       "data/gdp.csv",
			Format:       FormatAuto,
			Delimiter:    DefaultDelimiter,
			FetchTimeout: DefaultFetchTimeout,
			WatchDelay:   DefaultWatchDelay,
		},
		Export: ExportConfig{
			Precision: 2,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      WebSocketPingPeriod,
			PongWait:        WebSocketPongWait,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "gdpwaterfall",
			MetricsEnabled: true,
			TracesExporter: "none",
		},
	}
}
