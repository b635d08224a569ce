// Package config provides configuration loading and validation for the
// Tastemap client. It uses koanf to merge environment variables with
// optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the client.
type Config struct {
	// Remote API
	APIBaseURL  string        `koanf:"api_base_url"`
	HTTPTimeout time.Duration `koanf:"http_timeout"`

	// Environment (development, production)
	Env string `koanf:"env"`

	// Listing
	PageLimit int     `koanf:"page_limit"`
	NearKm    float64 `koanf:"near_km"`
	NearLimit int     `koanf:"near_limit"`

	// Pictures
	PicMaxDimension int `koanf:"pic_max_dimension"`
	PicJPEGQuality  int `koanf:"pic_jpeg_quality"`
	PicMaxUploadMB  int `koanf:"pic_max_upload_mb"`

	// Draft autosave file ("" disables autosave)
	DraftPath string `koanf:"draft_path"`

	// Tracing
	TracingEnabled  bool    `koanf:"tracing_enabled"`
	OTLPEndpoint    string  `koanf:"otlp_endpoint"`
	TraceSampleRate float64 `koanf:"trace_sample_rate"`
}

// Configuration validation errors.
var (
	ErrMissingAPIBaseURL = errors.New("TASTEMAP_API_URL is required")
	ErrInvalidPageLimit  = errors.New("page limit must be positive")
	ErrInvalidNearKm     = errors.New("near radius must be positive")
	ErrInvalidQuality    = errors.New("JPEG quality must be between 1 and 100")
	ErrInvalidInt        = errors.New("value must be a valid integer")
)

// Default values for non-secret configuration.
const (
	DefaultEnv             = "development"
	DefaultHTTPTimeout     = 15 * time.Second
	DefaultPageLimit       = 20
	DefaultNearKm          = 10.0
	DefaultNearLimit       = 8
	DefaultPicMaxDimension = 512
	DefaultPicJPEGQuality  = 85
	DefaultPicMaxUploadMB  = 5
	DefaultTraceSampleRate = 0.1
)

// Load reads configuration from environment variables and an optional config
// file. Environment variables take precedence over file values. Returns the
// loaded config and a slice of validation errors (empty if valid). If a
// config file path is provided and the file cannot be loaded, an error is
// returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	pageLimit, err := getEnvIntOrDefault("TASTEMAP_PAGE_LIMIT", k.Int("page_limit"), DefaultPageLimit)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	nearLimit, err := getEnvIntOrDefault("TASTEMAP_NEAR_LIMIT", k.Int("near_limit"), DefaultNearLimit)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	maxDim, err := getEnvIntOrDefault("TASTEMAP_PIC_MAX_DIMENSION", k.Int("pic_max_dimension"), DefaultPicMaxDimension)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	quality, err := getEnvIntOrDefault("TASTEMAP_PIC_JPEG_QUALITY", k.Int("pic_jpeg_quality"), DefaultPicJPEGQuality)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	maxUpload, err := getEnvIntOrDefault("TASTEMAP_PIC_MAX_UPLOAD_MB", k.Int("pic_max_upload_mb"), DefaultPicMaxUploadMB)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}

	timeout := DefaultHTTPTimeout
	if k.Exists("http_timeout") {
		timeout = k.Duration("http_timeout")
	}
	if val := os.Getenv("TASTEMAP_HTTP_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			loadErrs = append(loadErrs, fmt.Errorf("TASTEMAP_HTTP_TIMEOUT must be a valid duration: %w", err))
		} else {
			timeout = d
		}
	}

	nearKm := DefaultNearKm
	if k.Exists("near_km") {
		nearKm = k.Float64("near_km")
	}
	if val := os.Getenv("TASTEMAP_NEAR_KM"); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			loadErrs = append(loadErrs, fmt.Errorf("TASTEMAP_NEAR_KM must be a valid float: %w", err))
		} else {
			nearKm = f
		}
	}

	sampleRate := DefaultTraceSampleRate
	if k.Exists("trace_sample_rate") {
		sampleRate = k.Float64("trace_sample_rate")
	}
	if val := os.Getenv("TASTEMAP_TRACE_SAMPLE_RATE"); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			loadErrs = append(loadErrs, fmt.Errorf("TASTEMAP_TRACE_SAMPLE_RATE must be a valid float: %w", err))
		} else {
			sampleRate = f
		}
	}

	tracingEnabled := k.Bool("tracing_enabled")
	if val := os.Getenv("TASTEMAP_TRACING_ENABLED"); val != "" {
		tracingEnabled = val == "true" || val == "1" || val == "yes" || val == "on"
	}

	// Build config struct, with env vars taking precedence over file values
	cfg := &Config{
		APIBaseURL:      getEnvOrKoanf("TASTEMAP_API_URL", k, "api_base_url"),
		HTTPTimeout:     timeout,
		Env:             getEnvOrDefault("TASTEMAP_ENV", k.String("env"), DefaultEnv),
		PageLimit:       pageLimit,
		NearKm:          nearKm,
		NearLimit:       nearLimit,
		PicMaxDimension: maxDim,
		PicJPEGQuality:  quality,
		PicMaxUploadMB:  maxUpload,
		DraftPath:       getEnvOrKoanf("TASTEMAP_DRAFT_PATH", k, "draft_path"),
		TracingEnabled:  tracingEnabled,
		OTLPEndpoint:    getEnvOrKoanf("TASTEMAP_OTLP_ENDPOINT", k, "otlp_endpoint"),
		TraceSampleRate: sampleRate,
	}

	// Validate and collect errors
	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefault returns the environment variable value if set, otherwise the koanf value, or default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, ErrInvalidInt)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// Validate checks that all required configuration values are present and sane.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.APIBaseURL == "" {
		errs = append(errs, ErrMissingAPIBaseURL)
	}
	if c.PageLimit <= 0 {
		errs = append(errs, ErrInvalidPageLimit)
	}
	if c.NearKm <= 0 {
		errs = append(errs, ErrInvalidNearKm)
	}
	if c.PicJPEGQuality < 1 || c.PicJPEGQuality > 100 {
		errs = append(errs, ErrInvalidQuality)
	}

	return errs
}

// PicMaxUploadBytes returns the upload size ceiling in bytes.
func (c *Config) PicMaxUploadBytes() int64 {
	return int64(c.PicMaxUploadMB) * 1024 * 1024
}

// LogSummary returns a summary of the configuration suitable for logging.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"api_base_url":      c.APIBaseURL,
		"env":               c.Env,
		"http_timeout":      c.HTTPTimeout.String(),
		"page_limit":        strconv.Itoa(c.PageLimit),
		"near_km":           fmt.Sprintf("%g", c.NearKm),
		"near_limit":        strconv.Itoa(c.NearLimit),
		"pic_max_dimension": strconv.Itoa(c.PicMaxDimension),
		"pic_jpeg_quality":  strconv.Itoa(c.PicJPEGQuality),
		"pic_max_upload_mb": strconv.Itoa(c.PicMaxUploadMB),
		"draft_path":        c.DraftPath,
		"tracing_enabled":   strconv.FormatBool(c.TracingEnabled),
		"otlp_endpoint":     c.OTLPEndpoint,
	}
}
