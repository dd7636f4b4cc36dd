// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package fxdashconfig provides configuration parsing and validation for fxdash.
//
// Configuration is stored at ~/.config/fxdash/fxdash.yaml (or
// $FXDASH_CONFIG_DIR/fxdash.yaml). The file is optional: without it, the
// public frankfurter.dev service and the built-in view defaults are used.
package fxdashconfig

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/bufdev/fxdash/internal/fxdash/fxdashview"
	"github.com/bufdev/fxdash/internal/pkg/frankfurter"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the name of the configuration file within the config directory.
	ConfigFileName = "fxdash.yaml"
	// APIBaseURLEnvKey is the environment variable that overrides api.base_url.
	APIBaseURLEnvKey = "FXDASH_API_BASE_URL"
)

// configTemplate is the default configuration file template with comments.
// yaml.v3 does not preserve comments, so we hardcode the template string.
const configTemplate = `# The configuration file version.
#
# Required. The only current valid version is v1.
version: v1
# Rate service configuration.
#
# Optional. Defaults to the public frankfurter.dev service.
api:
  # The service base URL.
  #
  # Can be overridden with the FXDASH_API_BASE_URL environment variable.
  base_url: https://api.frankfurter.dev/v1
  # The request timeout.
  timeout: 10s
  # How the time series endpoint is addressed.
  #
  # "range" requests {base_url}/{start}..{end}, as frankfurter.dev does.
  # "timeseries" requests {base_url}/timeseries?start_date=...&end_date=...,
  # as a same-origin dashboard proxy does. Set "timeseries" together with
  # base_url when pointing at a service with a /timeseries endpoint.
  #
  # Defaults to range, matching the default base_url.
  path_style: range
# Cache configuration.
cache:
  # How long the currency list is cached.
  currencies_ttl: 24h
# View defaults, used when the address has no value.
#
# Optional. The trend view uses the first target only.
# defaults:
#   base: USD
#   targets:
#     - EUR
`

// ExternalConfig is the YAML-serializable configuration file structure.
type ExternalConfig struct {
	// Version is the configuration file version (must be "v1").
	Version string `yaml:"version" validate:"required,eq=v1"`
	// API holds the rate service configuration.
	API ExternalAPIConfig `yaml:"api"`
	// Cache holds the cache configuration.
	Cache ExternalCacheConfig `yaml:"cache"`
	// Defaults holds the view defaults.
	Defaults ExternalDefaultsConfig `yaml:"defaults"`
}

// ExternalAPIConfig holds rate service configuration.
type ExternalAPIConfig struct {
	// BaseURL is the service base URL.
	BaseURL string `yaml:"base_url" validate:"omitempty,http_url"`
	// Timeout is the request timeout as a Go duration string.
	Timeout string `yaml:"timeout"`
	// PathStyle is "range" or "timeseries".
	PathStyle string `yaml:"path_style" validate:"omitempty,oneof=range timeseries"`
}

// ExternalCacheConfig holds cache configuration.
type ExternalCacheConfig struct {
	// CurrenciesTTL is the time-to-live of the currency list as a Go duration string.
	CurrenciesTTL string `yaml:"currencies_ttl"`
}

// ExternalDefaultsConfig holds view defaults.
type ExternalDefaultsConfig struct {
	// Base is the default base currency code.
	Base string `yaml:"base" validate:"omitempty,len=3,uppercase"`
	// Targets are the default target currency codes.
	Targets []string `yaml:"targets" validate:"omitempty,dive,len=3,uppercase"`
}

// Config is the validated runtime configuration derived from the config file.
type Config struct {
	// APIBaseURL is the rate service base URL.
	APIBaseURL string
	// APITimeout is the request timeout.
	APITimeout time.Duration
	// APIPathStyle is how the time series endpoint is addressed.
	APIPathStyle frankfurter.PathStyle
	// CurrenciesTTL is how long the currency list is cached.
	CurrenciesTTL time.Duration
	// Defaults are the view defaults.
	Defaults fxdashview.Defaults
}

// NewDefaultConfig returns the Config used when there is no configuration file.
//
// The path style is range because the default base URL is frankfurter.dev,
// which has no /timeseries endpoint.
func NewDefaultConfig() *Config {
	return &Config{
		APIBaseURL:    frankfurter.DefaultBaseURL,
		APITimeout:    frankfurter.DefaultTimeout,
		APIPathStyle:  frankfurter.PathStyleRange,
		CurrenciesTTL: frankfurter.DefaultCurrencyCacheTTL,
		Defaults:      fxdashview.NewDefaults(),
	}
}

// NewConfig validates an ExternalConfig and returns a runtime Config.
//
// Unset values take their defaults.
func NewConfig(externalConfig ExternalConfig) (*Config, error) {
	if err := newValidate().Struct(externalConfig); err != nil {
		return nil, newValidationError(err)
	}
	config := NewDefaultConfig()
	if externalConfig.API.BaseURL != "" {
		config.APIBaseURL = externalConfig.API.BaseURL
	}
	if externalConfig.API.Timeout != "" {
		timeout, err := parsePositiveDuration("api.timeout", externalConfig.API.Timeout)
		if err != nil {
			return nil, err
		}
		config.APITimeout = timeout
	}
	if externalConfig.API.PathStyle != "" {
		pathStyle, err := frankfurter.ParsePathStyle(externalConfig.API.PathStyle)
		if err != nil {
			return nil, fmt.Errorf("api.path_style: %w", err)
		}
		config.APIPathStyle = pathStyle
	}
	if externalConfig.Cache.CurrenciesTTL != "" {
		currenciesTTL, err := parsePositiveDuration("cache.currencies_ttl", externalConfig.Cache.CurrenciesTTL)
		if err != nil {
			return nil, err
		}
		config.CurrenciesTTL = currenciesTTL
	}
	if externalConfig.Defaults.Base != "" {
		config.Defaults.Base = externalConfig.Defaults.Base
	}
	if len(externalConfig.Defaults.Targets) > 0 {
		seen := make(map[string]struct{}, len(externalConfig.Defaults.Targets))
		for _, target := range externalConfig.Defaults.Targets {
			if _, ok := seen[target]; ok {
				return nil, fmt.Errorf("duplicate target %q in defaults.targets", target)
			}
			seen[target] = struct{}{}
		}
		config.Defaults.Targets = externalConfig.Defaults.Targets
	}
	return config, nil
}

// ConfigFilePath returns the path to the configuration file within the given config directory.
func ConfigFilePath(configDirPath string) string {
	return filepath.Join(configDirPath, ConfigFileName)
}

// ReadConfig reads and validates the configuration file from the given config directory.
//
// Returns the default Config if the file does not exist. If getenv returns
// a value for APIBaseURLEnvKey, it overrides the configured base URL.
func ReadConfig(configDirPath string, getenv func(string) string) (*Config, error) {
	config, err := readConfig(configDirPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		config = NewDefaultConfig()
	}
	if getenv != nil {
		if baseURL := getenv(APIBaseURLEnvKey); baseURL != "" {
			config.APIBaseURL = baseURL
		}
	}
	return config, nil
}

// InitConfig creates a new configuration file with a documented template.
// Creates the config directory if it does not exist.
// Returns the path to the created file, or an error if the file already exists.
func InitConfig(configDirPath string) (string, error) {
	filePath := ConfigFilePath(configDirPath)
	if _, err := os.Stat(filePath); err == nil {
		return "", fmt.Errorf("configuration file already exists: %s", filePath)
	}
	// Create the config directory if it does not exist.
	if err := os.MkdirAll(configDirPath, 0o755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(filePath, []byte(configTemplate), 0o644); err != nil {
		return "", err
	}
	return filePath, nil
}

// ValidateConfig reads and validates the configuration file from the given config directory.
//
// Unlike ReadConfig, a missing file is an error.
func ValidateConfig(configDirPath string) error {
	_, err := readConfig(configDirPath)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("configuration file not found at %s, run \"fxdash config init\" to create one", ConfigFilePath(configDirPath))
	}
	return err
}

// *** PRIVATE ***

// readConfig returns an error wrapping os.ErrNotExist if the file does not exist.
func readConfig(configDirPath string) (*Config, error) {
	filePath := ConfigFilePath(configDirPath)
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var externalConfig ExternalConfig
	if err := unmarshalYAMLStrict(data, &externalConfig); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
	}
	config, err := NewConfig(externalConfig)
	if err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filePath, err)
	}
	return config, nil
}

func parsePositiveDuration(field string, s string) (time.Duration, error) {
	duration, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", field, s)
	}
	return duration, nil
}

// newValidate returns a validator that names fields by their YAML keys.
func newValidate() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		return name
	})
	return validate
}

// newValidationError converts validator errors into a single error naming the YAML fields.
func newValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	errs := make([]error, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		field := strings.TrimPrefix(fieldError.Namespace(), "ExternalConfig.")
		errs = append(errs, fmt.Errorf("%s: failed %q validation", field, fieldError.Tag()))
	}
	return errors.Join(errs...)
}

// unmarshalYAMLStrict unmarshals the data as YAML with strict field checking.
// If the data length is 0, this is a no-op.
func unmarshalYAMLStrict(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	yamlDecoder := yaml.NewDecoder(bytes.NewReader(data))
	// Reject unknown fields.
	yamlDecoder.KnownFields(true)
	if err := yamlDecoder.Decode(v); err != nil {
		return fmt.Errorf("could not unmarshal as YAML: %w", err)
	}
	return nil
}
