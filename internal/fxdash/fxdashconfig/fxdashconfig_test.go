// Copyright 2026 Peter Edge
//
// All rights reserved.

package fxdashconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bufdev/fxdash/internal/pkg/frankfurter"
	"github.com/stretchr/testify/require"
)

func TestInitConfigTemplateIsValid(t *testing.T) {
	t.Parallel()
	configDirPath := filepath.Join(t.TempDir(), "fxdash")
	filePath, err := InitConfig(configDirPath)
	require.NoError(t, err)
	require.Equal(t, ConfigFilePath(configDirPath), filePath)
	require.NoError(t, ValidateConfig(configDirPath))
	config, err := ReadConfig(configDirPath, nil)
	require.NoError(t, err)
	require.Equal(t, NewDefaultConfig(), config)

	_, err = InitConfig(configDirPath)
	require.ErrorContains(t, err, "already exists")
}

func TestReadConfigMissingFile(t *testing.T) {
	t.Parallel()
	configDirPath := t.TempDir()
	config, err := ReadConfig(configDirPath, nil)
	require.NoError(t, err)
	require.Equal(t, NewDefaultConfig(), config)
	require.ErrorContains(t, ValidateConfig(configDirPath), "fxdash config init")
}

func TestDefaultPathStyleMatchesBaseURL(t *testing.T) {
	t.Parallel()
	config := NewDefaultConfig()
	require.Equal(t, frankfurter.DefaultBaseURL, config.APIBaseURL)
	require.Equal(t, frankfurter.PathStyleRange, config.APIPathStyle)
	// The template documents how to select the /timeseries endpoint.
	require.Contains(t, configTemplate, "{base_url}/timeseries?start_date=")
	require.Contains(t, configTemplate, "path_style: range")

	// Selecting timeseries without a base URL keeps the default base URL.
	config, err := ReadConfig(writeConfig(t, `version: v1
api:
  path_style: timeseries
`), nil)
	require.NoError(t, err)
	require.Equal(t, frankfurter.PathStyleTimeseries, config.APIPathStyle)
	require.Equal(t, frankfurter.DefaultBaseURL, config.APIBaseURL)
}

func TestReadConfigEnvOverride(t *testing.T) {
	t.Parallel()
	getenv := func(key string) string {
		if key == APIBaseURLEnvKey {
			return "http://localhost:8080/api"
		}
		return ""
	}
	config, err := ReadConfig(t.TempDir(), getenv)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/api", config.APIBaseURL)
}

func TestReadConfig(t *testing.T) {
	t.Parallel()
	configDirPath := writeConfig(
		t,
		`version: v1
api:
  base_url: http://localhost:8080/api
  timeout: 3s
  path_style: timeseries
cache:
  currencies_ttl: 1h
defaults:
  base: GBP
  targets:
    - EUR
    - JPY
`,
	)
	config, err := ReadConfig(configDirPath, nil)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/api", config.APIBaseURL)
	require.Equal(t, 3*time.Second, config.APITimeout)
	require.Equal(t, frankfurter.PathStyleTimeseries, config.APIPathStyle)
	require.Equal(t, time.Hour, config.CurrenciesTTL)
	require.Equal(t, "GBP", config.Defaults.Base)
	require.Equal(t, []string{"EUR", "JPY"}, config.Defaults.Targets)
	require.Equal(t, 20, config.Defaults.PageSize)
}

func TestReadConfigInvalid(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		name     string
		data     string
		contains string
	}{
		{
			name:     "version",
			data:     "version: v2\n",
			contains: "version",
		},
		{
			name:     "unknown_field",
			data:     "version: v1\nunknown: true\n",
			contains: "unknown",
		},
		{
			name:     "base_url",
			data:     "version: v1\napi:\n  base_url: not a url\n",
			contains: "api.base_url",
		},
		{
			name:     "path_style",
			data:     "version: v1\napi:\n  path_style: rest\n",
			contains: "api.path_style",
		},
		{
			name:     "timeout",
			data:     "version: v1\napi:\n  timeout: -1s\n",
			contains: "api.timeout",
		},
		{
			name:     "currencies_ttl",
			data:     "version: v1\ncache:\n  currencies_ttl: tomorrow\n",
			contains: "cache.currencies_ttl",
		},
		{
			name:     "base",
			data:     "version: v1\ndefaults:\n  base: usd\n",
			contains: "defaults.base",
		},
		{
			name:     "targets",
			data:     "version: v1\ndefaults:\n  targets: [EUR, EURO]\n",
			contains: "defaults.targets",
		},
		{
			name:     "duplicate_targets",
			data:     "version: v1\ndefaults:\n  targets: [EUR, EUR]\n",
			contains: "duplicate target",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			configDirPath := writeConfig(t, test.data)
			_, err := ReadConfig(configDirPath, nil)
			require.ErrorContains(t, err, test.contains)
			require.Error(t, ValidateConfig(configDirPath))
		})
	}
}

func writeConfig(t *testing.T, data string) string {
	configDirPath := t.TempDir()
	require.NoError(t, os.WriteFile(ConfigFilePath(configDirPath), []byte(data), 0o644))
	return configDirPath
}
