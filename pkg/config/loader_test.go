// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.TestWriter{T: t}).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

// 🧪 TestParserSelection tests parser selection by file extension
func TestParserSelection(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     Parser
	}{
		{name: "yaml_file", filename: "gridxfer.yaml", want: &YAMLParser{}},
		{name: "yml_file", filename: "gridxfer.yml", want: &YAMLParser{}},
		{name: "hcl_file", filename: "gridxfer.hcl", want: &HCLParser{}},
		{name: "json_file", filename: "gridxfer.json", want: &JSONParser{}},
		{name: "unknown_file", filename: "gridxfer.toml", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetParser(tt.filename)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.IsType(t, tt.want, got)
		})
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		config      string
		errContains string
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name:     "yaml_config",
			filename: "gridxfer.yaml",
			config: `
source: /data/run1
destination: s3://bucket/run1/
storage_element: SE-PRIMARY
lfn_root: /lfn/run1/
output_log: run1.log
exclude:
  - "*.tmp"
transfer: true
catalogue:
  driver: postgres
  dsn: postgres://db/grid
s3:
  region: eu-west-1
  endpoint: http://localhost:9000
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/data/run1", cfg.Source)
				assert.Equal(t, "s3://bucket/run1/", cfg.Destination)
				assert.Equal(t, "SE-PRIMARY", cfg.StorageElement)
				assert.Equal(t, []string{"*.tmp"}, cfg.Exclude)
				assert.True(t, cfg.Transfer)
				assert.False(t, cfg.Register)
				assert.Equal(t, "postgres", cfg.Catalogue.Driver)
				assert.Equal(t, "postgres://db/grid", cfg.Catalogue.DSN)
				assert.Equal(t, "eu-west-1", cfg.S3.Region)
				assert.Equal(t, "http://localhost:9000", cfg.S3.Endpoint)
			},
		},
		{
			name:     "hcl_config",
			filename: "gridxfer.hcl",
			config: `
source = "/data/run1"
lfn_root = "/lfn/run1/"
storage_element = "SE-PRIMARY"
input_log = "run1.log"
register = true

catalogue {
  dsn = "catalogue.db"
}

s3 {
  profile = "grid"
}
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/lfn/run1/", cfg.LFNRoot)
				assert.Equal(t, "run1.log", cfg.InputLog)
				assert.True(t, cfg.Register)
				assert.Equal(t, DefaultCatalogueDriver, cfg.Catalogue.Driver, "driver keeps its default")
				assert.Equal(t, "catalogue.db", cfg.Catalogue.DSN)
				assert.Equal(t, "grid", cfg.S3.Profile)
			},
		},
		{
			name:     "json_config",
			filename: "gridxfer.json",
			config:   `{"source": "/data/run1", "destination": "/grid/run1/", "exclude": ["*.log"]}`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/grid/run1/", cfg.Destination)
				assert.Equal(t, []string{"*.log"}, cfg.Exclude)
				assert.Equal(t, DefaultCatalogueDSN, cfg.Catalogue.DSN)
			},
		},
		{
			name:        "yaml_unknown_field",
			filename:    "gridxfer.yaml",
			config:      "source: /data\nsurprise: true\n",
			errContains: "parsing YAML",
		},
		{
			name:        "json_unknown_field",
			filename:    "gridxfer.json",
			config:      `{"surprise": true}`,
			errContains: "parsing JSON",
		},
		{
			name:        "hcl_syntax_error",
			filename:    "gridxfer.hcl",
			config:      `source = `,
			errContains: "parsing HCL",
		},
		{
			name:        "unsupported_extension",
			filename:    "gridxfer.toml",
			config:      `source = "/data"`,
			errContains: "no parser found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := setupTestLogger(t)
			path := filepath.Join(t.TempDir(), tt.filename)
			require.NoError(t, os.WriteFile(path, []byte(tt.config), 0644))

			cfg, err := Load(ctx, path)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadWithoutFile(t *testing.T) {
	ctx := setupTestLogger(t)
	t.Setenv("GRIDXFER_SOURCE", "/env/source")

	cfg, err := Load(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "/env/source", cfg.Source)
	assert.Equal(t, DefaultCatalogueDriver, cfg.Catalogue.Driver)
}

func TestLoadMissingFile(t *testing.T) {
	ctx := setupTestLogger(t)
	_, err := Load(ctx, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"GRIDXFER_DESTINATION":     "/grid/",
		"GRIDXFER_EXCLUDE":         "*.tmp, *.log,,",
		"GRIDXFER_REGISTER":        "true",
		"GRIDXFER_CATALOGUE_DSN":   "other.db",
		"GRIDXFER_S3_ENDPOINT":     "http://minio:9000",
		"GRIDXFER_STORAGE_ELEMENT": "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	cfg.StorageElement = "SE-FILE"
	require.NoError(t, cfg.ApplyEnv(lookup))

	assert.Equal(t, "/grid/", cfg.Destination)
	assert.Equal(t, []string{"*.tmp", "*.log"}, cfg.Exclude)
	assert.True(t, cfg.Register)
	assert.Equal(t, "other.db", cfg.Catalogue.DSN)
	assert.Equal(t, "http://minio:9000", cfg.S3.Endpoint)
	assert.Equal(t, "SE-FILE", cfg.StorageElement, "empty variables do not override")

	t.Run("bad_bool", func(t *testing.T) {
		env["GRIDXFER_TRANSFER"] = "maybe"
		err := Default().ApplyEnv(lookup)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "GRIDXFER_TRANSFER")
	})
}
