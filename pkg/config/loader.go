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
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// EnvPrefix prefixes every environment variable the config reads.
const EnvPrefix = "GRIDXFER_"

// 🎯 Load builds a config from defaults, then the file at path when path is set, then the
// environment (a .env file in the working directory is loaded first when present).
// Command-line flags are applied by the caller afterwards.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)

	cfg := Default()

	if path != "" {
		logger.Debug().Str("path", path).Msg("loading configuration")

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Errorf("reading config file: %w", err)
		}

		p := GetParser(path)
		if p == nil {
			return nil, errors.Errorf("no parser found for file: %s", path)
		}

		fileCfg, err := p.Parse(ctx, data)
		if err != nil {
			return nil, errors.Errorf("parsing config: %w", err)
		}
		cfg.Merge(fileCfg)
	}

	_ = godotenv.Load()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge overlays every non-zero field of other onto cfg.
func (cfg *Config) Merge(other *Config) {
	setString(&cfg.Source, other.Source)
	setString(&cfg.Destination, other.Destination)
	setString(&cfg.StorageElement, other.StorageElement)
	setString(&cfg.LFNRoot, other.LFNRoot)
	setString(&cfg.InputLog, other.InputLog)
	setString(&cfg.OutputLog, other.OutputLog)
	if len(other.Exclude) > 0 {
		cfg.Exclude = other.Exclude
	}
	cfg.Transfer = cfg.Transfer || other.Transfer
	cfg.Register = cfg.Register || other.Register
	setString(&cfg.Catalogue.Driver, other.Catalogue.Driver)
	setString(&cfg.Catalogue.DSN, other.Catalogue.DSN)
	setString(&cfg.S3.Region, other.S3.Region)
	setString(&cfg.S3.Endpoint, other.S3.Endpoint)
	setString(&cfg.S3.Profile, other.S3.Profile)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ApplyEnv overlays GRIDXFER_* variables found through lookup.
func (cfg *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"SOURCE":           &cfg.Source,
		"DESTINATION":      &cfg.Destination,
		"STORAGE_ELEMENT":  &cfg.StorageElement,
		"LFN_ROOT":         &cfg.LFNRoot,
		"INPUT_LOG":        &cfg.InputLog,
		"OUTPUT_LOG":       &cfg.OutputLog,
		"CATALOGUE_DRIVER": &cfg.Catalogue.Driver,
		"CATALOGUE_DSN":    &cfg.Catalogue.DSN,
		"S3_REGION":        &cfg.S3.Region,
		"S3_ENDPOINT":      &cfg.S3.Endpoint,
		"S3_PROFILE":       &cfg.S3.Profile,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup(EnvPrefix + "EXCLUDE"); ok && v != "" {
		cfg.Exclude = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Exclude = append(cfg.Exclude, p)
			}
		}
	}

	bools := map[string]*bool{
		"TRANSFER": &cfg.Transfer,
		"REGISTER": &cfg.Register,
	}
	for name, dst := range bools {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Errorf("parsing %s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
	}

	return nil
}
