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
	"fmt"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/gridxfer/pkg/catalogue/sqlcat"
	"github.com/walteh/gridxfer/pkg/remote/s3store"
)

const (
	DefaultCatalogueDriver = sqlcat.DriverSQLite
	DefaultCatalogueDSN    = "gridxfer-catalogue.db"
)

// 📚 CatalogueConfig selects the database behind the file catalogue
type CatalogueConfig struct {
	Driver string `json:"driver,omitempty" yaml:"driver,omitempty"`
	DSN    string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// 📚 Config is everything one run needs. It is built once and passed down explicitly.
type Config struct {
	Source         string   `json:"source,omitempty" yaml:"source,omitempty"`
	Destination    string   `json:"destination,omitempty" yaml:"destination,omitempty"`
	StorageElement string   `json:"storage_element,omitempty" yaml:"storage_element,omitempty"`
	LFNRoot        string   `json:"lfn_root,omitempty" yaml:"lfn_root,omitempty"`
	InputLog       string   `json:"input_log,omitempty" yaml:"input_log,omitempty"`
	OutputLog      string   `json:"output_log,omitempty" yaml:"output_log,omitempty"`
	Exclude        []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`

	// Transfer and Register select the workflow; both or neither means transfer then register
	Transfer bool `json:"transfer,omitempty" yaml:"transfer,omitempty"`
	Register bool `json:"register,omitempty" yaml:"register,omitempty"`

	Catalogue CatalogueConfig `json:"catalogue,omitempty" yaml:"catalogue,omitempty"`
	S3        s3store.Config  `json:"s3,omitempty" yaml:"s3,omitempty"`
}

// Default returns a config with the catalogue defaults filled in.
func Default() *Config {
	return &Config{
		Catalogue: CatalogueConfig{
			Driver: DefaultCatalogueDriver,
			DSN:    DefaultCatalogueDSN,
		},
	}
}

// Transfers reports whether the selected workflow copies files.
func (cfg *Config) Transfers() bool {
	return !(cfg.Register && !cfg.Transfer)
}

// Registers reports whether the selected workflow registers files.
func (cfg *Config) Registers() bool {
	return !(cfg.Transfer && !cfg.Register)
}

// RegistersFromLog reports whether registration candidates come from a transfer log.
func (cfg *Config) RegistersFromLog() bool {
	return cfg.Registers() && !cfg.Transfers() && cfg.InputLog != ""
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	switch {
	case !cfg.Registers():
		return fmt.Sprintf("transfer %s -> %s", cfg.Source, cfg.Destination)
	case !cfg.Transfers() && cfg.InputLog != "":
		return fmt.Sprintf("register %s -> %s@%s", cfg.InputLog, cfg.LFNRoot, cfg.StorageElement)
	case !cfg.Transfers():
		return fmt.Sprintf("register %s -> %s@%s", cfg.Source, cfg.LFNRoot, cfg.StorageElement)
	default:
		return fmt.Sprintf("transfer %s -> %s, register -> %s@%s", cfg.Source, cfg.Destination, cfg.LFNRoot, cfg.StorageElement)
	}
}

// ❌ ConfigError lists every problem found in a config. It is meant to be shown to the user as is.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

func (e *ConfigError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// 🔍 Validate checks the preconditions of the selected workflow. It performs no I/O.
func (cfg *Config) Validate() error {
	e := &ConfigError{}

	if cfg.Source == "" && !cfg.RegistersFromLog() {
		e.add("source is required")
	}

	if cfg.Transfers() {
		switch {
		case cfg.Destination == "":
			e.add("destination is required when transferring")
		case !strings.HasSuffix(cfg.Destination, "/"):
			e.add("destination %q must end with /", cfg.Destination)
		}
		if cfg.OutputLog == "" {
			e.add("output log is required when transferring")
		}
	}

	if cfg.Registers() {
		switch {
		case cfg.LFNRoot == "":
			e.add("lfn root is required when registering")
		case !strings.HasSuffix(cfg.LFNRoot, "/"):
			e.add("lfn root %q must end with /", cfg.LFNRoot)
		}
		if cfg.StorageElement == "" {
			e.add("storage element is required when registering")
		}
		if !slices.Contains(sqlcat.Drivers, cfg.Catalogue.Driver) {
			e.add("catalogue driver %q is not one of %s", cfg.Catalogue.Driver, strings.Join(sqlcat.Drivers, ", "))
		}
	}

	for _, pattern := range cfg.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			e.add("exclude pattern %q is invalid", pattern)
		}
	}

	if len(e.Problems) > 0 {
		return e
	}
	return nil
}
