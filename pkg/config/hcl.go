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
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/walteh/gridxfer/pkg/remote/s3store"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	type hclConfig struct {
		Source         string   `hcl:"source,optional"`
		Destination    string   `hcl:"destination,optional"`
		StorageElement string   `hcl:"storage_element,optional"`
		LFNRoot        string   `hcl:"lfn_root,optional"`
		InputLog       string   `hcl:"input_log,optional"`
		OutputLog      string   `hcl:"output_log,optional"`
		Exclude        []string `hcl:"exclude,optional"`
		Transfer       bool     `hcl:"transfer,optional"`
		Register       bool     `hcl:"register,optional"`
		Catalogue      *struct {
			Driver string `hcl:"driver,optional"`
			DSN    string `hcl:"dsn,optional"`
		} `hcl:"catalogue,block"`
		S3 *s3store.Config `hcl:"s3,block"`
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	cfg := &Config{
		Source:         hclCfg.Source,
		Destination:    hclCfg.Destination,
		StorageElement: hclCfg.StorageElement,
		LFNRoot:        hclCfg.LFNRoot,
		InputLog:       hclCfg.InputLog,
		OutputLog:      hclCfg.OutputLog,
		Exclude:        hclCfg.Exclude,
		Transfer:       hclCfg.Transfer,
		Register:       hclCfg.Register,
	}
	if hclCfg.Catalogue != nil {
		cfg.Catalogue = CatalogueConfig{Driver: hclCfg.Catalogue.Driver, DSN: hclCfg.Catalogue.DSN}
	}
	if hclCfg.S3 != nil {
		cfg.S3 = *hclCfg.S3
	}

	return cfg, nil
}
