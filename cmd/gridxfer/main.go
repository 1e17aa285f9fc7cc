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

package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/gridxfer/cmd/gridxfer/commands"
	"github.com/walteh/gridxfer/cmd/gridxfer/opts"
	"github.com/walteh/gridxfer/pkg/log"
)

func main() {
	rootOpts := opts.New()
	rootCmd := newRootCmd(rootOpts)

	err := rootCmd.ExecuteContext(context.Background())
	closeLogging()
	if err != nil {
		userLogger := rootOpts.UserLogger
		if userLogger == nil {
			fallback := zerolog.New(os.Stderr).With().Timestamp().Logger()
			userLogger = log.NewUserLogger(fallback.WithContext(context.Background()))
		}
		userLogger.LogValidation(false, "Command failed", err)
		os.Exit(1)
	}
}

func newRootCmd(rootOpts *opts.RootOpts) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gridxfer",
		Short: "Replicate files between storage endpoints and register them in a file catalogue",
		Long: `gridxfer copies a file, or the files directly inside a directory, from a source storage
endpoint to a destination root, skipping files whose Adler-32 checksum already matches, and
registers each file in a logical file catalogue under an LFN path.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupRoot(cmd, rootOpts)
		},
	}

	addRootFlags(rootCmd, rootOpts)

	rootCmd.AddCommand(
		commands.NewSyncCmd(rootOpts),
		commands.NewTransferCmd(rootOpts),
		commands.NewRegisterCmd(rootOpts),
		commands.NewStatusCmd(rootOpts),
		newVersionCmd(rootOpts),
	)
	return rootCmd
}
