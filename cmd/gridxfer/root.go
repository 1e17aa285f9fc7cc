package main

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/walteh/gridxfer/cmd/gridxfer/opts"
	"github.com/walteh/gridxfer/pkg/config"
	"github.com/walteh/gridxfer/pkg/log"
	"gitlab.com/tozd/go/errors"
)

var logCloser io.Closer

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, rootOpts *opts.RootOpts) {
	cmd.PersistentFlags().StringVarP(&rootOpts.ConfigFile, "config", "c", "", "config file path (.yaml, .yml, .hcl or .json)")
	cmd.PersistentFlags().BoolVar(&rootOpts.Debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&rootOpts.LogFile, "log-file", "", "also write JSON logs to this file, rotated by size")
}

// setupRoot configures logging and loads the config once flags are parsed
func setupRoot(cmd *cobra.Command, rootOpts *opts.RootOpts) error {
	logger, closer := log.New(log.Options{Debug: rootOpts.Debug, File: rootOpts.LogFile, Console: cmd.ErrOrStderr()})
	logCloser = closer

	ctx := log.NewContext(cmd.Context(), logger)
	cmd.SetContext(ctx)

	rootOpts.UserLogger = log.NewUserLoggerTo(ctx, cmd.OutOrStdout())
	rootOpts.Stdout = cmd.OutOrStdout()

	cfg, err := config.Load(ctx, rootOpts.ConfigFile)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}
	rootOpts.Config = cfg
	return nil
}

func closeLogging() {
	if logCloser != nil {
		logCloser.Close()
	}
}
