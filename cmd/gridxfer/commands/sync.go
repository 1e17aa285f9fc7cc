package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/gridxfer/cmd/gridxfer/opts"
	"github.com/walteh/gridxfer/pkg/config"
	"github.com/walteh/gridxfer/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// forceMode pins the workflow of a command regardless of flags and config
type forceMode func(cfg *config.Config)

func newRunCmd(opts *opts.RootOpts, use, short, long string, force forceMode) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg := flags.apply(cmd, opts.Config)
			if force != nil {
				force(cfg)
			}

			reporter := status.New(opts.Stdout)
			orch, err := opts.Orchestrator(ctx, cfg, reporter)
			if err != nil {
				return errors.Errorf("creating orchestrator: %w", err)
			}

			opts.UserLogger.Header(cfg.String())
			_, runErr := orch.Run(ctx, cfg)

			if len(reporter.Files()) > 0 {
				if err := reporter.RenderSummary(opts.Stdout); err != nil {
					zerolog.Ctx(ctx).Warn().Err(err).Msg("rendering summary")
				}
			}
			if runErr != nil {
				return runErr
			}

			opts.UserLogger.LogValidation(true, "Run complete", nil)
			return nil
		},
	}

	addRunFlags(cmd, flags, force == nil)
	return cmd
}

// NewSyncCmd creates the command that transfers, registers or both depending on --transfer and --register
func NewSyncCmd(opts *opts.RootOpts) *cobra.Command {
	return newRunCmd(opts, "sync", "Transfer files and register them in the catalogue",
		`Sync copies the source file, or every file directly inside the source directory, to the
destination and registers each one in the file catalogue.

With --transfer only the copy runs, with --register only the registration runs. Without
either flag, or with both, files are copied and then every file now present at the
destination is offered to the catalogue.

Files already present at the destination with the same Adler-32 checksum are not copied
again, and names already in the catalogue are not registered again, so a failed run can
simply be repeated.`, nil)
}

// NewTransferCmd creates the transfer-only command
func NewTransferCmd(opts *opts.RootOpts) *cobra.Command {
	return newRunCmd(opts, "transfer", "Copy files and append them to a transfer log",
		`Transfer copies the source file, or every file directly inside the source directory, to
the destination and appends "path size checksum" to the output log for every copied file.`,
		func(cfg *config.Config) {
			cfg.Transfer, cfg.Register = true, false
		})
}

// NewRegisterCmd creates the register-only command
func NewRegisterCmd(opts *opts.RootOpts) *cobra.Command {
	return newRunCmd(opts, "register", "Register files in the catalogue",
		`Register adds a catalogue entry for every file of a transfer log (--in-log), or for
the source file or every file directly inside the source directory, under the LFN path.`,
		func(cfg *config.Config) {
			cfg.Transfer, cfg.Register = false, true
		})
}
