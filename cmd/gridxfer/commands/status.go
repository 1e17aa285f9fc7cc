package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/gridxfer/cmd/gridxfer/opts"
	"github.com/walteh/gridxfer/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// NewStatusCmd creates the dry-run command
func NewStatusCmd(opts *opts.RootOpts) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what sync would do",
		Long: `Status enumerates the source like sync does and reports, per file:
1. whether the destination is missing, stale or in sync
2. whether the logical name is already in the catalogue
Nothing is copied, logged or registered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := flags.apply(cmd, opts.Config)

			reporter := status.New(nil)
			orch, err := opts.Orchestrator(ctx, cfg, reporter)
			if err != nil {
				return errors.Errorf("creating orchestrator: %w", err)
			}

			if err := orch.Plan(ctx, cfg); err != nil {
				return errors.Errorf("checking status: %w", err)
			}

			if err := reporter.RenderFiles(opts.Stdout); err != nil {
				return err
			}

			counts := reporter.Counts()
			pending := counts[status.StatusNeedsTransfer] + counts[status.StatusStale] + counts[status.StatusUnregistered]
			if pending > 0 {
				opts.UserLogger.LogStateChange("Files need to be synced")
			} else {
				opts.UserLogger.LogStateChange("Files are up to date")
			}
			return nil
		},
	}

	addRunFlags(cmd, flags, true)
	return cmd
}
