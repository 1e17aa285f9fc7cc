package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/gridxfer/pkg/config"
)

// runFlags are the per-run settings shared by sync, transfer, register and status
type runFlags struct {
	source         string
	destination    string
	storageElement string
	lfnRoot        string
	outputLog      string
	inputLog       string
	exclude        []string
	transfer       bool
	register       bool
}

func addRunFlags(cmd *cobra.Command, f *runFlags, withModes bool) {
	flags := cmd.Flags()
	flags.StringVarP(&f.source, "source", "s", "", "source file or directory URL")
	flags.StringVarP(&f.destination, "dest", "d", "", "destination directory URL, ending with /")
	flags.StringVarP(&f.storageElement, "se", "e", "", "storage element recorded with each catalogue entry")
	flags.StringVarP(&f.lfnRoot, "lfnpath", "l", "", "catalogue directory for the logical names, ending with /")
	flags.StringVarP(&f.outputLog, "out-log", "o", "", "transfer log to append copied files to")
	flags.StringVarP(&f.inputLog, "in-log", "i", "", "transfer log to register files from")
	flags.StringSliceVar(&f.exclude, "exclude", nil, "glob matched against file names to skip (repeatable)")
	if withModes {
		flags.BoolVarP(&f.transfer, "transfer", "t", false, "only transfer")
		flags.BoolVarP(&f.register, "register", "r", false, "only register")
	}
}

// apply overlays the flags the user set onto a copy of base.
func (f *runFlags) apply(cmd *cobra.Command, base *config.Config) *config.Config {
	cfg := *base
	cfg.Exclude = append([]string(nil), base.Exclude...)

	changed := cmd.Flags().Changed
	if changed("source") {
		cfg.Source = f.source
	}
	if changed("dest") {
		cfg.Destination = f.destination
	}
	if changed("se") {
		cfg.StorageElement = f.storageElement
	}
	if changed("lfnpath") {
		cfg.LFNRoot = f.lfnRoot
	}
	if changed("out-log") {
		cfg.OutputLog = f.outputLog
	}
	if changed("in-log") {
		cfg.InputLog = f.inputLog
	}
	if changed("exclude") {
		cfg.Exclude = f.exclude
	}
	if changed("transfer") {
		cfg.Transfer = f.transfer
	}
	if changed("register") {
		cfg.Register = f.register
	}
	return &cfg
}
