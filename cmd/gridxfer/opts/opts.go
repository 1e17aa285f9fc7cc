package opts

import (
	"context"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/walteh/gridxfer/pkg/config"
	"github.com/walteh/gridxfer/pkg/log"
	"github.com/walteh/gridxfer/pkg/operation"
	"github.com/walteh/gridxfer/pkg/remote"
	"github.com/walteh/gridxfer/pkg/remote/local"
	"github.com/walteh/gridxfer/pkg/remote/s3store"
	"github.com/walteh/gridxfer/pkg/status"
)

// RootOpts contains shared options used by all commands. Config and UserLogger are set
// once the root flags are parsed.
type RootOpts struct {
	ConfigFile string
	LogFile    string
	Debug      bool

	Config     *config.Config
	UserLogger *log.UserLogger
	Stdout     io.Writer

	// NewTransport and LogFs are replaced in tests
	NewTransport func(cfg *config.Config) remote.Transport
	LogFs        afero.Fs
	OpenRegistry operation.RegistryOpener
}

// DefaultTransport routes plain paths and file:// URLs to the local disk and s3:// URLs to S3.
func DefaultTransport(cfg *config.Config) remote.Transport {
	mux := remote.NewMux()
	mux.Register(local.NewOS(), "", "file")
	mux.Register(s3store.New(cfg.S3), "s3")
	return mux
}

// New returns options wired to the real disk, S3 and SQL catalogue.
func New() *RootOpts {
	return &RootOpts{
		Stdout:       os.Stdout,
		NewTransport: DefaultTransport,
		LogFs:        afero.NewOsFs(),
		OpenRegistry: operation.OpenSQLRegistry,
	}
}

// Orchestrator builds an orchestrator for cfg reporting into reporter.
func (o *RootOpts) Orchestrator(ctx context.Context, cfg *config.Config, reporter status.StatusReporter) (*operation.Orchestrator, error) {
	return operation.New(o.NewTransport(cfg), o.LogFs, o.OpenRegistry, reporter)
}
