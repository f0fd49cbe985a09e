// Package prebuild runs the pre-build hook: make sure the application icon
// exists, then hand over to the build tool.
package prebuild

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/codeGROOVE-dev/iconprep/pkg/build"
	"github.com/codeGROOVE-dev/iconprep/pkg/icon"
)

// ErrNoRunner is returned when Run is called without a build entry point.
var ErrNoRunner = errors.New("no build runner")

// Options describes where the icon lives.
type Options struct {
	Logger   *slog.Logger
	WorkDir  string
	IconDir  string
	IconName string
	Icon     []byte // defaults to icon.Placeholder()
	Verify   bool
}

// Run provisions the icon on a best-effort basis and then runs r exactly
// once. Only r's error is returned.
func Run(ctx context.Context, opts Options, r build.Runner) error {
	if r == nil {
		return ErrNoRunner
	}

	res := Provision(opts)
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if res.OK() {
		logger.Debug("Icon provisioned", "path", res.Path, "status", res.Status)
	} else {
		logger.Debug("Icon provisioning skipped", "path", res.Path, "error", res.Err)
	}

	return r.Run(ctx)
}

// Provision ensures the icon described by opts exists.
func Provision(opts Options) icon.Result {
	data := opts.Icon
	if data == nil {
		data = icon.Placeholder()
	}
	p := icon.Provisioner{Verify: opts.Verify}
	return p.Ensure(filepath.Join(opts.WorkDir, opts.IconDir), opts.IconName, data)
}
