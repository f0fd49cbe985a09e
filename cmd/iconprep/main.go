// Package main implements iconprep, a pre-build hook for desktop application
// packaging. It makes sure a placeholder icon exists where the packager
// expects one, then runs the real build command.
//
// Usage:
//
//	iconprep [flags] [--] <build command...>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/codeGROOVE-dev/iconprep/pkg/build"
	"github.com/codeGROOVE-dev/iconprep/pkg/logging"
	"github.com/codeGROOVE-dev/iconprep/pkg/prebuild"
	"github.com/codeGROOVE-dev/iconprep/pkg/settings"
)

// Version information - set during build with -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// exitUsage is returned for bad flags or configuration, before any build runs.
const exitUsage = 2

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], nil, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// invocation is what the command line asked for, before it is merged with
// file and environment settings.
type invocation struct {
	set         map[string]bool
	configPath  string
	command     []string
	cfg         settings.Config
	showVersion bool
}

func parseArgs(args []string, stderr io.Writer) (*invocation, error) {
	inv := &invocation{set: make(map[string]bool)}
	fs := flag.NewFlagSet("iconprep", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: iconprep [flags] [--] <build command...>\n\n") //nolint:errcheck // usage text
		fs.PrintDefaults()
	}

	fs.StringVar(&inv.configPath, "config", "", "Settings file (default <dir>/"+settings.FileName+")")
	fs.StringVar(&inv.cfg.WorkDir, "dir", "", "Build working directory")
	fs.StringVar(&inv.cfg.IconDir, "icon-dir", "", "Icon directory, relative to -dir")
	fs.StringVar(&inv.cfg.IconName, "icon-name", "", "Icon file name inside -icon-dir")
	fs.StringVar(&inv.cfg.LogFile, "log-file", "", "Also write logs to this file")
	fs.BoolVar(&inv.cfg.Verify, "verify", false, "Decode the placeholder after writing it")
	fs.BoolVar(&inv.cfg.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&inv.showVersion, "version", false, "Show version information and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { inv.set[f.Name] = true })
	inv.command = fs.Args()
	return inv, nil
}

// apply layers explicitly set flags over cfg.
func (inv *invocation) apply(cfg *settings.Config) {
	if inv.set["dir"] {
		cfg.WorkDir = inv.cfg.WorkDir
	}
	if inv.set["icon-dir"] {
		cfg.IconDir = inv.cfg.IconDir
	}
	if inv.set["icon-name"] {
		cfg.IconName = inv.cfg.IconName
	}
	if inv.set["log-file"] {
		cfg.LogFile = inv.cfg.LogFile
	}
	if inv.set["verify"] {
		cfg.Verify = inv.cfg.Verify
	}
	if inv.set["debug"] {
		cfg.Debug = inv.cfg.Debug
	}
	if len(inv.command) > 0 {
		cfg.Command = inv.command
	}
}

// resolve merges settings file, environment and flags, in that order.
func (inv *invocation) resolve(environ map[string]string) (settings.Config, error) {
	configPath := inv.configPath
	if configPath == "" && inv.set["dir"] {
		configPath = filepath.Join(inv.cfg.WorkDir, settings.FileName)
	}
	cfg, err := settings.Load(configPath, environ)
	if err != nil {
		return cfg, err
	}
	inv.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, environ map[string]string, stdout, stderr io.Writer) int {
	inv, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return exitUsage
	}
	if inv.showVersion {
		fmt.Fprintf(stdout, "iconprep version %s\ncommit: %s\nbuilt: %s\n", version, commit, date) //nolint:errcheck // best effort
		return 0
	}

	cfg, err := inv.resolve(environ)
	if err != nil {
		fmt.Fprintf(stderr, "iconprep: %v\n", err) //nolint:errcheck // best effort
		return exitUsage
	}

	logger, closeLog, err := logging.New(logging.Options{Stderr: stderr, File: cfg.LogFile, Debug: cfg.Debug})
	defer closeLog() //nolint:errcheck // log file close is not critical
	if err != nil {
		logger.Warn("Continuing without log file", "error", err)
	}
	slog.SetDefault(logger)
	logger.Debug("Starting iconprep", "version", version, "commit", commit, "date", date)

	runner, err := build.NewCommand(cfg.WorkDir, cfg.Command)
	if err != nil {
		logger.Error("Invalid build command", "error", err)
		return exitUsage
	}
	runner.Stdout = stdout
	runner.Stderr = stderr

	opts := prebuild.Options{
		Logger:   logger,
		WorkDir:  cfg.WorkDir,
		IconDir:  cfg.IconDir,
		IconName: cfg.IconName,
		Verify:   cfg.Verify,
	}
	logger.Debug("Running build", "command", runner.String(), "dir", cfg.WorkDir)
	if err := prebuild.Run(ctx, opts, runner); err != nil {
		code := build.ExitCode(err)
		logger.Error("Build failed", "error", err, "exit_code", code)
		return code
	}
	return 0
}
