package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ZebulonRouseFrantzich/lnd-binary/internal/binary"
	"github.com/ZebulonRouseFrantzich/lnd-binary/internal/config"
	"github.com/ZebulonRouseFrantzich/lnd-binary/internal/logging"
	"github.com/ZebulonRouseFrantzich/lnd-binary/internal/platform"
	"github.com/ZebulonRouseFrantzich/lnd-binary/internal/target"
)

// app holds process-wide inputs and the flags shared by every command.
type app struct {
	stdout  io.Writer
	stderr  io.Writer
	environ []string

	logLevel  string
	logFormat string
	logFile   string

	log    *logrus.Logger
	closer io.Closer

	// detector is replaced in tests.
	detector platform.Detector
}

func newApp(stdout, stderr io.Writer, environ []string) *app {
	return &app{
		stdout:   stdout,
		stderr:   stderr,
		environ:  environ,
		detector: platform.NewDetector(),
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lnd-binary",
		Short: "Download and install the prebuilt lnd executable",
		Long: `lnd-binary fetches the lnd release archive for the target platform,
checks it against a trusted checksum manifest, and installs the lnd
executable. Installed executables are cached so later installs work offline.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setupLogging,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.closer != nil {
				a.closer.Close()
			}
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&a.logFormat, "log-format", logging.FormatText, "log format (text, json)")
	pf.StringVar(&a.logFile, "log-file", "", "also write logs to this file")

	root.AddCommand(
		a.installCmd(),
		a.pathCmd(),
		a.manifestCmd(),
		a.versionCmd(),
	)

	return root
}

func (a *app) setupLogging(cmd *cobra.Command, _ []string) error {
	log, closer, err := logging.New(logging.Config{
		Level:      a.logLevel,
		Format:     a.logFormat,
		File:       a.logFile,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Output:     a.stderr,
	})
	if err != nil {
		return err
	}
	a.log = log
	a.closer = closer

	log.WithFields(logrus.Fields{
		"command": cmd.CommandPath(),
		"level":   log.GetLevel().String(),
		"file":    a.logFile,
	}).Debug("logger initialized")
	return nil
}

// resolve gathers every configuration layer and resolves the install target.
func (a *app) resolve(ctx context.Context, flags *pflag.FlagSet) (*config.Settings, target.Target, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, target.Target{}, fmt.Errorf("get working directory: %w", err)
	}
	userCache, err := os.UserCacheDir()
	if err != nil {
		a.log.WithError(err).Debug("no user cache directory")
	}

	settings, err := config.Load(ctx, config.Options{
		Flags:        flags,
		Environ:      a.environ,
		WorkDir:      wd,
		TempDir:      os.TempDir(),
		UserCacheDir: userCache,
		Detector:     a.detector,
		Logger:       a.log,
	})
	if err != nil {
		return nil, target.Target{}, err
	}

	return settings, target.Resolve(settings.Sources), nil
}

// loadManifest returns the manifest at path, or the embedded one.
func loadManifest(path string) (binary.Manifest, error) {
	manifest, err := binary.LoadManifest(path)
	if err != nil {
		return nil, fmt.Errorf("load checksum manifest: %w", err)
	}
	return manifest, nil
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lnd-binary %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "default lnd version: %s\n", target.DefaultVersion())
		},
	}
}
