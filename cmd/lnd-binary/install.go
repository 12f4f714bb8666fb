package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/ZebulonRouseFrantzich/lnd-binary/internal/binary"
	"github.com/ZebulonRouseFrantzich/lnd-binary/internal/config"
)

// progressInterval bounds how often download progress is logged.
const progressInterval = time.Second

type installOptions struct {
	timeout  time.Duration
	retries  int
	progress bool
}

func (a *app) installCmd() *cobra.Command {
	opts := &installOptions{}

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the lnd executable for the configured target",
		Long: `Install resolves the target from flags, LND_BINARY_* and npm_config_lnd_binary_*
variables and the nearest project config, then installs the matching lnd
executable. Cached executables are reused without network access.

Set SKIP_LND_BINARY_DOWNLOAD_FOR_CI to skip the install entirely.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runInstall(cmd, opts)
		},
	}

	flags := cmd.Flags()
	config.RegisterFlags(flags)
	flags.DurationVar(&opts.timeout, "timeout", binary.DefaultTimeout, "per-request download timeout")
	flags.IntVar(&opts.retries, "retries", binary.DefaultRetries, "retries for transient download failures")
	flags.BoolVar(&opts.progress, "progress", false, "log download progress")

	return cmd
}

func (a *app) runInstall(cmd *cobra.Command, opts *installOptions) error {
	ctx := cmd.Context()

	// Checked before any project config is read or the host is probed.
	if config.SkipRequested(a.environ) {
		a.log.Info("skipping lnd binary download on CI builds")
		return nil
	}

	settings, t, err := a.resolve(ctx, cmd.Flags())
	if err != nil {
		return err
	}

	manifest, err := loadManifest(settings.ManifestPath)
	if err != nil {
		return err
	}

	log := a.log.WithField("run_id", uuid.NewString())

	dlOpts := []binary.DownloaderOption{
		binary.WithTimeout(opts.timeout),
		binary.WithRetries(opts.retries),
		binary.WithUserAgent(binary.UserAgent(Version)),
		binary.WithDownloadLogger(log),
	}
	if opts.progress || settings.Progress {
		dlOpts = append(dlOpts, binary.WithProgress(progressLogger(log)))
	}

	mgr, err := binary.NewManager(binary.Config{
		Manifest:   manifest,
		Downloader: binary.NewDownloader(dlOpts...),
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("create binary manager: %w", err)
	}

	res, err := mgr.Install(ctx, t)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"from_cache":   res.FromCache,
		"verification": res.Verification.String(),
		"warnings":     len(res.Warnings),
		"duration":     res.Duration.Round(time.Millisecond).String(),
	}).Info("lnd binary installed")

	fmt.Fprintf(cmd.OutOrStdout(), "fileName: %s\n", res.FileName)
	fmt.Fprintf(cmd.OutOrStdout(), "installPath: %s\n", res.InstallPath)
	return nil
}

// progressLogger logs download progress at most once per progressInterval,
// plus once on completion.
func progressLogger(log logrus.FieldLogger) binary.ProgressFunc {
	every := &rate.Sometimes{Interval: progressInterval}

	return func(written, total int64) {
		report := func() {
			fields := logrus.Fields{"bytes": written}
			if total > 0 {
				fields["total"] = total
				fields["percent"] = written * 100 / total
			}
			log.WithFields(fields).Info("downloading")
		}

		if total > 0 && written == total {
			report()
			return
		}
		every.Do(report)
	}
}
