package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/lnd-binary/internal/binary"
	"github.com/ZebulonRouseFrantzich/lnd-binary/internal/config"
)

func (a *app) pathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print where the lnd executable is installed",
		Long: `Path prints the install path of the lnd executable for the configured target.
It exits with an error when no executable is installed there.`,
		Args: cobra.NoArgs,
		RunE: a.runPath,
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func (a *app) runPath(cmd *cobra.Command, _ []string) error {
	settings, t, err := a.resolve(cmd.Context(), cmd.Flags())
	if err != nil {
		return err
	}

	manifest, err := loadManifest(settings.ManifestPath)
	if err != nil {
		return err
	}

	mgr, err := binary.NewManager(binary.Config{Manifest: manifest, Logger: a.log})
	if err != nil {
		return fmt.Errorf("create binary manager: %w", err)
	}

	path, ok := mgr.Path(t)
	if !ok {
		return fmt.Errorf("lnd is not installed at %s, run 'lnd-binary install'", path)
	}

	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
