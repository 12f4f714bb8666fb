package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/lnd-binary/internal/binary"
)

type importOptions struct {
	version   string
	manifest  string
	signature string
	keyrings  []string
	out       string
}

func (a *app) manifestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Maintain the trusted checksum manifest",
	}
	cmd.AddCommand(a.manifestImportCmd(), a.manifestListCmd())
	return cmd
}

func (a *app) manifestImportCmd() *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Add a release's checksums from its signed upstream manifest",
		Long: `Import checks the detached OpenPGP signature over lnd's manifest-v<version>.txt
and merges the archive checksums it lists into the trusted JSON manifest.

Example:
  lnd-binary manifest import --version 0.14.2-beta \
    --manifest manifest-v0.14.2-beta.txt \
    --signature manifest-roasbeef-v0.14.2-beta.sig \
    --keyring roasbeef.asc --out internal/binary/manifest.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runManifestImport(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.version, "version", "", "release version, e.g. 0.14.2-beta")
	flags.StringVar(&opts.manifest, "manifest", "", "upstream manifest file (sha256sum format)")
	flags.StringVar(&opts.signature, "signature", "", "detached signature over the manifest")
	flags.StringArrayVar(&opts.keyrings, "keyring", nil, "trusted public key file (repeatable)")
	flags.StringVar(&opts.out, "out", "", "JSON manifest to update")
	for _, name := range []string{"version", "manifest", "signature", "keyring", "out"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func (a *app) runManifestImport(cmd *cobra.Command, opts *importOptions) error {
	version := strings.TrimPrefix(opts.version, "v")

	keyring, err := binary.LoadKeyring(opts.keyrings...)
	if err != nil {
		return err
	}

	manifestFile, err := os.Open(opts.manifest)
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	defer manifestFile.Close()

	sigFile, err := os.Open(opts.signature)
	if err != nil {
		return fmt.Errorf("open signature: %w", err)
	}
	defer sigFile.Close()

	sums, err := binary.ImportManifest(manifestFile, sigFile, keyring, version)
	if err != nil {
		return fmt.Errorf("import manifest: %w", err)
	}

	trusted, err := readManifestOrEmpty(opts.out)
	if err != nil {
		return err
	}
	trusted.Merge(version, sums)
	if err := trusted.Save(opts.out); err != nil {
		return err
	}

	a.log.WithField("version", version).WithField("archives", len(sums)).Info("checksums imported")
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d checksums for v%s into %s\n", len(sums), version, opts.out)
	return nil
}

func (a *app) manifestListCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the versions a manifest has checksums for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manifest, err := loadManifest(path)
			if err != nil {
				return err
			}
			for _, v := range manifest.Versions() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d archives\n", v, len(manifest[v]))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "manifest", "", "JSON manifest to read (default: embedded)")

	return cmd
}

// readManifestOrEmpty loads path, treating a missing file as an empty manifest.
func readManifestOrEmpty(path string) (binary.Manifest, error) {
	manifest, err := binary.LoadManifest(path)
	if errors.Is(err, fs.ErrNotExist) {
		return binary.Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return manifest, nil
}
