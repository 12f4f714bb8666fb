// Package target turns configuration inputs into the single artifact an
// install run acts on.
//
// A Target is computed once by Resolve and passed by value afterwards. Every
// name derived from it (binary name, archive name, download URL) is a method,
// so what is fetched, verified and cached can never drift apart.
package target

import (
	"strings"
)

const (
	// PackageName scopes cache entries and the project config block.
	PackageName = "lnd-binary"
	// BaseName is the executable inside every release archive.
	BaseName = "lnd"
	// DefaultSite is the only download site whose archives are checked
	// against the trusted manifest.
	DefaultSite = "https://github.com/lightningnetwork/lnd/releases/download"
)

// Platform is an operating system name as used in release archive names.
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformDarwin  Platform = "darwin"
	PlatformWindows Platform = "windows"
	PlatformFreeBSD Platform = "freebsd"
)

// Arch is a CPU architecture name as used in release archive names.
type Arch string

const (
	ArchAMD64 Arch = "amd64"
	Arch386   Arch = "386"
	ArchARM   Arch = "arm"
)

// Target identifies exactly one release artifact and where it is installed.
type Target struct {
	Version  string
	Platform Platform
	Arch     Arch
	// Variant selects an alternate build, e.g. "musl". Naming only.
	Variant string
	// NameOverride replaces the derived binary name when set.
	NameOverride string
	Site         string
	// InstallPath is the absolute path the executable ends up at.
	InstallPath string
	// CacheRoots are candidate cache directories, most preferred first.
	CacheRoots []string
	// TmpDir is the parent of the per-run working directory.
	TmpDir string
	// Skip is set when the CI skip signal is present.
	Skip bool
}

// BinaryName returns "lnd-<platform>[_<variant>]-<arch>-v<version>" unless
// an explicit name was configured.
func (t Target) BinaryName() string {
	if t.NameOverride != "" {
		return t.NameOverride
	}

	platform := string(t.Platform)
	if t.Variant != "" {
		platform += "_" + t.Variant
	}

	return strings.Join([]string{BaseName, platform, string(t.Arch), "v" + t.Version}, "-")
}

// ArchiveExtension returns ".zip" for windows and ".tar.gz" otherwise.
func (t Target) ArchiveExtension() string {
	if t.IsWindows() {
		return ".zip"
	}
	return ".tar.gz"
}

// ExecutableExtension returns ".exe" for windows and "" otherwise.
func (t Target) ExecutableExtension() string {
	if t.IsWindows() {
		return ".exe"
	}
	return ""
}

// ExecutableName is the payload file name inside the archive.
func (t Target) ExecutableName() string {
	return BaseName + t.ExecutableExtension()
}

// ArchiveName is the file name of the release archive.
func (t Target) ArchiveName() string {
	return t.BinaryName() + t.ArchiveExtension()
}

// DownloadURL returns "<site>/v<version>/<archive name>".
func (t Target) DownloadURL() string {
	return strings.Join([]string{t.Site, "v" + t.Version, t.ArchiveName()}, "/")
}

// IsWindows reports whether the target platform is windows.
func (t Target) IsWindows() bool {
	return t.Platform == PlatformWindows
}

// IsDefaultSite reports whether downloads come from DefaultSite.
func (t Target) IsDefaultSite() bool {
	return t.Site == DefaultSite
}

// String returns a short human readable description of the target.
func (t Target) String() string {
	return t.BinaryName()
}
