// Package platform detects the host the installer runs on.
//
// It reports the operating system and architecture in the naming used by
// lnd release archives, the Linux distribution family (via gopsutil), and the
// libc variant that selects between glibc and musl builds. The same
// information is exposed to Lua project configs as a read-only table.
package platform

import "context"

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyGentoo  = "gentoo"  // Gentoo
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// VariantMusl marks Linux hosts whose libc is musl.
const VariantMusl = "musl"

// Info contains platform detection information.
type Info struct {
	OS       string // "linux", "darwin", "windows", "freebsd"
	Arch     string // "amd64", "386", "arm", "arm64" (normalized)
	ArchRaw  string // original GOARCH
	Platform string // distro ID (Linux only, e.g., "ubuntu", "alpine")
	Family   string // canonical family (e.g., "debian", "alpine")
	Version  string // distro version (Linux only, e.g., "22.04")
	Variant  string // libc variant, "musl" or empty
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// IsFreeBSD returns true if the platform is FreeBSD.
func (i *Info) IsFreeBSD() bool {
	return i.OS == "freebsd"
}

// IsMusl returns true on Linux hosts that need musl builds.
func (i *Info) IsMusl() bool {
	return i.OS == "linux" && i.Variant == VariantMusl
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
