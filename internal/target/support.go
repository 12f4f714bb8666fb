package target

import (
	"fmt"
	"slices"
)

// SupportedPlatforms lists platforms lnd publishes archives for.
var SupportedPlatforms = []Platform{PlatformLinux, PlatformDarwin, PlatformWindows, PlatformFreeBSD}

// SupportedArchs lists architectures lnd publishes archives for.
var SupportedArchs = []Arch{ArchAMD64, Arch386, ArchARM}

// SupportedVersions lists known lnd releases, newest first.
var SupportedVersions = []string{
	"0.14.2-beta",
	"0.14.1-beta",
	"0.14.0-beta",
	"0.13.4-beta",
	"0.13.3-beta",
	"0.13.1-beta",
	"0.13.0-beta",
	"0.12.1-beta",
	"0.12.0-beta",
	"0.11.1-beta",
	"0.11.0-beta",
	"0.10.4-beta",
	"0.10.3-beta",
	"0.10.2-beta",
	"0.10.1-beta",
	"0.10.0-beta",
	"0.9.2-beta",
	"0.9.1-beta",
	"0.9.0-beta",
	"0.8.2-beta",
	"0.8.1-beta",
	"0.8.0-beta",
	"0.7.1-beta",
	"0.7.0-beta",
	"0.6.1-beta",
	"0.6.0-beta",
	"0.5.2-beta",
	"0.5.1-beta",
	"0.5-beta",
	"0.4.2-beta",
}

// DefaultVersion is the newest known release.
func DefaultVersion() string {
	return SupportedVersions[0]
}

// IsSupportedPlatform reports whether p is in SupportedPlatforms.
func IsSupportedPlatform(p Platform) bool {
	return slices.Contains(SupportedPlatforms, p)
}

// IsSupportedArch reports whether a is in SupportedArchs.
func IsSupportedArch(a Arch) bool {
	return slices.Contains(SupportedArchs, a)
}

// IsSupportedVersion reports whether v is in SupportedVersions.
func IsSupportedVersion(v string) bool {
	return slices.Contains(SupportedVersions, v)
}

// Check returns one message per field of t that is not officially supported.
// An empty result means the target is fully supported. The remote site may
// still host unsupported combinations, so callers treat these as warnings.
func Check(t Target) []string {
	var issues []string

	if !IsSupportedArch(t.Arch) {
		issues = append(issues, fmt.Sprintf("arch %q is not an officially supported architecture", t.Arch))
	}
	if !IsSupportedPlatform(t.Platform) {
		issues = append(issues, fmt.Sprintf("platform %q is not an officially supported platform", t.Platform))
	}
	if !IsSupportedVersion(t.Version) {
		issues = append(issues, fmt.Sprintf("version %q is not an officially supported lnd version", t.Version))
	}

	return issues
}
