package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual platform detection.
type RealDetector struct{}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect reports runtime.GOOS and the normalized runtime.GOARCH, and on Linux
// asks gopsutil for the distribution. A failed distro lookup leaves the distro
// fields empty; only a cancelled context is an error.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	info := &Info{
		OS:      runtime.GOOS,
		ArchRaw: runtime.GOARCH,
		Arch:    normalizeArch(runtime.GOARCH),
	}

	if runtime.GOOS != "linux" {
		return info, nil
	}

	platform, family, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return info, nil
	}

	platform = normalizePlatform(platform)
	if platform == "" {
		return info, nil
	}

	info.Platform = platform
	info.Family = mapFamily(family)
	if info.Family == FamilyUnknown {
		// gopsutil leaves family empty for some distros but still reports the ID
		info.Family = mapFamily(platform)
	}
	info.Version = normalizePlatform(version)
	info.Variant = variantFor(info.Family)

	return info, nil
}

// variantFor maps a distribution family to the lnd release variant.
func variantFor(family string) string {
	if family == FamilyAlpine {
		return VariantMusl
	}
	return ""
}
