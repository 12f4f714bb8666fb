package platform

import (
	"strings"
)

// familyMap maps distribution names to their canonical family names.
var familyMap = map[string]string{
	"debian":   FamilyDebian,
	"ubuntu":   FamilyDebian,
	"rhel":     FamilyRHEL,
	"centos":   FamilyRHEL,
	"rocky":    FamilyRHEL,
	"fedora":   FamilyFedora,
	"suse":     FamilySUSE,
	"opensuse": FamilySUSE,
	"arch":     FamilyArch,
	"manjaro":  FamilyArch,
	"alpine":   FamilyAlpine,
	"gentoo":   FamilyGentoo,
}

// archAliases maps uname-style machine names onto GOARCH names.
var archAliases = map[string]string{
	"x86_64":  "amd64",
	"x64":     "amd64",
	"i386":    "386",
	"i686":    "386",
	"x86":     "386",
	"ia32":    "386",
	"armv6l":  "arm",
	"armv7l":  "arm",
	"aarch64": "arm64",
}

// NormalizeArch converts machine names to the GOARCH names used in lnd
// release archives. Unknown values are lowercased and passed through so the
// caller can report them instead of failing.
func NormalizeArch(arch string) string {
	return normalizeArch(arch)
}

func normalizeArch(arch string) string {
	a := strings.ToLower(strings.TrimSpace(arch))
	if alias, ok := archAliases[a]; ok {
		return alias
	}
	return a
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapFamily maps distribution family strings to canonical family names.
func mapFamily(family string) string {
	normalized := strings.ToLower(strings.TrimSpace(family))
	if canonical, ok := familyMap[normalized]; ok {
		return canonical
	}
	return FamilyUnknown
}
