package target

import (
	"path/filepath"
	"strings"
)

// Values holds the settings one configuration layer provides. Empty strings
// mean "not set by this layer".
type Values struct {
	Platform string `mapstructure:"binaryPlatform"`
	Arch     string `mapstructure:"binaryArch"`
	Version  string `mapstructure:"binaryVersion"`
	Name     string `mapstructure:"binaryName"`
	Site     string `mapstructure:"binarySite"`
	Dir      string `mapstructure:"binaryDir"`
	Path     string `mapstructure:"binaryPath"`
}

// Host holds the compiled-in and host-derived fallbacks.
type Host struct {
	Platform string
	Arch     string
	Variant  string
	// PackageRoot is the directory the default vendor dir lives under.
	PackageRoot string
	// WorkDir anchors relative dir and path settings.
	WorkDir string
	TmpDir  string
}

// Sources is every input Resolve reads, gathered once at process start.
type Sources struct {
	Args       Values // --lnd-binary-* flags
	Env        Values // LND_BINARY_*
	PackageEnv Values // npm_config_lnd_binary_*
	Project    Values // config block of the nearest ancestor project
	Host       Host
	CacheRoots []string
	Skip       bool
}

// layers returns the configuration layers from highest to lowest precedence.
func (s Sources) layers() []Values {
	return []Values{s.Args, s.Env, s.PackageEnv, s.Project}
}

// pick returns the first non-empty value across layers, or def.
func (s Sources) pick(field func(Values) string, def string) string {
	for _, layer := range s.layers() {
		if v := strings.TrimSpace(field(layer)); v != "" {
			return v
		}
	}
	return def
}

// Resolve applies precedence per field: flag, environment, package-manager
// environment, project config, then default. Defaults that depend on other
// fields use the resolved values of those fields. Resolve never fails;
// unsupported values are reported later by Check.
func Resolve(src Sources) Target {
	t := Target{
		Platform: Platform(strings.ToLower(src.pick(func(v Values) string { return v.Platform }, src.Host.Platform))),
		Arch:     Arch(strings.ToLower(src.pick(func(v Values) string { return v.Arch }, src.Host.Arch))),
		Version:  strings.TrimPrefix(src.pick(func(v Values) string { return v.Version }, DefaultVersion()), "v"),
		Site:     strings.TrimRight(src.pick(func(v Values) string { return v.Site }, DefaultSite), "/"),
		TmpDir:   src.Host.TmpDir,
		Skip:     src.Skip,
	}

	t.NameOverride = src.pick(func(v Values) string { return v.Name }, "")
	if t.Platform == PlatformLinux {
		t.Variant = src.Host.Variant
	}

	dir := src.pick(func(v Values) string { return v.Dir }, filepath.Join(src.Host.PackageRoot, "vendor"))
	dir = absFrom(src.Host.WorkDir, dir)

	path := src.pick(func(v Values) string { return v.Path }, "")
	if path == "" {
		path = filepath.Join(dir, t.ExecutableName())
	}
	t.InstallPath = absFrom(src.Host.WorkDir, path)

	t.CacheRoots = compact(src.CacheRoots)

	return t
}

// absFrom makes p absolute relative to base without consulting the process
// working directory.
func absFrom(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

// compact copies roots, dropping blanks and duplicates while keeping order.
func compact(roots []string) []string {
	seen := make(map[string]bool, len(roots))
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
