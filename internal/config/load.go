package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/ZebulonRouseFrantzich/lnd-binary/internal/platform"
	"github.com/ZebulonRouseFrantzich/lnd-binary/internal/target"
)

// envInitCwd is set by npm to the directory the install was started from.
const envInitCwd = "INIT_CWD"

// Options are the process inputs Load reads. Nothing else in the process
// environment is consulted.
type Options struct {
	// Flags holds the flags added by RegisterFlags. Only flags set on the
	// command line count as a layer.
	Flags *pflag.FlagSet
	// Environ is the process environment as "KEY=value" pairs.
	Environ []string
	// WorkDir anchors relative paths and is the default project dir.
	WorkDir string
	// TempDir is the fallback parent for temporary files.
	TempDir string
	// UserCacheDir is the last-resort cache root. Empty disables it.
	UserCacheDir string
	// Detector supplies host defaults. Nil falls back to runtime.GOOS/GOARCH.
	Detector platform.Detector
	Logger   logrus.FieldLogger
}

// Settings is everything Load gathered.
type Settings struct {
	Sources target.Sources
	// ProjectFile is the project config that supplied values, if any.
	ProjectFile  string
	ManifestPath string
	Progress     bool
}

// RegisterFlags adds the settings flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(FlagPlatform, "", "target platform (linux, darwin, windows, freebsd)")
	fs.String(FlagArch, "", "target architecture (amd64, 386, arm)")
	fs.String(FlagVersion, "", "lnd release version, e.g. 0.14.2-beta")
	fs.String(FlagName, "", "override the binary name used for download and cache")
	fs.String(FlagSite, "", "base URL releases are downloaded from")
	fs.String(FlagDir, "", "directory the executable is installed into")
	fs.String(FlagPath, "", "full path of the installed executable")
	fs.String(FlagCache, "", "preferred cache root")
	fs.String(FlagManifest, "", "trusted checksum manifest (JSON)")
	fs.String(FlagProjectDir, "", "directory to start the project config search from")
	fs.String(FlagPackageRoot, "", "directory holding the default vendor dir")
}

// Load gathers every configuration layer into target.Sources.
func Load(ctx context.Context, opts Options) (*Settings, error) {
	log := opts.Logger
	if log == nil {
		log = defaultLogger()
	}
	env := envMap(opts.Environ)

	host, err := detectHost(ctx, opts.Detector)
	if err != nil {
		return nil, err
	}
	host.WorkDir = opts.WorkDir
	host.PackageRoot = firstNonEmpty(flagValue(opts.Flags, FlagPackageRoot), opts.WorkDir)
	host.TmpDir = firstNonEmpty(env[EnvNpmTmp], opts.TempDir)

	projectDir := firstNonEmpty(flagValue(opts.Flags, FlagProjectDir), env[envInitCwd], opts.WorkDir)
	project, err := FindProject(ctx, projectDir, NewParser(opts.Detector))
	if err != nil {
		return nil, fmt.Errorf("load project config: %w", err)
	}
	if project.File != "" {
		log.WithField("file", project.File).Debug("using project config")
	}

	src := target.Sources{
		Args:       flagValues(opts.Flags),
		Env:        prefixedValues(env, envPrefix, strings.ToUpper),
		PackageEnv: prefixedValues(env, packageEnvPrefix, strings.ToLower),
		Project:    project.Values,
		Host:       host,
		CacheRoots: []string{
			flagValue(opts.Flags, FlagCache),
			env[envPrefix+"CACHE"],
			env[EnvNpmBinaryCache],
			env[EnvNpmCache],
			opts.UserCacheDir,
		},
		Skip: skipRequested(env),
	}

	return &Settings{
		Sources:      src,
		ProjectFile:  project.File,
		ManifestPath: firstNonEmpty(flagValue(opts.Flags, FlagManifest), env[EnvManifest]),
		Progress:     env[EnvNpmProgress] == "true",
	}, nil
}

// SkipRequested reports whether environ carries the CI skip signal. It reads
// nothing else, so callers can check it before any other configuration.
func SkipRequested(environ []string) bool {
	return skipRequested(envMap(environ))
}

func skipRequested(env map[string]string) bool {
	return env[EnvSkip] != ""
}

func detectHost(ctx context.Context, detector platform.Detector) (target.Host, error) {
	if detector == nil {
		return target.Host{Platform: runtime.GOOS, Arch: runtime.GOARCH}, nil
	}

	info, err := detector.Detect(ctx)
	if err != nil {
		return target.Host{}, fmt.Errorf("detect host platform: %w", err)
	}

	return target.Host{
		Platform: info.OS,
		Arch:     info.Arch,
		Variant:  info.Variant,
	}, nil
}

// flagValue returns the value of a flag set on the command line.
func flagValue(fs *pflag.FlagSet, name string) string {
	if fs == nil || !fs.Changed(name) {
		return ""
	}
	v, err := fs.GetString(name)
	if err != nil {
		return ""
	}
	return v
}

func flagValues(fs *pflag.FlagSet) target.Values {
	return valuesFrom(func(name string) string {
		return flagValue(fs, "lnd-binary-"+name)
	})
}

func prefixedValues(env map[string]string, prefix string, fold func(string) string) target.Values {
	return valuesFrom(func(name string) string {
		return env[prefix+fold(name)]
	})
}

func valuesFrom(get func(name string) string) target.Values {
	var v target.Values
	fields := map[string]*string{
		"platform": &v.Platform,
		"arch":     &v.Arch,
		"version":  &v.Version,
		"name":     &v.Name,
		"site":     &v.Site,
		"dir":      &v.Dir,
		"path":     &v.Path,
	}
	for _, name := range settingNames {
		*fields[name] = get(name)
	}
	return v
}

// envMap turns "KEY=value" pairs into a map. Later pairs win.
func envMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	return env
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
