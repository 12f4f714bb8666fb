package config

// Flag names.
const (
	FlagPlatform    = "lnd-binary-platform"
	FlagArch        = "lnd-binary-arch"
	FlagVersion     = "lnd-binary-version"
	FlagName        = "lnd-binary-name"
	FlagSite        = "lnd-binary-site"
	FlagDir         = "lnd-binary-dir"
	FlagPath        = "lnd-binary-path"
	FlagCache       = "lnd-binary-cache"
	FlagManifest    = "manifest"
	FlagProjectDir  = "project-dir"
	FlagPackageRoot = "package-root"
)

// Environment variables.
const (
	envPrefix        = "LND_BINARY_"
	packageEnvPrefix = "npm_config_lnd_binary_"

	EnvManifest       = "LND_BINARY_MANIFEST"
	EnvSkip           = "SKIP_LND_BINARY_DOWNLOAD_FOR_CI"
	EnvNpmCache       = "npm_config_cache"
	EnvNpmTmp         = "npm_config_tmp"
	EnvNpmProgress    = "npm_config_progress"
	EnvNpmBinaryCache = "npm_config_lnd_binary_cache"
)

// Project config files and the key of the lnd-binary block.
const (
	packageJSONFile = "package.json"
	luaConfigFile   = "lnd-binary.lua"
	luaGlobal       = "lnd_binary"
	blockKey        = "config.lnd-binary"
)

// setting names shared by flags (--lnd-binary-<name>), environment
// (LND_BINARY_<NAME>) and package-manager environment.
var settingNames = []string{"platform", "arch", "version", "name", "site", "dir", "path"}

// Lua field names, matching the package.json block keys.
const (
	luaFieldPlatform = "binaryPlatform"
	luaFieldArch     = "binaryArch"
	luaFieldVersion  = "binaryVersion"
	luaFieldName     = "binaryName"
	luaFieldSite     = "binarySite"
	luaFieldDir      = "binaryDir"
	luaFieldPath     = "binaryPath"
)
