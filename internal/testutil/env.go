// Package testutil provides utilities for testing lnd-binary in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolatedPrefixes are environment variables the installer reads. Tests must
// never pick up the developer's values.
var isolatedPrefixes = []string{
	"LND_BINARY_",
	"npm_config_lnd_binary_",
}

var isolatedVars = []string{
	"SKIP_LND_BINARY_DOWNLOAD_FOR_CI",
	"INIT_CWD",
	"npm_config_cache",
	"npm_config_tmp",
	"npm_config_progress",
}

// Env holds the directories created by SetupTestEnv.
type Env struct {
	// Root contains every other directory.
	Root string
	// Cache is exported as npm_config_cache.
	Cache string
	// Tmp is exported as npm_config_tmp.
	Tmp string
	// Project is an empty directory to use as the working directory.
	Project string
	// UserCache is exported as XDG_CACHE_HOME so os.UserCacheDir stays
	// inside the test on Linux.
	UserCache string
}

// SetupTestEnv clears every installer environment variable for the duration
// of the test and points the npm cache and temp variables at fresh
// directories.
//
// Cleanup is handled by t.Setenv and t.TempDir, so callers don't need to
// restore anything. Tests using it cannot run in parallel.
func SetupTestEnv(t *testing.T) *Env {
	t.Helper()

	root := t.TempDir()
	env := &Env{
		Root:      root,
		Cache:     filepath.Join(root, "cache"),
		Tmp:       filepath.Join(root, "tmp"),
		Project:   filepath.Join(root, "project"),
		UserCache: filepath.Join(root, "user-cache"),
	}

	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if isolated(name) {
			unsetenv(t, name)
		}
	}
	for _, name := range isolatedVars {
		unsetenv(t, name)
	}

	for _, dir := range []string{env.Cache, env.Tmp, env.Project, env.UserCache} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	t.Setenv("npm_config_cache", env.Cache)
	t.Setenv("npm_config_tmp", env.Tmp)
	t.Setenv("XDG_CACHE_HOME", env.UserCache)

	return env
}

func isolated(name string) bool {
	for _, prefix := range isolatedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// unsetenv removes name and restores its old value when the test ends.
func unsetenv(t *testing.T, name string) {
	t.Helper()
	t.Setenv(name, "")
	if err := os.Unsetenv(name); err != nil {
		t.Fatalf("unset %s: %v", name, err)
	}
}
