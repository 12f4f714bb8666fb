package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ZebulonRouseFrantzich/lnd-binary/internal/testutil"
)

func TestInstallCommand(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	srv := releaseServer(t)
	args := append([]string{"install", "--retries", "0"}, targetArgs(env, srv.URL)...)

	stdout, stderr, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("install failed: %v\nstderr:\n%s", err, stderr)
	}

	installPath := filepath.Join(env.Project, "bin", "lnd")
	if !strings.Contains(stdout, "fileName: lnd-linux-amd64-v"+testVersion) {
		t.Errorf("stdout missing fileName: %q", stdout)
	}
	if !strings.Contains(stdout, "installPath: "+installPath) {
		t.Errorf("stdout missing installPath: %q", stdout)
	}
	if !strings.Contains(stderr, "run_id") {
		t.Errorf("logs missing run_id field: %q", stderr)
	}

	got, err := os.ReadFile(installPath)
	if err != nil {
		t.Fatalf("read installed binary: %v", err)
	}
	if string(got) != testPayload {
		t.Errorf("installed content = %q, want %q", got, testPayload)
	}

	cached := filepath.Join(env.Cache, "lnd-binary", testVersion, "lnd-linux-amd64-v"+testVersion)
	if _, err := os.Stat(cached); err != nil {
		t.Errorf("cache entry missing: %v", err)
	}

	t.Run("second install uses cache", func(t *testing.T) {
		srv.Close()
		if err := os.Remove(installPath); err != nil {
			t.Fatalf("remove installed binary: %v", err)
		}

		if _, stderr, err := runCLI(t, args...); err != nil {
			t.Fatalf("cached install failed: %v\nstderr:\n%s", err, stderr)
		}
		if _, err := os.Stat(installPath); err != nil {
			t.Errorf("binary not restored from cache: %v", err)
		}
	})
}

func TestInstallCommand_Skip(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	t.Setenv("SKIP_LND_BINARY_DOWNLOAD_FOR_CI", "1")

	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.NotFound(w, r)
	}))
	defer srv.Close()

	stdout, _, err := runCLI(t, append([]string{"install"}, targetArgs(env, srv.URL)...)...)
	if err != nil {
		t.Fatalf("install failed: %v", err)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want nothing", stdout)
	}
	if requests != 0 {
		t.Errorf("server got %d requests, want 0", requests)
	}
}

func TestInstallCommand_SkipIgnoresBrokenConfig(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"malformed package.json", "package.json", "{ not json"},
		{"failing lnd-binary.lua", "lnd-binary.lua", "error('boom')"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.SetupTestEnv(t)
			t.Setenv("SKIP_LND_BINARY_DOWNLOAD_FOR_CI", "1")

			if err := os.WriteFile(filepath.Join(env.Project, tt.file), []byte(tt.body), 0644); err != nil {
				t.Fatalf("write project config: %v", err)
			}

			stdout, stderr, err := runCLI(t, "install", "--project-dir", env.Project)
			if err != nil {
				t.Fatalf("skipped install failed: %v\nstderr:\n%s", err, stderr)
			}
			if stdout != "" {
				t.Errorf("stdout = %q, want nothing", stdout)
			}
			if !strings.Contains(stderr, "skipping lnd binary download") {
				t.Errorf("skip not logged: %q", stderr)
			}
		})
	}

	t.Run("broken config fails without skip", func(t *testing.T) {
		env := testutil.SetupTestEnv(t)
		if err := os.WriteFile(filepath.Join(env.Project, "package.json"), []byte("{ not json"), 0644); err != nil {
			t.Fatalf("write project config: %v", err)
		}

		if _, _, err := runCLI(t, "install", "--project-dir", env.Project); err == nil {
			t.Error("expected error for malformed package.json")
		}
	})
}

func TestInstallCommand_NotFound(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	srv := releaseServer(t)

	args := append([]string{"install", "--retries", "0"}, targetArgs(env, srv.URL)...)
	args = append(args, "--lnd-binary-version", "0.1.0-beta")

	_, _, err := runCLI(t, args...)
	if err == nil {
		t.Fatal("expected error for missing release")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error should mention the status code: %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(env.Project, "bin", "lnd")); !os.IsNotExist(statErr) {
		t.Errorf("install path should not exist, stat error = %v", statErr)
	}
}

func TestInstallCommand_EnvLayer(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	srv := releaseServer(t)

	t.Setenv("npm_config_lnd_binary_version", testVersion)
	t.Setenv("LND_BINARY_SITE", srv.URL)
	t.Setenv("LND_BINARY_PLATFORM", "linux")
	t.Setenv("LND_BINARY_ARCH", "amd64")
	t.Setenv("LND_BINARY_PATH", filepath.Join(env.Project, "tools", "lnd-custom"))

	stdout, stderr, err := runCLI(t, "install", "--project-dir", env.Project, "--package-root", env.Project)
	if err != nil {
		t.Fatalf("install failed: %v\nstderr:\n%s", err, stderr)
	}
	if !strings.Contains(stdout, filepath.Join(env.Project, "tools", "lnd-custom")) {
		t.Errorf("stdout missing custom install path: %q", stdout)
	}
}

func TestProgressLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)

	report := progressLogger(log)
	report(10, 100)
	report(20, 100)
	report(30, 100)
	report(100, 100)

	if got := strings.Count(buf.String(), "downloading"); got != 2 {
		t.Errorf("got %d progress lines, want 2 (first and final):\n%s", got, buf.String())
	}
	if !strings.Contains(buf.String(), "percent=100") {
		t.Errorf("final progress line missing: %s", buf.String())
	}
}

func TestProgressLogger_UnknownLength(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)

	report := progressLogger(log)
	report(10, -1)
	report(20, -1)
	// The downloader's closing call once the body is complete.
	report(30, 30)

	if got := strings.Count(buf.String(), "downloading"); got != 2 {
		t.Errorf("got %d progress lines, want 2 (first and final):\n%s", got, buf.String())
	}
	if !strings.Contains(buf.String(), "bytes=30") {
		t.Errorf("completion line missing: %s", buf.String())
	}
}
