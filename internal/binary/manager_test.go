package binary

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ZebulonRouseFrantzich/lnd-binary/internal/lock"
	"github.com/ZebulonRouseFrantzich/lnd-binary/internal/target"
)

// rewriteTransport sends every request to base, keeping the path, so the
// default release site can be served by a local test server.
type rewriteTransport struct {
	base *url.URL
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = rt.base.Scheme
	r.URL.Host = rt.base.Host
	r.Host = rt.base.Host
	return http.DefaultTransport.RoundTrip(r)
}

// releaseServer serves a single release archive.
type releaseServer struct {
	*httptest.Server
	requests atomic.Int32
	archive  []byte
	name     string
}

func newReleaseServer(t *testing.T, tgt target.Target, payload string) *releaseServer {
	t.Helper()

	rs := &releaseServer{
		archive: releaseArchive(t, tgt.BinaryName(), tgt.IsWindows(), payload),
		name:    tgt.ArchiveName(),
	}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.requests.Add(1)
		if !strings.HasSuffix(r.URL.Path, "/v"+tgt.Version+"/"+rs.name) {
			http.NotFound(w, r)
			return
		}
		if _, err := w.Write(rs.archive); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	t.Cleanup(rs.Close)

	return rs
}

func (rs *releaseServer) downloader(t *testing.T) *Downloader {
	t.Helper()

	base, err := url.Parse(rs.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	d := newTestDownloader(WithRetries(0))
	d.client.Transport = rewriteTransport{base: base}
	return d
}

func (rs *releaseServer) manifest(version string) Manifest {
	return Manifest{version: {sha256Hex(rs.archive): rs.name}}
}

// installTarget fills in the filesystem locations of tgt below a fresh
// temp directory.
func installTarget(t *testing.T, tgt target.Target) target.Target {
	t.Helper()

	root := t.TempDir()
	tgt.InstallPath = filepath.Join(root, "vendor", tgt.ExecutableName())
	tgt.CacheRoots = []string{filepath.Join(root, "cache")}
	tgt.TmpDir = filepath.Join(root, "tmp")
	if err := os.MkdirAll(tgt.TmpDir, 0755); err != nil {
		t.Fatalf("create tmp dir: %v", err)
	}
	return tgt
}

func newTestManager(t *testing.T, rs *releaseServer, manifest Manifest) *Manager {
	t.Helper()

	mgr, err := NewManager(Config{Manifest: manifest, Downloader: rs.downloader(t)})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return mgr
}

func assertFileContent(t *testing.T, path, want string) {
	t.Helper()

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	if string(got) != want {
		t.Errorf("%s content = %q, want %q", path, got, want)
	}
}

func assertNotExist(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("%s should not exist (stat err: %v)", path, err)
	}
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	if len(entries) != 0 {
		t.Errorf("%s should be empty, has %d entries", dir, len(entries))
	}
}

func warningKinds(ws []Warning) []WarningKind {
	kinds := make([]WarningKind, 0, len(ws))
	for _, w := range ws {
		kinds = append(kinds, w.Kind)
	}
	return kinds
}

func TestNewManager(t *testing.T) {
	mgr, err := NewManager(Config{})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if mgr.manifest == nil || mgr.downloader == nil || mgr.extractor == nil || mgr.log == nil {
		t.Error("NewManager should fill in defaults")
	}
}

func TestManagerInstall_Download(t *testing.T) {
	tgt := installTarget(t, linuxTarget())
	rs := newReleaseServer(t, tgt, "lnd payload")
	mgr := newTestManager(t, rs, rs.manifest(tgt.Version))

	res, err := mgr.Install(context.Background(), tgt)
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	if res.FileName != "lnd-linux-amd64-v0.14.2-beta" {
		t.Errorf("FileName = %s", res.FileName)
	}
	if res.InstallPath != tgt.InstallPath {
		t.Errorf("InstallPath = %s, want %s", res.InstallPath, tgt.InstallPath)
	}
	if res.FromCache || res.Skipped {
		t.Errorf("unexpected result flags: %+v", res)
	}
	if res.Verification != VerificationPassed {
		t.Errorf("Verification = %v, want verified", res.Verification)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}

	assertFileContent(t, tgt.InstallPath, "lnd payload")
	assertFileContent(t, CachePath(tgt.CacheRoots[0], tgt), "lnd payload")
	assertNotExist(t, lock.Path(filepath.Dir(CachePath(tgt.CacheRoots[0], tgt)), tgt.BinaryName()))
	assertEmptyDir(t, tgt.TmpDir)

	installed, err := mgr.IsInstalled(tgt)
	if err != nil || !installed {
		t.Errorf("IsInstalled() = %v, %v; want true", installed, err)
	}
}

func TestManagerInstall_SecondRunUsesCache(t *testing.T) {
	tgt := installTarget(t, linuxTarget())
	rs := newReleaseServer(t, tgt, "lnd payload")
	mgr := newTestManager(t, rs, rs.manifest(tgt.Version))

	if _, err := mgr.Install(context.Background(), tgt); err != nil {
		t.Fatalf("first Install failed: %v", err)
	}
	if err := os.Remove(tgt.InstallPath); err != nil {
		t.Fatalf("remove installed binary: %v", err)
	}

	// No server from here on: a cache hit must not touch the network.
	rs.Close()

	res, err := mgr.Install(context.Background(), tgt)
	if err != nil {
		t.Fatalf("second Install failed: %v", err)
	}
	if !res.FromCache {
		t.Error("second install should be served from cache")
	}
	if res.Verification != VerificationNone {
		t.Errorf("Verification = %v, want none", res.Verification)
	}
	if got := rs.requests.Load(); got != 1 {
		t.Errorf("expected 1 request in total, got %d", got)
	}

	assertFileContent(t, tgt.InstallPath, "lnd payload")
	assertEmptyDir(t, tgt.TmpDir)
}

func TestManagerInstall_Windows(t *testing.T) {
	tgt := installTarget(t, windowsTarget())
	rs := newReleaseServer(t, tgt, "lnd.exe payload")
	mgr := newTestManager(t, rs, rs.manifest(tgt.Version))

	res, err := mgr.Install(context.Background(), tgt)
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	if res.FileName != "lnd-windows-amd64-v0.14.2-beta" {
		t.Errorf("FileName = %s", res.FileName)
	}
	if !strings.HasSuffix(res.InstallPath, "lnd.exe") {
		t.Errorf("InstallPath = %s, want suffix lnd.exe", res.InstallPath)
	}
	assertFileContent(t, res.InstallPath, "lnd.exe payload")
}

func TestManagerInstall_ChecksumMismatch(t *testing.T) {
	tgt := installTarget(t, linuxTarget())
	rs := newReleaseServer(t, tgt, "lnd payload")
	manifest := Manifest{tgt.Version: {sha256Hex([]byte("something else")): tgt.ArchiveName()}}
	mgr := newTestManager(t, rs, manifest)

	_, err := mgr.Install(context.Background(), tgt)

	var mismatch *ChecksumMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *ChecksumMismatchError, got %v", err)
	}

	assertNotExist(t, tgt.InstallPath)
	assertNotExist(t, CachePath(tgt.CacheRoots[0], tgt))
	assertEmptyDir(t, tgt.TmpDir)
}

func TestManagerInstall_UnknownVersion(t *testing.T) {
	tgt := installTarget(t, linuxTarget())
	rs := newReleaseServer(t, tgt, "lnd payload")
	mgr := newTestManager(t, rs, Manifest{})

	res, err := mgr.Install(context.Background(), tgt)
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	if res.Verification != VerificationSkippedUnknown {
		t.Errorf("Verification = %v, want skipped-unknown", res.Verification)
	}
	kinds := warningKinds(res.Warnings)
	if len(kinds) != 1 || kinds[0] != UnknownArtifact {
		t.Errorf("warnings = %v, want one unknown-artifact", res.Warnings)
	}
	assertFileContent(t, tgt.InstallPath, "lnd payload")
}

func TestManagerInstall_SiteOverride(t *testing.T) {
	tgt := linuxTarget()
	rs := newReleaseServer(t, tgt, "lnd payload")
	tgt.Site = rs.URL + "/mirror"
	tgt = installTarget(t, tgt)

	// The manifest would reject the archive; a custom site is not checked.
	manifest := Manifest{tgt.Version: {sha256Hex([]byte("something else")): tgt.ArchiveName()}}
	mgr := newTestManager(t, rs, manifest)

	res, err := mgr.Install(context.Background(), tgt)
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	if res.Verification != VerificationSkippedSite {
		t.Errorf("Verification = %v, want skipped-site", res.Verification)
	}
	kinds := warningKinds(res.Warnings)
	if len(kinds) != 1 || kinds[0] != VerificationSkipped {
		t.Errorf("warnings = %v, want one verification-skipped", res.Warnings)
	}
	assertFileContent(t, tgt.InstallPath, "lnd payload")
}

func TestManagerInstall_Skip(t *testing.T) {
	tgt := installTarget(t, linuxTarget())
	tgt.Skip = true
	rs := newReleaseServer(t, tgt, "lnd payload")
	mgr := newTestManager(t, rs, rs.manifest(tgt.Version))

	res, err := mgr.Install(context.Background(), tgt)
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	if !res.Skipped {
		t.Error("expected Skipped")
	}
	if got := rs.requests.Load(); got != 0 {
		t.Errorf("expected no requests, got %d", got)
	}
	assertNotExist(t, filepath.Dir(tgt.InstallPath))
}

func TestManagerInstall_UnsupportedTarget(t *testing.T) {
	tgt := linuxTarget()
	tgt.Arch = "riscv64"
	tgt = installTarget(t, tgt)
	rs := newReleaseServer(t, tgt, "lnd payload")
	mgr := newTestManager(t, rs, rs.manifest(tgt.Version))

	res, err := mgr.Install(context.Background(), tgt)
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	kinds := warningKinds(res.Warnings)
	if len(kinds) != 1 || kinds[0] != UnsupportedTarget {
		t.Errorf("warnings = %v, want one unsupported-target", res.Warnings)
	}
	assertFileContent(t, tgt.InstallPath, "lnd payload")
}

func TestManagerInstall_InstallDirFailure(t *testing.T) {
	tgt := installTarget(t, linuxTarget())
	rs := newReleaseServer(t, tgt, "lnd payload")
	mgr := newTestManager(t, rs, rs.manifest(tgt.Version))

	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("file"), 0644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	tgt.InstallPath = filepath.Join(blocker, "vendor", "lnd")

	_, err := mgr.Install(context.Background(), tgt)

	var fsErr *FilesystemError
	if !errors.As(err, &fsErr) {
		t.Fatalf("expected *FilesystemError, got %v", err)
	}
	if got := rs.requests.Load(); got != 0 {
		t.Errorf("expected no requests before the install dir exists, got %d", got)
	}
}

func TestManagerInstall_NotFound(t *testing.T) {
	tgt := installTarget(t, linuxTarget())
	rs := newReleaseServer(t, tgt, "lnd payload")
	rs.name = "something-else.tar.gz"
	mgr := newTestManager(t, rs, rs.manifest(tgt.Version))

	_, err := mgr.Install(context.Background(), tgt)

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected *NetworkError, got %v", err)
	}
	if netErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", netErr.StatusCode)
	}
	if !strings.Contains(netErr.URL, tgt.ArchiveName()) {
		t.Errorf("URL = %s, want it to name %s", netErr.URL, tgt.ArchiveName())
	}

	assertNotExist(t, tgt.InstallPath)
	assertEmptyDir(t, tgt.TmpDir)
}

func TestManagerInstall_CacheFallthrough(t *testing.T) {
	tgt := installTarget(t, linuxTarget())
	blocked := filepath.Join(t.TempDir(), "blocked")
	if err := os.WriteFile(blocked, []byte("file"), 0644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	good := filepath.Join(t.TempDir(), "cache")
	tgt.CacheRoots = []string{blocked, good}

	rs := newReleaseServer(t, tgt, "lnd payload")
	mgr := newTestManager(t, rs, rs.manifest(tgt.Version))

	res, err := mgr.Install(context.Background(), tgt)
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	kinds := warningKinds(res.Warnings)
	if len(kinds) != 1 || kinds[0] != CacheWrite {
		t.Errorf("warnings = %v, want one cache-write", res.Warnings)
	}
	assertFileContent(t, CachePath(good, tgt), "lnd payload")
}

func TestManagerInstall_CacheLockHeld(t *testing.T) {
	tgt := installTarget(t, linuxTarget())
	rs := newReleaseServer(t, tgt, "lnd payload")
	mgr := newTestManager(t, rs, rs.manifest(tgt.Version))

	cachePath := CachePath(tgt.CacheRoots[0], tgt)
	held, err := lock.Acquire(context.Background(), filepath.Dir(cachePath), filepath.Base(cachePath))
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer held.Release()

	res, err := mgr.Install(context.Background(), tgt)
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	kinds := warningKinds(res.Warnings)
	if len(kinds) != 1 || kinds[0] != CacheWrite {
		t.Errorf("warnings = %v, want one cache-write", res.Warnings)
	}
	assertFileContent(t, tgt.InstallPath, "lnd payload")
	assertNotExist(t, cachePath)
}

func TestManagerPath(t *testing.T) {
	tgt := installTarget(t, linuxTarget())
	mgr, err := NewManager(Config{Manifest: Manifest{}})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	path, ok := mgr.Path(tgt)
	if path != tgt.InstallPath || ok {
		t.Errorf("Path() = %s, %v; want %s, false", path, ok, tgt.InstallPath)
	}

	if err := os.MkdirAll(filepath.Dir(tgt.InstallPath), 0755); err != nil {
		t.Fatalf("create install dir: %v", err)
	}
	if err := os.WriteFile(tgt.InstallPath, []byte("lnd"), 0755); err != nil {
		t.Fatalf("write binary: %v", err)
	}

	if _, ok := mgr.Path(tgt); !ok {
		t.Error("Path() should report the installed binary")
	}
}
