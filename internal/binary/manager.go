package binary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ZebulonRouseFrantzich/lnd-binary/internal/lock"
	"github.com/ZebulonRouseFrantzich/lnd-binary/internal/target"
)

// tmpPrefix names the per-run working directory under Target.TmpDir.
const tmpPrefix = "lnd-downloads-"

// Manager orchestrates binary download, verification, and installation
type Manager struct {
	manifest   Manifest
	downloader *Downloader
	extractor  *Extractor
	log        logrus.FieldLogger
}

// Config holds configuration for the binary manager
type Config struct {
	// Manifest holds the trusted checksums. Nil uses DefaultManifest.
	Manifest Manifest
	// Downloader fetches archives. Nil uses NewDownloader with defaults.
	Downloader *Downloader
	// Logger receives progress and warnings. Nil discards them.
	Logger logrus.FieldLogger
}

// NewManager creates a new binary manager
func NewManager(config Config) (*Manager, error) {
	log := orDiscard(config.Logger)

	manifest := config.Manifest
	if manifest == nil {
		var err error
		manifest, err = DefaultManifest()
		if err != nil {
			return nil, fmt.Errorf("load default manifest: %w", err)
		}
	}

	downloader := config.Downloader
	if downloader == nil {
		downloader = NewDownloader(WithDownloadLogger(log))
	}

	return &Manager{
		manifest:   manifest,
		downloader: downloader,
		extractor:  NewExtractor(log),
		log:        log,
	}, nil
}

// Install places the executable for t at t.InstallPath.
//
// A cache hit is copied into place without network access. A miss fetches
// the archive into a temporary directory, verifies it, extracts the
// executable and then stores it in the cache. Cache failures only produce
// warnings. Any other failure is returned and leaves t.InstallPath as it was.
func (m *Manager) Install(ctx context.Context, t target.Target) (*Result, error) {
	start := time.Now()
	log := m.log.WithFields(logrus.Fields{
		"binary":  t.BinaryName(),
		"version": t.Version,
	})

	res := &Result{
		FileName:    t.BinaryName(),
		InstallPath: t.InstallPath,
	}
	warn := func(w Warning) {
		log.WithField("kind", w.Kind.String()).Warn(w.Message)
		res.Warnings = append(res.Warnings, w)
	}

	if t.Skip {
		log.Info("skipping lnd binary download on CI builds")
		res.Skipped = true
		res.Duration = time.Since(start)
		return res, nil
	}

	for _, msg := range target.Check(t) {
		warn(Warning{Kind: UnsupportedTarget, Message: msg})
	}

	installDir := filepath.Dir(t.InstallPath)
	if err := os.MkdirAll(installDir, 0755); err != nil {
		return nil, &FilesystemError{Path: installDir, Err: err}
	}

	if cached, ok := LocateCached(t); ok {
		log.WithField("path", cached).Info("cached binary found")
		err := copyFileAtomic(cached, t.InstallPath, 0755)
		if err == nil {
			res.FromCache = true
			res.Duration = time.Since(start)
			return res, nil
		}
		log.WithError(err).Warn("restore from cache failed, downloading instead")
	}

	tmpDir, err := os.MkdirTemp(t.TmpDir, tmpPrefix)
	if err != nil {
		return nil, &FilesystemError{Path: t.TmpDir, Err: err}
	}
	defer os.RemoveAll(tmpDir)

	url := t.DownloadURL()
	log.WithField("url", url).Info("downloading lnd binary")

	archive, err := m.downloader.Fetch(ctx, url, tmpDir)
	if err != nil {
		return nil, fmt.Errorf("download lnd binary: %w", err)
	}

	verified, err := Verify(archive, t, m.manifest)
	if err != nil {
		return nil, fmt.Errorf("verify lnd binary: %w", err)
	}
	for _, w := range verified.Warnings {
		warn(w)
	}
	res.Verification = verified.Status

	if err := m.extractor.Extract(ctx, archive, t, t.InstallPath); err != nil {
		return nil, fmt.Errorf("install lnd binary: %w", err)
	}

	m.populateCache(ctx, t, log, warn)

	res.Duration = time.Since(start)
	return res, nil
}

// populateCache copies the installed executable into the first writable
// cache root. It never fails the install.
func (m *Manager) populateCache(ctx context.Context, t target.Target, log logrus.FieldLogger, warn func(Warning)) {
	cachePath, warnings := PrepareCacheWrite(t)
	for _, w := range warnings {
		warn(w)
	}
	if cachePath == "" {
		log.Debug("no usable cache root, not caching binary")
		return
	}

	l, err := lock.Acquire(ctx, filepath.Dir(cachePath), filepath.Base(cachePath))
	if err != nil {
		msg := fmt.Sprintf("lock cache entry %s: %v", cachePath, err)
		if errors.Is(err, lock.ErrLockExists) {
			msg = fmt.Sprintf("cache entry %s is being written by another install, not caching", cachePath)
		}
		warn(Warning{Kind: CacheWrite, Message: msg})
		return
	}
	defer l.Release()

	if err := copyFileAtomic(t.InstallPath, cachePath, 0755); err != nil {
		warn(Warning{Kind: CacheWrite, Message: fmt.Sprintf("write cache entry %s: %v", cachePath, err)})
		return
	}

	log.WithField("path", cachePath).Info("cached binary")
}

// IsInstalled checks if the executable for t exists at its install path
func (m *Manager) IsInstalled(t target.Target) (bool, error) {
	info, err := os.Stat(t.InstallPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat binary: %w", err)
	}

	if !info.Mode().IsRegular() {
		return false, nil
	}

	// Windows has no executable bit
	if runtime.GOOS != "windows" && info.Mode().Perm()&0111 == 0 {
		return false, nil
	}

	return true, nil
}

// Path returns the install path for t and whether an executable is there.
func (m *Manager) Path(t target.Target) (string, bool) {
	installed, err := m.IsInstalled(t)
	if err != nil {
		m.log.WithError(err).Debug("check installed binary")
	}
	return t.InstallPath, installed
}
