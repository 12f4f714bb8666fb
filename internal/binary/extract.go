package binary

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ZebulonRouseFrantzich/lnd-binary/internal/target"
)

// Extractor handles archive extraction
type Extractor struct {
	log logrus.FieldLogger
}

// NewExtractor creates a new extractor
func NewExtractor(log logrus.FieldLogger) *Extractor {
	return &Extractor{log: orDiscard(log)}
}

// Extract unpacks archivePath into a directory next to it, locates the lnd
// executable inside and installs it at dest with at least mode 0755. The
// archive format follows the target platform: zip for windows, gzipped tar
// otherwise. dest is only replaced once the payload has been fully copied.
func (e *Extractor) Extract(ctx context.Context, archivePath string, t target.Target, dest string) error {
	workDir, err := os.MkdirTemp(filepath.Dir(archivePath), "extract-")
	if err != nil {
		return &ExtractionError{Archive: archivePath, Op: "create work dir", Err: err}
	}
	defer os.RemoveAll(workDir)

	if t.IsWindows() {
		err = e.ExtractZip(ctx, archivePath, workDir)
	} else {
		err = e.ExtractTarGz(ctx, archivePath, workDir)
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ExtractionError{Archive: archivePath, Op: "unpack", Err: err}
	}

	e.log.WithField("dir", workDir).Debug("extracted lnd archive")

	payload, err := findPayload(workDir, t)
	if err != nil {
		return &ExtractionError{Archive: archivePath, Op: "locate executable", Err: err}
	}

	mode, err := ensureExecutable(payload)
	if err != nil {
		return &ExtractionError{Archive: archivePath, Op: "set executable", Err: err}
	}

	if err := copyFileAtomic(payload, dest, mode); err != nil {
		return &ExtractionError{Archive: archivePath, Op: "install executable", Err: err}
	}

	e.log.WithField("dest", dest).Info("moved lnd binary into place")
	return nil
}

// ExtractTarGz extracts a .tar.gz archive to a destination directory
func (e *Extractor) ExtractTarGz(ctx context.Context, archivePath, destDir string) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	gzipReader, err := gzip.NewReader(archiveFile)
	if err != nil {
		return fmt.Errorf("create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		header, err := tarReader.Next()
		if err == io.EOF {
			break // End of archive
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		entryPath, err := safeJoin(destDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(entryPath, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", entryPath, err)
			}

		case tar.TypeReg:
			if err := writeEntry(entryPath, tarReader, os.FileMode(header.Mode).Perm()); err != nil {
				return err
			}

		default:
			// Links and devices are not part of a release payload
			e.log.WithField("entry", header.Name).Debug("skipping non-regular archive entry")
		}
	}

	return nil
}

// ExtractZip extracts a .zip archive to a destination directory
func (e *Extractor) ExtractZip(ctx context.Context, archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer reader.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	for _, f := range reader.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		entryPath, err := safeJoin(destDir, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(entryPath, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", entryPath, err)
			}
			continue
		}

		if !f.Mode().IsRegular() {
			e.log.WithField("entry", f.Name).Debug("skipping non-regular archive entry")
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open zip entry %s: %w", f.Name, err)
		}
		err = writeEntry(entryPath, rc, f.Mode().Perm())
		rc.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

// safeJoin joins name onto destDir and rejects names that escape it.
func safeJoin(destDir, name string) (string, error) {
	root := filepath.Clean(destDir)
	entryPath := filepath.Join(root, name)

	// Security check: prevent path traversal
	if entryPath != root && !strings.HasPrefix(entryPath, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal file path: %s", name)
	}

	return entryPath, nil
}

func writeEntry(entryPath string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(entryPath), 0755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", entryPath, err)
	}

	if perm == 0 {
		perm = 0644
	}

	outFile, err := os.OpenFile(entryPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create file %s: %w", entryPath, err)
	}

	if _, err := io.Copy(outFile, r); err != nil {
		outFile.Close()
		return fmt.Errorf("write file %s: %w", entryPath, err)
	}

	return outFile.Close()
}

var errPayloadFound = errors.New("payload found")

// findPayload returns <dir>/<binary name>/lnd[.exe], or the first regular
// file named lnd[.exe] anywhere under dir.
func findPayload(dir string, t target.Target) (string, error) {
	want := t.ExecutableName()

	primary := filepath.Join(dir, t.BinaryName(), want)
	if info, err := os.Stat(primary); err == nil && info.Mode().IsRegular() {
		return primary, nil
	}

	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && d.Name() == want {
			found = path
			return errPayloadFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, errPayloadFound) {
		return "", fmt.Errorf("search for %s: %w", want, err)
	}
	if found == "" {
		return "", fmt.Errorf("%s not found in archive", want)
	}

	return found, nil
}

// ensureExecutable adds 0755 to the file's permission bits and returns the
// resulting mode. The file is left untouched when it already has them.
func ensureExecutable(path string) (os.FileMode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}

	perm := info.Mode().Perm()
	mode := perm | 0755
	if mode != perm {
		if err := os.Chmod(path, mode); err != nil {
			return 0, err
		}
	}

	return mode, nil
}
