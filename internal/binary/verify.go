package binary

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/ZebulonRouseFrantzich/lnd-binary/internal/target"
)

// VerifyResult is the outcome of checking one archive.
type VerifyResult struct {
	Status VerificationStatus
	// Checksum is the computed digest; empty when verification was skipped.
	Checksum string
	Warnings []Warning
}

// Verify checks the archive at filePath against the trusted digest for t.
//
// Archives from a site other than target.DefaultSite, and versions the
// manifest does not list, are not checked; the result carries a warning
// instead. When the manifest lists the version, the archive must be listed
// and its digest must match exactly, otherwise a *ChecksumMismatchError is
// returned.
func Verify(filePath string, t target.Target, manifest Manifest) (VerifyResult, error) {
	if !t.IsDefaultSite() {
		return VerifyResult{
			Status: VerificationSkippedSite,
			Warnings: []Warning{{
				Kind:    VerificationSkipped,
				Message: fmt.Sprintf("binary site %s is not the default; skipping checksum verification of %s", t.Site, t.ArchiveName()),
			}},
		}, nil
	}

	if !manifest.HasVersion(t.Version) {
		return VerifyResult{
			Status: VerificationSkippedUnknown,
			Warnings: []Warning{{
				Kind:    UnknownArtifact,
				Message: fmt.Sprintf("no trusted checksums for lnd v%s; installing %s unverified", t.Version, t.ArchiveName()),
			}},
		}, nil
	}

	actual, err := calculateSHA256(filePath)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("calculate checksum: %w", err)
	}

	expected, _ := manifest.Checksum(t.Version, t.ArchiveName())
	if actual != expected {
		return VerifyResult{}, &ChecksumMismatchError{
			File:     t.ArchiveName(),
			Expected: expected,
			Actual:   actual,
		}
	}

	return VerifyResult{Status: VerificationPassed, Checksum: actual}, nil
}

// calculateSHA256 calculates the SHA256 checksum of a file
func calculateSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
