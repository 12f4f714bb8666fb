package binary

import (
	"fmt"
	"strings"
)

// NetworkError reports a failed download.
type NetworkError struct {
	URL string
	// StatusCode is the HTTP status of an unexpected response, or zero when
	// the transfer itself failed.
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *NetworkError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "download %s", e.URL)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": unexpected status code %d", e.StatusCode)
	} else if e.Timeout {
		b.WriteString(": timed out")
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.StatusCode == 0 {
		b.WriteString(" (if you are behind a proxy, set HTTPS_PROXY and NO_PROXY)")
	}
	return b.String()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying the request may succeed.
func (e *NetworkError) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}

// ChecksumMismatchError reports an archive whose digest differs from the
// trusted manifest. Expected is empty when the manifest lists the version but
// not the archive.
type ChecksumMismatchError struct {
	File     string
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("checksum mismatch for %s: no trusted checksum for this archive (actual %s)", e.File, e.Actual)
	}
	return fmt.Sprintf("checksum mismatch for %s:\nactual:   %s\nexpected: %s", e.File, e.Actual, e.Expected)
}

// ExtractionError reports a failure while unpacking or moving the payload.
type ExtractionError struct {
	Archive string
	Op      string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %s: %v", e.Archive, e.Op, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// FilesystemError reports a directory or file the installer could not create.
type FilesystemError struct {
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("unable to save binary to %s: %v", e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// WarningKind classifies a non-fatal condition.
type WarningKind int

const (
	// UnsupportedTarget means a platform, arch or version is outside the
	// known-supported lists.
	UnsupportedTarget WarningKind = iota
	// UnknownArtifact means the manifest has no checksums for the version.
	UnknownArtifact
	// VerificationSkipped means a non-default site was used.
	VerificationSkipped
	// CacheWrite means a cache entry could not be written.
	CacheWrite
)

func (k WarningKind) String() string {
	switch k {
	case UnsupportedTarget:
		return "unsupported-target"
	case UnknownArtifact:
		return "unknown-artifact"
	case VerificationSkipped:
		return "verification-skipped"
	case CacheWrite:
		return "cache-write"
	default:
		return "unknown"
	}
}

// Warning is a non-fatal condition surfaced in the install result.
type Warning struct {
	Kind    WarningKind
	Message string
}

func (w Warning) String() string {
	return w.Kind.String() + ": " + w.Message
}
