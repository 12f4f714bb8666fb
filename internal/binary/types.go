package binary

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// VerificationStatus indicates what happened to an archive's checksum check.
type VerificationStatus int

const (
	// VerificationNone means no archive was verified (skip or cache hit).
	VerificationNone VerificationStatus = iota
	// VerificationPassed means the SHA-256 matched the trusted manifest.
	VerificationPassed
	// VerificationSkippedSite means the archive came from a non-default site.
	VerificationSkippedSite
	// VerificationSkippedUnknown means the manifest has no entry for the version.
	VerificationSkippedUnknown
)

// String returns the string representation of the verification status
func (v VerificationStatus) String() string {
	switch v {
	case VerificationNone:
		return "none"
	case VerificationPassed:
		return "verified"
	case VerificationSkippedSite:
		return "skipped-site"
	case VerificationSkippedUnknown:
		return "skipped-unknown"
	default:
		return "unknown"
	}
}

// Result describes a completed install run.
type Result struct {
	// FileName is the binary name, e.g. "lnd-linux-amd64-v0.14.2-beta".
	FileName string
	// InstallPath is the full path of the installed executable.
	InstallPath  string
	Skipped      bool
	FromCache    bool
	Verification VerificationStatus
	Warnings     []Warning
	Duration     time.Duration
}

// ProgressFunc receives the number of bytes written so far and the expected
// total, which is -1 when the server did not send a length. A completed
// download always ends with a call where written equals total.
type ProgressFunc func(written, total int64)

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func orDiscard(log logrus.FieldLogger) logrus.FieldLogger {
	if log == nil {
		return discardLogger()
	}
	return log
}
