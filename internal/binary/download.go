package binary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultTimeout bounds a single request including the body transfer
	DefaultTimeout = 5 * time.Minute
	// DefaultRetries is the default number of download retries
	DefaultRetries = 3

	dialTimeout           = 30 * time.Second
	tlsHandshakeTimeout   = 30 * time.Second
	responseHeaderTimeout = 60 * time.Second
	maxRedirects          = 10
	partSuffix            = ".part"
)

// UserAgent returns the User-Agent header sent with requests.
func UserAgent(version string) string {
	return fmt.Sprintf("lnd-binary/%s go/%s", version, runtime.Version())
}

// Downloader handles HTTP downloads with retry logic
type Downloader struct {
	client    *http.Client
	userAgent string
	retries   int
	backoff   time.Duration
	progress  ProgressFunc
	log       logrus.FieldLogger
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithTimeout sets the per-request bound. Zero keeps the default.
func WithTimeout(d time.Duration) DownloaderOption {
	return func(dl *Downloader) {
		if d > 0 {
			dl.client.Timeout = d
		}
	}
}

// WithRetries sets how many times a transient failure is retried.
func WithRetries(n int) DownloaderOption {
	return func(dl *Downloader) {
		if n >= 0 {
			dl.retries = n
		}
	}
}

// WithProgress installs a progress sink.
func WithProgress(fn ProgressFunc) DownloaderOption {
	return func(dl *Downloader) { dl.progress = fn }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) DownloaderOption {
	return func(dl *Downloader) {
		if ua != "" {
			dl.userAgent = ua
		}
	}
}

// WithDownloadLogger sets the logger used to report retries.
func WithDownloadLogger(log logrus.FieldLogger) DownloaderOption {
	return func(dl *Downloader) { dl.log = orDiscard(log) }
}

// NewDownloader creates a new downloader
func NewDownloader(opts ...DownloaderOption) *Downloader {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ResponseHeaderTimeout: responseHeaderTimeout,
		IdleConnTimeout:       90 * time.Second,
	}

	d := &Downloader{
		client: &http.Client{
			Transport: transport,
			Timeout:   DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent: UserAgent("dev"),
		retries:   DefaultRetries,
		backoff:   time.Second,
		log:       discardLogger(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Fetch downloads rawURL into destDir and returns the path of the file,
// which is named after the last segment of the URL path. The body is
// streamed to a ".part" file that is renamed once complete, so the returned
// path never refers to a partial download.
func (d *Downloader) Fetch(ctx context.Context, rawURL, destDir string) (string, error) {
	name, err := fileNameFromURL(rawURL)
	if err != nil {
		return "", err
	}

	destPath := filepath.Join(destDir, name)
	if err := d.DownloadToFile(ctx, rawURL, destPath); err != nil {
		return "", err
	}

	return destPath, nil
}

// DownloadToFile downloads a URL to a specific file path
func (d *Downloader) DownloadToFile(ctx context.Context, rawURL, destPath string) error {
	var lastErr error

	for attempt := 0; attempt <= d.retries; attempt++ {
		// Check context before each attempt
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := d.backoff * time.Duration(1<<uint(attempt-1))
			d.log.WithFields(logrus.Fields{
				"url":     rawURL,
				"attempt": attempt,
				"backoff": backoff,
			}).WithError(lastErr).Warn("retrying download")

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := d.downloadOnce(ctx, rawURL, destPath)
		if err == nil {
			return nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}

		var netErr *NetworkError
		if !errors.As(err, &netErr) || !netErr.Temporary() {
			return err
		}
	}

	return fmt.Errorf("download failed after %d retries: %w", d.retries, lastErr)
}

// downloadOnce performs a single download attempt
func (d *Downloader) downloadOnce(ctx context.Context, rawURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return &NetworkError{URL: rawURL, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &NetworkError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tmpPath := destPath + partSuffix
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	var w io.Writer = tmpFile
	var pw *progressWriter
	if d.progress != nil {
		pw = &progressWriter{w: tmpFile, total: resp.ContentLength, fn: d.progress}
		w = pw
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return fmt.Errorf("write %s: %w", tmpPath, err)
		}
		return &NetworkError{URL: rawURL, Timeout: isTimeout(err), Err: err}
	}

	if pw != nil {
		pw.finish()
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return nil
}

type progressWriter struct {
	w       io.Writer
	written int64
	total   int64
	fn      ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	p.fn(p.written, p.total)
	return n, err
}

// finish reports completion of a body whose length was not announced, so
// the last call always has written == total.
func (p *progressWriter) finish() {
	if p.total < 0 {
		p.total = p.written
		p.fn(p.written, p.total)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func fileNameFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}

	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("url %q has no file name", rawURL)
	}

	return name, nil
}
