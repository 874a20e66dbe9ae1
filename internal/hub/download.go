package hub

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Downloader fetches remote files into a cache directory. Each artifact
// lives in its own sub-directory next to a marker file recording the
// source URL; a matching marker means the artifact is already complete.
type Downloader struct {
	CacheDir   string
	Client     *http.Client
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// NewDownloader creates a downloader from cfg, filling unset fields with
// defaults.
func NewDownloader(cfg Config) *Downloader {
	d := &Downloader{
		CacheDir:   cfg.CacheDir,
		Client:     http.DefaultClient,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Timeout:    cfg.Timeout,
	}
	if d.CacheDir == "" {
		d.CacheDir = DefaultCacheDir
	}
	if d.MaxRetries <= 0 {
		d.MaxRetries = DefaultMaxRetries
	}
	if d.RetryDelay < 0 {
		d.RetryDelay = DefaultRetryDelay
	}
	if d.Timeout <= 0 {
		d.Timeout = DefaultTimeout
	}
	return d
}

// IsRemote reports whether src is an http(s) URL.
func IsRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Path returns the cache location of rawURL.
func (d *Downloader) Path(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	name := "artifact"
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "/" && base != "." {
			name = base
		}
	}
	return filepath.Join(d.CacheDir, hex.EncodeToString(sum[:8]), name)
}

// Resolve returns a local path for src: URLs are fetched into the cache,
// anything else must name an existing file.
func (d *Downloader) Resolve(ctx context.Context, src string) (string, error) {
	if IsRemote(src) {
		p, _, err := d.Fetch(ctx, src)
		return p, err
	}
	if _, err := os.Stat(src); err != nil {
		return "", errors.Wrap(err, "resolve artifact")
	}
	return src, nil
}

// Fetch downloads rawURL unless a complete copy is cached. It returns the
// local path and whether the cached copy was used. Failed attempts are
// retried MaxRetries times in total, RetryDelay apart, each bounded by
// Timeout.
func (d *Downloader) Fetch(ctx context.Context, rawURL string) (string, bool, error) {
	if !IsRemote(rawURL) {
		return "", false, errors.Errorf("not an http(s) url: %q", rawURL)
	}

	target := d.Path(rawURL)
	dir := filepath.Dir(target)
	markerPath := filepath.Join(dir, markerFilename)
	marker := markerContent(rawURL)

	if !d.shouldDownload(markerPath, marker, target) {
		slog.Info("Artifact already downloaded, skipping", "url", rawURL, "path", target)
		return target, true, nil
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", false, errors.Wrap(err, "create cache directory")
	}

	var lastErr error
	for attempt := range d.MaxRetries {
		if attempt > 0 {
			slog.Info("Retrying download", "url", rawURL, "attempt", attempt+1, "last_error", lastErr)
			select {
			case <-ctx.Done():
				return "", false, errors.Wrap(ctx.Err(), "download canceled")
			case <-time.After(d.RetryDelay):
			}
		} else {
			slog.Info("Downloading artifact", "url", rawURL, "path", target)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, d.Timeout)
		n, err := d.download(attemptCtx, rawURL, target)
		cancel()

		if err == nil {
			if err := os.WriteFile(markerPath, []byte(marker), 0o600); err != nil {
				slog.Warn("Failed to write download marker", "path", markerPath, "error", err)
			}
			slog.Info("Artifact downloaded successfully", "url", rawURL, "path", target, "bytes", n, "attempt", attempt+1)
			return target, false, nil
		}

		lastErr = err
		slog.Error("Failed to download artifact", "url", rawURL, "attempt", attempt+1, "error", err)
		if ctx.Err() != nil {
			return "", false, errors.Wrap(err, "download canceled")
		}
	}
	return "", false, errors.Wrapf(lastErr, "download %s after %d attempts", rawURL, d.MaxRetries)
}

// download streams rawURL into a temporary file and renames it to target.
func (d *Downloader) download(ctx context.Context, rawURL, target string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, errors.Wrap(err, "build request")
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errors.Errorf("unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".download-*")
	if err != nil {
		return 0, errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		_ = tmp.Close()
		return n, errors.Wrap(err, "read body")
	}
	if err := tmp.Close(); err != nil {
		return n, errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return n, errors.Wrap(err, "move download into place")
	}
	return n, nil
}

func markerContent(rawURL string) string {
	return fmt.Sprintf("url: %s\n", rawURL)
}

// shouldDownload reports whether the marker is missing, stale or the
// artifact itself is gone.
func (d *Downloader) shouldDownload(markerPath, expected, target string) bool {
	content, err := os.ReadFile(markerPath) //nolint:gosec // G304: path is inside the cache directory
	if err != nil {
		slog.Debug("Marker file missing or unreadable", "path", markerPath, "error", err)
		return true
	}
	if string(content) != expected {
		slog.Info("Marker mismatch, will redownload", "marker_path", markerPath)
		return true
	}
	if _, err := os.Stat(target); err != nil {
		return true
	}
	return false
}
