// SPDX-License-Identifier: MPL-2.0

// Package fetch downloads dataset files over HTTP.
//
// Downloads are idempotent by filename: a file whose name is already present
// in the destination directory is skipped without a network fetch. No
// integrity check is applied to pre-existing files, so a partial file with
// the expected name passes; the optional checksum manifest (--checksums)
// closes that gap when provided.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// downloadTimeout bounds a single dataset fetch. The datasets are large
// (hundreds of MB), so this is generous.
const downloadTimeout = 60 * time.Minute

// ErrUnexpectedStatus is the sentinel error wrapped by UnexpectedStatusError.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

type (
	// Option configures a Downloader.
	Option func(*Downloader)

	// Downloader fetches dataset files into a destination directory.
	Downloader struct {
		client *http.Client
	}

	// UnexpectedStatusError is returned when the server responds with a
	// non-200 status.
	UnexpectedStatusError struct {
		URL    string
		Status string
	}

	// Result describes the outcome of a single fetch.
	Result struct {
		// Path is the destination file path.
		Path string
		// Skipped reports that the file was already present.
		Skipped bool
	}
)

// Error implements the error interface.
func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("download %s: unexpected HTTP status %s", e.URL, e.Status)
}

// Unwrap returns ErrUnexpectedStatus so callers can use errors.Is for programmatic detection.
func (e *UnexpectedStatusError) Unwrap() error { return ErrUnexpectedStatus }

// WithHTTPClient sets a custom HTTP client, useful for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Downloader) {
		d.client = c
	}
}

// NewDownloader creates a Downloader.
func NewDownloader(opts ...Option) *Downloader {
	d := &Downloader{
		client: &http.Client{Timeout: downloadTimeout},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Fetch downloads one URL into destDir. The destination filename is the
// final path segment of the URL. An already-present file is skipped.
//
// The body streams to a temp file renamed into place on success, so a
// failed or interrupted download leaves no file behind.
func (d *Downloader) Fetch(ctx context.Context, rawURL, destDir string) (*Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse dataset URL %q: %w", rawURL, err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return nil, fmt.Errorf("dataset URL %q has no file component", rawURL)
	}

	dest := filepath.Join(destDir, name)
	if _, err := os.Stat(dest); err == nil {
		log.Info("dataset file already present, skipping", "file", name)
		return &Result{Path: dest, Skipped: true}, nil
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create dataset directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %q: %w", rawURL, err)
	}

	log.Info("downloading dataset file", "file", name, "url", rawURL)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %q: %w", rawURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &UnexpectedStatusError{URL: rawURL, Status: resp.Status}
	}

	tmp, err := os.CreateTemp(destDir, name+".partial-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return nil, fmt.Errorf("write %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return nil, fmt.Errorf("close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return nil, fmt.Errorf("finalize %s: %w", dest, err)
	}

	return &Result{Path: dest}, nil
}

// FetchAll downloads every URL into destDir, stopping at the first failure.
// It returns the per-file results for the fetches that ran.
func (d *Downloader) FetchAll(ctx context.Context, urls []string, destDir string) ([]*Result, error) {
	results := make([]*Result, 0, len(urls))
	for _, u := range urls {
		res, err := d.Fetch(ctx, u, destDir)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
