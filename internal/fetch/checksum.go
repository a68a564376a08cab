// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	// ErrChecksumMismatch indicates the computed SHA256 hash does not match the manifest.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrFileNotInManifest indicates the dataset file has no entry in the manifest.
	ErrFileNotInManifest = errors.New("file not found in checksum manifest")

	// errEmptyManifest indicates the manifest contained no parseable entries.
	errEmptyManifest = errors.New("no valid checksum entries found")
)

type (
	// Manifest holds the expected SHA256 hashes for dataset files, keyed by
	// filename. It is parsed from standard sha256sum output.
	Manifest struct {
		hashes map[string]string
	}

	// ChecksumError describes a dataset file whose hash differs from the
	// manifest. It wraps ErrChecksumMismatch so callers can use errors.Is.
	ChecksumError struct {
		Filename string
		Expected string
		Got      string
	}
)

// Error returns a human-readable description of the mismatch, showing both
// hash values for debugging.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum verification failed for %s\nExpected: %s\nGot:      %s", e.Filename, e.Expected, e.Got)
}

// Unwrap returns ErrChecksumMismatch so callers can use errors.Is.
func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// ParseManifest reads a checksum manifest in the standard sha256sum output
// format: "{sha256_hex}  {filename}" with two spaces between hash and
// filename. Empty lines and malformed lines are silently skipped. Returns an
// error if no valid entries are found.
func ParseManifest(r io.Reader) (*Manifest, error) {
	hashes := make(map[string]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, "  ", 2)
		if len(parts) != 2 {
			continue
		}

		hash := parts[0]
		filename := strings.TrimSpace(parts[1])

		if filename == "" || !isValidHexHash(hash) {
			continue
		}

		hashes[filename] = strings.ToLower(hash)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading checksum manifest: %w", err)
	}

	if len(hashes) == 0 {
		return nil, errEmptyManifest
	}

	return &Manifest{hashes: hashes}, nil
}

// LoadManifest reads and parses the manifest file at path.
func LoadManifest(path string) (_ *Manifest, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open checksum manifest: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	return ParseManifest(f)
}

// HashFor returns the expected hash for filename, or ErrFileNotInManifest.
func (m *Manifest) HashFor(filename string) (string, error) {
	hash, ok := m.hashes[filename]
	if !ok {
		return "", fmt.Errorf("%q: %w", filename, ErrFileNotInManifest)
	}
	return hash, nil
}

// Verify hashes the file at path and compares it against the manifest entry
// for filename. Files missing from the manifest are an error rather than a
// pass, so a stale manifest cannot silently skip verification.
func (m *Manifest) Verify(path, filename string) error {
	expected, err := m.HashFor(filename)
	if err != nil {
		return err
	}

	got, err := hashFile(path)
	if err != nil {
		return err
	}

	if !strings.EqualFold(got, expected) {
		return &ChecksumError{
			Filename: filename,
			Expected: expected,
			Got:      got,
		}
	}

	return nil
}

// hashFile streams the file at path through SHA256 and returns the lowercase
// hex digest.
func hashFile(path string) (_ string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		// Read-only file handle; close errors are exotic (NFS edge cases).
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing file %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// isValidHexHash checks if s is a valid 64-character hex-encoded SHA256 hash.
func isValidHexHash(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
