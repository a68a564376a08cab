// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestParseManifest(t *testing.T) {
	t.Parallel()

	hash := sha256Hex([]byte("payload"))
	input := strings.Join([]string{
		"",
		hash + "  hlca_lung.h5ad",
		"not a manifest line",
		"deadbeef  too-short-hash.h5ad",
		strings.ToUpper(hash) + "  krumsiek11.h5ad",
	}, "\n")

	m, err := ParseManifest(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseManifest() error = %v", err)
	}

	got, err := m.HashFor("hlca_lung.h5ad")
	if err != nil {
		t.Fatalf("HashFor() error = %v", err)
	}
	if got != hash {
		t.Errorf("HashFor() = %q, want %q", got, hash)
	}

	// Hashes are normalized to lowercase.
	got, err = m.HashFor("krumsiek11.h5ad")
	if err != nil {
		t.Fatalf("HashFor() error = %v", err)
	}
	if got != hash {
		t.Errorf("HashFor() = %q, want lowercase %q", got, hash)
	}

	if _, err := m.HashFor("too-short-hash.h5ad"); !errors.Is(err, ErrFileNotInManifest) {
		t.Errorf("malformed line was parsed as an entry: err = %v", err)
	}
}

func TestParseManifestEmpty(t *testing.T) {
	t.Parallel()

	if _, err := ParseManifest(strings.NewReader("no valid lines\n\n")); err == nil {
		t.Error("ParseManifest() accepted a manifest with no entries")
	}
}

func TestManifestVerify(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	data := []byte("matrix data")
	path := filepath.Join(dir, "dataset.h5ad")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	manifest := fmt.Sprintf("%s  dataset.h5ad\n%s  other.h5ad\n",
		sha256Hex(data), sha256Hex([]byte("different")))
	m, err := ParseManifest(strings.NewReader(manifest))
	if err != nil {
		t.Fatalf("ParseManifest() error = %v", err)
	}

	if err := m.Verify(path, "dataset.h5ad"); err != nil {
		t.Errorf("Verify() error = %v for a matching file", err)
	}

	err = m.Verify(path, "other.h5ad")
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("Verify() error = %v, want ErrChecksumMismatch", err)
	}
	var csErr *ChecksumError
	if !errors.As(err, &csErr) {
		t.Fatalf("Verify() error type = %T, want *ChecksumError", err)
	}
	if csErr.Got != sha256Hex(data) {
		t.Errorf("ChecksumError.Got = %q, want actual file hash", csErr.Got)
	}

	if err := m.Verify(path, "unlisted.h5ad"); !errors.Is(err, ErrFileNotInManifest) {
		t.Errorf("Verify() error = %v for an unlisted file, want ErrFileNotInManifest", err)
	}
}

func TestLoadManifestMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := LoadManifest(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Error("LoadManifest() succeeded for a missing file")
	}
}
