package util

import (
	"crypto/sha1"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// ContentHash creates a SHA1 hash of a file's content
// This is the fileHash recorded on song rows: identical content hashes
// mean an unchanged file on rescan, a mismatch means a content update
func ContentHash(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
