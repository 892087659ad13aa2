// Package hashx computes content digests for ingested assets. The digest is
// the dedup key: identical bytes always produce identical digests, whatever
// the file was named or how the stream was chunked.
package hashx

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// chunkSize bounds how much of the stream is held in memory at once.
const chunkSize = 64 * 1024

// SumReader streams r through sha256 and returns the hex digest. On any
// read error it returns an empty string and the error; a partial digest is
// never returned.
func SumReader(r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, chunkSize)

	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("hashing stream: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// SumFile opens path on fs and digests its contents.
func SumFile(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	defer f.Close()

	return SumReader(f)
}
