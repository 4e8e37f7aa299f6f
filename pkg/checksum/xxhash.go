package checksum

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// GetFileChecksum returns the xxhash of a file's content, hex encoded.
func GetFileChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	return GetChecksum(file)
}

// GetChecksum hashes everything read from r.
func GetChecksum(r io.Reader) (string, error) {
	hasher := xxhash.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", fmt.Errorf("failed to copy content to hasher: %w", err)
	}
	return Format(hasher.Sum64()), nil
}

// CalculateHash hashes an in-memory buffer.
func CalculateHash(content []byte) string {
	return Format(xxhash.Sum64(content))
}

func Format(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}
