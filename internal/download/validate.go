package download

import (
	"os"

	"go.uber.org/zap"
)

// minPlausibleSize is the smallest believable release archive. Anything
// smaller is treated as an aborted or junk download.
const minPlausibleSize = 1024

// ValidateCachedFile checks that path holds a plausible, readable download.
// When expectedSize is positive the file length must match it exactly.
// This runs both before a download (to skip a redundant fetch) and after
// (to decide whether to trust the result).
func ValidateCachedFile(logger *zap.Logger, path string, expectedSize int64) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	size := info.Size()

	if expectedSize > 0 && size != expectedSize {
		logger.Debug("cached file size mismatch",
			zap.String("path", path),
			zap.Int64("expected", expectedSize),
			zap.Int64("actual", size))
		return false
	}

	if size == 0 {
		return false
	}
	if size < minPlausibleSize {
		logger.Debug("cached file suspiciously small",
			zap.String("path", path), zap.Int64("size", size))
		return false
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	var head [16]byte
	n, err := f.Read(head[:])
	if err != nil || n == 0 {
		return false
	}

	return true
}
