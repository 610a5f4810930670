package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Environment test hooks for exercising the retry/resume paths under
// controlled conditions. Not for production use.
const (
	// envMaxBPS caps simulated throughput in bytes per second.
	envMaxBPS = "LAUNCHPAD_MAX_BPS"
	// envFailPct injects simulated connection resets at the given percentage.
	envFailPct = "LAUNCHPAD_FAIL_PCT"
)

const streamBufferSize = 64 * 1024

// attempt performs one download attempt. Bytes are written to disk before
// they count toward progress, so the on-disk length is always the resumption
// anchor for the next attempt.
func (m *Manager) attempt(ctx context.Context, url, dest string, resume bool, retryCount int, onProgress ProgressFunc) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := m.checkDiskSpace(dest); err != nil {
		return err
	}

	var startByte int64
	supportsRange := true

	if resume {
		if fi, err := os.Stat(dest); err == nil && fi.Size() > 0 {
			startByte = fi.Size()

			ok, probeErr := m.probeRangeSupport(ctx, url)
			switch {
			case probeErr != nil:
				// The server might still honor the range; the request phase
				// below self-corrects if it does not.
				m.logger.Warn("could not test range support, attempting resume anyway",
					zap.String("url", url), zap.Error(probeErr))
			case ok:
				m.logger.Info("server supports range requests, resuming",
					zap.String("dest", dest), zap.Int64("from_byte", startByte))
			default:
				m.logger.Info("server does not support range requests, restarting",
					zap.String("dest", dest))
				supportsRange = false
				startByte = 0
				if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
					m.logger.Warn("failed to remove partial file for restart", zap.Error(err))
				}
			}
		}
	}

	// Request phase. A resumed request answered with 200 or 416 forces a
	// single inline restart from offset zero; this is recovered here and
	// never surfaced to the retry loop.
	var resp *http.Response
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("failed to build download request: %w", err)
		}
		req.Header.Set("User-Agent", m.userAgent)
		req.Header.Set("Connection", "keep-alive")
		if startByte > 0 && supportsRange {
			req.Header.Set("Range", fmt.Sprintf("bytes=%d-", startByte))
		}

		resp, err = m.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to start download: %w", err)
		}

		if startByte > 0 && supportsRange {
			if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusRequestedRangeNotSatisfiable {
				drainAndClose(resp)
				if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
					m.logger.Warn("failed to remove partial file", zap.Error(err))
				}
				startByte = 0
				supportsRange = false
				continue
			}
			if resp.StatusCode != http.StatusPartialContent && !statusSuccess(resp.StatusCode) {
				status := resp.Status
				drainAndClose(resp)
				return fmt.Errorf("download failed with status: %s", status)
			}
		} else if !statusSuccess(resp.StatusCode) && resp.StatusCode != http.StatusPartialContent {
			status := resp.Status
			drainAndClose(resp)
			return fmt.Errorf("download failed with status: %s", status)
		}
		break
	}
	defer resp.Body.Close()

	totalSize := totalSizeFromResponse(resp, startByte)

	var file *os.File
	var err error
	if startByte > 0 {
		file, err = os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open file for resume: %w", err)
		}
	} else {
		file, err = os.Create(dest)
		if err != nil {
			return fmt.Errorf("failed to create download file: %w", err)
		}
	}
	defer file.Close()

	throttle := throttleFromEnv()
	failPct := failPctFromEnv()

	body := newTimeoutReader(resp.Body, m.policy.ChunkTimeout)
	buf := make([]byte, streamBufferSize)

	downloaded := startByte
	startTime := time.Now()
	lastUpdate := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			if _, werr := file.Write(buf[:n]); werr != nil {
				return fmt.Errorf("failed to write download chunk: %w", werr)
			}
			downloaded += int64(n)

			if throttle != nil {
				if err := throttle.WaitN(ctx, n); err != nil {
					return err
				}
			}
			if failPct > 0 && rand.Intn(100) < failPct {
				return errors.New("connection reset by peer (simulated)")
			}

			if time.Since(lastUpdate) >= m.progressInterval {
				onProgress(m.sample(downloaded, startByte, totalSize, startTime, retryCount))
				lastUpdate = time.Now()
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("failed to read download chunk: %w", readErr)
		}
	}

	// A clean stream end does not prove completeness.
	if totalSize > 0 && downloaded < totalSize {
		return fmt.Errorf("download ended prematurely: received %d of %d bytes", downloaded, totalSize)
	}

	final := m.sample(downloaded, startByte, totalSize, startTime, retryCount)
	final.Percentage = 100
	onProgress(final)

	return nil
}

func (m *Manager) sample(downloaded, startByte, totalSize int64, startTime time.Time, retryCount int) ProgressInfo {
	elapsed := time.Since(startTime).Seconds()
	var speed float64
	if elapsed > 0 {
		// Bytes already on disk from resume do not count toward throughput.
		speed = float64(downloaded-startByte) / (1024 * 1024) / elapsed
	}

	var percentage float64
	if totalSize > 0 {
		percentage = float64(downloaded) / float64(totalSize) * 100
	}

	return ProgressInfo{
		Percentage: percentage,
		Speed:      speed,
		Downloaded: downloaded,
		Total:      totalSize,
		RetryCount: retryCount,
	}
}

// totalSizeFromResponse derives the expected final file size, preferring
// Content-Length plus the resume offset and falling back to the total field
// of Content-Range. Unknown sizes report as 0.
func totalSizeFromResponse(resp *http.Response, startByte int64) int64 {
	if resp.ContentLength > 0 {
		return resp.ContentLength + startByte
	}
	if cr := resp.Header.Get("Content-Range"); cr != "" {
		if idx := strings.LastIndex(cr, "/"); idx >= 0 {
			if total, err := strconv.ParseInt(cr[idx+1:], 10, 64); err == nil {
				return total
			}
		}
	}
	return 0
}

func (m *Manager) checkDiskSpace(dest string) error {
	dir := filepath.Dir(dest)
	avail, err := availableSpace(dir)
	if err != nil {
		// Best effort: an unanswerable platform query never blocks a download.
		m.logger.Warn("could not check disk space, proceeding anyway", zap.Error(err))
		return nil
	}
	if avail < m.minFreeSpace {
		return fmt.Errorf("insufficient disk space: %d MB available, %d MB required",
			avail/(1024*1024), m.minFreeSpace/(1024*1024))
	}
	return nil
}

func throttleFromEnv() *rate.Limiter {
	raw := os.Getenv(envMaxBPS)
	if raw == "" {
		return nil
	}
	bps, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || bps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(bps), streamBufferSize)
}

func failPctFromEnv() int {
	raw := os.Getenv(envFailPct)
	if raw == "" {
		return 0
	}
	pct, err := strconv.Atoi(raw)
	if err != nil || pct < 0 {
		return 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}

func statusSuccess(code int) bool {
	return code >= 200 && code <= 299
}

// drainLimit bounds how much of an unwanted body is read before the
// connection is abandoned. A server that ignored a Range header is sending
// the whole file; reading past a few KiB to keep the connection reusable
// costs more than a new dial.
const drainLimit = 16 * 1024

func drainAndClose(resp *http.Response) {
	io.CopyN(io.Discard, resp.Body, drainLimit)
	resp.Body.Close()
}
