// Package download implements the resumable download engine: a range-support
// prober, a single-attempt transfer engine and a retry orchestrator that
// drives repeated attempts with jittered backoff.
package download

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/openplace/launchpad/internal/retry"
	"go.uber.org/zap"
)

// Options configures a Manager.
type Options struct {
	// Policy drives retry decisions and delays. Zero value means
	// retry.ForNetwork().
	Policy retry.Policy
	// UserAgent is sent on every request.
	UserAgent string
	// ConnectTimeout bounds dialing a new connection. Default 30s.
	ConnectTimeout time.Duration
	// MinFreeSpace is the free-space floor checked before an attempt.
	// Default 100 MiB.
	MinFreeSpace int64
	// ProgressInterval is the minimum spacing between byte-progress samples.
	// Default 100ms.
	ProgressInterval time.Duration
}

// Manager downloads files over HTTP with resume and retry. A single Manager
// reuses one connection pool across all downloads and attempts.
type Manager struct {
	client           *http.Client
	logger           *zap.Logger
	policy           retry.Policy
	leases           *leaseRegistry
	userAgent        string
	minFreeSpace     int64
	progressInterval time.Duration
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// New creates a download Manager.
func New(logger *zap.Logger, opts Options) *Manager {
	if opts.Policy.Strategy == nil {
		opts.Policy = retry.ForNetwork()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 30 * time.Second
	}
	if opts.MinFreeSpace == 0 {
		opts.MinFreeSpace = 100 * 1024 * 1024
	}
	if opts.ProgressInterval == 0 {
		opts.ProgressInterval = 100 * time.Millisecond
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   opts.ConnectTimeout,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Manager{
		client:           &http.Client{Transport: transport},
		logger:           logger,
		policy:           opts.Policy,
		leases:           newLeaseRegistry(),
		userAgent:        opts.UserAgent,
		minFreeSpace:     opts.MinFreeSpace,
		progressInterval: opts.ProgressInterval,
	}
}

// Download fetches url into dest, resuming a partial file when resume is set
// and retrying transient failures per the configured policy. dest has exactly
// one active writer at a time; a concurrent call for the same dest returns
// ErrDownloadInProgress.
func (m *Manager) Download(ctx context.Context, url, dest string, resume bool, onProgress ProgressFunc) error {
	release, err := m.leases.acquire(dest)
	if err != nil {
		return err
	}
	defer release()

	if onProgress == nil {
		onProgress = func(ProgressInfo) {}
	}

	attempt := 0
	for {
		// Once any attempt has left bytes on disk, later attempts resume.
		resumeThis := resume || fileExists(dest)

		err := m.attempt(ctx, url, dest, resumeThis, attempt, onProgress)
		if err == nil {
			return nil
		}

		if attempt < m.policy.MaxRetries && m.policy.ShouldRetry(err) {
			onProgress(ProgressInfo{
				RetryCount:  attempt + 1,
				IsRetrying:  true,
				RetryReason: err.Error(),
			})

			delay := m.policy.JitteredDelay(attempt)
			m.logger.Warn("download attempt failed, retrying",
				zap.String("url", url),
				zap.Int("attempt", attempt+1),
				zap.Int("max_retries", m.policy.MaxRetries),
				zap.Duration("delay", delay),
				zap.Error(err))

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			attempt++
			continue
		}

		if attempt >= m.policy.MaxRetries {
			return fmt.Errorf("download failed after retries exhausted: %w", err)
		}
		return err
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
