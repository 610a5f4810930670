package download

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// probeRangeSupport determines whether the server honors byte-range requests.
// Some servers silently ignore Range headers and answer 200 with the full
// body; appending to a partial file in that case corrupts it, so support is
// confirmed before any resume is trusted.
func (m *Manager) probeRangeSupport(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build range probe request: %w", err)
	}
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to send HEAD request for range probe: %w", err)
	}
	drainAndClose(resp)

	if accept := resp.Header.Get("Accept-Ranges"); accept != "" {
		return strings.Contains(strings.ToLower(accept), "bytes"), nil
	}

	// No Accept-Ranges header; a one-byte ranged request settles it.
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build test range request: %w", err)
	}
	req.Header.Set("User-Agent", m.userAgent)
	req.Header.Set("Range", "bytes=0-0")

	// A server that ignores the header answers with the full body here;
	// the capped drain keeps the probe cheap either way.
	resp, err = m.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to send test range request: %w", err)
	}
	drainAndClose(resp)

	return resp.StatusCode == http.StatusPartialContent, nil
}
