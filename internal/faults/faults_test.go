package faults

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestClassifyCategories(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		category  Category
		retryable bool
	}{
		{"timeout", errors.New("request timed out"), CategoryNetwork, true},
		{"connection reset", errors.New("read: connection reset by peer"), CategoryNetwork, true},
		{"dns failure", errors.New("dns lookup failed for example.com"), CategoryNetwork, true},
		{"bad gateway", errors.New("server returned 502 Bad Gateway"), CategoryNetwork, true},
		{"disk space", errors.New("insufficient disk space: 10 MB available, 100 MB required"), CategoryFileSystem, false},
		{"missing directory", errors.New("installation directory not found: /opt/app"), CategoryFileSystem, false},
		{"permission denied", errors.New("open /opt/app: permission denied"), CategoryPermission, false},
		{"cannot write", errors.New("cannot write to installation directory"), CategoryPermission, false},
		{"corrupt file", errors.New("downloaded file is corrupt"), CategoryValidation, true},
		{"checksum mismatch", errors.New("checksum mismatch for update.zip"), CategoryValidation, true},
		{"missing setting", errors.New("installation path is not configured"), CategoryConfiguration, false},
		{"extraction failure", errors.New("failed to extract the release payload"), CategoryArchive, true},
		{"unknown", errors.New("something odd happened"), CategoryUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Classify(tt.err)
			if v.Category != tt.category {
				t.Errorf("category = %s, want %s", v.Category, tt.category)
			}
			if v.Retryable != tt.retryable {
				t.Errorf("retryable = %v, want %v", v.Retryable, tt.retryable)
			}
			if v.UserMessage == "" || v.RecoverySuggestion == "" {
				t.Error("verdict is missing user message or suggestion")
			}
		})
	}
}

func TestClassifyPriorityOrder(t *testing.T) {
	// Network keywords outrank everything else when both are present.
	v := Classify(errors.New("connection timed out while extracting archive"))
	if v.Category != CategoryNetwork {
		t.Errorf("category = %s, want %s", v.Category, CategoryNetwork)
	}

	// Filesystem outranks permission.
	v = Classify(errors.New("disk full: cannot write file"))
	if v.Category != CategoryFileSystem {
		t.Errorf("category = %s, want %s", v.Category, CategoryFileSystem)
	}
}

func TestClassifyWalksWrappedChain(t *testing.T) {
	inner := errors.New("no such file or directory")
	wrapped := fmt.Errorf("update failed: %w", fmt.Errorf("stage payload: %w", inner))

	v := Classify(wrapped)
	if v.Category != CategoryFileSystem {
		t.Errorf("category = %s, want %s", v.Category, CategoryFileSystem)
	}
	if !strings.Contains(v.TechnicalDetails, "update failed") ||
		!strings.Contains(v.TechnicalDetails, "no such file or directory") {
		t.Errorf("technical details should include the whole chain, got %q", v.TechnicalDetails)
	}
	if !strings.Contains(v.TechnicalDetails, " | ") {
		t.Errorf("technical details should join chain segments, got %q", v.TechnicalDetails)
	}
}

func TestNetworkSubMessages(t *testing.T) {
	tests := []struct {
		err     string
		wantMsg string
	}{
		{"request timed out", "timed out"},
		{"dial tcp: connection refused", "Could not connect"},
		{"dns resolution failed", "resolve"},
		{"503 service unavailable", "temporarily unavailable"},
		{"network path dropped", "network error"},
	}
	for _, tt := range tests {
		v := Classify(errors.New(tt.err))
		if !strings.Contains(strings.ToLower(v.UserMessage), strings.ToLower(tt.wantMsg)) {
			t.Errorf("Classify(%q).UserMessage = %q, want substring %q", tt.err, v.UserMessage, tt.wantMsg)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(errors.New("connection reset by peer")) {
		t.Error("network errors should be retryable")
	}
	if IsRetryable(errors.New("permission denied")) {
		t.Error("permission errors should not be retryable")
	}
}
