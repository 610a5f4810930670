// Package faults turns raw errors into user-facing verdicts. Errors from the
// transport and filesystem layers carry no unified typed taxonomy, so
// classification matches keywords over the full causal chain; categories are
// tried in a fixed priority order and the first match wins.
package faults

import (
	"errors"
	"strings"
)

// Category labels the broad class of a failure.
type Category string

const (
	CategoryNetwork       Category = "network"
	CategoryFileSystem    Category = "filesystem"
	CategoryPermission    Category = "permission"
	CategoryValidation    Category = "validation"
	CategoryConfiguration Category = "configuration"
	CategoryArchive       Category = "archive"
	CategoryUnknown       Category = "unknown"
)

// Verdict carries everything the UI layer needs to present a failure.
type Verdict struct {
	Category           Category `json:"category"`
	UserMessage        string   `json:"user_message"`
	TechnicalDetails   string   `json:"technical_details"`
	RecoverySuggestion string   `json:"recovery_suggestion"`
	Retryable          bool     `json:"is_retryable"`
}

// Classify derives a Verdict from err. It is pure: nothing is stored, the
// verdict is recomputed from the error chain every time.
func Classify(err error) Verdict {
	chain := chainDetails(err)
	lowered := strings.ToLower(chain)

	switch {
	case matchesAny(lowered, networkKeywords):
		return networkVerdict(lowered, chain)
	case matchesAny(lowered, filesystemKeywords):
		return filesystemVerdict(lowered, chain)
	case matchesAny(lowered, permissionKeywords):
		return permissionVerdict(lowered, chain)
	case matchesAny(lowered, validationKeywords):
		return validationVerdict(lowered, chain)
	case matchesAny(lowered, configurationKeywords):
		return configurationVerdict(lowered, chain)
	case matchesAny(lowered, archiveKeywords):
		return archiveVerdict(lowered, chain)
	default:
		return Verdict{
			Category:           CategoryUnknown,
			UserMessage:        "An unexpected error occurred.",
			TechnicalDetails:   chain,
			RecoverySuggestion: "Try again. If the problem persists, contact support.",
			Retryable:          false,
		}
	}
}

// IsRetryable reports the retryable flag of the classified error.
func IsRetryable(err error) bool {
	return Classify(err).Retryable
}

var networkKeywords = []string{
	"network", "connection", "timeout", "timed out", "dns", "host",
	"unreachable", "refused", "reset", "broken pipe",
	"502", "503", "504", "gateway timeout", "service unavailable", "bad gateway",
}

var filesystemKeywords = []string{
	"no such file", "file not found", "directory not found", "disk", "space",
	"full", "read-only", "invalid path", "path too long", "io error",
}

var permissionKeywords = []string{
	"permission denied", "access denied", "unauthorized", "forbidden",
	"cannot write", "cannot read", "cannot create",
}

var validationKeywords = []string{
	"validation", "invalid", "corrupt", "checksum", "integrity", "malformed",
}

var configurationKeywords = []string{
	"config", "configuration", "setting", "missing", "not configured",
}

var archiveKeywords = []string{
	"extract", "archive", "zip", "7z", "tar", "compression", "decompression",
	"zstd", "zst",
}

func networkVerdict(lowered, chain string) Verdict {
	var msg, suggestion string
	switch {
	case strings.Contains(lowered, "timeout") || strings.Contains(lowered, "timed out"):
		msg = "The connection timed out while downloading the update."
		suggestion = "Check your internet connection and try again. If the problem persists, try clearing the cache."
	case strings.Contains(lowered, "refused") || strings.Contains(lowered, "unreachable"):
		msg = "Could not connect to the download server."
		suggestion = "Check your internet connection and firewall settings. The server may be temporarily unavailable."
	case strings.Contains(lowered, "dns"):
		msg = "Could not resolve the download server address."
		suggestion = "Check your internet connection and DNS settings. Try again in a few minutes."
	case strings.Contains(lowered, "502") || strings.Contains(lowered, "503") || strings.Contains(lowered, "504"):
		msg = "The download server is temporarily unavailable."
		suggestion = "This is usually temporary. Try again in a few minutes."
	default:
		msg = "A network error occurred while downloading the update."
		suggestion = "Check your internet connection and try again. If the problem persists, try clearing the cache."
	}
	return Verdict{
		Category:           CategoryNetwork,
		UserMessage:        msg,
		TechnicalDetails:   chain,
		RecoverySuggestion: suggestion,
		Retryable:          true,
	}
}

func filesystemVerdict(lowered, chain string) Verdict {
	var msg, suggestion string
	switch {
	case strings.Contains(lowered, "space") || strings.Contains(lowered, "full"):
		msg = "Not enough disk space to complete the operation."
		suggestion = "Free up some disk space and try again."
	case strings.Contains(lowered, "file not found") || strings.Contains(lowered, "directory not found"):
		msg = "A required file or directory could not be found."
		suggestion = "Check your installation path settings and try again."
	case strings.Contains(lowered, "read-only"):
		msg = "Cannot write to the selected location because it's read-only."
		suggestion = "Choose a different installation directory or change the folder permissions."
	default:
		msg = "A file system error occurred."
		suggestion = "Check your installation path and disk space, then try again."
	}
	return Verdict{
		Category:           CategoryFileSystem,
		UserMessage:        msg,
		TechnicalDetails:   chain,
		RecoverySuggestion: suggestion,
		Retryable:          false,
	}
}

func permissionVerdict(lowered, chain string) Verdict {
	var msg, suggestion string
	switch {
	case strings.Contains(lowered, "permission denied") || strings.Contains(lowered, "access denied"):
		msg = "Permission denied when accessing the installation directory."
		suggestion = "Run the launcher as administrator or choose a different installation directory."
	case strings.Contains(lowered, "unauthorized") || strings.Contains(lowered, "forbidden"):
		msg = "Access to the installation directory is forbidden."
		suggestion = "Check folder permissions or run the launcher as administrator."
	default:
		msg = "Insufficient permissions to complete the operation."
		suggestion = "Run the launcher as administrator or check folder permissions."
	}
	return Verdict{
		Category:           CategoryPermission,
		UserMessage:        msg,
		TechnicalDetails:   chain,
		RecoverySuggestion: suggestion,
		Retryable:          false,
	}
}

func validationVerdict(lowered, chain string) Verdict {
	var msg, suggestion string
	switch {
	case strings.Contains(lowered, "corrupt") || strings.Contains(lowered, "integrity"):
		msg = "The downloaded file appears to be corrupted."
		suggestion = "Clear the cache and try downloading again. If the problem persists, the server file may be corrupted."
	case strings.Contains(lowered, "checksum"):
		msg = "The downloaded file failed integrity verification."
		suggestion = "Clear the cache and try downloading again."
	default:
		msg = "The file or data failed validation."
		suggestion = "Clear the cache and try again. If the problem persists, contact support."
	}
	return Verdict{
		Category:           CategoryValidation,
		UserMessage:        msg,
		TechnicalDetails:   chain,
		RecoverySuggestion: suggestion,
		Retryable:          true,
	}
}

func configurationVerdict(lowered, chain string) Verdict {
	msg := "There's an issue with the application configuration."
	if strings.Contains(lowered, "missing") || strings.Contains(lowered, "not configured") {
		msg = "Required configuration is missing or incomplete."
	}
	return Verdict{
		Category:           CategoryConfiguration,
		UserMessage:        msg,
		TechnicalDetails:   chain,
		RecoverySuggestion: "Check your settings and reconfigure if necessary.",
		Retryable:          false,
	}
}

func archiveVerdict(lowered, chain string) Verdict {
	var msg, suggestion string
	switch {
	case strings.Contains(lowered, "zstd") || strings.Contains(lowered, "zst"):
		msg = "Failed to extract the archive. The compression format may not be supported."
		suggestion = "Clear the cache and try downloading again. If the problem persists, the archive format may be unsupported."
	case strings.Contains(lowered, "extract"):
		msg = "Failed to extract the downloaded archive."
		suggestion = "The file may be corrupted. Clear the cache and try downloading again."
	default:
		msg = "An error occurred while processing the archive."
		suggestion = "Clear the cache and try downloading again."
	}
	return Verdict{
		Category:           CategoryArchive,
		UserMessage:        msg,
		TechnicalDetails:   chain,
		RecoverySuggestion: suggestion,
		Retryable:          true,
	}
}

// chainDetails joins every message in the unwrap chain, outermost first.
func chainDetails(err error) string {
	if err == nil {
		return ""
	}
	var parts []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, " | ")
}

func matchesAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
