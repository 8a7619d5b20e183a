// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation for security-critical
// operations.
//
// Claims arrive as raw user text and may be pasted from web pages; URLs are
// fetched server-side. Validators here strip markup before the text reaches
// the providers or an LLM prompt, and reject URLs that could be used for
// request forgery against internal services.
package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// MaxClaimLen caps claim text. Longer inputs are almost never a single
// checkable claim and blow up provider query budgets.
const MaxClaimLen = 2000

// strictPolicy strips all HTML, keeping text content only.
var strictPolicy = bluemonday.StrictPolicy()

// ValidateClaim checks that claim text is usable: non-empty after trimming
// and within the length cap.
func ValidateClaim(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fmt.Errorf("claim text cannot be empty")
	}
	if len(trimmed) > MaxClaimLen {
		return fmt.Errorf("claim text too long: %d chars (max %d)", len(trimmed), MaxClaimLen)
	}
	return nil
}

// SanitizeClaim strips any HTML markup from claim text, collapses runs of
// whitespace, and validates the result.
//
//	claim, err := validation.SanitizeClaim(userInput)
//	if err != nil {
//	    return err
//	}
//	// claim is plain text, bounded, safe for prompts and provider queries
func SanitizeClaim(text string) (string, error) {
	cleaned := strictPolicy.Sanitize(text)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if err := ValidateClaim(cleaned); err != nil {
		return "", err
	}
	return cleaned, nil
}

// SanitizeURL validates a user-supplied URL before a server-side fetch.
// Only http and https schemes are accepted, a host is required, and
// loopback, private, and link-local addresses are rejected to prevent
// request forgery against internal services.
func SanitizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("url cannot be empty")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme: %q (must be http or https)", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("url has no host")
	}
	if isInternalHost(host) {
		return "", fmt.Errorf("refusing to fetch internal address: %q", host)
	}
	return u.String(), nil
}

// isInternalHost reports whether the host names a loopback, private, or
// link-local address. Hostname-based checks only; DNS resolution happens at
// fetch time and re-validating there is the fetcher's job.
func isInternalHost(host string) bool {
	lower := strings.ToLower(host)
	if lower == "localhost" || strings.HasSuffix(lower, ".localhost") || strings.HasSuffix(lower, ".local") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}
