// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/k3a/html2text"
)

// maxPageTextLen caps extracted page text. Downstream claim extraction only
// needs the opening paragraphs, not a whole article archive.
const maxPageTextLen = 8000

// PageFetcher downloads a web page and extracts its readable text, for
// URL-based validation requests.
type PageFetcher struct {
	client HTTPClient
}

// NewPageFetcher builds a PageFetcher. client may be nil.
func NewPageFetcher(client HTTPClient) *PageFetcher {
	if client == nil {
		client = defaultHTTPClient()
	}
	return &PageFetcher{client: client}
}

// FetchText downloads the page and returns its plain text, capped at
// maxPageTextLen characters. The URL should already be validated by the
// caller.
func (p *PageFetcher) FetchText(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build page request: %w", err)
	}
	req.Header.Set("User-Agent", "FactScreen/1.0 (+https://github.com/AleutianAI/FactScreen)")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("page request failed: %w", err)
	}
	body, err := readBody(resp)
	if err != nil {
		return "", fmt.Errorf("failed to read page: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	text := strings.TrimSpace(html2text.HTML2Text(string(body)))
	if text == "" {
		return "", fmt.Errorf("no readable text at %s", pageURL)
	}
	if len(text) > maxPageTextLen {
		text = text[:maxPageTextLen]
	}
	return text, nil
}
