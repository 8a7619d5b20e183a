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
	"net/url"

	"github.com/AleutianAI/FactScreen/services/factcheck"
	"github.com/AleutianAI/FactScreen/services/factcheck/schema"
)

const claimBusterBaseURL = "https://idir.uta.edu/claimbuster/api/v2/query/knowledge_bases"

// ClaimBusterFetcher queries the ClaimBuster knowledge-base API.
type ClaimBusterFetcher struct {
	apiKey  string
	baseURL string
	client  HTTPClient
	mapper  factcheck.VerdictMapper
}

// NewClaimBusterFetcher builds a ClaimBuster fetcher. client may be nil.
func NewClaimBusterFetcher(apiKey string, mapper factcheck.VerdictMapper, client HTTPClient) *ClaimBusterFetcher {
	if client == nil {
		client = defaultHTTPClient()
	}
	return &ClaimBusterFetcher{
		apiKey:  apiKey,
		baseURL: claimBusterBaseURL,
		client:  client,
		mapper:  mapper,
	}
}

func (c *ClaimBusterFetcher) Provider() schema.Provider {
	return schema.ProviderClaimBuster
}

// Fetch returns normalized findings for the query.
func (c *ClaimBusterFetcher) Fetch(ctx context.Context, query string) ([]schema.ProviderResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("claimbuster api key not configured")
	}
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build claimbuster request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("claimbuster request failed: %w", err)
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read claimbuster response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("claimbuster returned status %d", resp.StatusCode)
	}
	return factcheck.NormalizeClaimBuster(body, c.mapper)
}

var _ Fetcher = (*ClaimBusterFetcher)(nil)
