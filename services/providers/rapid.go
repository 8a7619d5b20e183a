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

const (
	rapidBaseURL = "https://fact-checker.p.rapidapi.com/search"
	rapidHost    = "fact-checker.p.rapidapi.com"
)

// RapidFetcher queries a fact-checker API hosted on RapidAPI.
type RapidFetcher struct {
	apiKey  string
	baseURL string
	host    string
	client  HTTPClient
	mapper  factcheck.VerdictMapper
}

// NewRapidFetcher builds a RapidAPI fetcher. client may be nil.
func NewRapidFetcher(apiKey string, mapper factcheck.VerdictMapper, client HTTPClient) *RapidFetcher {
	if client == nil {
		client = defaultHTTPClient()
	}
	return &RapidFetcher{
		apiKey:  apiKey,
		baseURL: rapidBaseURL,
		host:    rapidHost,
		client:  client,
		mapper:  mapper,
	}
}

func (r *RapidFetcher) Provider() schema.Provider {
	return schema.ProviderRapid
}

// Fetch returns normalized findings for the query.
func (r *RapidFetcher) Fetch(ctx context.Context, query string) ([]schema.ProviderResult, error) {
	if r.apiKey == "" {
		return nil, fmt.Errorf("rapidapi key not configured")
	}
	params := url.Values{}
	params.Set("query", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build rapid request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", r.apiKey)
	req.Header.Set("X-RapidAPI-Host", r.host)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rapid request failed: %w", err)
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read rapid response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rapid returned status %d", resp.StatusCode)
	}
	return factcheck.NormalizeRapid(body, r.mapper)
}

var _ Fetcher = (*RapidFetcher)(nil)
