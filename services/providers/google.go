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

const googleBaseURL = "https://factchecktools.googleapis.com/v1alpha1/claims:search"

// GoogleFetcher queries the Google Fact Check Tools claims:search API.
type GoogleFetcher struct {
	apiKey  string
	baseURL string
	client  HTTPClient
	mapper  factcheck.VerdictMapper
}

// NewGoogleFetcher builds a fetcher for the Fact Check Tools API. client may
// be nil, in which case a default client with the standard timeout is used.
func NewGoogleFetcher(apiKey string, mapper factcheck.VerdictMapper, client HTTPClient) *GoogleFetcher {
	if client == nil {
		client = defaultHTTPClient()
	}
	return &GoogleFetcher{
		apiKey:  apiKey,
		baseURL: googleBaseURL,
		client:  client,
		mapper:  mapper,
	}
}

func (g *GoogleFetcher) Provider() schema.Provider {
	return schema.ProviderGoogle
}

// get performs one claims:search call. params must carry the search mode
// (query or pageUrl); key and language are filled in here.
func (g *GoogleFetcher) get(ctx context.Context, params url.Values) ([]byte, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("google fact check api key not configured")
	}
	params.Set("key", g.apiKey)
	params.Set("languageCode", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build google request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google request failed: %w", err)
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read google response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google returned status %d", resp.StatusCode)
	}
	return body, nil
}

// Fetch returns normalized findings for the query.
func (g *GoogleFetcher) Fetch(ctx context.Context, query string) ([]schema.ProviderResult, error) {
	body, err := g.get(ctx, url.Values{"query": {query}})
	if err != nil {
		return nil, err
	}
	return factcheck.NormalizeGoogle(body, g.mapper)
}

// FetchPage returns normalized findings for reviews of a specific article
// URL, using the claims:search pageUrl mode. Hit rates for URL submissions
// are much better than querying with the extracted claim.
func (g *GoogleFetcher) FetchPage(ctx context.Context, pageURL string) ([]schema.ProviderResult, error) {
	body, err := g.get(ctx, url.Values{"pageUrl": {pageURL}})
	if err != nil {
		return nil, err
	}
	return factcheck.NormalizeGoogle(body, g.mapper)
}

// SearchClaims returns the raw claim records for the claim-search endpoints,
// one per published review.
func (g *GoogleFetcher) SearchClaims(ctx context.Context, query string) ([]schema.ClaimRecord, error) {
	body, err := g.get(ctx, url.Values{"query": {query}})
	if err != nil {
		return nil, err
	}
	return factcheck.ClaimsFromGoogle(body)
}

var (
	_ Fetcher      = (*GoogleFetcher)(nil)
	_ PageSearcher = (*GoogleFetcher)(nil)
)
