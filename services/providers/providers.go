// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package providers implements the fact-check provider HTTP clients and the
// concurrent search fan-out across them.
//
// Every fetch is isolated: a provider timeout, non-200 status, or malformed
// payload contributes an empty result set and a warning log, never an error
// to the caller. Responses are cached briefly so repeated validation of the
// same claim does not burn provider quota.
package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/AleutianAI/FactScreen/pkg/logging"
	"github.com/AleutianAI/FactScreen/services/factcheck/schema"
)

// DefaultTimeout bounds each provider HTTP call.
const DefaultTimeout = 15 * time.Second

// Cache TTLs for provider responses.
const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute
)

// HTTPClient is the subset of http.Client the fetchers need. Tests inject
// doubles through it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher is one fact-check provider client.
type Fetcher interface {
	// Provider identifies the source this fetcher queries.
	Provider() schema.Provider

	// Fetch returns normalized findings for the query. Implementations
	// return an error only for their own caller's logging; the search
	// layer treats any error as an empty result set.
	Fetch(ctx context.Context, query string) ([]schema.ProviderResult, error)
}

// PageSearcher is an optional Fetcher capability: looking up published
// reviews of a specific article URL rather than searching by claim text.
type PageSearcher interface {
	FetchPage(ctx context.Context, pageURL string) ([]schema.ProviderResult, error)
}

// defaultHTTPClient returns the shared production client with the standard
// per-request timeout.
func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// readBody drains and closes a response body with a sane size cap.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}

// =============================================================================
// Search fan-out
// =============================================================================

// Search fans a claim query out to every configured provider concurrently.
type Search struct {
	fetchers []Fetcher
	cache    *cache.Cache
	logger   *logging.Logger
}

// NewSearch builds a Search over the given fetchers. Fetcher order is
// preserved in the combined result list; pass fetchers in the order results
// should be reported.
func NewSearch(logger *logging.Logger, fetchers ...Fetcher) *Search {
	if logger == nil {
		logger = logging.Default()
	}
	return &Search{
		fetchers: fetchers,
		cache:    cache.New(cacheTTL, cacheCleanup),
		logger:   logger,
	}
}

// SearchAll queries every provider concurrently and concatenates their
// findings in fetcher order. A provider failure contributes nothing; the
// call itself never fails.
func (s *Search) SearchAll(ctx context.Context, query string) []schema.ProviderResult {
	return s.search(ctx, query, "")
}

// SearchPage fans out like SearchAll, except that providers able to look up
// reviews by article URL are queried with pageURL instead of the claim text.
func (s *Search) SearchPage(ctx context.Context, query, pageURL string) []schema.ProviderResult {
	return s.search(ctx, query, pageURL)
}

func (s *Search) search(ctx context.Context, query, pageURL string) []schema.ProviderResult {
	resultSets := make([][]schema.ProviderResult, len(s.fetchers))

	var wg sync.WaitGroup
	for i, f := range s.fetchers {
		fetch := f.Fetch
		arg := query
		mode := "query"
		if pageURL != "" {
			if pf, ok := f.(PageSearcher); ok {
				fetch = pf.FetchPage
				arg = pageURL
				mode = "page"
			}
		}
		key := fmt.Sprintf("%s|%s|%s", f.Provider(), mode, arg)
		if cached, ok := s.cache.Get(key); ok {
			resultSets[i] = cached.([]schema.ProviderResult)
			continue
		}
		wg.Add(1)
		go func(i int, provider schema.Provider, key, arg string,
			fetch func(context.Context, string) ([]schema.ProviderResult, error)) {
			defer wg.Done()
			results, err := fetch(ctx, arg)
			if err != nil {
				s.logger.Warn("provider fetch failed",
					"provider", string(provider),
					"error", err.Error(),
				)
				return
			}
			s.cache.Set(key, results, cache.DefaultExpiration)
			resultSets[i] = results
		}(i, f.Provider(), key, arg, fetch)
	}
	wg.Wait()

	var out []schema.ProviderResult
	for _, set := range resultSets {
		out = append(out, set...)
	}
	return out
}

// Providers lists the providers this search consults, in fetch order.
func (s *Search) Providers() []schema.Provider {
	out := make([]schema.Provider, len(s.fetchers))
	for i, f := range s.fetchers {
		out[i] = f.Provider()
	}
	return out
}
