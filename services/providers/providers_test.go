// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Licensed under AGPL v3 with additional terms. See LICENSE.txt and NOTICE.txt.

package providers

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/FactScreen/services/classifier"
	"github.com/AleutianAI/FactScreen/services/factcheck"
	"github.com/AleutianAI/FactScreen/services/factcheck/schema"
)

func testMapper() factcheck.VerdictMapper {
	return classifier.New(classifier.DefaultVocab(), nil)
}

func mockedClient(t *testing.T) *http.Client {
	t.Helper()
	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}

func TestGoogleFetcher(t *testing.T) {
	client := mockedClient(t)
	httpmock.RegisterResponder("GET", `=~^https://factchecktools\.googleapis\.com/v1alpha1/claims:search`,
		httpmock.NewStringResponder(200, `{"claims":[{"text":"Sugar causes diabetes","claimReview":[{"publisher":{"name":"Health Check"},"url":"https://hc.example/1","title":"Checked","textualRating":"False"}]}]}`))

	g := NewGoogleFetcher("test-key", testMapper(), client)
	got, err := g.Fetch(context.Background(), "sugar causes diabetes")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, schema.ProviderGoogle, got[0].Provider)
	assert.Equal(t, schema.VerdictMisleading, got[0].Verdict)

	// The API key travels as a query parameter.
	info := httpmock.GetCallCountInfo()
	assert.NotEmpty(t, info)
}

func TestGoogleFetcherNoKey(t *testing.T) {
	g := NewGoogleFetcher("", testMapper(), mockedClient(t))
	_, err := g.Fetch(context.Background(), "anything")
	assert.Error(t, err)
}

func TestGoogleFetcherHTTPError(t *testing.T) {
	client := mockedClient(t)
	httpmock.RegisterResponder("GET", `=~^https://factchecktools\.googleapis\.com/.*`,
		httpmock.NewStringResponder(403, `{"error":"forbidden"}`))

	g := NewGoogleFetcher("bad-key", testMapper(), client)
	_, err := g.Fetch(context.Background(), "anything")
	assert.ErrorContains(t, err, "403")
}

func TestGoogleFetcherSearchClaims(t *testing.T) {
	client := mockedClient(t)
	httpmock.RegisterResponder("GET", `=~^https://factchecktools\.googleapis\.com/.*`,
		httpmock.NewStringResponder(200, `{"claims":[{"text":"c","claimReview":[{"publisher":{"name":"A"},"textualRating":"True"},{"publisher":{"name":"B"},"textualRating":"False"}]}]}`))

	g := NewGoogleFetcher("test-key", testMapper(), client)
	got, err := g.SearchClaims(context.Background(), "c")

	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRapidFetcher(t *testing.T) {
	client := mockedClient(t)
	httpmock.RegisterResponder("GET", `=~^https://fact-checker\.p\.rapidapi\.com/search`,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "test-key", req.Header.Get("X-RapidAPI-Key"))
			assert.Equal(t, rapidHost, req.Header.Get("X-RapidAPI-Host"))
			return httpmock.NewStringResponse(200, `{"results":[{"claim":"c","label":"True","url":"https://r.example/1"}]}`), nil
		})

	r := NewRapidFetcher("test-key", testMapper(), client)
	got, err := r.Fetch(context.Background(), "c")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, schema.VerdictTrue, got[0].Verdict)
}

func TestClaimBusterFetcher(t *testing.T) {
	client := mockedClient(t)
	httpmock.RegisterResponder("GET", `=~^https://idir\.uta\.edu/claimbuster/api/v2/query/knowledge_bases/.*`,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "test-key", req.Header.Get("x-api-key"))
			return httpmock.NewStringResponse(200, `{"claim":"c","matches":[{"claim_text":"match","truth_rating":"Misleading"}]}`), nil
		})

	c := NewClaimBusterFetcher("test-key", testMapper(), client)
	got, err := c.Fetch(context.Background(), "c with spaces")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, schema.ProviderClaimBuster, got[0].Provider)
	assert.Equal(t, schema.VerdictMisleading, got[0].Verdict)
}

// stubFetcher is a canned Fetcher for search fan-out tests.
type stubFetcher struct {
	provider schema.Provider
	results  []schema.ProviderResult
	err      error
	calls    atomic.Int32
}

func (s *stubFetcher) Provider() schema.Provider { return s.provider }

func (s *stubFetcher) Fetch(ctx context.Context, query string) ([]schema.ProviderResult, error) {
	s.calls.Add(1)
	return s.results, s.err
}

func TestSearchAllPreservesFetcherOrder(t *testing.T) {
	google := &stubFetcher{provider: schema.ProviderGoogle,
		results: []schema.ProviderResult{{Provider: schema.ProviderGoogle, Verdict: schema.VerdictTrue}}}
	rapid := &stubFetcher{provider: schema.ProviderRapid,
		results: []schema.ProviderResult{{Provider: schema.ProviderRapid, Verdict: schema.VerdictMisleading}}}

	s := NewSearch(nil, google, rapid)
	got := s.SearchAll(context.Background(), "claim")

	require.Len(t, got, 2)
	assert.Equal(t, schema.ProviderGoogle, got[0].Provider)
	assert.Equal(t, schema.ProviderRapid, got[1].Provider)
}

func TestSearchAllPartialFailure(t *testing.T) {
	ok := &stubFetcher{provider: schema.ProviderGoogle,
		results: []schema.ProviderResult{{Provider: schema.ProviderGoogle, Verdict: schema.VerdictTrue}}}
	broken := &stubFetcher{provider: schema.ProviderRapid, err: errors.New("timeout")}

	s := NewSearch(nil, ok, broken)
	got := s.SearchAll(context.Background(), "claim")

	// One provider down still yields the other's findings.
	require.Len(t, got, 1)
	assert.Equal(t, schema.ProviderGoogle, got[0].Provider)
}

func TestSearchAllCachesResults(t *testing.T) {
	f := &stubFetcher{provider: schema.ProviderGoogle,
		results: []schema.ProviderResult{{Provider: schema.ProviderGoogle, Verdict: schema.VerdictTrue}}}

	s := NewSearch(nil, f)
	first := s.SearchAll(context.Background(), "claim")
	second := s.SearchAll(context.Background(), "claim")

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), f.calls.Load())

	// A different query misses the cache.
	s.SearchAll(context.Background(), "other claim")
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestSearchAllFailuresNotCached(t *testing.T) {
	f := &stubFetcher{provider: schema.ProviderGoogle, err: errors.New("boom")}

	s := NewSearch(nil, f)
	s.SearchAll(context.Background(), "claim")
	s.SearchAll(context.Background(), "claim")

	assert.Equal(t, int32(2), f.calls.Load())
}

func TestPageFetcher(t *testing.T) {
	client := mockedClient(t)
	httpmock.RegisterResponder("GET", "https://example.com/article",
		httpmock.NewStringResponder(200, `<html><body><h1>Headline</h1><p>Vaccines are safe, say scientists.</p></body></html>`))

	p := NewPageFetcher(client)
	got, err := p.FetchText(context.Background(), "https://example.com/article")

	require.NoError(t, err)
	assert.Contains(t, got, "Headline")
	assert.Contains(t, got, "Vaccines are safe, say scientists.")
	assert.NotContains(t, got, "<p>")
}

func TestPageFetcherErrors(t *testing.T) {
	client := mockedClient(t)
	httpmock.RegisterResponder("GET", "https://example.com/missing",
		httpmock.NewStringResponder(404, "not found"))
	httpmock.RegisterResponder("GET", "https://example.com/empty",
		httpmock.NewStringResponder(200, "<html><body></body></html>"))

	p := NewPageFetcher(client)

	_, err := p.FetchText(context.Background(), "https://example.com/missing")
	assert.ErrorContains(t, err, "404")

	_, err = p.FetchText(context.Background(), "https://example.com/empty")
	assert.ErrorContains(t, err, "no readable text")
}

func TestGoogleFetcherPageMode(t *testing.T) {
	client := mockedClient(t)
	httpmock.RegisterResponder("GET", `=~^https://factchecktools\.googleapis\.com/v1alpha1/claims:search`,
		func(req *http.Request) (*http.Response, error) {
			params := req.URL.Query()
			assert.Equal(t, "https://news.example/story", params.Get("pageUrl"))
			assert.Empty(t, params.Get("query"), "pageUrl mode must not also send a query")
			return httpmock.NewStringResponse(200, `{"claims":[{"text":"c","claimReview":[{"publisher":{"name":"A"},"textualRating":"True"}]}]}`), nil
		})

	g := NewGoogleFetcher("test-key", testMapper(), client)
	got, err := g.FetchPage(context.Background(), "https://news.example/story")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, schema.VerdictTrue, got[0].Verdict)
}

// pageStubFetcher additionally supports URL lookup.
type pageStubFetcher struct {
	stubFetcher
	pageURLs []string
}

func (s *pageStubFetcher) FetchPage(ctx context.Context, pageURL string) ([]schema.ProviderResult, error) {
	s.pageURLs = append(s.pageURLs, pageURL)
	return s.results, s.err
}

func TestSearchPageUsesURLForCapableFetchers(t *testing.T) {
	capable := &pageStubFetcher{stubFetcher: stubFetcher{
		provider: schema.ProviderGoogle,
		results:  []schema.ProviderResult{{Provider: schema.ProviderGoogle, Verdict: schema.VerdictTrue}},
	}}
	plain := &stubFetcher{
		provider: schema.ProviderRapid,
		results:  []schema.ProviderResult{{Provider: schema.ProviderRapid, Verdict: schema.VerdictTrue}},
	}
	s := NewSearch(nil, capable, plain)

	out := s.SearchPage(context.Background(), "the claim", "https://news.example/story")

	require.Len(t, out, 2)
	assert.Equal(t, []string{"https://news.example/story"}, capable.pageURLs)
	assert.Equal(t, int32(0), capable.calls.Load(), "capable fetcher must not also be queried by claim")
	assert.Equal(t, int32(1), plain.calls.Load())
}

func TestSearchPageCachesSeparatelyFromSearchAll(t *testing.T) {
	capable := &pageStubFetcher{stubFetcher: stubFetcher{
		provider: schema.ProviderGoogle,
		results:  []schema.ProviderResult{{Provider: schema.ProviderGoogle, Verdict: schema.VerdictTrue}},
	}}
	s := NewSearch(nil, capable)

	s.SearchAll(context.Background(), "the claim")
	s.SearchPage(context.Background(), "the claim", "https://news.example/story")
	s.SearchPage(context.Background(), "the claim", "https://news.example/story")

	assert.Equal(t, int32(1), capable.calls.Load())
	assert.Len(t, capable.pageURLs, 1, "second page search should hit the cache")
}
