// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Licensed under AGPL v3 with additional terms. See LICENSE.txt and NOTICE.txt.

package factcheck

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/FactScreen/services/factcheck/schema"
	"github.com/AleutianAI/FactScreen/services/llm"
)

type stubSearch struct {
	results []schema.ProviderResult
	queries []string
}

func (s *stubSearch) SearchAll(ctx context.Context, query string) []schema.ProviderResult {
	s.queries = append(s.queries, query)
	return s.results
}

func (s *stubSearch) Providers() []schema.Provider {
	return schema.AllProviders()
}

type stubPages struct {
	text string
	err  error
}

func (s *stubPages) FetchText(ctx context.Context, pageURL string) (string, error) {
	return s.text, s.err
}

type stubOCR struct {
	text string
	err  error
}

func (s *stubOCR) ExtractText(ctx context.Context, image []byte) (string, error) {
	return s.text, s.err
}

func newTestPipeline(search SourceSearcher, pages PageTextFetcher, ocr TextExtractor) *Pipeline {
	fake := &llm.FakeClient{Responses: []string{`{"label":"Unclear","confidence":0.5,"explanation":"stub"}`}}
	return NewPipeline(search, pages, ocr, NewAggregator(NewFallback(fake)))
}

func TestExtractKeyClaim(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single sentence", "Sugar causes diabetes", "Sugar causes diabetes"},
		{"first sentence wins", "Sugar causes diabetes. Everyone knows this.", "Sugar causes diabetes"},
		{"newline ends sentence", "Sugar causes diabetes\nMore text here", "Sugar causes diabetes"},
		{"question mark", "Does sugar cause diabetes? Experts disagree.", "Does sugar cause diabetes"},
		{"trims whitespace", "  claim text  ", "claim text"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractKeyClaim(tt.in))
		})
	}
}

func TestExtractKeyClaimCapsOnWordBoundary(t *testing.T) {
	long := strings.Repeat("word ", 100) // 500 chars, no sentence break
	got := ExtractKeyClaim(long)

	assert.LessOrEqual(t, len(got), maxKeyClaimLen)
	assert.False(t, strings.HasSuffix(got, " "))
	assert.True(t, strings.HasSuffix(got, "word"))
}

func TestValidateText(t *testing.T) {
	search := &stubSearch{results: []schema.ProviderResult{
		{Provider: schema.ProviderGoogle, Verdict: schema.VerdictTrue, Title: "Sugar causes diabetes checked"},
	}}
	p := newTestPipeline(search, nil, nil)

	out, err := p.ValidateText(context.Background(), "Sugar causes diabetes. More prose follows.")

	require.NoError(t, err)
	assert.Equal(t, "Sugar causes diabetes", out.ClaimText)
	assert.Equal(t, schema.VerdictTrue, out.Verdict)
	// Providers are queried with the extracted claim, not the full text.
	require.Len(t, search.queries, 1)
	assert.Equal(t, "Sugar causes diabetes", search.queries[0])
}

func TestValidateTextEmptyInput(t *testing.T) {
	p := newTestPipeline(&stubSearch{}, nil, nil)
	_, err := p.ValidateText(context.Background(), "   ")
	assert.Error(t, err)
}

func TestValidateTextNoProviderResults(t *testing.T) {
	p := newTestPipeline(&stubSearch{}, nil, nil)

	out, err := p.ValidateText(context.Background(), "aliens built the pyramids")

	require.NoError(t, err)
	assert.Equal(t, schema.VerdictUnknown, out.Verdict)
	assert.Equal(t, 0.5, out.Confidence)
	// With no results the attempted provider list is still reported.
	assert.Equal(t, schema.AllProviders(), out.ProvidersChecked)
}

func TestValidateURL(t *testing.T) {
	search := &stubSearch{}
	pages := &stubPages{text: "Vaccines cause autism. That is the article's claim."}
	p := newTestPipeline(search, pages, nil)

	out, err := p.ValidateURL(context.Background(), "https://example.com/article")

	require.NoError(t, err)
	assert.Equal(t, "Vaccines cause autism", out.ClaimText)
}

func TestValidateURLErrors(t *testing.T) {
	p := newTestPipeline(&stubSearch{}, nil, nil)
	_, err := p.ValidateURL(context.Background(), "https://example.com")
	assert.ErrorContains(t, err, "not configured")

	p = newTestPipeline(&stubSearch{}, &stubPages{err: errors.New("404")}, nil)
	_, err = p.ValidateURL(context.Background(), "https://example.com")
	assert.ErrorContains(t, err, "failed to fetch page")
}

func TestValidateImage(t *testing.T) {
	p := newTestPipeline(&stubSearch{}, nil, &stubOCR{text: "The earth is flat"})

	out, err := p.ValidateImage(context.Background(), []byte("png-bytes"))

	require.NoError(t, err)
	assert.Equal(t, "The earth is flat", out.ClaimText)
}

func TestValidateImageNotConfigured(t *testing.T) {
	p := newTestPipeline(&stubSearch{}, nil, nil)
	_, err := p.ValidateImage(context.Background(), []byte("png-bytes"))
	assert.ErrorContains(t, err, "not configured")
}

func TestExtractKeyClaimMultibyteBoundary(t *testing.T) {
	// No sentence break, no spaces: the cap must fall on a rune boundary.
	in := strings.Repeat("é", 250)
	got := ExtractKeyClaim(in)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 200, utf8.RuneCountInString(got))
}

// stubPageSearch additionally supports searching by article URL.
type stubPageSearch struct {
	stubSearch
	pageQueries []string
	pageURLs    []string
}

func (s *stubPageSearch) SearchPage(ctx context.Context, query, pageURL string) []schema.ProviderResult {
	s.pageQueries = append(s.pageQueries, query)
	s.pageURLs = append(s.pageURLs, pageURL)
	return s.results
}

func TestValidateURLUsesPageSearch(t *testing.T) {
	search := &stubPageSearch{stubSearch: stubSearch{results: []schema.ProviderResult{
		{Provider: schema.ProviderGoogle, Verdict: schema.VerdictTrue,
			Title: "The sun rises in the east"},
	}}}
	pages := &stubPages{text: "The sun rises in the east. More text follows."}
	p := newTestPipeline(search, pages, nil)

	out, err := p.ValidateURL(context.Background(), "https://news.example/story")

	require.NoError(t, err)
	assert.Equal(t, schema.VerdictTrue, out.Verdict)
	assert.Equal(t, []string{"https://news.example/story"}, search.pageURLs)
	assert.Equal(t, []string{"The sun rises in the east"}, search.pageQueries)
	assert.Empty(t, search.queries, "URL submissions should use the page-aware search")
}
