// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package factcheck

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/AleutianAI/FactScreen/services/factcheck/schema"
)

// Maximum length of the key claim extracted from longer text.
const maxKeyClaimLen = 200

// SourceSearcher fans a claim query out to the fact-check providers. The
// providers package supplies the production implementation.
type SourceSearcher interface {
	SearchAll(ctx context.Context, query string) []schema.ProviderResult
	Providers() []schema.Provider
}

// PageTextFetcher downloads a web page and returns its readable text.
type PageTextFetcher interface {
	FetchText(ctx context.Context, pageURL string) (string, error)
}

// PageSearchSource is an optional SourceSearcher capability: providers that
// index published reviews by article URL are queried with the URL instead of
// the claim text, which raises the hit rate for URL submissions.
type PageSearchSource interface {
	SearchPage(ctx context.Context, query, pageURL string) []schema.ProviderResult
}

// TextExtractor pulls text out of an image, for screenshot validation. OCR
// is an optional deployment concern; a nil extractor disables image input.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// =============================================================================
// Validation pipeline
// =============================================================================

// Pipeline runs one validation request end to end: extract the key claim,
// gather provider evidence, and aggregate a verdict.
type Pipeline struct {
	search SourceSearcher
	pages  PageTextFetcher
	ocr    TextExtractor
	agg    *Aggregator
}

// NewPipeline wires a validation pipeline. pages and ocr may be nil, which
// disables URL and image input respectively.
func NewPipeline(search SourceSearcher, pages PageTextFetcher, ocr TextExtractor, agg *Aggregator) *Pipeline {
	return &Pipeline{search: search, pages: pages, ocr: ocr, agg: agg}
}

// ExtractKeyClaim reduces free text to the single claim worth checking: the
// first sentence, capped at maxKeyClaimLen characters on a word boundary.
func ExtractKeyClaim(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	}); idx > 0 {
		text = strings.TrimSpace(text[:idx])
	}
	runes := []rune(text)
	if len(runes) <= maxKeyClaimLen {
		return text
	}
	// Cut on runes so a multibyte character at the boundary stays whole.
	cut := string(runes[:maxKeyClaimLen])
	if idx := strings.LastIndexFunc(cut, unicode.IsSpace); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}

// ValidateText fact-checks raw claim text.
func (p *Pipeline) ValidateText(ctx context.Context, text string) (schema.AggregatedResult, error) {
	claim := ExtractKeyClaim(text)
	if claim == "" {
		return schema.AggregatedResult{}, fmt.Errorf("no checkable claim in input")
	}
	results := p.search.SearchAll(ctx, claim)
	out := p.agg.Aggregate(ctx, claim, results, nil)
	if len(out.ProvidersChecked) == 0 {
		out.ProvidersChecked = p.search.Providers()
	}
	return out, nil
}

// ValidateURL downloads a page, extracts its key claim, and fact-checks it.
// When the search layer can look up reviews by article URL, that mode is
// used in place of the plain claim query.
func (p *Pipeline) ValidateURL(ctx context.Context, pageURL string) (schema.AggregatedResult, error) {
	if p.pages == nil {
		return schema.AggregatedResult{}, fmt.Errorf("url validation is not configured")
	}
	text, err := p.pages.FetchText(ctx, pageURL)
	if err != nil {
		return schema.AggregatedResult{}, fmt.Errorf("failed to fetch page: %w", err)
	}
	ps, ok := p.search.(PageSearchSource)
	if !ok {
		return p.ValidateText(ctx, text)
	}
	claim := ExtractKeyClaim(text)
	if claim == "" {
		return schema.AggregatedResult{}, fmt.Errorf("no checkable claim in input")
	}
	results := ps.SearchPage(ctx, claim, pageURL)
	out := p.agg.Aggregate(ctx, claim, results, nil)
	if len(out.ProvidersChecked) == 0 {
		out.ProvidersChecked = p.search.Providers()
	}
	return out, nil
}

// ValidateImage extracts text from an image and fact-checks it. Requires a
// configured TextExtractor.
func (p *Pipeline) ValidateImage(ctx context.Context, image []byte) (schema.AggregatedResult, error) {
	if p.ocr == nil {
		return schema.AggregatedResult{}, fmt.Errorf("image validation is not configured")
	}
	text, err := p.ocr.ExtractText(ctx, image)
	if err != nil {
		return schema.AggregatedResult{}, fmt.Errorf("failed to extract text from image: %w", err)
	}
	return p.ValidateText(ctx, text)
}
