// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package schema defines the data model shared by the fact-checking engine:
// verdicts, provider identities, normalized provider findings, and the final
// aggregated result handed to the HTTP and PDF layers.
//
// All types here are value types. ProviderResult and AggregatedResult are
// constructed once and never mutated afterwards; derived variants of
// ClaimRecord are produced through With* copy constructors so callers can
// never alias each other's state.
package schema

import "fmt"

// =============================================================================
// Enums
// =============================================================================

// Verdict is the three-way classification outcome for a claim or for a single
// provider's finding. Values are stable wire strings.
type Verdict string

const (
	VerdictTrue       Verdict = "true"
	VerdictMisleading Verdict = "misleading"
	VerdictUnknown    Verdict = "unknown"
)

// Valid reports whether v is one of the three known verdict values.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictTrue, VerdictMisleading, VerdictUnknown:
		return true
	}
	return false
}

// Provider identifies an external fact-checking data source.
type Provider string

const (
	ProviderGoogle      Provider = "google_factcheck"
	ProviderRapid       Provider = "rapidapi_fact_checker"
	ProviderClaimBuster Provider = "claimbuster"
)

// AllProviders lists every provider in fetch order. The order is load-bearing:
// the aggregator breaks vote ties by first-seen result, and results arrive in
// this order.
func AllProviders() []Provider {
	return []Provider{ProviderGoogle, ProviderRapid, ProviderClaimBuster}
}

// DisplayName returns a human-readable provider name for explanations
// and reports.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderGoogle:
		return "Google Fact Check"
	case ProviderRapid:
		return "RapidAPI Fact Checker"
	case ProviderClaimBuster:
		return "ClaimBuster"
	default:
		return string(p)
	}
}

// =============================================================================
// Provider findings
// =============================================================================

// ProviderResult is one fact-check source's normalized finding.
//
// # Description
//
// Built by the per-provider normalizers in the factcheck package from one raw
// API record. Immutable once constructed: the aggregator reads it, the audit
// trail retains it, nobody writes to it.
//
// # Fields
//
//   - Provider: which source produced the finding
//   - Verdict: the normalized three-way classification
//   - Rating: the provider's raw rating wording, if any ("Pants on Fire!")
//   - Title: headline of the fact-check article, if any
//   - Summary: short summary text, if any
//   - SourceURL: link to the fact-check article, if any
//   - Metadata: free-form provider-specific extras (raw review record etc.)
type ProviderResult struct {
	Provider  Provider       `json:"provider"`
	Verdict   Verdict        `json:"verdict"`
	Rating    string         `json:"rating,omitempty"`
	Title     string         `json:"title,omitempty"`
	Summary   string         `json:"summary,omitempty"`
	SourceURL string         `json:"source_url,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Text returns the best available descriptive text for alignment checking:
// the title when present, otherwise the summary.
func (r ProviderResult) Text() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Summary
}

// =============================================================================
// Aggregated output
// =============================================================================

// AggregatedResult is the terminal artifact of one validation request.
//
// # Description
//
// Created exactly once per request by the aggregator and never mutated
// afterwards. ProviderResults always contains every fetched result, including
// those excluded from voting by the alignment check - the full audit trail is
// preserved for the report layer.
//
// # Invariants
//
//   - sum(Votes) equals the count of non-UNKNOWN provider results tallied
//   - Confidence is in [0, 1]
//   - Explanation may be empty, but when non-empty and sources were used it
//     carries a trailing "Sources:" block in the composer's line format
type AggregatedResult struct {
	ClaimText        string           `json:"claim_text"`
	Verdict          Verdict          `json:"verdict"`
	Votes            map[Verdict]int  `json:"votes"`
	ProviderResults  []ProviderResult `json:"provider_results"`
	ProvidersChecked []Provider       `json:"providers_checked"`
	Confidence       float64          `json:"confidence"`
	Explanation      string           `json:"explanation,omitempty"`
	FallbackUsed     bool             `json:"fallback_used,omitempty"`
}

// =============================================================================
// Transient records
// =============================================================================

// SourceRecord is a loose, transient view of one piece of fact-checking
// evidence, used for explanation generation and the /claims endpoints. It is
// built from ProviderResult rows or directly from provider search hits and is
// never persisted.
type SourceRecord struct {
	Provider Provider `json:"provider,omitempty"`
	Rating   string   `json:"rating,omitempty"`
	Verdict  string   `json:"verdict,omitempty"`
	Snippet  string   `json:"snippet,omitempty"`
	Source   string   `json:"source,omitempty"`
	URL      string   `json:"url,omitempty"`
}

// SourceFromProviderResult builds the transient explanation record for one
// normalized provider finding.
func SourceFromProviderResult(r ProviderResult) SourceRecord {
	return SourceRecord{
		Provider: r.Provider,
		Rating:   r.Rating,
		Verdict:  string(r.Verdict),
		Snippet:  r.Text(),
		Source:   r.Provider.DisplayName(),
		URL:      r.SourceURL,
	}
}

// ClaimRecord is one extracted claim row from a provider search, used by the
// /claims/search and /claims/filtered endpoints.
//
// ClaimRecord is immutable by convention: enrichment steps return fresh copies
// via the With* constructors instead of patching fields in place.
type ClaimRecord struct {
	Claim            string         `json:"claim"`
	Claimant         string         `json:"claimant,omitempty"`
	ClaimDate        string         `json:"claim_date,omitempty"`
	Publisher        string         `json:"publisher,omitempty"`
	ReviewLink       string         `json:"review_link,omitempty"`
	Rating           string         `json:"rating,omitempty"`
	SourceAPI        string         `json:"source_api"`
	Other            map[string]any `json:"other,omitempty"`
	SimilarityScore  *float64       `json:"query_similarity_score,omitempty"`
	NormalizedRating string         `json:"normalized_rating,omitempty"`
}

// WithSimilarity returns a copy of the record carrying the given similarity
// score. The receiver is left untouched.
func (c ClaimRecord) WithSimilarity(score float64) ClaimRecord {
	out := c
	out.SimilarityScore = &score
	return out
}

// WithNormalizedRating returns a copy of the record carrying the given
// normalized classification label. The receiver is left untouched.
func (c ClaimRecord) WithNormalizedRating(label string) ClaimRecord {
	out := c
	out.NormalizedRating = label
	return out
}

// String implements fmt.Stringer for log output.
func (c ClaimRecord) String() string {
	return fmt.Sprintf("ClaimRecord{%.60q from %s}", c.Claim, c.SourceAPI)
}
