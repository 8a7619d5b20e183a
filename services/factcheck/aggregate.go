// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package factcheck implements the verdict aggregation engine: alignment
// checking, majority voting over provider findings, LLM fallback
// classification, and explanation composition.
package factcheck

import (
	"context"

	"github.com/AleutianAI/FactScreen/services/factcheck/schema"
)

// =============================================================================
// Verdict aggregation
// =============================================================================

// Aggregator reconciles heterogeneous provider verdicts into one
// AggregatedResult. It holds no request state; a single Aggregator is safe
// for concurrent callers.
type Aggregator struct {
	fallback *Fallback
}

// NewAggregator builds an Aggregator over the given LLM fallback client.
func NewAggregator(fallback *Fallback) *Aggregator {
	if fallback == nil {
		fallback = NewFallback(nil)
	}
	return &Aggregator{fallback: fallback}
}

// tallyVotes counts non-unknown verdicts and picks the mode. Ties break by
// whichever verdict was seen first in the provider-results slice; with no
// non-unknown votes the final verdict is unknown.
func tallyVotes(results []schema.ProviderResult) (map[schema.Verdict]int, schema.Verdict) {
	votes := make(map[schema.Verdict]int)
	var firstSeen []schema.Verdict
	for _, r := range results {
		if r.Verdict == schema.VerdictUnknown {
			continue
		}
		if _, seen := votes[r.Verdict]; !seen {
			firstSeen = append(firstSeen, r.Verdict)
		}
		votes[r.Verdict]++
	}
	final := schema.VerdictUnknown
	best := 0
	for _, v := range firstSeen {
		if votes[v] > best {
			best = votes[v]
			final = v
		}
	}
	return votes, final
}

// distinctProviders lists each provider once, in first-seen order.
func distinctProviders(results []schema.ProviderResult) []schema.Provider {
	seen := make(map[schema.Provider]struct{}, len(results))
	out := make([]schema.Provider, 0, len(results))
	for _, r := range results {
		if _, ok := seen[r.Provider]; ok {
			continue
		}
		seen[r.Provider] = struct{}{}
		out = append(out, r.Provider)
	}
	return out
}

// Aggregate produces the final verdict for one claim.
//
// # Description
//
// The pipeline: check alignment, tally a majority vote over all non-unknown
// provider verdicts, then decide whether the vote can be trusted. A
// misaligned majority is discarded in favor of the LLM fallback; a vote that
// produced nothing at all falls back the same way. Alignment never promotes
// a minority verdict, it only vetoes a majority one.
//
// The vote tally runs over every provider result regardless of alignment,
// while the explanation draws only on aligned evidence. That asymmetry feeds
// the override decision and the confidence math; both sides depend on it.
//
// # Inputs
//
//   - claimText: the user's claim
//   - results: normalized provider findings, may be empty
//   - sources: optional transient evidence records for explanation context;
//     when nil they are synthesized from the voting provider results
//
// # Outputs
//
// Always a complete AggregatedResult. The provider-results list is retained
// unfiltered as the audit trail, confidence is in [0, 1], and the worst case
// is an unknown verdict with the LLM's diagnostic explanation, never an
// error. FallbackUsed marks results whose verdict came from the LLM
// classification rather than the vote.
func (a *Aggregator) Aggregate(ctx context.Context, claimText string, results []schema.ProviderResult, sources []schema.SourceRecord) schema.AggregatedResult {
	alignment := CheckAlignment(claimText, results)
	votes, final := tallyVotes(results)

	explSources := sources
	if len(explSources) == 0 {
		explSources = sourcesFromResults(AlignedResults(claimText, results))
	}

	var (
		confidence  float64
		explanation string
		overridden  bool
	)
	// The citation block at the end must list the same sources the
	// explanation was generated from.
	usedSources := explSources

	// A majority the evidence does not support is worse than no majority.
	if !alignment.Aligned && final != schema.VerdictUnknown {
		cls := a.fallback.Classify(ctx, claimText, sources)
		final = MapLabel(cls.Label)
		confidence = cls.Confidence
		explanation = cls.Explanation
		usedSources = sources
		overridden = true
	}

	if !overridden && final != schema.VerdictUnknown && alignment.Aligned {
		explanation = a.fallback.Explain(ctx, claimText, explSources)
	}

	if !overridden && final == schema.VerdictUnknown {
		cls := a.fallback.Classify(ctx, claimText, sources)
		final = MapLabel(cls.Label)
		confidence = cls.Confidence
		explanation = cls.Explanation
		usedSources = sources
		overridden = true
	}

	if !overridden {
		total := 0
		for v, n := range votes {
			if v != schema.VerdictUnknown {
				total += n
			}
		}
		if total > 0 {
			confidence = clamp01(float64(votes[final]) / float64(total))
		}
		if explanation == "" && len(explSources) > 0 {
			explanation = a.fallback.Explain(ctx, claimText, explSources)
		}
	}

	explanation = AppendSources(explanation, usedSources)

	return schema.AggregatedResult{
		ClaimText:        claimText,
		Verdict:          final,
		Votes:            votes,
		ProviderResults:  results,
		ProvidersChecked: distinctProviders(results),
		Confidence:       clamp01(confidence),
		Explanation:      explanation,
		FallbackUsed:     overridden,
	}
}
