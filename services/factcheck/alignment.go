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
	"strings"

	"github.com/AleutianAI/FactScreen/services/factcheck/schema"
)

// =============================================================================
// Alignment checking
// =============================================================================

// antonymPairs is the fixed table of opposing word pairs. If the claim uses
// one member and a provider's evidence text uses the other, that evidence is
// almost certainly checking the opposite statement.
var antonymPairs = [][2]string{
	{"east", "west"},
	{"north", "south"},
	{"true", "false"},
	{"yes", "no"},
	{"increase", "decrease"},
	{"increases", "decreases"},
	{"more", "less"},
	{"up", "down"},
	{"rise", "set"},
	{"rises", "sets"},
}

const (
	// Minimum token overlap ratio for one candidate to count as aligned.
	overlapThreshold = 0.3
	// Minimum share of aligned candidates for the evidence set as a whole.
	alignmentThreshold = 0.5
	// Token length cutoff: shorter words carry no topical signal.
	significantTokenLen = 3
)

// AlignmentResult reports whether a set of provider findings is about the
// same claim the user submitted.
type AlignmentResult struct {
	Aligned    bool    `json:"aligned"`
	Confidence float64 `json:"confidence"`
	Checked    int     `json:"checked"`
	AlignedN   int     `json:"aligned_count"`
}

// tokenize lowercases, splits on whitespace and trims surrounding
// punctuation from each token.
func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()[]{}")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// tokenSet maps tokens to presence, keeping only tokens longer than
// significantTokenLen when filter is true.
func tokenSet(tokens []string, filter bool) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if filter && len(t) <= significantTokenLen {
			continue
		}
		set[t] = struct{}{}
	}
	return set
}

// hasAntonymConflict reports whether one side contains a member of an antonym
// pair and the other side contains its opposite. Checked on the full token
// sets: several pair members are short words the significance filter drops.
func hasAntonymConflict(claim, candidate map[string]struct{}) bool {
	for _, pair := range antonymPairs {
		_, claimA := claim[pair[0]]
		_, claimB := claim[pair[1]]
		_, candA := candidate[pair[0]]
		_, candB := candidate[pair[1]]
		if (claimA && candB) || (claimB && candA) {
			return true
		}
	}
	return false
}

// overlapRatio computes |intersection| / max(|a|, |b|). Zero when either set
// is empty.
func overlapRatio(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	denom := len(a)
	if len(b) > denom {
		denom = len(b)
	}
	return float64(inter) / float64(denom)
}

// candidateAlignment is the per-candidate outcome of the lexical heuristic.
type candidateAlignment int

const (
	// candidateSkipped: unknown verdict or no usable text; contributes
	// neither to the checked count nor against the claim.
	candidateSkipped candidateAlignment = iota
	candidateAligned
	candidateMisaligned
)

// alignmentChecker precomputes the claim's token sets so every candidate in
// a result set is compared against the same material.
type alignmentChecker struct {
	claimLower string
	claimAll   map[string]struct{}
	claimSig   map[string]struct{}
}

func newAlignmentChecker(claimText string) alignmentChecker {
	claimTokens := tokenize(claimText)
	return alignmentChecker{
		claimLower: strings.ToLower(strings.TrimSpace(claimText)),
		claimAll:   tokenSet(claimTokens, false),
		claimSig:   tokenSet(claimTokens, true),
	}
}

// check classifies one provider finding against the claim. A candidate is
// aligned when its significant-token overlap reaches the threshold or either
// text contains the other verbatim; an antonym conflict marks it misaligned
// outright.
func (c alignmentChecker) check(r schema.ProviderResult) candidateAlignment {
	if r.Verdict == schema.VerdictUnknown {
		return candidateSkipped
	}
	text := strings.TrimSpace(r.Text())
	if text == "" {
		return candidateSkipped
	}
	candTokens := tokenize(text)
	candSig := tokenSet(candTokens, true)
	if len(c.claimSig) == 0 && len(candSig) == 0 {
		return candidateSkipped
	}
	candAll := tokenSet(candTokens, false)
	if hasAntonymConflict(c.claimAll, candAll) {
		return candidateMisaligned
	}
	candLower := strings.ToLower(text)
	if overlapRatio(c.claimSig, candSig) >= overlapThreshold ||
		strings.Contains(candLower, c.claimLower) ||
		strings.Contains(c.claimLower, candLower) {
		return candidateAligned
	}
	return candidateMisaligned
}

// CheckAlignment runs the lexical alignment heuristic over the provider
// findings for one claim.
//
// # Description
//
// Each voting candidate (verdict not unknown, with usable text) is compared
// against the claim. A candidate counts as aligned when its significant-token
// overlap with the claim reaches the threshold, or when either text contains
// the other verbatim. A candidate whose text sits on the opposite side of an
// antonym pair from the claim is counted as checked but not aligned. The
// evidence set as a whole is aligned when at least half of the checked
// candidates are. With nothing to check there is nothing to contradict, so
// the result defaults to aligned.
func CheckAlignment(claimText string, results []schema.ProviderResult) AlignmentResult {
	checker := newAlignmentChecker(claimText)

	checked := 0
	aligned := 0
	for _, r := range results {
		switch checker.check(r) {
		case candidateAligned:
			checked++
			aligned++
		case candidateMisaligned:
			checked++
		}
	}

	if checked == 0 {
		return AlignmentResult{Aligned: true, Confidence: 1.0}
	}
	ratio := float64(aligned) / float64(checked)
	return AlignmentResult{
		Aligned:    ratio >= alignmentThreshold,
		Confidence: ratio,
		Checked:    checked,
		AlignedN:   aligned,
	}
}

// AlignedResults filters provider findings down to the explanation evidence:
// voting results the heuristic did not mark misaligned. Skipped candidates
// (no usable text) survive the filter; they carry no text to contradict the
// claim but may still cite a publisher and URL.
func AlignedResults(claimText string, results []schema.ProviderResult) []schema.ProviderResult {
	checker := newAlignmentChecker(claimText)
	out := make([]schema.ProviderResult, 0, len(results))
	for _, r := range results {
		if r.Verdict == schema.VerdictUnknown {
			continue
		}
		if checker.check(r) == candidateMisaligned {
			continue
		}
		out = append(out, r)
	}
	return out
}
