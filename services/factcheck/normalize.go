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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AleutianAI/FactScreen/services/factcheck/schema"
)

// Each provider contributes at most this many findings per claim.
const maxResultsPerProvider = 5

// VerdictMapper maps a free-form rating sentence onto the three-way verdict.
// The keyword classifier satisfies this.
type VerdictMapper interface {
	MapVerdict(text string) schema.Verdict
}

// =============================================================================
// Google Fact Check Tools
// =============================================================================

// googlePayload mirrors the claims:search response of the Google Fact Check
// Tools API. Only the fields the normalizer reads are declared.
type googlePayload struct {
	Claims []struct {
		Text        string `json:"text"`
		Claimant    string `json:"claimant"`
		ClaimDate   string `json:"claimDate"`
		ClaimReview []struct {
			Publisher struct {
				Name string `json:"name"`
				Site string `json:"site"`
			} `json:"publisher"`
			URL           string `json:"url"`
			Title         string `json:"title"`
			TextualRating string `json:"textualRating"`
			ReviewRating  struct {
				AlternateName string `json:"alternateName"`
			} `json:"reviewRating"`
		} `json:"claimReview"`
	} `json:"claims"`
}

// NormalizeGoogle converts a raw Google Fact Check Tools payload into
// normalized provider findings. Each claim contributes its first review; the
// textual rating is preferred over the structured alternate name.
func NormalizeGoogle(raw []byte, mapper VerdictMapper) ([]schema.ProviderResult, error) {
	var payload googlePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse google payload: %w", err)
	}
	out := make([]schema.ProviderResult, 0, len(payload.Claims))
	for _, claim := range payload.Claims {
		if len(out) == maxResultsPerProvider {
			break
		}
		if len(claim.ClaimReview) == 0 {
			continue
		}
		review := claim.ClaimReview[0]
		rating := review.TextualRating
		if rating == "" {
			rating = review.ReviewRating.AlternateName
		}
		out = append(out, schema.ProviderResult{
			Provider:  schema.ProviderGoogle,
			Verdict:   mapper.MapVerdict(rating),
			Rating:    rating,
			Title:     review.Title,
			Summary:   claim.Text,
			SourceURL: review.URL,
			Metadata: map[string]any{
				"claimant":   claim.Claimant,
				"claim_date": claim.ClaimDate,
				"publisher":  review.Publisher.Name,
			},
		})
	}
	return out, nil
}

// ClaimsFromGoogle flattens a Google payload into claim records for the
// claim-search endpoints. Unlike NormalizeGoogle it keeps every review.
func ClaimsFromGoogle(raw []byte) ([]schema.ClaimRecord, error) {
	var payload googlePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse google payload: %w", err)
	}
	var out []schema.ClaimRecord
	for _, claim := range payload.Claims {
		for _, review := range claim.ClaimReview {
			rating := review.TextualRating
			if rating == "" {
				rating = review.ReviewRating.AlternateName
			}
			out = append(out, schema.ClaimRecord{
				Claim:      claim.Text,
				Claimant:   claim.Claimant,
				ClaimDate:  claim.ClaimDate,
				Publisher:  review.Publisher.Name,
				ReviewLink: review.URL,
				Rating:     rating,
				SourceAPI:  string(schema.ProviderGoogle),
			})
		}
	}
	return out, nil
}

// =============================================================================
// RapidAPI fact checker
// =============================================================================

type rapidPayload struct {
	Results []struct {
		Claim      string `json:"claim"`
		ReviewText string `json:"review_text"`
		Label      string `json:"label"`
		Verdict    string `json:"verdict"`
		Rating     string `json:"rating"`
		Source     string `json:"source"`
		URL        string `json:"url"`
	} `json:"results"`
}

// NormalizeRapid converts a RapidAPI fact-checker payload. The rating wording
// lives in whichever of label, verdict, or rating the upstream chose to fill.
func NormalizeRapid(raw []byte, mapper VerdictMapper) ([]schema.ProviderResult, error) {
	var payload rapidPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse rapid payload: %w", err)
	}
	out := make([]schema.ProviderResult, 0, len(payload.Results))
	for _, r := range payload.Results {
		if len(out) == maxResultsPerProvider {
			break
		}
		rating := firstNonEmpty(r.Label, r.Verdict, r.Rating)
		out = append(out, schema.ProviderResult{
			Provider:  schema.ProviderRapid,
			Verdict:   mapper.MapVerdict(rating),
			Rating:    rating,
			Title:     r.Claim,
			Summary:   r.ReviewText,
			SourceURL: r.URL,
			Metadata:  map[string]any{"source": r.Source},
		})
	}
	return out, nil
}

// =============================================================================
// ClaimBuster
// =============================================================================

type claimBusterPayload struct {
	Claim   string `json:"claim"`
	Matches []struct {
		ClaimText     string `json:"claim_text"`
		TruthRating   string `json:"truth_rating"`
		Rating        string `json:"rating"`
		Justification string `json:"justification"`
		Source        string `json:"source"`
		URL           string `json:"url"`
	} `json:"matches"`
}

// NormalizeClaimBuster converts a ClaimBuster knowledge-base payload.
func NormalizeClaimBuster(raw []byte, mapper VerdictMapper) ([]schema.ProviderResult, error) {
	var payload claimBusterPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse claimbuster payload: %w", err)
	}
	out := make([]schema.ProviderResult, 0, len(payload.Matches))
	for _, m := range payload.Matches {
		if len(out) == maxResultsPerProvider {
			break
		}
		rating := firstNonEmpty(m.TruthRating, m.Rating)
		out = append(out, schema.ProviderResult{
			Provider:  schema.ProviderClaimBuster,
			Verdict:   mapper.MapVerdict(rating),
			Rating:    rating,
			Title:     m.ClaimText,
			Summary:   m.Justification,
			SourceURL: m.URL,
			Metadata:  map[string]any{"source": m.Source},
		})
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
