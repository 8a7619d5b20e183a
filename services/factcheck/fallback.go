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
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AleutianAI/FactScreen/services/factcheck/schema"
	"github.com/AleutianAI/FactScreen/services/llm"
)

// =============================================================================
// LLM fallback client
// =============================================================================

// Labels the fallback classifier may return.
const (
	FallbackLabelTrue    = "True"
	FallbackLabelFalse   = "False"
	FallbackLabelUnclear = "Unclear"
)

// Diagnostic messages returned on LLM failure. Key and quota problems get
// fixed user-safe wording; raw provider error text is never exposed for them.
const (
	msgInvalidKey = "The configured LLM API key is invalid or missing. Verdict could not be refined."
	msgQuota      = "The LLM service quota is exhausted. Please try again later."
	msgGeneric    = "The LLM service could not process this claim. Verdict could not be refined."
)

// Classification is the fallback classifier's output triple.
type Classification struct {
	Label       string  `json:"label"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// Fallback wraps an LLM backend behind the three narrow operations the
// aggregator needs: classify a claim, explain a verdict, and strictly check
// evidence alignment. Every operation fails soft; callers never see an error.
type Fallback struct {
	client llm.LLMClient
}

// NewFallback builds a Fallback over the given backend. The client may be
// nil, in which case every call takes its soft-failure path.
func NewFallback(client llm.LLMClient) *Fallback {
	return &Fallback{client: client}
}

// MapLabel converts a fallback label to the three-way verdict.
func MapLabel(label string) schema.Verdict {
	switch strings.TrimSpace(label) {
	case FallbackLabelTrue:
		return schema.VerdictTrue
	case FallbackLabelFalse:
		return schema.VerdictMisleading
	default:
		return schema.VerdictUnknown
	}
}

// stripFences removes a Markdown code fence wrapper from a model response.
// Models routinely wrap JSON in ```json fences no matter what the prompt says.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// diagnostic maps an LLM error to a user-safe message.
func diagnostic(err error) string {
	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "api key") && strings.Contains(lower, "invalid"),
		strings.Contains(lower, "api key") && strings.Contains(lower, "missing"):
		return msgInvalidKey
	case strings.Contains(lower, "quota"), strings.Contains(lower, "exhausted"),
		strings.Contains(lower, "429"):
		return msgQuota
	default:
		return msgGeneric
	}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// renderSources formats up to max source records as a numbered evidence list
// for inclusion in a prompt.
func renderSources(sources []schema.SourceRecord, max int) string {
	if len(sources) == 0 {
		return "No external fact-check sources were found."
	}
	if len(sources) > max {
		sources = sources[:max]
	}
	var b strings.Builder
	for i, s := range sources {
		fmt.Fprintf(&b, "%d. ", i+1)
		if name := strings.TrimSpace(s.Source); name != "" {
			b.WriteString(name)
			b.WriteString(": ")
		}
		if snippet := strings.TrimSpace(s.Snippet); snippet != "" {
			b.WriteString(snippet)
		}
		if verdict := strings.TrimSpace(s.Verdict); verdict != "" {
			fmt.Fprintf(&b, " (rated: %s)", verdict)
		} else if rating := strings.TrimSpace(s.Rating); rating != "" {
			fmt.Fprintf(&b, " (rated: %s)", rating)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Classify asks the LLM for a verdict on the claim given the evidence.
//
// # Description
//
// Issues one generation call with a deterministic prompt asking for a strict
// JSON object. The response is fence-stripped, parsed, label-normalized and
// confidence-clamped. Any failure, from a missing client to malformed JSON,
// degrades to ("Unclear", 0.5, diagnostic) so the aggregation pipeline always
// receives a usable triple.
func (f *Fallback) Classify(ctx context.Context, claim string, sources []schema.SourceRecord) Classification {
	unclear := Classification{Label: FallbackLabelUnclear, Confidence: 0.5}
	if f.client == nil {
		unclear.Explanation = msgGeneric
		return unclear
	}

	prompt := fmt.Sprintf(`You are a careful fact-checking assistant. Evaluate the claim below using the evidence provided.

Claim: %q

Evidence:
%s
Respond with a single JSON object, no markdown fences, in exactly this shape:
{"label": "True" | "False" | "Unclear", "confidence": <number between 0 and 1>, "explanation": "<2-3 sentences citing the evidence>"}

Use "True" only if the evidence supports the claim, "False" if the evidence contradicts it or shows it is misleading, and "Unclear" if the evidence is insufficient.`,
		claim, renderSources(sources, 10))

	raw, err := f.client.Generate(ctx, prompt, llm.GenerationParams{})
	if err != nil {
		slog.Warn("llm classification failed", "error", err)
		unclear.Explanation = diagnostic(err)
		return unclear
	}

	var parsed Classification
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		slog.Warn("llm classification returned malformed JSON", "error", err)
		unclear.Explanation = msgGeneric
		return unclear
	}
	parsed.Label = normalizeLabel(parsed.Label)
	parsed.Confidence = clamp01(parsed.Confidence)
	if strings.TrimSpace(parsed.Explanation) == "" {
		parsed.Explanation = "No explanation was provided by the model."
	}
	return parsed
}

// normalizeLabel folds model label variants onto the three canonical labels.
func normalizeLabel(label string) string {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "TRUE", "ACCURATE", "CORRECT":
		return FallbackLabelTrue
	case "FALSE", "MISLEADING", "INACCURATE", "INCORRECT":
		return FallbackLabelFalse
	default:
		return FallbackLabelUnclear
	}
}

// Explain produces a short prose account of the evidence, no label. Used when
// a majority verdict already exists but needs a human-readable explanation.
// Returns "" on any failure; the caller treats that as "no explanation".
func (f *Fallback) Explain(ctx context.Context, claim string, sources []schema.SourceRecord) string {
	if f.client == nil {
		return ""
	}
	prompt := fmt.Sprintf(`Write a short, neutral 2-3 sentence explanation of what fact-checkers found about the claim below. Cite the sources by name. Do not produce a verdict label, headings, or bullet points, just prose.

Claim: %q

Evidence:
%s`, claim, renderSources(sources, 10))

	out, err := f.client.Generate(ctx, prompt, llm.GenerationParams{})
	if err != nil {
		slog.Warn("llm explanation failed", "error", err)
		return ""
	}
	return strings.TrimSpace(stripFences(out))
}

// CheckAlignmentStrict is the LLM variant of the alignment check. It shows
// the model the claim plus up to 5 evidence snippets and asks whether the
// evidence is about the same claim rather than an opposite, negated, or
// different one. Any failure fails open to aligned: discarding valid evidence
// on an LLM hiccup is worse than trusting it.
func (f *Fallback) CheckAlignmentStrict(ctx context.Context, claim string, sources []schema.SourceRecord) AlignmentResult {
	open := AlignmentResult{Aligned: true, Confidence: 1.0}
	if f.client == nil {
		return open
	}
	prompt := fmt.Sprintf(`Determine whether the fact-check evidence below is about the same claim as the user's claim. Flag evidence that checks an opposite, negated, or different claim.

User's claim: %q

Evidence:
%s
Respond with a single JSON object, no markdown fences: {"aligned": true | false, "reason": "<one sentence>"}`,
		claim, renderSources(sources, 5))

	raw, err := f.client.Generate(ctx, prompt, llm.GenerationParams{})
	if err != nil {
		slog.Warn("llm alignment check failed", "error", err)
		return open
	}
	var parsed struct {
		Aligned bool   `json:"aligned"`
		Reason  string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		slog.Warn("llm alignment check returned malformed JSON", "error", err)
		return open
	}
	conf := 0.0
	if parsed.Aligned {
		conf = 1.0
	}
	return AlignmentResult{Aligned: parsed.Aligned, Confidence: conf}
}
