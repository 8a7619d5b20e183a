// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package classifier normalizes free-form fact-check ratings and claim text
// into classification labels.
//
// Classification runs a fixed priority chain:
//
//  1. keyword match against the provider's original rating text
//  2. keyword match against the claim text itself
//  3. LLM zero-shot fallback over the configured candidate labels
//
// The keyword vocabularies and candidate labels ship with defaults and can be
// overridden from a YAML file.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/FactScreen/services/factcheck/schema"
	"github.com/AleutianAI/FactScreen/services/llm"
)

// Classification labels exposed to callers. These are wire-stable strings.
const (
	LabelTrue   = "True"
	LabelFalse  = "False or Misleading"
	LabelNoInfo = "Not enough information found"
)

// =============================================================================
// Vocabulary
// =============================================================================

// Vocab holds the keyword lists and candidate labels driving classification.
type Vocab struct {
	TrueKeywords    []string `yaml:"true_keywords"`
	FalseKeywords   []string `yaml:"false_keywords"`
	NoInfoKeywords  []string `yaml:"no_info_keywords"`
	CandidateLabels []string `yaml:"candidate_labels"`
}

// DefaultVocab returns the built-in keyword vocabulary. The lists mirror the
// rating wordings used by the major fact-checking publishers.
func DefaultVocab() Vocab {
	return Vocab{
		TrueKeywords: []string{
			"true", "mostly true", "accurate", "correct", "supported",
			"verified", "substantiated", "well-supported",
		},
		FalseKeywords: []string{
			"false", "mostly false", "inaccurate", "incorrect", "fake",
			"pants", "misleading", "partly false", "unsupported",
			"no evidence", "not supported", "debunked",
		},
		NoInfoKeywords: []string{
			"unclear", "unproven", "unverified", "unknown", "mixture",
			"insufficient",
		},
		CandidateLabels: []string{LabelTrue, LabelFalse, LabelNoInfo},
	}
}

// LoadVocab reads a vocabulary override file. Missing file or empty lists fall
// back to the defaults so a partial override is safe.
func LoadVocab(path string) (Vocab, error) {
	v := DefaultVocab()
	if path == "" {
		return v, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return v, fmt.Errorf("failed to read vocab file: %w", err)
	}
	var loaded Vocab
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return v, fmt.Errorf("failed to parse vocab file: %w", err)
	}
	if len(loaded.TrueKeywords) > 0 {
		v.TrueKeywords = loaded.TrueKeywords
	}
	if len(loaded.FalseKeywords) > 0 {
		v.FalseKeywords = loaded.FalseKeywords
	}
	if len(loaded.NoInfoKeywords) > 0 {
		v.NoInfoKeywords = loaded.NoInfoKeywords
	}
	if len(loaded.CandidateLabels) > 0 {
		v.CandidateLabels = loaded.CandidateLabels
	}
	return v, nil
}

// =============================================================================
// Classifier
// =============================================================================

// Classifier maps rating/claim text to labels. It is safe for concurrent use;
// the vocabulary is read-only after construction.
type Classifier struct {
	vocab Vocab
	llm   llm.LLMClient // optional zero-shot fallback; nil disables it
}

// New builds a Classifier. llmClient may be nil, in which case texts that no
// keyword matches classify as "Not enough information found".
func New(vocab Vocab, llmClient llm.LLMClient) *Classifier {
	return &Classifier{vocab: vocab, llm: llmClient}
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func normalizeText(text string) string {
	return whitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), " ")
}

// matchKeywords runs the shared keyword scan over already-lowercased text.
// False/misleading cues win over true cues so that ratings like
// "false, not true at all" never classify as True.
func (c *Classifier) matchKeywords(lower string) (string, bool) {
	for _, k := range c.vocab.FalseKeywords {
		if strings.Contains(lower, k) {
			return LabelFalse, true
		}
	}
	for _, k := range c.vocab.TrueKeywords {
		if !strings.Contains(lower, k) {
			continue
		}
		// "true" is a substring of "untrue"; never let it win there.
		if k == "true" && strings.Contains(lower, "untrue") {
			continue
		}
		return LabelTrue, true
	}
	for _, k := range c.vocab.NoInfoKeywords {
		if strings.Contains(lower, k) {
			return LabelNoInfo, true
		}
	}
	return "", false
}

// ClassifyFromRating classifies using only the provider's original rating
// wording. The boolean reports whether any keyword matched.
func (c *Classifier) ClassifyFromRating(rating string) (string, bool) {
	if strings.TrimSpace(rating) == "" {
		return "", false
	}
	return c.matchKeywords(normalizeText(rating))
}

// ClassifyKeywords classifies using only the claim text. The boolean reports
// whether any keyword matched.
func (c *Classifier) ClassifyKeywords(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return c.matchKeywords(normalizeText(text))
}

// Classify runs the full priority chain: original rating keywords, then claim
// text keywords, then the LLM zero-shot fallback. It never returns an error;
// every failure degrades to "Not enough information found".
func (c *Classifier) Classify(ctx context.Context, text, originalRating string) string {
	if label, ok := c.ClassifyFromRating(originalRating); ok {
		return label
	}
	if label, ok := c.ClassifyKeywords(text); ok {
		return label
	}
	if strings.TrimSpace(text) == "" {
		return LabelNoInfo
	}
	return c.zeroShot(ctx, text)
}

// zeroShot asks the LLM to pick one of the candidate labels.
func (c *Classifier) zeroShot(ctx context.Context, text string) string {
	if c.llm == nil {
		return LabelNoInfo
	}
	prompt := fmt.Sprintf(
		"Classify the following statement into exactly one of these labels: %s.\n"+
			"Respond with the label only, nothing else.\n\nStatement: %q",
		strings.Join(c.vocab.CandidateLabels, ", "), text)
	out, err := c.llm.Generate(ctx, prompt, llm.GenerationParams{})
	if err != nil {
		slog.Warn("zero-shot classification failed", "error", err)
		return LabelNoInfo
	}
	got := strings.TrimSpace(out)
	for _, label := range c.vocab.CandidateLabels {
		if strings.EqualFold(got, label) {
			return label
		}
	}
	// Model answered off-list; salvage by keyword scan before giving up.
	if label, ok := c.matchKeywords(normalizeText(got)); ok {
		return label
	}
	return LabelNoInfo
}

// ClassifyBatch classifies claim records, returning fresh copies carrying the
// normalized rating. Input records are never mutated.
func (c *Classifier) ClassifyBatch(ctx context.Context, claims []schema.ClaimRecord) []schema.ClaimRecord {
	out := make([]schema.ClaimRecord, 0, len(claims))
	for _, claim := range claims {
		label := c.Classify(ctx, claim.Claim, claim.Rating)
		out = append(out, claim.WithNormalizedRating(label))
	}
	return out
}

// Labels returns a copy of the candidate labels.
func (c *Classifier) Labels() []string {
	out := make([]string, len(c.vocab.CandidateLabels))
	copy(out, c.vocab.CandidateLabels)
	return out
}

// MapVerdict converts a free-form rating sentence to the three-way Verdict.
// Used by the provider normalizers.
func (c *Classifier) MapVerdict(text string) schema.Verdict {
	label, ok := c.matchKeywords(normalizeText(text))
	if !ok {
		return schema.VerdictUnknown
	}
	switch label {
	case LabelTrue:
		return schema.VerdictTrue
	case LabelFalse:
		return schema.VerdictMisleading
	default:
		return schema.VerdictUnknown
	}
}
