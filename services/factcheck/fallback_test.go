// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Licensed under AGPL v3 with additional terms. See LICENSE.txt and NOTICE.txt.

package factcheck

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/FactScreen/services/factcheck/schema"
	"github.com/AleutianAI/FactScreen/services/llm"
)

func TestFallbackClassifyParsesFencedJSON(t *testing.T) {
	fake := &llm.FakeClient{Responses: []string{
		"```json\n{\"label\": \"TRUE\", \"confidence\": 0.9, \"explanation\": \"Well documented.\"}\n```",
	}}
	f := NewFallback(fake)

	got := f.Classify(context.Background(), "the earth is round", nil)

	assert.Equal(t, FallbackLabelTrue, got.Label)
	assert.Equal(t, 0.9, got.Confidence)
	assert.Equal(t, "Well documented.", got.Explanation)
}

func TestFallbackClassifyNormalizesLabels(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"misleading", FallbackLabelFalse},
		{"Inaccurate", FallbackLabelFalse},
		{"accurate", FallbackLabelTrue},
		{"who knows", FallbackLabelUnclear},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeLabel(tt.raw), tt.raw)
	}
}

func TestFallbackClassifyClampsConfidence(t *testing.T) {
	fake := &llm.FakeClient{Responses: []string{
		`{"label": "False", "confidence": 3.5, "explanation": "overconfident"}`,
	}}
	f := NewFallback(fake)

	got := f.Classify(context.Background(), "claim", nil)
	assert.Equal(t, 1.0, got.Confidence)
}

func TestFallbackClassifyMalformedResponse(t *testing.T) {
	fake := &llm.FakeClient{Responses: []string{"I cannot answer that in JSON, sorry."}}
	f := NewFallback(fake)

	got := f.Classify(context.Background(), "claim", nil)

	assert.Equal(t, FallbackLabelUnclear, got.Label)
	assert.Equal(t, 0.5, got.Confidence)
	assert.NotEmpty(t, got.Explanation)
}

func TestFallbackClassifyDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"invalid key", errors.New("API key not valid: the provided api key is invalid"), msgInvalidKey},
		{"quota", errors.New("rate limited: quota exhausted for this project"), msgQuota},
		{"http 429", errors.New("unexpected status 429"), msgQuota},
		{"generic", errors.New("connection reset by peer"), msgGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFallback(&llm.FakeClient{Err: tt.err})
			got := f.Classify(context.Background(), "claim", nil)
			assert.Equal(t, FallbackLabelUnclear, got.Label)
			assert.Equal(t, 0.5, got.Confidence)
			// Raw provider error text never leaks into the user-facing message.
			assert.Equal(t, tt.want, got.Explanation)
		})
	}
}

func TestFallbackClassifyIncludesSources(t *testing.T) {
	fake := &llm.FakeClient{Responses: []string{
		`{"label": "False", "confidence": 0.8, "explanation": "Snopes debunked it."}`,
	}}
	f := NewFallback(fake)
	sources := []schema.SourceRecord{
		{Source: "Snopes", Snippet: "No microchips found.", Verdict: "False"},
	}

	f.Classify(context.Background(), "vaccines contain microchips", sources)

	require.Len(t, fake.Prompts, 1)
	assert.Contains(t, fake.Prompts[0], "Snopes")
	assert.Contains(t, fake.Prompts[0], "No microchips found.")
	assert.Contains(t, fake.Prompts[0], "rated: False")
}

func TestFallbackExplain(t *testing.T) {
	fake := &llm.FakeClient{Responses: []string{"  Checkers reviewed this claim.  "}}
	f := NewFallback(fake)

	got := f.Explain(context.Background(), "claim", nil)
	assert.Equal(t, "Checkers reviewed this claim.", got)

	f = NewFallback(&llm.FakeClient{Err: errors.New("boom")})
	assert.Equal(t, "", f.Explain(context.Background(), "claim", nil))
}

func TestFallbackCheckAlignmentStrict(t *testing.T) {
	fake := &llm.FakeClient{Responses: []string{
		`{"aligned": false, "reason": "evidence checks the opposite claim"}`,
	}}
	f := NewFallback(fake)

	got := f.CheckAlignmentStrict(context.Background(), "sun rises in the east", nil)
	assert.False(t, got.Aligned)
	assert.Equal(t, 0.0, got.Confidence)
}

func TestFallbackCheckAlignmentStrictFailsOpen(t *testing.T) {
	f := NewFallback(&llm.FakeClient{Err: errors.New("timeout")})
	got := f.CheckAlignmentStrict(context.Background(), "claim", nil)
	assert.True(t, got.Aligned)

	f = NewFallback(&llm.FakeClient{Responses: []string{"not json"}})
	got = f.CheckAlignmentStrict(context.Background(), "claim", nil)
	assert.True(t, got.Aligned)
}

func TestMapLabel(t *testing.T) {
	assert.Equal(t, schema.VerdictTrue, MapLabel("True"))
	assert.Equal(t, schema.VerdictMisleading, MapLabel("False"))
	assert.Equal(t, schema.VerdictUnknown, MapLabel("Unclear"))
	assert.Equal(t, schema.VerdictUnknown, MapLabel("anything else"))
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(`{"a":1}`))
}
