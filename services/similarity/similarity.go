// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package similarity filters claim records by semantic closeness to a query
// using sentence embeddings and cosine similarity.
package similarity

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/AleutianAI/FactScreen/services/factcheck/schema"
)

// DefaultThreshold is the minimum cosine similarity for a claim record to
// survive filtering. Deployments tune this between roughly 0.15 and 0.75.
const DefaultThreshold = 0.4

// Embedder produces one embedding vector per input text. Implementations
// must return vectors in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// =============================================================================
// OpenAI embedder
// =============================================================================

// OpenAIEmbedder computes embeddings through the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder builds an embedder from the OPENAI_API_KEY environment
// variable. The model defaults to text-embedding-3-small and can be
// overridden with OPENAI_EMBEDDING_MODEL.
func NewOpenAIEmbedder() (*OpenAIEmbedder, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	model := openai.EmbeddingModel(os.Getenv("OPENAI_EMBEDDING_MODEL"))
	if model == "" {
		model = openai.SmallEmbedding3
	}
	return &OpenAIEmbedder{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// Embed requests embeddings for all texts in a single API call.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(resp.Data), len(texts))
	}
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		out[d.Index] = d.Embedding
	}
	return out, nil
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// =============================================================================
// Filter
// =============================================================================

// Filter scores claim records against a query and keeps those at or above
// the threshold.
type Filter struct {
	embedder  Embedder
	threshold float64
}

// NewFilter builds a Filter. A threshold of 0 selects DefaultThreshold.
func NewFilter(embedder Embedder, threshold float64) *Filter {
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	return &Filter{embedder: embedder, threshold: threshold}
}

// Apply returns the claims whose text is semantically close to the query,
// each carrying its similarity score, sorted by score descending. Input
// records are not mutated. Records with empty claim text are dropped.
func (f *Filter) Apply(ctx context.Context, claims []schema.ClaimRecord, query string) ([]schema.ClaimRecord, error) {
	if len(claims) == 0 {
		return nil, nil
	}

	kept := make([]schema.ClaimRecord, 0, len(claims))
	texts := make([]string, 0, len(claims)+1)
	texts = append(texts, query)
	for _, c := range claims {
		if strings.TrimSpace(c.Claim) == "" {
			continue
		}
		kept = append(kept, c)
		texts = append(texts, c.Claim)
	}
	if len(kept) == 0 {
		return nil, nil
	}

	vectors, err := f.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed claims: %w", err)
	}

	queryVec := vectors[0]
	out := make([]schema.ClaimRecord, 0, len(kept))
	for i, c := range kept {
		score := Cosine(queryVec, vectors[i+1])
		if score >= f.threshold {
			out = append(out, c.WithSimilarity(score))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].SimilarityScore > *out[j].SimilarityScore
	})
	return out, nil
}

// Cosine computes cosine similarity between two vectors. Returns 0 for
// mismatched lengths or zero vectors.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
