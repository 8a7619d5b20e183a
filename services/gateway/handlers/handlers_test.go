// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for the gateway HTTP handlers

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/FactScreen/services/classifier"
	"github.com/AleutianAI/FactScreen/services/factcheck"
	"github.com/AleutianAI/FactScreen/services/factcheck/schema"
	"github.com/AleutianAI/FactScreen/services/similarity"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// =============================================================================
// Test doubles
// =============================================================================

type stubValidator struct {
	result   schema.AggregatedResult
	err      error
	lastText string
	lastURL  string
	gotImage []byte
}

func (s *stubValidator) ValidateText(ctx context.Context, text string) (schema.AggregatedResult, error) {
	s.lastText = text
	return s.result, s.err
}

func (s *stubValidator) ValidateURL(ctx context.Context, pageURL string) (schema.AggregatedResult, error) {
	s.lastURL = pageURL
	return s.result, s.err
}

func (s *stubValidator) ValidateImage(ctx context.Context, image []byte) (schema.AggregatedResult, error) {
	s.gotImage = image
	return s.result, s.err
}

type stubSearcher struct {
	claims    []schema.ClaimRecord
	err       error
	lastQuery string
}

func (s *stubSearcher) SearchClaims(ctx context.Context, query string) ([]schema.ClaimRecord, error) {
	s.lastQuery = query
	return s.claims, s.err
}

type stubEmbedder struct {
	vectors map[string][]float32
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := s.vectors[t]
		if !ok {
			v = []float32{0, 1}
		}
		out[i] = v
	}
	return out, nil
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func sampleResult() schema.AggregatedResult {
	return schema.AggregatedResult{
		ClaimText:  "The sky is blue.",
		Verdict:    schema.VerdictTrue,
		Votes:      map[schema.Verdict]int{schema.VerdictTrue: 2},
		Confidence: 1.0,
	}
}

// =============================================================================
// HandleValidate Tests
// =============================================================================

func TestHandleValidate_Text(t *testing.T) {
	v := &stubValidator{result: sampleResult()}
	router := gin.New()
	router.POST("/validate", HandleValidate(v))

	w := postJSON(router, "/validate", gin.H{"text": "  The sky   is blue.  "})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "The sky is blue.", v.lastText, "claim should be sanitized before validation")

	var response struct {
		Result schema.AggregatedResult `json:"result"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, schema.VerdictTrue, response.Result.Verdict)
	assert.Equal(t, 1.0, response.Result.Confidence)
}

func TestHandleValidate_URL(t *testing.T) {
	v := &stubValidator{result: sampleResult()}
	router := gin.New()
	router.POST("/validate", HandleValidate(v))

	w := postJSON(router, "/validate", gin.H{"url": "https://example.com/article"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://example.com/article", v.lastURL)
}

func TestHandleValidate_RejectsInternalURL(t *testing.T) {
	v := &stubValidator{result: sampleResult()}
	router := gin.New()
	router.POST("/validate", HandleValidate(v))

	w := postJSON(router, "/validate", gin.H{"url": "http://169.254.169.254/latest/meta-data"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, v.lastURL, "internal URL must not reach the validator")
}

func TestHandleValidate_Image(t *testing.T) {
	v := &stubValidator{result: sampleResult()}
	router := gin.New()
	router.POST("/validate", HandleValidate(v))

	// base64 for "fake-image-bytes"
	w := postJSON(router, "/validate", gin.H{"image_base64": "ZmFrZS1pbWFnZS1ieXRlcw=="})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []byte("fake-image-bytes"), v.gotImage)
}

func TestHandleValidate_BadImageEncoding(t *testing.T) {
	v := &stubValidator{result: sampleResult()}
	router := gin.New()
	router.POST("/validate", HandleValidate(v))

	w := postJSON(router, "/validate", gin.H{"image_base64": "not-base64!!!"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandleValidate_MissingInput(t *testing.T) {
	v := &stubValidator{result: sampleResult()}
	router := gin.New()
	router.POST("/validate", HandleValidate(v))

	w := postJSON(router, "/validate", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleValidate_PipelineError(t *testing.T) {
	v := &stubValidator{err: errors.New("ocr is not configured")}
	router := gin.New()
	router.POST("/validate", HandleValidate(v))

	w := postJSON(router, "/validate", gin.H{"text": "anything at all"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

// =============================================================================
// HandleValidatePDF Tests
// =============================================================================

func TestHandleValidatePDF_ReturnsPDF(t *testing.T) {
	v := &stubValidator{result: sampleResult()}
	router := gin.New()
	router.POST("/validate/pdf", HandleValidatePDF(v))

	w := postJSON(router, "/validate/pdf", gin.H{"text": "The sky is blue."})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "factscreen_report_true.pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}

// =============================================================================
// SearchClaims Tests
// =============================================================================

func testClassifier() *classifier.Classifier {
	return classifier.New(classifier.DefaultVocab(), nil)
}

func TestSearchClaims_ClassifiesResults(t *testing.T) {
	searcher := &stubSearcher{claims: []schema.ClaimRecord{
		{Claim: "The moon is made of cheese", Rating: "Pants on Fire", SourceAPI: "google_factcheck"},
		{Claim: "Water boils at 100C at sea level", Rating: "Accurate", SourceAPI: "google_factcheck"},
	}}
	router := gin.New()
	router.POST("/claims/search", SearchClaims(searcher, testClassifier()))

	w := postJSON(router, "/claims/search", gin.H{"query": "moon cheese"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "moon cheese", searcher.lastQuery)

	var response struct {
		Claims []schema.ClaimRecord `json:"claims"`
		Count  int                  `json:"count"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	require.Equal(t, 2, response.Count)
	assert.Equal(t, classifier.LabelFalse, response.Claims[0].NormalizedRating)
	assert.Equal(t, classifier.LabelTrue, response.Claims[1].NormalizedRating)
}

func TestSearchClaims_MissingQuery(t *testing.T) {
	router := gin.New()
	router.POST("/claims/search", SearchClaims(&stubSearcher{}, testClassifier()))

	w := postJSON(router, "/claims/search", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchClaims_UpstreamFailure(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("quota exceeded")}
	router := gin.New()
	router.POST("/claims/search", SearchClaims(searcher, testClassifier()))

	w := postJSON(router, "/claims/search", gin.H{"query": "anything"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

// =============================================================================
// FilteredClaims Tests
// =============================================================================

func TestFilteredClaims_NoEmbedderConfigured(t *testing.T) {
	router := gin.New()
	router.POST("/claims/filtered", FilteredClaims(&stubSearcher{}, testClassifier(), nil))

	w := postJSON(router, "/claims/filtered", gin.H{"query": "anything"})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestFilteredClaims_DropsDissimilarClaims(t *testing.T) {
	searcher := &stubSearcher{claims: []schema.ClaimRecord{
		{Claim: "related claim", SourceAPI: "google_factcheck"},
		{Claim: "unrelated claim", SourceAPI: "google_factcheck"},
	}}
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"the query":       {1, 0},
		"related claim":   {1, 0},
		"unrelated claim": {0, 1},
	}}
	router := gin.New()
	router.POST("/claims/filtered", FilteredClaims(searcher, testClassifier(), embedder))

	w := postJSON(router, "/claims/filtered", gin.H{"query": "the query", "threshold": similarity.DefaultThreshold})

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Claims []schema.ClaimRecord `json:"claims"`
		Count  int                  `json:"count"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	require.Equal(t, 1, response.Count)
	assert.Equal(t, "related claim", response.Claims[0].Claim)
	require.NotNil(t, response.Claims[0].SimilarityScore)
	assert.InDelta(t, 1.0, *response.Claims[0].SimilarityScore, 1e-6)
}

func TestHandleValidate_ImageWithoutOCR(t *testing.T) {
	// Production wiring carries no OCR extractor; image submissions must
	// come back as a configuration error, not a verdict.
	p := factcheck.NewPipeline(nil, nil, nil, factcheck.NewAggregator(nil))
	router := gin.New()
	router.POST("/validate", HandleValidate(p))

	w := postJSON(router, "/validate", gin.H{"image_base64": "ZmFrZS1pbWFnZS1ieXRlcw=="})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "image validation is not configured")
}
