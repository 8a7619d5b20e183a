// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/FactScreen/pkg/validation"
	"github.com/AleutianAI/FactScreen/services/classifier"
	"github.com/AleutianAI/FactScreen/services/factcheck/schema"
	"github.com/AleutianAI/FactScreen/services/similarity"
)

// ClaimSearcher returns published claim reviews matching a query.
type ClaimSearcher interface {
	SearchClaims(ctx context.Context, query string) ([]schema.ClaimRecord, error)
}

// ClaimsRequest is the body for the claim-search endpoints.
type ClaimsRequest struct {
	Query     string  `json:"query" binding:"required"`
	Threshold float64 `json:"threshold"`
}

func bindClaimsRequest(c *gin.Context) (ClaimsRequest, string, bool) {
	var req ClaimsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return req, "", false
	}
	query, err := validation.SanitizeClaim(req.Query)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, "", false
	}
	return req, query, true
}

// SearchClaims returns the raw claim-search endpoint: published reviews
// matching the query, each classified into a normalized rating label.
//
// POST /v1/claims/search with {"query": "..."}.
func SearchClaims(searcher ClaimSearcher, clf *classifier.Classifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, query, ok := bindClaimsRequest(c)
		if !ok {
			return
		}
		claims, err := searcher.SearchClaims(c.Request.Context(), query)
		if err != nil {
			slog.Warn("claim search failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "claim search failed"})
			return
		}
		claims = clf.ClassifyBatch(c.Request.Context(), claims)
		c.JSON(http.StatusOK, gin.H{"claims": claims, "count": len(claims)})
	}
}

// FilteredClaims returns the similarity-filtered claim-search endpoint:
// like SearchClaims, but keeps only reviews semantically close to the query,
// sorted by similarity.
//
// POST /v1/claims/filtered with {"query": "...", "threshold": 0.4}.
// The threshold is optional; 0 selects the server default.
func FilteredClaims(searcher ClaimSearcher, clf *classifier.Classifier, embedder similarity.Embedder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if embedder == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "similarity filtering is not configured"})
			return
		}
		req, query, ok := bindClaimsRequest(c)
		if !ok {
			return
		}
		claims, err := searcher.SearchClaims(c.Request.Context(), query)
		if err != nil {
			slog.Warn("claim search failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "claim search failed"})
			return
		}
		filter := similarity.NewFilter(embedder, req.Threshold)
		claims, err = filter.Apply(c.Request.Context(), claims, query)
		if err != nil {
			slog.Warn("similarity filtering failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "similarity filtering failed"})
			return
		}
		claims = clf.ClassifyBatch(c.Request.Context(), claims)
		c.JSON(http.StatusOK, gin.H{"claims": claims, "count": len(claims)})
	}
}
