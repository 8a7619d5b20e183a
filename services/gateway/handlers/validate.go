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
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/FactScreen/pkg/validation"
	"github.com/AleutianAI/FactScreen/services/factcheck/schema"
	"github.com/AleutianAI/FactScreen/services/gateway/observability"
	"github.com/AleutianAI/FactScreen/services/report"
)

// Validator runs one validation request end to end. The factcheck pipeline
// is the production implementation.
type Validator interface {
	ValidateText(ctx context.Context, text string) (schema.AggregatedResult, error)
	ValidateURL(ctx context.Context, pageURL string) (schema.AggregatedResult, error)
	ValidateImage(ctx context.Context, image []byte) (schema.AggregatedResult, error)
}

// ValidateRequest is the body for the validation endpoints. Exactly one of
// the inputs must be provided; text wins if several are.
type ValidateRequest struct {
	Text        string `json:"text"`
	URL         string `json:"url"`
	ImageBase64 string `json:"image_base64"`
}

// runValidation binds, sanitizes and dispatches one validation request.
// Returns a zero result and false after writing the error response.
func runValidation(c *gin.Context, v Validator) (schema.AggregatedResult, bool) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return schema.AggregatedResult{}, false
	}

	start := time.Now()
	var (
		result    schema.AggregatedResult
		inputType string
		err       error
	)
	switch {
	case req.Text != "":
		inputType = "text"
		var text string
		if text, err = validation.SanitizeClaim(req.Text); err == nil {
			result, err = v.ValidateText(c.Request.Context(), text)
		}
	case req.URL != "":
		inputType = "url"
		var pageURL string
		if pageURL, err = validation.SanitizeURL(req.URL); err == nil {
			result, err = v.ValidateURL(c.Request.Context(), pageURL)
		}
	case req.ImageBase64 != "":
		inputType = "image"
		var image []byte
		if image, err = base64.StdEncoding.DecodeString(req.ImageBase64); err != nil {
			err = fmt.Errorf("invalid image encoding: %w", err)
		} else {
			result, err = v.ValidateImage(c.Request.Context(), image)
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "one of text, url, or image_base64 is required"})
		return schema.AggregatedResult{}, false
	}

	if err != nil {
		slog.Warn("validation request failed", "input_type", inputType, "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return schema.AggregatedResult{}, false
	}

	observability.ObserveValidation(inputType, string(result.Verdict), result.FallbackUsed, time.Since(start))
	return result, true
}

// HandleValidate returns the JSON validation endpoint.
//
// POST /v1/validate with {text?, url?, image_base64?}; responds with
// {"result": AggregatedResult}.
func HandleValidate(v Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, ok := runValidation(c, v)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": result})
	}
}

// HandleValidatePDF returns the PDF validation endpoint. Same input as
// HandleValidate; responds with the rendered report, the filename carrying
// the verdict.
func HandleValidatePDF(v Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, ok := runValidation(c, v)
		if !ok {
			return
		}
		pdf, err := report.Render(result)
		if err != nil {
			slog.Error("report rendering failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render report"})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(result)))
		c.Data(http.StatusOK, "application/pdf", pdf)
	}
}
