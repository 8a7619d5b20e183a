// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/FactScreen/services/classifier"
	"github.com/AleutianAI/FactScreen/services/gateway/handlers"
	"github.com/AleutianAI/FactScreen/services/gateway/observability"
	"github.com/AleutianAI/FactScreen/services/similarity"
)

func SetupRoutes(router *gin.Engine, validator handlers.Validator, searcher handlers.ClaimSearcher,
	clf *classifier.Classifier, embedder similarity.Embedder) {

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", observability.MetricsHandler())

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.POST("/validate", handlers.HandleValidate(validator))
		v1.POST("/validate/pdf", handlers.HandleValidatePDF(validator))
		claims := v1.Group("/claims")
		{
			claims.POST("/search", handlers.SearchClaims(searcher, clf))
			claims.POST("/filtered", handlers.FilteredClaims(searcher, clf, embedder))
		}
	}
}
