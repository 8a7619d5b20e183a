// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability exposes Prometheus metrics for the gateway service.
package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	validationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factscreen_validations_total",
		Help: "Validation requests processed, by input type and final verdict.",
	}, []string{"input_type", "verdict"})

	validationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "factscreen_validation_duration_seconds",
		Help:    "End-to-end validation latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"input_type"})

	fallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factscreen_fallbacks_total",
		Help: "Validations whose verdict came from the LLM fallback instead of the provider vote.",
	}, []string{"input_type"})
)

// ObserveValidation records the outcome and latency of one validation.
func ObserveValidation(inputType, verdict string, fallbackUsed bool, d time.Duration) {
	validationsTotal.WithLabelValues(inputType, verdict).Inc()
	validationDuration.WithLabelValues(inputType).Observe(d.Seconds())
	if fallbackUsed {
		fallbacksTotal.WithLabelValues(inputType).Inc()
	}
}

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
