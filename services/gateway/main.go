// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/FactScreen/services/classifier"
	"github.com/AleutianAI/FactScreen/services/factcheck"
	"github.com/AleutianAI/FactScreen/services/gateway/middleware"
	"github.com/AleutianAI/FactScreen/services/gateway/routes"
	"github.com/AleutianAI/FactScreen/services/llm"
	"github.com/AleutianAI/FactScreen/services/providers"
	"github.com/AleutianAI/FactScreen/services/similarity"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
)

var globalLLMClient llm.LLMClient

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "factscreen-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("gateway-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func loadVocab() classifier.Vocab {
	vocabPath := os.Getenv("CLASSIFIER_VOCAB_PATH")
	if vocabPath == "" {
		return classifier.DefaultVocab()
	}
	vocab, err := classifier.LoadVocab(vocabPath)
	if err != nil {
		slog.Warn("Could not load classifier vocab, using defaults",
			"path", vocabPath, "error", err)
		return classifier.DefaultVocab()
	}
	return vocab
}

func main() {
	port := os.Getenv("GATEWAY_PORT")
	if port == "" {
		port = "12310"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// --- Init the tracer ---
	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	log.Println("Configuring the LLM Client")
	llmBackendType := os.Getenv("LLM_BACKEND_TYPE")

	switch llmBackendType {
	case "openai":
		globalLLMClient, err = llm.NewOpenAIClient()
		slog.Info("Using OpenAI LLM backend")
	case "gemini":
		globalLLMClient, err = llm.NewGeminiClient(context.Background())
		slog.Info("Using Gemini LLM backend")
	case "", "none":
		slog.Warn("LLM_BACKEND_TYPE not set, verdict fallback and zero-shot classification disabled")
	default:
		log.Fatalf("Unknown LLM_BACKEND_TYPE %q (want openai, gemini, or none)", llmBackendType)
	}
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	clf := classifier.New(loadVocab(), globalLLMClient)

	var fetchers []providers.Fetcher
	googleFetcher := providers.NewGoogleFetcher(os.Getenv("GOOGLE_FACTCHECK_API_KEY"), clf, nil)
	if os.Getenv("GOOGLE_FACTCHECK_API_KEY") != "" {
		fetchers = append(fetchers, googleFetcher)
	}
	if key := os.Getenv("RAPIDAPI_KEY"); key != "" {
		fetchers = append(fetchers, providers.NewRapidFetcher(key, clf, nil))
	}
	if key := os.Getenv("CLAIMBUSTER_API_KEY"); key != "" {
		fetchers = append(fetchers, providers.NewClaimBusterFetcher(key, clf, nil))
	}
	if len(fetchers) == 0 {
		slog.Warn("No fact-check provider API keys configured, validations will rely on the LLM fallback")
	}
	search := providers.NewSearch(nil, fetchers...)

	var embedder similarity.Embedder
	if os.Getenv("OPENAI_API_KEY") != "" {
		openAIEmbedder, err := similarity.NewOpenAIEmbedder()
		if err != nil {
			slog.Warn("Could not initialize the OpenAI embedder, claim filtering disabled", "error", err)
		} else {
			embedder = openAIEmbedder
		}
	} else {
		slog.Info("OPENAI_API_KEY not set, claim filtering disabled")
	}

	aggregator := factcheck.NewAggregator(factcheck.NewFallback(globalLLMClient))
	pipeline := factcheck.NewPipeline(search, providers.NewPageFetcher(nil), nil, aggregator)

	router := gin.Default()
	router.Use(otelgin.Middleware("gateway-service"))
	router.Use(middleware.RequestID())

	routes.SetupRoutes(router, pipeline, googleFetcher, clf, embedder)
	log.Println("started up the container")

	log.Println("Starting the gateway server on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
