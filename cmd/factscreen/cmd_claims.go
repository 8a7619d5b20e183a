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
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/FactScreen/services/factcheck/schema"
)

func runClaimsCommand(cmd *cobra.Command, args []string) {
	if len(args) == 0 {
		log.Fatalf("Error: provide a query, e.g. factscreen claims \"vaccines cause autism\"")
	}
	query := strings.Join(args, " ")

	endpoint := "/v1/claims/search"
	request := map[string]any{"query": query}
	if claimThreshold > 0 {
		endpoint = "/v1/claims/filtered"
		request["threshold"] = claimThreshold
	}

	resp, err := postGateway(endpoint, request)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Error: %v", gatewayError(resp))
	}
	defer resp.Body.Close()

	var body struct {
		Claims []schema.ClaimRecord `json:"claims"`
		Count  int                  `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Fatalf("Error decoding the gateway response: %v", err)
	}

	if jsonOutput {
		out, _ := json.MarshalIndent(body.Claims, "", "  ")
		fmt.Println(string(out))
		return
	}

	if body.Count == 0 {
		fmt.Println("No published reviews matched the query.")
		return
	}
	fmt.Printf("Found %d review(s):\n\n", body.Count)
	for _, claim := range body.Claims {
		fmt.Printf("- %s\n", claim.Claim)
		if claim.Publisher != "" {
			fmt.Printf("  Publisher: %s\n", claim.Publisher)
		}
		if claim.Rating != "" {
			fmt.Printf("  Rating:    %s\n", claim.Rating)
		}
		if claim.NormalizedRating != "" {
			fmt.Printf("  Verdict:   %s\n", claim.NormalizedRating)
		}
		if claim.SimilarityScore != nil {
			fmt.Printf("  Similarity: %.2f\n", *claim.SimilarityScore)
		}
		if claim.ReviewLink != "" {
			fmt.Printf("  Review:    %s\n", claim.ReviewLink)
		}
		fmt.Println()
	}
}

func runHealthCommand(cmd *cobra.Command, args []string) {
	resp, err := httpClient().Get(config.GatewayURL + "/health")
	if err != nil {
		log.Fatalf("Gateway is unreachable at %s: %v", config.GatewayURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Gateway is unhealthy: %s", resp.Status)
	}
	fmt.Printf("Gateway at %s is healthy.\n", config.GatewayURL)
}
