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
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	validateURL    string
	validateImage  string
	pdfOutput      string
	claimThreshold float64
	jsonOutput     bool

	rootCmd = &cobra.Command{
		Use:   "factscreen",
		Short: "A cli for validating claims against fact-checking sources",
		Long: `FactScreen checks a claim, article URL, or screenshot against
published fact-check reviews and reports an aggregated verdict.`,
	}

	validateCmd = &cobra.Command{
		Use:   "validate [claim text]",
		Short: "Validate a claim and print the aggregated verdict",
		Run:   runValidateCommand, // Defined in cmd_validate.go
	}

	claimsCmd = &cobra.Command{
		Use:   "claims [query]",
		Short: "Search published fact-check reviews for a query",
		Run:   runClaimsCommand, // Defined in cmd_claims.go
	}

	healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Check that the gateway service is up",
		Run:   runHealthCommand, // Defined in cmd_claims.go
	}
)

func init() {
	validateCmd.Flags().StringVar(&validateURL, "url", "",
		"Validate the main claim of this article URL instead of text")
	validateCmd.Flags().StringVar(&validateImage, "image", "",
		"Validate the text extracted from this image file instead of text")
	validateCmd.Flags().StringVar(&pdfOutput, "pdf", "",
		"Write a PDF report to this path instead of printing the verdict")
	validateCmd.Flags().BoolVar(&jsonOutput, "json", false,
		"Print the full aggregated result as JSON")

	claimsCmd.Flags().Float64Var(&claimThreshold, "threshold", 0,
		"Filter reviews by semantic similarity at this threshold (0 disables filtering)")
	claimsCmd.Flags().BoolVar(&jsonOutput, "json", false,
		"Print the claim records as JSON")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(claimsCmd)
	rootCmd.AddCommand(healthCmd)
}
