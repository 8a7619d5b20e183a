// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report renders a finished validation result as a PDF document.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/AleutianAI/FactScreen/services/factcheck"
	"github.com/AleutianAI/FactScreen/services/factcheck/schema"
)

const disclaimer = "This report aggregates third-party fact-check findings and " +
	"automated analysis. It is informational and does not constitute a " +
	"definitive ruling on the claim."

// Filename returns the download filename for a result's report. The verdict
// is part of the name so downloads are self-describing.
func Filename(result schema.AggregatedResult) string {
	return fmt.Sprintf("factscreen_report_%s.pdf", string(result.Verdict))
}

// verdictColor returns the RGB highlight for a verdict banner.
func verdictColor(v schema.Verdict) (r, g, b int) {
	switch v {
	case schema.VerdictTrue:
		return 46, 125, 50 // green
	case schema.VerdictMisleading:
		return 198, 40, 40 // red
	default:
		return 97, 97, 97 // grey
	}
}

// ParseSources splits an explanation into its prose and the parsed citation
// records from the trailing "Sources:" block. An explanation without a block
// returns the full text and no sources.
func ParseSources(explanation string) (string, []schema.SourceRecord) {
	marker := "\n" + factcheck.SourcesHeader + "\n"
	idx := strings.LastIndex(explanation, marker)
	if idx < 0 {
		return strings.TrimSpace(explanation), nil
	}
	prose := strings.TrimSpace(explanation[:idx])
	var sources []schema.SourceRecord
	for _, line := range strings.Split(explanation[idx+len(marker):], "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "- ") {
			continue
		}
		sources = append(sources, parseSourceLine(strings.TrimPrefix(line, "- ")))
	}
	return prose, sources
}

// parseSourceLine is the inverse of the composer's bullet format: fields are
// pipe-separated, tagged fields carry a "verdict:" or "snippet:" prefix, a
// URL is recognized by scheme, and the first untagged field is the name.
func parseSourceLine(line string) schema.SourceRecord {
	var src schema.SourceRecord
	for _, part := range strings.Split(line, " | ") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "verdict: "):
			src.Verdict = strings.TrimPrefix(part, "verdict: ")
		case strings.HasPrefix(part, "snippet: "):
			src.Snippet = strings.TrimPrefix(part, "snippet: ")
		case strings.HasPrefix(part, "http://"), strings.HasPrefix(part, "https://"):
			src.URL = part
		case src.Source == "" && part != "":
			src.Source = part
		}
	}
	return src
}

// =============================================================================
// PDF rendering
// =============================================================================

// Render produces the report PDF for one validation result.
func Render(result schema.AggregatedResult) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("FactScreen Validation Report", false)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "FactScreen Validation Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, "Generated "+time.Now().UTC().Format("2006-01-02 15:04 UTC"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// Claim
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Claim", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, result.ClaimText, "", "L", false)
	pdf.Ln(2)

	// Verdict banner
	r, g, b := verdictColor(result.Verdict)
	pdf.SetFillColor(r, g, b)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 13)
	banner := fmt.Sprintf("Verdict: %s    Confidence: %.0f%%",
		strings.ToUpper(string(result.Verdict)), result.Confidence*100)
	pdf.CellFormat(0, 10, banner, "", 1, "C", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	// Vote breakdown
	if len(result.Votes) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "Vote Breakdown", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, v := range []schema.Verdict{schema.VerdictTrue, schema.VerdictMisleading, schema.VerdictUnknown} {
			if n, ok := result.Votes[v]; ok {
				pdf.CellFormat(0, 6, fmt.Sprintf("%s: %d", string(v), n), "", 1, "L", false, 0, "")
			}
		}
		pdf.Ln(2)
	}

	// Explanation and parsed sources
	prose, sources := ParseSources(result.Explanation)
	if prose != "" {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "Explanation", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, prose, "", "L", false)
		pdf.Ln(2)
	}
	if len(sources) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "Sources", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, s := range sources {
			line := s.Source
			if s.Verdict != "" {
				line += " (" + s.Verdict + ")"
			}
			if s.Snippet != "" {
				line += ": " + s.Snippet
			}
			pdf.MultiCell(0, 5, line, "", "L", false)
			if s.URL != "" {
				pdf.SetTextColor(21, 101, 192)
				pdf.MultiCell(0, 5, s.URL, "", "L", false)
				pdf.SetTextColor(0, 0, 0)
			}
			pdf.Ln(1)
		}
		pdf.Ln(1)
	}

	// Provider findings table
	if len(result.ProviderResults) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "Provider Findings", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(235, 235, 235)
		pdf.CellFormat(55, 7, "Provider", "1", 0, "L", true, 0, "")
		pdf.CellFormat(30, 7, "Verdict", "1", 0, "L", true, 0, "")
		pdf.CellFormat(105, 7, "Rating", "1", 1, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, pr := range result.ProviderResults {
			pdf.CellFormat(55, 7, pr.Provider.DisplayName(), "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 7, string(pr.Verdict), "1", 0, "L", false, 0, "")
			pdf.CellFormat(105, 7, truncate(pr.Rating, 70), "1", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}

	// Disclaimer
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.MultiCell(0, 4, disclaimer, "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
