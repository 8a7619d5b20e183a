// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package factcheck

import (
	"strings"

	"github.com/AleutianAI/FactScreen/services/factcheck/schema"
)

// Maximum snippet length carried into a source citation line.
const snippetMaxLen = 120

// SourcesHeader is the literal header introducing the citation block appended
// to explanations. The report layer parses it back out of the explanation.
const SourcesHeader = "Sources:"

// truncateSnippet caps a snippet at snippetMaxLen runes, marking the cut.
func truncateSnippet(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= snippetMaxLen {
		return s
	}
	return string(runes[:snippetMaxLen]) + "..."
}

// sourceLine renders one citation bullet. Missing fields are omitted and the
// pipe separators collapse with them, so a record carrying only a name still
// renders cleanly.
func sourceLine(src schema.SourceRecord) string {
	parts := make([]string, 0, 4)
	name := strings.TrimSpace(src.Source)
	if name == "" && src.Provider != "" {
		name = src.Provider.DisplayName()
	}
	if name != "" {
		parts = append(parts, name)
	}
	verdict := strings.TrimSpace(src.Verdict)
	if verdict == "" {
		verdict = strings.TrimSpace(src.Rating)
	}
	if verdict != "" {
		parts = append(parts, "verdict: "+verdict)
	}
	if snippet := truncateSnippet(src.Snippet); snippet != "" {
		parts = append(parts, "snippet: "+snippet)
	}
	if url := strings.TrimSpace(src.URL); url != "" {
		parts = append(parts, url)
	}
	if len(parts) == 0 {
		return ""
	}
	return "- " + strings.Join(parts, " | ")
}

// AppendSources appends the "Sources:" citation block to an explanation.
//
// An empty explanation is returned unchanged regardless of sources: a bare
// citation block with no prose above it reads as a bug. Records that render
// to nothing are dropped; if every record does, no block is appended.
func AppendSources(explanation string, sources []schema.SourceRecord) string {
	if strings.TrimSpace(explanation) == "" {
		return explanation
	}
	lines := make([]string, 0, len(sources))
	for _, src := range sources {
		if line := sourceLine(src); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return explanation
	}
	return strings.TrimRight(explanation, " \n") + "\n\n" + SourcesHeader + "\n" + strings.Join(lines, "\n")
}

// sourcesFromResults synthesizes transient source records from voting
// provider results, for when the caller supplied no explicit sources. The
// caller is responsible for alignment filtering; see AlignedResults.
func sourcesFromResults(results []schema.ProviderResult) []schema.SourceRecord {
	out := make([]schema.SourceRecord, 0, len(results))
	for _, r := range results {
		if r.Verdict == schema.VerdictUnknown {
			continue
		}
		out = append(out, schema.SourceFromProviderResult(r))
	}
	return out
}
