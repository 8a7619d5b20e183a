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
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/FactScreen/services/factcheck/schema"
)

func httpClient() *http.Client {
	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func postGateway(path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient().Post(config.GatewayURL+path, "application/json",
		bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("could not reach the gateway at %s: %w", config.GatewayURL, err)
	}
	return resp, nil
}

func gatewayError(resp *http.Response) error {
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return fmt.Errorf("gateway returned %s: %s", resp.Status, body.Error)
	}
	return fmt.Errorf("gateway returned %s", resp.Status)
}

func buildValidateRequest(args []string) (map[string]string, error) {
	switch {
	case validateURL != "":
		return map[string]string{"url": validateURL}, nil
	case validateImage != "":
		image, err := os.ReadFile(validateImage)
		if err != nil {
			return nil, fmt.Errorf("could not read image %s: %w", validateImage, err)
		}
		return map[string]string{"image_base64": base64.StdEncoding.EncodeToString(image)}, nil
	case len(args) > 0:
		return map[string]string{"text": strings.Join(args, " ")}, nil
	default:
		return nil, fmt.Errorf("provide claim text, --url, or --image")
	}
}

func runValidateCommand(cmd *cobra.Command, args []string) {
	request, err := buildValidateRequest(args)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	endpoint := "/v1/validate"
	if pdfOutput != "" {
		endpoint = "/v1/validate/pdf"
	}
	resp, err := postGateway(endpoint, request)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Error: %v", gatewayError(resp))
	}
	defer resp.Body.Close()

	if pdfOutput != "" {
		pdf, err := io.ReadAll(resp.Body)
		if err != nil {
			log.Fatalf("Error reading the report: %v", err)
		}
		if err := os.WriteFile(pdfOutput, pdf, 0o644); err != nil {
			log.Fatalf("Error writing %s: %v", pdfOutput, err)
		}
		fmt.Printf("Wrote report to %s\n", pdfOutput)
		return
	}

	var body struct {
		Result schema.AggregatedResult `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Fatalf("Error decoding the gateway response: %v", err)
	}
	printResult(body.Result)
}

func printResult(result schema.AggregatedResult) {
	if jsonOutput {
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
		return
	}
	fmt.Printf("Claim:      %s\n", result.ClaimText)
	fmt.Printf("Verdict:    %s\n", result.Verdict)
	fmt.Printf("Confidence: %.0f%%\n", result.Confidence*100)
	if len(result.ProvidersChecked) > 0 {
		names := make([]string, 0, len(result.ProvidersChecked))
		for _, p := range result.ProvidersChecked {
			names = append(names, p.DisplayName())
		}
		fmt.Printf("Providers:  %s\n", strings.Join(names, ", "))
	}
	if result.Explanation != "" {
		fmt.Printf("\n%s\n", result.Explanation)
	}
}
