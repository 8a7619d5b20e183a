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
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config carries the CLI settings loaded from factscreen.yaml.
type Config struct {
	GatewayURL string `yaml:"gateway_url"`
	Timeout    string `yaml:"timeout"`
}

var config = Config{
	GatewayURL: "http://localhost:12310",
	Timeout:    "60s",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		configPath := os.Getenv("FACTSCREEN_CONFIG")
		if configPath == "" {
			configPath = "factscreen.yaml"
		}
		yamlFile, err := os.ReadFile(configPath)
		if err != nil {
			// Defaults are fine when no config file exists.
			return
		}
		if err := yaml.Unmarshal(yamlFile, &config); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		if gatewayURL := os.Getenv("FACTSCREEN_GATEWAY_URL"); gatewayURL != "" {
			config.GatewayURL = gatewayURL
		}
	}
}
