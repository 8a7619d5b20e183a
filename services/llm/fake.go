// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"sync"
)

// FakeClient is a deterministic LLMClient for tests. It replays scripted
// responses in order (repeating the last one once exhausted) and records
// every prompt it received.
type FakeClient struct {
	Responses []string
	Err       error

	mu      sync.Mutex
	calls   int
	Prompts []string
}

func NewFake(responses ...string) *FakeClient {
	return &FakeClient{Responses: responses}
}

// Generate implements the LLMClient interface
func (f *FakeClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Prompts = append(f.Prompts, prompt)
	f.calls++
	if f.Err != nil {
		return "", f.Err
	}
	if len(f.Responses) == 0 {
		return "", nil
	}
	idx := f.calls - 1
	if idx >= len(f.Responses) {
		idx = len(f.Responses) - 1
	}
	return f.Responses[idx], nil
}

// Calls reports how many times Generate was invoked.
func (f *FakeClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var _ LLMClient = (*FakeClient)(nil)
