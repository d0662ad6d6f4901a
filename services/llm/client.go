package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// LLMClient defines the standard interface for any LLM backend.
//
// Invoke submits exactly one system/user message pair with a bounded output
// budget and returns the raw response text. No multi-turn state is kept.
type LLMClient interface {
	Invoke(ctx context.Context, systemPrompt, userPrompt string, maxOutputTokens int) (string, error)
}

// NewFromEnv selects a backend from LLM_PROVIDER ("anthropic" or "openai",
// default "anthropic").
//
// Returns (nil, nil) when the selected provider's API key is absent: insight
// generation is an optional feature, so a missing key is a configuration gate
// rather than an error.
func NewFromEnv() (LLMClient, error) {
	provider := strings.ToLower(os.Getenv("LLM_PROVIDER"))
	switch provider {
	case "", "anthropic":
		c, err := NewAnthropicClient()
		if c == nil || err != nil {
			// A typed nil pointer inside the interface would defeat the
			// caller's nil check, so return an untyped nil explicitly.
			return nil, err
		}
		return c, nil
	case "openai":
		c, err := NewOpenAIClient()
		if c == nil || err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", provider)
	}
}

// readSecret loads an API key from the environment, falling back to the
// container secrets mount the way our other services do.
func readSecret(envVar, secretName string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	secretPath := "/run/secrets/" + secretName
	if content, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(content))
	}
	return ""
}
