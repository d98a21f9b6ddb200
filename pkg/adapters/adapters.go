// Package adapters builds the model client used when callers do not inject one.
package adapters

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/FrenchMajesty/problem-matcher/pkg/adapters/gemini"
	"github.com/FrenchMajesty/problem-matcher/pkg/adapters/openai"
	"github.com/FrenchMajesty/problem-matcher/pkg/types"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// NewDefaultModelClient creates a model client for provider ("gemini" when
// empty). A nil apiKey is read from the provider's environment variable.
func NewDefaultModelClient(provider string, apiKey *string, model string, baseURL string) (types.ModelClient, error) {
	switch strings.ToLower(provider) {
	case "", ProviderGemini, "google":
		key, err := loadEnvVar(apiKey, "GOOGLE_API_KEY", "GEMINI_API_KEY")
		if err != nil {
			return nil, err
		}
		client, err := gemini.NewClient(context.Background(), *key, model, baseURL)
		if err != nil {
			return nil, err
		}
		return client, nil

	case ProviderOpenAI:
		key, err := loadEnvVar(apiKey, "OPENAI_API_KEY")
		if err != nil {
			return nil, err
		}
		client, err := openai.NewClient(*key, model, baseURL)
		if err != nil {
			return nil, err
		}
		return client, nil

	default:
		return nil, fmt.Errorf("unknown model provider %q", provider)
	}
}

// loadEnvVar loads the first set environment variable into a pointer if no value is provided
func loadEnvVar(target *string, envKeys ...string) (*string, error) {
	if target != nil {
		return target, nil
	}

	for _, envKey := range envKeys {
		if envVar := os.Getenv(envKey); envVar != "" {
			return &envVar, nil
		}
	}
	return nil, fmt.Errorf("%s environment variable not set and no value provided", strings.Join(envKeys, " or "))
}
