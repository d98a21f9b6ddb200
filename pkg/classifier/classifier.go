// Package classifier asks a vision model to place a problem image on exactly
// one knowledge point path, using a tool whose only parameter is an enum of
// the allowed paths.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/FrenchMajesty/problem-matcher/pkg/adapters"
	"github.com/FrenchMajesty/problem-matcher/pkg/types"
)

// ErrNoChoices is returned when there is nothing to classify against
var ErrNoChoices = errors.New("no knowledge point choices")

// Classifier picks one knowledge point path for a problem image
type Classifier struct {
	model   types.ModelClient
	prompt  string
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a new Classifier with the given configuration
func New(cfg Config) (*Classifier, error) {
	cfg.applyDefaults()

	if cfg.Policy != types.PolicyFailHard {
		return nil, fmt.Errorf("classifier supports only the %s policy, got %s", types.PolicyFailHard, cfg.Policy)
	}

	model := cfg.Model
	if model == nil {
		client, err := adapters.NewDefaultModelClient(cfg.Provider, nil, "", "")
		if err != nil {
			return nil, fmt.Errorf("failed to create default model client: %w", err)
		}
		model = client
	}

	return &Classifier{
		model:   model,
		prompt:  cfg.Prompt,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}, nil
}

// Tool declares the constrained single-choice tool for the given choices
func Tool(choices []string) types.ToolSpec {
	return types.ToolSpec{
		Name:        ToolName,
		Description: "Select the single knowledge point that best matches the math problem.",
		Param: types.ToolParam{
			Name:        ParamName,
			Description: "Knowledge point path of the core concept tested by the problem.",
			Enum:        choices,
		},
	}
}

// Classify returns the knowledge point path the model selected for image.
// Any outcome other than a call to the classification tool with a value drawn
// from choices is an error; there is no fallback.
func (c *Classifier) Classify(ctx context.Context, image types.Image, choices []string) (string, error) {
	if len(choices) == 0 {
		return "", ErrNoChoices
	}

	if len(image.Data) == 0 {
		return "", fmt.Errorf("%w: image %q is empty", types.ErrMissingResource, image.Path)
	}

	req := types.ModelRequest{
		Image:  image,
		Prompt: c.prompt,
		Tool:   Tool(choices),
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.model.Invoke(callCtx, req)
	if err != nil {
		return "", fmt.Errorf("%w: classification call to %s failed: %w", types.ErrTransport, c.model.Model(), err)
	}

	selected, err := parseSelection(resp, choices)
	if err != nil {
		c.logger.Warn("model did not select a knowledge point",
			zap.String("model", c.model.Model()),
			zap.Error(err),
			zap.String("raw_text", resp.RawText()))
		return "", err
	}

	c.logger.Debug("knowledge point selected",
		zap.String("model", c.model.Model()),
		zap.String("path", selected),
		zap.Duration("latency", time.Since(start)))

	return selected, nil
}

// parseSelection validates the response against the closed choice set
func parseSelection(resp *types.ModelResponse, choices []string) (string, error) {
	if resp == nil || len(resp.ToolCalls) == 0 {
		return "", fmt.Errorf("%w: no tool call in response", types.ErrMalformedResponse)
	}

	call := resp.ToolCalls[0]
	if call.Name != ToolName {
		return "", fmt.Errorf("%w: expected tool %q, got %q", types.ErrMalformedResponse, ToolName, call.Name)
	}

	value, ok := call.Args[ParamName].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: tool argument %q missing or not a string", types.ErrMalformedResponse, ParamName)
	}

	for _, choice := range choices {
		if choice == value {
			return value, nil
		}
	}

	return "", fmt.Errorf("%w: %q is not one of the offered choices", types.ErrMalformedResponse, value)
}

