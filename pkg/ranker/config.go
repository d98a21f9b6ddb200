package ranker

import (
	"time"

	"go.uber.org/zap"

	"github.com/FrenchMajesty/problem-matcher/pkg/types"
)

const (
	// ToolName is the function the model must call to answer
	ToolName = "select_top_three_problems"

	// ParamName is the tool parameter carrying the selected ids
	ParamName = "top_three_ids"

	// SelectCount is how many ids a valid answer contains
	SelectCount = 3

	// DefaultTimeout bounds a single ranking call
	DefaultTimeout = 60 * time.Second
)

const defaultPromptTemplate = `This image is my original problem. Below is a list of problems from the problem bank that may be related to it.

Compare the problem in the image with every problem in the list, then call the ` + "`select_top_three_problems`" + ` tool and return the ids of the three problems that are the most relevant and most similar to the problem in the image.

Candidate problems:
---
%s`

// Config holds configuration for the Ranker
type Config struct {
	// Model answers the constrained tool call. If nil, uses the default provider from the environment.
	Model types.ModelClient

	// Provider selects the default model client when Model is nil ("gemini" or "openai")
	Provider string

	// PromptTemplate replaces the default instruction. It must contain one %s
	// verb, which receives the formatted candidate list.
	PromptTemplate string

	// Timeout bounds the model call. If 0, uses DefaultTimeout.
	Timeout time.Duration

	// Policy decides what happens when the model answer is unusable.
	// PolicyDefault means PolicyFallback.
	Policy types.FailurePolicy

	// Logger receives diagnostics. If nil, logging is disabled.
	Logger *zap.Logger
}

// applyDefaults fills in default values for unset config fields
func (c *Config) applyDefaults() {
	if c.PromptTemplate == "" {
		c.PromptTemplate = defaultPromptTemplate
	}

	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}

	if c.Policy == types.PolicyDefault {
		c.Policy = types.PolicyFallback
	}

	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}
