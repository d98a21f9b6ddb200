package classifier

import (
	"time"

	"go.uber.org/zap"

	"github.com/FrenchMajesty/problem-matcher/pkg/types"
)

const (
	// ToolName is the function the model must call to answer
	ToolName = "select_knowledge_point"

	// ParamName is the tool parameter carrying the chosen path
	ParamName = "knowledge_point_path"

	// DefaultTimeout bounds a single classification call
	DefaultTimeout = 60 * time.Second
)

const defaultPrompt = "Read the math problem in the image carefully, then call the `select_knowledge_point` tool " +
	"to choose the one knowledge point path that is most relevant to the problem."

// Config holds configuration for the Classifier
type Config struct {
	// Model answers the constrained tool call. If nil, uses the default provider from the environment.
	Model types.ModelClient

	// Provider selects the default model client when Model is nil ("gemini" or "openai")
	Provider string

	// Prompt replaces the default instruction sent alongside the image
	Prompt string

	// Timeout bounds the model call. If 0, uses DefaultTimeout.
	Timeout time.Duration

	// Policy must be PolicyDefault or PolicyFailHard. A classification has no
	// candidate set to degrade to.
	Policy types.FailurePolicy

	// Logger receives diagnostics. If nil, logging is disabled.
	Logger *zap.Logger
}

// applyDefaults fills in default values for unset config fields
func (c *Config) applyDefaults() {
	if c.Prompt == "" {
		c.Prompt = defaultPrompt
	}

	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}

	if c.Policy == types.PolicyDefault {
		c.Policy = types.PolicyFailHard
	}

	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}
