package types

import "context"

// ToolParam is the single parameter of a constrained tool.
// With Count == 0 it is one string drawn from Enum; with Count > 0 it is an
// array of exactly Count strings, each drawn from Enum.
type ToolParam struct {
	Name        string
	Description string
	Enum        []string
	Count       int
}

// IsArray reports whether the parameter is an array of enum values
func (p ToolParam) IsArray() bool {
	return p.Count > 0
}

// ToolSpec declares the one tool the model is allowed to answer with
type ToolSpec struct {
	Name        string
	Description string
	Param       ToolParam
}

// ModelRequest is a single image + prompt + tool invocation
type ModelRequest struct {
	Image  Image
	Prompt string
	Tool   ToolSpec
}

// ToolCall is a structured tool invocation returned by the model
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ModelResponse holds whatever the model answered with. Text is kept for
// diagnostics only; callers must not treat it as an answer.
type ModelResponse struct {
	ToolCalls []ToolCall
	Text      string
}

// RawText returns the free-text part of the response, or "" for a nil response
func (r *ModelResponse) RawText() string {
	if r == nil {
		return ""
	}
	return r.Text
}

// ModelClient sends constrained tool-calling requests to a vision model
type ModelClient interface {
	Invoke(ctx context.Context, req ModelRequest) (*ModelResponse, error)
	Model() string
}

// FailurePolicy decides what a pipeline stage does when the model does not
// return a usable tool call
type FailurePolicy int

const (
	// PolicyDefault lets each stage pick its own policy
	PolicyDefault FailurePolicy = iota

	// PolicyFailHard returns the error and halts the run
	PolicyFailHard

	// PolicyFallback degrades to the full candidate set
	PolicyFallback
)

func (p FailurePolicy) String() string {
	switch p {
	case PolicyFailHard:
		return "fail-hard"
	case PolicyFallback:
		return "fallback"
	default:
		return "default"
	}
}

// ParseFailurePolicy maps "fail-hard" / "fallback" to a policy. Anything else
// is PolicyDefault.
func ParseFailurePolicy(s string) FailurePolicy {
	switch s {
	case "fail-hard", "fail_hard", "hard":
		return PolicyFailHard
	case "fallback", "degrade":
		return PolicyFallback
	default:
		return PolicyDefault
	}
}
