// Package openai adapts the OpenAI chat completions API to types.ModelClient.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/FrenchMajesty/problem-matcher/pkg/types"
)

// DefaultModel is the vision model used when none is configured
const DefaultModel = "gpt-4.1-mini"

// Client sends constrained tool-calling requests to OpenAI
type Client struct {
	client openai.Client
	model  string
}

var _ types.ModelClient = (*Client)(nil)

// NewClient creates an OpenAI client. Retries are disabled: a failed call is
// reported once and the caller decides what to do with it.
func NewClient(apiKey, model, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	if model == "" {
		model = DefaultModel
	}

	return &Client{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// Model returns the model name requests are sent to
func (c *Client) Model() string {
	return c.model
}

// Invoke sends the prompt and image, forcing a call to req.Tool
func (c *Client) Invoke(ctx context.Context, req types.ModelRequest) (*types.ModelResponse, error) {
	tool, err := convertTool(req.Tool)
	if err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(req.Prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: dataURL(req.Image),
				}),
			}),
		},
		Tools: []openai.ChatCompletionToolParam{tool},
		ToolChoice: openai.ChatCompletionToolChoiceOptionUnionParam{
			OfChatCompletionNamedToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{
					Name: req.Tool.Name,
				},
			},
		},
		ParallelToolCalls: openai.Bool(false),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}

	return convertResponse(resp), nil
}

func convertTool(spec types.ToolSpec) (openai.ChatCompletionToolParam, error) {
	params, err := functionParameters(ParamSchema(spec.Param))
	if err != nil {
		return openai.ChatCompletionToolParam{}, err
	}

	return openai.ChatCompletionToolParam{
		Function: shared.FunctionDefinitionParam{
			Name:        spec.Name,
			Description: openai.String(spec.Description),
			Parameters:  params,
		},
	}, nil
}

func convertResponse(resp *openai.ChatCompletion) *types.ModelResponse {
	out := &types.ModelResponse{}
	if resp == nil || len(resp.Choices) == 0 {
		return out
	}

	msg := resp.Choices[0].Message
	out.Text = msg.Content

	for _, tc := range msg.ToolCalls {
		var args map[string]any
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			// Leave Args empty so the caller rejects the call; keep the raw text for logs.
			out.Text = tc.Function.Arguments
		}

		out.ToolCalls = append(out.ToolCalls, types.ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: args,
		})
	}

	return out
}

func dataURL(img types.Image) string {
	return "data:" + img.MimeType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
