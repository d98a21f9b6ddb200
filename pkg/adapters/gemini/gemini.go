// Package gemini adapts the Google GenAI SDK to types.ModelClient.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/FrenchMajesty/problem-matcher/pkg/types"
)

// DefaultModel is the vision model used when none is configured
const DefaultModel = "gemini-2.5-flash"

// generator is the part of *genai.Models the adapter needs
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client sends constrained tool-calling requests to Gemini
type Client struct {
	models generator
	model  string
}

var _ types.ModelClient = (*Client)(nil)

// NewClient creates a Gemini client. An empty model selects DefaultModel and
// an empty baseURL keeps the SDK default endpoint.
func NewClient(ctx context.Context, apiKey, model, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return newWithGenerator(client.Models, model), nil
}

func newWithGenerator(models generator, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{models: models, model: model}
}

// Model returns the model name requests are sent to
func (c *Client) Model() string {
	return c.model
}

// Invoke sends the image and prompt, forcing a call to req.Tool
func (c *Client) Invoke(ctx context.Context, req types.ModelRequest) (*types.ModelResponse, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(req.Image.Data, req.Image.MimeType),
			genai.NewPartFromText(req.Prompt),
		}, genai.RoleUser),
	}

	resp, err := c.models.GenerateContent(ctx, c.model, contents, GenerateConfig(req.Tool))
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	return convertResponse(resp), nil
}

// GenerateConfig declares tool as the only function and requires the model to call it
func GenerateConfig(tool types.ToolSpec) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Tools: []*genai.Tool{
			{
				FunctionDeclarations: []*genai.FunctionDeclaration{
					{
						Name:        tool.Name,
						Description: tool.Description,
						Parameters: &genai.Schema{
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								tool.Param.Name: paramSchema(tool.Param),
							},
							Required: []string{tool.Param.Name},
						},
					},
				},
			},
		},
		ToolConfig: &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode:                 genai.FunctionCallingConfigModeAny,
				AllowedFunctionNames: []string{tool.Name},
			},
		},
	}
}

func paramSchema(p types.ToolParam) *genai.Schema {
	item := &genai.Schema{
		Type:   genai.TypeString,
		Format: "enum",
		Enum:   p.Enum,
	}

	if !p.IsArray() {
		item.Description = p.Description
		return item
	}

	n := int64(p.Count)
	return &genai.Schema{
		Type:        genai.TypeArray,
		Description: p.Description,
		Items:       item,
		MinItems:    genai.Ptr(n),
		MaxItems:    genai.Ptr(n),
	}
}

func convertResponse(resp *genai.GenerateContentResponse) *types.ModelResponse {
	out := &types.ModelResponse{}
	if resp == nil {
		return out
	}

	for _, fc := range resp.FunctionCalls() {
		if fc == nil {
			continue
		}
		out.ToolCalls = append(out.ToolCalls, types.ToolCall{
			ID:   fc.ID,
			Name: fc.Name,
			Args: fc.Args,
		})
	}

	if len(out.ToolCalls) == 0 {
		out.Text = resp.Text()
	}

	return out
}
