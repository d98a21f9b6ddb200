package testutil

import (
	"context"
	"sync"

	"github.com/FrenchMajesty/problem-matcher/pkg/types"
)

// MockModelClient is a mock implementation of types.ModelClient for testing
type MockModelClient struct {
	InvokeFunc func(ctx context.Context, req types.ModelRequest) (*types.ModelResponse, error)
	ModelName  string

	mu          sync.Mutex
	CallCount   int
	LastRequest types.ModelRequest
}

func (m *MockModelClient) Invoke(ctx context.Context, req types.ModelRequest) (*types.ModelResponse, error) {
	m.mu.Lock()
	m.CallCount++
	m.LastRequest = req
	m.mu.Unlock()

	if m.InvokeFunc != nil {
		return m.InvokeFunc(ctx, req)
	}

	// Default: answer with the first enum value(s) of the declared tool
	return AnswerWith(req.Tool, FirstChoices(req.Tool.Param)), nil
}

func (m *MockModelClient) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

// Calls returns the number of Invoke calls so far
func (m *MockModelClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// FirstChoices picks the leading enum values a well-behaved model could return
func FirstChoices(p types.ToolParam) any {
	if !p.IsArray() {
		if len(p.Enum) == 0 {
			return ""
		}
		return p.Enum[0]
	}

	n := p.Count
	if n > len(p.Enum) {
		n = len(p.Enum)
	}
	out := make([]any, n)
	for i := 0; i < n; i++ {
		out[i] = p.Enum[i]
	}
	return out
}

// AnswerWith builds a response that calls the given tool with value as its parameter
func AnswerWith(tool types.ToolSpec, value any) *types.ModelResponse {
	return &types.ModelResponse{
		ToolCalls: []types.ToolCall{
			{
				ID:   "call_1",
				Name: tool.Name,
				Args: map[string]any{tool.Param.Name: value},
			},
		},
	}
}

// StringSlice converts ids to the []any shape decoded JSON arrays have
func StringSlice(ids ...string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

// MockCatalog is a mock taxonomy source for testing
type MockCatalog struct {
	FetchTreeFunc func(ctx context.Context) ([]types.TaxonomyNode, error)
	Roots         []types.TaxonomyNode

	mu        sync.Mutex
	CallCount int
}

func (m *MockCatalog) FetchTree(ctx context.Context) ([]types.TaxonomyNode, error) {
	m.mu.Lock()
	m.CallCount++
	m.mu.Unlock()

	if m.FetchTreeFunc != nil {
		return m.FetchTreeFunc(ctx)
	}
	return m.Roots, nil
}

// MockSearch is a mock problem search for testing
type MockSearch struct {
	SearchFunc func(ctx context.Context, knowledgePointID string) ([]types.Problem, error)
	Problems   []types.Problem

	mu        sync.Mutex
	CallCount int
	LastID    string
}

func (m *MockSearch) SearchByKnowledgePoint(ctx context.Context, knowledgePointID string) ([]types.Problem, error) {
	m.mu.Lock()
	m.CallCount++
	m.LastID = knowledgePointID
	m.mu.Unlock()

	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, knowledgePointID)
	}
	return m.Problems, nil
}

// Problems builds bare problems with the given ids
func Problems(ids ...string) []types.Problem {
	out := make([]types.Problem, len(ids))
	for i, id := range ids {
		out[i] = types.Problem{QuestionID: id, QuestionArticle: "<p>problem " + id + "</p>"}
	}
	return out
}

// Image returns a tiny in-memory PNG stand-in
func Image() types.Image {
	return types.Image{
		Path:     "math_problem.png",
		MimeType: "image/png",
		Data:     []byte("\x89PNG\r\n\x1a\n"),
	}
}
