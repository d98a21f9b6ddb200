// Package ranker narrows a list of candidate problems to the three that best
// match a problem image, using a tool whose only parameter is a fixed-size
// array of candidate ids.
package ranker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FrenchMajesty/problem-matcher/pkg/adapters"
	"github.com/FrenchMajesty/problem-matcher/pkg/types"
)

// Ranker selects the best matching candidates for a problem image
type Ranker struct {
	model          types.ModelClient
	promptTemplate string
	timeout        time.Duration
	policy         types.FailurePolicy
	logger         *zap.Logger
}

// New creates a new Ranker with the given configuration
func New(cfg Config) (*Ranker, error) {
	cfg.applyDefaults()

	if cfg.Policy != types.PolicyFallback && cfg.Policy != types.PolicyFailHard {
		return nil, fmt.Errorf("unknown ranker policy %d", cfg.Policy)
	}

	if strings.Count(cfg.PromptTemplate, "%s") != 1 {
		return nil, fmt.Errorf("prompt template must contain exactly one %%s verb")
	}

	model := cfg.Model
	if model == nil {
		client, err := adapters.NewDefaultModelClient(cfg.Provider, nil, "", "")
		if err != nil {
			return nil, fmt.Errorf("failed to create default model client: %w", err)
		}
		model = client
	}

	return &Ranker{
		model:          model,
		promptTemplate: cfg.PromptTemplate,
		timeout:        cfg.Timeout,
		policy:         cfg.Policy,
		logger:         cfg.Logger,
	}, nil
}

// Policy returns the failure policy in effect
func (r *Ranker) Policy() types.FailurePolicy {
	return r.policy
}

// Tool declares the constrained subset tool for the given candidate ids
func Tool(ids []string) types.ToolSpec {
	return types.ToolSpec{
		Name:        ToolName,
		Description: "From a list of candidate problems, select the ids of the three problems most similar to the problem in the image.",
		Param: types.ToolParam{
			Name:        ParamName,
			Description: "The ids of the three most relevant problems.",
			Enum:        uniqueIDs(ids),
			Count:       SelectCount,
		},
	}
}

// FormatCandidates renders the candidate block shown to the model
func FormatCandidates(candidates []types.Problem) string {
	var sb strings.Builder
	for _, p := range candidates {
		id := p.QuestionID
		if id == "" {
			id = "N/A"
		}
		fmt.Fprintf(&sb, "Problem ID: %s\nProblem: %s\n---\n", id, CleanHTML(p.QuestionArticle))
	}
	return sb.String()
}

// Rank returns the ids of the three candidates that best match image.
//
// With fewer than three candidates the model is not called and every id is
// returned. When the model answer is unusable, PolicyFallback returns every
// candidate id with Fallback set, and PolicyFailHard returns the error.
func (r *Ranker) Rank(ctx context.Context, image types.Image, candidates []types.Problem) (*types.RankResult, error) {
	ids := types.ProblemIDs(candidates)

	if len(candidates) < SelectCount {
		r.logger.Info("too few candidates to rank, keeping all",
			zap.Int("candidates", len(candidates)))
		return &types.RankResult{IDs: ids, Skipped: true}, nil
	}

	selected, err := r.selectTop(ctx, image, candidates, ids)
	if err == nil {
		return &types.RankResult{IDs: selected}, nil
	}

	if r.policy == types.PolicyFailHard {
		return nil, err
	}

	r.logger.Warn("ranking failed, falling back to all candidates",
		zap.String("model", r.model.Model()),
		zap.Int("candidates", len(ids)),
		zap.Error(err))

	return &types.RankResult{IDs: ids, Fallback: true, Reason: err}, nil
}

func (r *Ranker) selectTop(ctx context.Context, image types.Image, candidates []types.Problem, ids []string) ([]string, error) {
	if len(image.Data) == 0 {
		return nil, fmt.Errorf("%w: image %q is empty", types.ErrMissingResource, image.Path)
	}

	req := types.ModelRequest{
		Image:  image,
		Prompt: fmt.Sprintf(r.promptTemplate, FormatCandidates(candidates)),
		Tool:   Tool(ids),
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	resp, err := r.model.Invoke(callCtx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: ranking call to %s failed: %w", types.ErrTransport, r.model.Model(), err)
	}

	selected, err := parseSelection(resp, req.Tool.Param.Enum)
	if err != nil {
		r.logger.Debug("unusable ranking response", zap.String("raw_text", resp.RawText()))
		return nil, err
	}

	r.logger.Debug("top candidates selected",
		zap.String("model", r.model.Model()),
		zap.Strings("ids", selected),
		zap.Duration("latency", time.Since(start)))

	return selected, nil
}

// parseSelection accepts exactly SelectCount distinct ids from the candidate set
func parseSelection(resp *types.ModelResponse, allowed []string) ([]string, error) {
	if resp == nil || len(resp.ToolCalls) == 0 {
		return nil, fmt.Errorf("%w: no tool call in response", types.ErrMalformedResponse)
	}

	call := resp.ToolCalls[0]
	if call.Name != ToolName {
		return nil, fmt.Errorf("%w: expected tool %q, got %q", types.ErrMalformedResponse, ToolName, call.Name)
	}

	values, err := toStrings(call.Args[ParamName])
	if err != nil {
		return nil, err
	}

	if len(values) != SelectCount {
		return nil, fmt.Errorf("%w: expected %d ids, got %d", types.ErrMalformedResponse, SelectCount, len(values))
	}

	allowedSet := make(map[string]struct{}, len(allowed))
	for _, id := range allowed {
		allowedSet[id] = struct{}{}
	}

	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := allowedSet[v]; !ok {
			return nil, fmt.Errorf("%w: %q is not a candidate id", types.ErrMalformedResponse, v)
		}
		if _, dup := seen[v]; dup {
			return nil, fmt.Errorf("%w: id %q selected twice", types.ErrMalformedResponse, v)
		}
		seen[v] = struct{}{}
	}

	return values, nil
}

func toStrings(arg any) ([]string, error) {
	switch v := arg.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %q item %d is not a string", types.ErrMalformedResponse, ParamName, i)
			}
			out[i] = s
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("%w: tool argument %q missing", types.ErrMalformedResponse, ParamName)
	default:
		return nil, fmt.Errorf("%w: tool argument %q is %T, not an array", types.ErrMalformedResponse, ParamName, arg)
	}
}

// uniqueIDs drops repeated and empty ids, keeping first-seen order
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
