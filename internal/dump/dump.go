// Package dump records model request/response pairs to disk for debugging.
package dump

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FrenchMajesty/problem-matcher/pkg/types"
)

// DefaultDir is where dumps are written when no directory is configured
const DefaultDir = "debug_llm_requests"

// ModelClient wraps a types.ModelClient and saves every exchange under
// <dir>/<model>/
type ModelClient struct {
	next   types.ModelClient
	dir    string
	logger *zap.Logger
}

var _ types.ModelClient = (*ModelClient)(nil)

// Wrap returns next with request dumping enabled
func Wrap(next types.ModelClient, dir string, logger *zap.Logger) *ModelClient {
	if dir == "" {
		dir = DefaultDir
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelClient{next: next, dir: dir, logger: logger}
}

func (m *ModelClient) Model() string {
	return m.next.Model()
}

// Invoke forwards to the wrapped client, then writes the exchange to a file.
// Write failures are logged and never affect the call result.
func (m *ModelClient) Invoke(ctx context.Context, req types.ModelRequest) (*types.ModelResponse, error) {
	start := time.Now()
	resp, err := m.next.Invoke(ctx, req)

	path, saveErr := m.save(req, resp, err, time.Since(start))
	if saveErr != nil {
		m.logger.Warn("failed to dump model request", zap.Error(saveErr))
	} else {
		m.logger.Debug("model request dumped", zap.String("path", path))
	}

	return resp, err
}

type requestRecord struct {
	Tool   types.ToolSpec `json:"tool"`
	Prompt string         `json:"prompt"`
	Image  imageRecord    `json:"image"`
}

type imageRecord struct {
	Path     string `json:"path"`
	MimeType string `json:"mimeType"`
	Bytes    int    `json:"bytes"`
}

type exchangeRecord struct {
	Model     string               `json:"model"`
	Request   requestRecord        `json:"request"`
	Response  *types.ModelResponse `json:"response,omitempty"`
	Error     string               `json:"error,omitempty"`
	LatencyMS int64                `json:"latency_ms"`
}

// save writes the exchange to <dir>/<model>/llm_req_<timestamp>_<id>.json
func (m *ModelClient) save(req types.ModelRequest, resp *types.ModelResponse, callErr error, latency time.Duration) (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	random := uuid.New().String()[:8]
	filename := fmt.Sprintf("llm_req_%s_%s.json", timestamp, random)

	modelDir := filepath.Join(m.dir, m.next.Model())
	if err := os.MkdirAll(modelDir, 0755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", modelDir, err)
	}

	record := exchangeRecord{
		Model: m.next.Model(),
		Request: requestRecord{
			Tool:   req.Tool,
			Prompt: req.Prompt,
			Image: imageRecord{
				Path:     req.Image.Path,
				MimeType: req.Image.MimeType,
				Bytes:    len(req.Image.Data),
			},
		},
		Response:  resp,
		LatencyMS: latency.Milliseconds(),
	}
	if callErr != nil {
		record.Error = callErr.Error()
	}

	jsonData, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling exchange: %w", err)
	}

	path := filepath.Join(modelDir, filename)
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
