package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FrenchMajesty/problem-matcher/clients/questionbank"
	"github.com/FrenchMajesty/problem-matcher/internal/dump"
	"github.com/FrenchMajesty/problem-matcher/pkg/types"
)

var matcherEnv = []string{
	ConfigPathEnv,
	"MATCHER_PROVIDER", "MATCHER_MODEL", "MATCHER_MODEL_BASE_URL",
	"MATCHER_API_BASE_URL", "MATCHER_API_TOKEN", "MATCHER_STUDY_PHASE",
	"MATCHER_SUBJECT", "MATCHER_RANK_POLICY", "MATCHER_DUMP_DIR",
	"MATCHER_MODEL_TIMEOUT", "MATCHER_PAGE_SIZE", "DEBUG_LLM_REQUESTS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range matcherEnv {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "matcher.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, types.PolicyFallback, cfg.RankPolicy())
}

func TestDefault_MatchesClientDefaults(t *testing.T) {
	want := QuestionConfig{
		BaseURL:    questionbank.DefaultBaseURL,
		StudyPhase: questionbank.DefaultStudyPhase,
		Subject:    questionbank.DefaultSubject,
		PageSize:   questionbank.DefaultPageSize,
	}
	if diff := cmp.Diff(want, Default().Question); diff != "" {
		t.Errorf("Default().Question mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, dump.DefaultDir, Default().Debug.DumpDir)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
model:
  provider: openai
  name: gpt-4.1
  timeout: 30s
question_bank:
  token: abc
  subject: "3"
  page_size: 20
rank:
  policy: fail-hard
debug:
  dump_requests: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, "gpt-4.1", cfg.Model.Name)
	assert.Equal(t, 30*time.Second, cfg.Model.Timeout)
	assert.Equal(t, "abc", cfg.Question.Token)
	assert.Equal(t, "3", cfg.Question.Subject)
	assert.Equal(t, 20, cfg.Question.PageSize)
	assert.Equal(t, types.PolicyFailHard, cfg.RankPolicy())
	assert.True(t, cfg.Debug.DumpRequests)

	// untouched keys keep their defaults
	assert.Equal(t, "300", cfg.Question.StudyPhase)
	assert.Equal(t, "https://qms.stzy.com", cfg.Question.BaseURL)
}

func TestLoad_FileFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(ConfigPathEnv, writeFile(t, "question_bank:\n  subject: \"9\"\n"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "9", cfg.Question.Subject)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "model:\n  provider: openai\n  timeout: 30s\nquestion_bank:\n  page_size: 20\n")

	t.Setenv("MATCHER_PROVIDER", "gemini")
	t.Setenv("MATCHER_MODEL_TIMEOUT", "5s")
	t.Setenv("MATCHER_PAGE_SIZE", "7")
	t.Setenv("MATCHER_API_TOKEN", "env-token")
	t.Setenv("DEBUG_LLM_REQUESTS", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.Model.Provider)
	assert.Equal(t, 5*time.Second, cfg.Model.Timeout)
	assert.Equal(t, 7, cfg.Question.PageSize)
	assert.Equal(t, "env-token", cfg.Question.Token)
	assert.True(t, cfg.Debug.DumpRequests)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		env  map[string]string
	}{
		{name: "missing file", path: filepath.Join(os.TempDir(), "does-not-exist.yaml")},
		{name: "bad timeout", env: map[string]string{"MATCHER_MODEL_TIMEOUT": "soon"}},
		{name: "bad page size", env: map[string]string{"MATCHER_PAGE_SIZE": "ten"}},
		{name: "zero page size", env: map[string]string{"MATCHER_PAGE_SIZE": "0"}},
		{name: "bad dump flag", env: map[string]string{"DEBUG_LLM_REQUESTS": "maybe"}},
		{name: "unknown policy", env: map[string]string{"MATCHER_RANK_POLICY": "retry"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(tt.path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeFile(t, "model: [unterminated"))
	assert.Error(t, err)
}
