// Package config loads matcher settings from .env, an optional YAML file and
// MATCHER_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/FrenchMajesty/problem-matcher/clients/questionbank"
	"github.com/FrenchMajesty/problem-matcher/internal/dump"
	"github.com/FrenchMajesty/problem-matcher/pkg/types"
)

// ConfigPathEnv names the YAML config file when --config is not given
const ConfigPathEnv = "MATCHER_CONFIG"

// Config holds all matcher configuration
type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Question QuestionConfig `yaml:"question_bank"`
	Rank     RankConfig     `yaml:"rank"`
	Debug    DebugConfig    `yaml:"debug"`
}

// ModelConfig selects the vision model. API keys are read from the
// provider's own environment variable, never from the YAML file.
type ModelConfig struct {
	Provider string        `yaml:"provider"`
	Name     string        `yaml:"name"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

// QuestionConfig points at the catalog and search services
type QuestionConfig struct {
	BaseURL    string `yaml:"base_url"`
	Token      string `yaml:"token"`
	StudyPhase string `yaml:"study_phase"`
	Subject    string `yaml:"subject"`
	PageSize   int    `yaml:"page_size"`
}

// RankConfig controls the ranking stage
type RankConfig struct {
	Policy string `yaml:"policy"`
}

// DebugConfig controls request dumps
type DebugConfig struct {
	DumpRequests bool   `yaml:"dump_requests"`
	DumpDir      string `yaml:"dump_dir"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Model: ModelConfig{
			Provider: "gemini",
			Timeout:  60 * time.Second,
		},
		Question: QuestionConfig{
			BaseURL:    questionbank.DefaultBaseURL,
			StudyPhase: questionbank.DefaultStudyPhase,
			Subject:    questionbank.DefaultSubject,
			PageSize:   questionbank.DefaultPageSize,
		},
		Rank: RankConfig{
			Policy: types.PolicyFallback.String(),
		},
		Debug: DebugConfig{
			DumpDir: dump.DefaultDir,
		},
	}
}

// Load builds the configuration. A missing .env is ignored; a missing YAML
// file is an error only when a path was given.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Model.Provider = getenv("MATCHER_PROVIDER", cfg.Model.Provider)
	cfg.Model.Name = getenv("MATCHER_MODEL", cfg.Model.Name)
	cfg.Model.BaseURL = getenv("MATCHER_MODEL_BASE_URL", cfg.Model.BaseURL)
	cfg.Question.BaseURL = getenv("MATCHER_API_BASE_URL", cfg.Question.BaseURL)
	cfg.Question.Token = getenv("MATCHER_API_TOKEN", cfg.Question.Token)
	cfg.Question.StudyPhase = getenv("MATCHER_STUDY_PHASE", cfg.Question.StudyPhase)
	cfg.Question.Subject = getenv("MATCHER_SUBJECT", cfg.Question.Subject)
	cfg.Rank.Policy = getenv("MATCHER_RANK_POLICY", cfg.Rank.Policy)
	cfg.Debug.DumpDir = getenv("MATCHER_DUMP_DIR", cfg.Debug.DumpDir)

	if v := os.Getenv("MATCHER_MODEL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid MATCHER_MODEL_TIMEOUT %q: %w", v, err)
		}
		cfg.Model.Timeout = d
	}

	if v := os.Getenv("MATCHER_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MATCHER_PAGE_SIZE %q: %w", v, err)
		}
		cfg.Question.PageSize = n
	}

	if v := os.Getenv("DEBUG_LLM_REQUESTS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DEBUG_LLM_REQUESTS %q: %w", v, err)
		}
		cfg.Debug.DumpRequests = b
	}

	return nil
}

// Validate rejects settings the pipeline cannot run with
func (c Config) Validate() error {
	if c.Question.BaseURL == "" {
		return errors.New("question bank base URL is required")
	}
	if c.Question.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.Question.PageSize)
	}
	if c.Model.Timeout < 0 {
		return fmt.Errorf("model timeout must not be negative, got %s", c.Model.Timeout)
	}
	if c.RankPolicy() == types.PolicyDefault && c.Rank.Policy != "" && c.Rank.Policy != "default" {
		return fmt.Errorf("unknown rank policy %q", c.Rank.Policy)
	}
	return nil
}

// RankPolicy returns the parsed ranking failure policy
func (c Config) RankPolicy() types.FailurePolicy {
	return types.ParseFailurePolicy(c.Rank.Policy)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
