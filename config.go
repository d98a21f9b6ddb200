package matcher

import (
	"time"

	"go.uber.org/zap"

	"github.com/FrenchMajesty/problem-matcher/pkg/types"
)

// DefaultImagePath is the image analysed when the caller names none
const DefaultImagePath = "math_problem.png"

// Config holds configuration for the Pipeline
type Config struct {
	// Catalog supplies the taxonomy. If nil, uses the question bank catalog client.
	Catalog Catalog

	// Search supplies candidate problems. If nil, uses the question bank search client.
	Search Search

	// Model serves both the classification and ranking calls. If nil, uses the
	// default adapter for Provider with the API key from the environment.
	Model        types.ModelClient
	Provider     string
	ModelName    string
	ModelBaseURL string

	// Classifier selects the knowledge point. If nil, uses a classifier backed by Model.
	Classifier Classifier

	// ModelTimeout bounds each model call. If 0, each stage uses its own default.
	ModelTimeout time.Duration

	// Question bank settings, used only when Catalog or Search is nil.
	// Empty values select the client defaults.
	APIBaseURL string
	APIToken   string
	StudyPhase string
	Subject    string
	PageSize   int

	// RankPolicy decides whether an unusable ranking answer halts the run.
	// PolicyDefault means PolicyFallback.
	RankPolicy types.FailurePolicy

	// DumpRequests writes every model exchange under DumpDir (debug_llm_requests if empty).
	DumpRequests bool
	DumpDir      string

	// LoadImage reads the problem image. If nil, uses imagefile.Load.
	LoadImage ImageLoader

	// Logger receives progress and diagnostics. If nil, logging is disabled.
	Logger *zap.Logger
}

// applyDefaults fills in default values for unset config fields
func (c *Config) applyDefaults() {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	if c.RankPolicy == types.PolicyDefault {
		c.RankPolicy = types.PolicyFallback
	}
}
