// Command matcher finds the problem bank questions closest to a photographed
// math problem.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	matcher "github.com/FrenchMajesty/problem-matcher"
	"github.com/FrenchMajesty/problem-matcher/internal/config"
	"github.com/FrenchMajesty/problem-matcher/internal/logging"
	"github.com/FrenchMajesty/problem-matcher/pkg/taxonomy"
)

var (
	logger *zap.Logger

	configPath string
	imagePath  string
	verbose    bool
	report     bool
	provider   string
	modelName  string
	studyPhase string
	subject    string
	rankPolicy string
)

var rootCmd = &cobra.Command{
	Use:   "matcher",
	Short: "Match a math problem photo to similar problems in the problem bank",
	Long: `matcher classifies the problem in an image against the knowledge point
taxonomy, searches the problem bank for that knowledge point and keeps the
three closest problems.

The selected problems are printed to stdout as JSON. Progress goes to stderr.
The exit code names the stage a failed run stopped at:
  2 image, 3 catalog, 4 empty taxonomy, 5 classify, 6 lookup,
  7 search, 8 no candidates, 9 rank (fail-hard policy only)`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runMatch,
}

var knowledgePointsCmd = &cobra.Command{
	Use:   "knowledge-points",
	Short: "List the flattened knowledge point paths offered to the classifier",
	Args:  cobra.NoArgs,
	RunE:  listKnowledgePoints,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "YAML config file (default $"+config.ConfigPathEnv+")")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	flags.StringVar(&provider, "provider", "", "model provider: gemini or openai")
	flags.StringVar(&modelName, "model", "", "model name (provider default if empty)")
	flags.StringVar(&studyPhase, "phase", "", "study phase code")
	flags.StringVar(&subject, "subject", "", "subject code")

	rootCmd.Flags().StringVarP(&imagePath, "image", "i", matcher.DefaultImagePath, "problem image to analyse")
	rootCmd.Flags().BoolVar(&report, "report", false, "print the analysis report instead of the raw problems")
	rootCmd.Flags().StringVar(&rankPolicy, "rank-policy", "", "what to do when ranking fails: fallback or fail-hard")

	rootCmd.AddCommand(knowledgePointsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(matcher.ExitCode(err))
	}
}

// loadConfig reads the config layers, then applies flags the user set
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.Model.Provider = provider
	}
	if flags.Changed("model") {
		cfg.Model.Name = modelName
	}
	if flags.Changed("phase") {
		cfg.Question.StudyPhase = studyPhase
	}
	if flags.Changed("subject") {
		cfg.Question.Subject = subject
	}
	if flags.Changed("rank-policy") {
		cfg.Rank.Policy = rankPolicy
	}

	return cfg, cfg.Validate()
}

func pipelineConfig(cfg config.Config) matcher.Config {
	return matcher.Config{
		Provider:     cfg.Model.Provider,
		ModelName:    cfg.Model.Name,
		ModelBaseURL: cfg.Model.BaseURL,
		ModelTimeout: cfg.Model.Timeout,
		APIBaseURL:   cfg.Question.BaseURL,
		APIToken:     cfg.Question.Token,
		StudyPhase:   cfg.Question.StudyPhase,
		Subject:      cfg.Question.Subject,
		PageSize:     cfg.Question.PageSize,
		RankPolicy:   cfg.RankPolicy(),
		DumpRequests: cfg.Debug.DumpRequests,
		DumpDir:      cfg.Debug.DumpDir,
		Logger:       logger,
	}
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	p, err := matcher.NewPipeline(pipelineConfig(cfg))
	if err != nil {
		return err
	}

	result, err := p.Run(cmd.Context(), imagePath)
	if err != nil {
		return err
	}

	if report {
		return writeJSON(cmd.OutOrStdout(), result.Report())
	}
	return writeJSON(cmd.OutOrStdout(), result.Problems)
}

// knowledgePoint is one entry of the knowledge-points listing
type knowledgePoint struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Title string `json:"title"`
}

func listKnowledgePoints(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	catalog := matcher.DefaultCatalog(pipelineConfig(cfg))
	flat, err := matcher.KnowledgePoints(cmd.Context(), catalog, logger)
	if err != nil {
		return err
	}

	return writeJSON(cmd.OutOrStdout(), knowledgePoints(flat))
}

func knowledgePoints(flat *taxonomy.Flattened) []knowledgePoint {
	out := make([]knowledgePoint, len(flat.Choices))
	for i, path := range flat.Choices {
		id, _ := flat.Lookup(path)
		out[i] = knowledgePoint{ID: id, Path: path, Title: taxonomy.Title(path)}
	}
	return out
}

// writeJSON prints v indented, leaving HTML and non-ASCII text as is
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
