// Package matcher classifies a math problem photo against a knowledge point
// taxonomy, searches the problem bank for that knowledge point and keeps the
// three closest problems.
package matcher

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FrenchMajesty/problem-matcher/clients/questionbank"
	"github.com/FrenchMajesty/problem-matcher/internal/dump"
	"github.com/FrenchMajesty/problem-matcher/internal/imagefile"
	"github.com/FrenchMajesty/problem-matcher/pkg/adapters"
	"github.com/FrenchMajesty/problem-matcher/pkg/classifier"
	"github.com/FrenchMajesty/problem-matcher/pkg/ranker"
	"github.com/FrenchMajesty/problem-matcher/pkg/taxonomy"
	"github.com/FrenchMajesty/problem-matcher/pkg/types"
)

// Pipeline runs classify, search and rank for one image at a time
type Pipeline struct {
	catalog    Catalog
	search     Search
	classifier Classifier
	ranker     *ranker.Ranker
	loadImage  ImageLoader
	logger     *zap.Logger
}

// NewPipeline creates a new Pipeline with the given configuration
func NewPipeline(cfg Config) (*Pipeline, error) {
	cfg.applyDefaults()

	model := cfg.Model
	if model == nil {
		client, err := adapters.NewDefaultModelClient(cfg.Provider, nil, cfg.ModelName, cfg.ModelBaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create default model client: %w", err)
		}
		model = client
	}
	if cfg.DumpRequests {
		model = dump.Wrap(model, cfg.DumpDir, cfg.Logger)
	}

	clf := cfg.Classifier
	if clf == nil {
		c, err := classifier.New(classifier.Config{
			Model:   model,
			Timeout: cfg.ModelTimeout,
			Logger:  cfg.Logger.Named("classifier"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create classifier: %w", err)
		}
		clf = c
	}

	rnk, err := ranker.New(ranker.Config{
		Model:   model,
		Timeout: cfg.ModelTimeout,
		Policy:  cfg.RankPolicy,
		Logger:  cfg.Logger.Named("ranker"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ranker: %w", err)
	}

	catalog := cfg.Catalog
	if catalog == nil {
		catalog = DefaultCatalog(cfg)
	}

	search := cfg.Search
	if search == nil {
		search = questionbank.NewSearchClient(cfg.APIBaseURL, cfg.APIToken, questionbankOptions(cfg)...)
	}

	loadImage := cfg.LoadImage
	if loadImage == nil {
		loadImage = imagefile.Load
	}

	return &Pipeline{
		catalog:    catalog,
		search:     search,
		classifier: clf,
		ranker:     rnk,
		loadImage:  loadImage,
		logger:     cfg.Logger,
	}, nil
}

// DefaultCatalog returns the question bank catalog client described by cfg
func DefaultCatalog(cfg Config) Catalog {
	return questionbank.NewCatalogClient(cfg.APIBaseURL, cfg.APIToken, questionbankOptions(cfg)...)
}

func questionbankOptions(cfg Config) []questionbank.Option {
	var opts []questionbank.Option
	if cfg.StudyPhase != "" {
		opts = append(opts, questionbank.WithStudyPhase(cfg.StudyPhase))
	}
	if cfg.Subject != "" {
		opts = append(opts, questionbank.WithSubject(cfg.Subject))
	}
	if cfg.PageSize > 0 {
		opts = append(opts, questionbank.WithPageSize(cfg.PageSize))
	}
	return opts
}

// KnowledgePoints fetches and flattens the taxonomy. Failures are returned as
// *HaltError for the catalog or taxonomy stage.
func (p *Pipeline) KnowledgePoints(ctx context.Context) (*taxonomy.Flattened, error) {
	return KnowledgePoints(ctx, p.catalog, p.logger)
}

// KnowledgePoints fetches the taxonomy from catalog and flattens it, warning
// about every duplicate path. It needs no model client.
func KnowledgePoints(ctx context.Context, catalog Catalog, logger *zap.Logger) (*taxonomy.Flattened, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	roots, err := catalog.FetchTree(ctx)
	if err != nil {
		logger.Error("failed to fetch knowledge tree", zap.Error(err))
		return nil, halt(StageCatalog, err)
	}

	flat := taxonomy.Flatten(roots)
	for _, path := range flat.Collisions {
		logger.Warn("duplicate knowledge point path, keeping last id", zap.String("path", path))
	}

	if flat.Len() == 0 {
		logger.Error("knowledge tree produced no choices", zap.Int("roots", len(roots)))
		return nil, halt(StageTaxonomy, ErrEmptyTaxonomy)
	}

	logger.Info("knowledge tree flattened",
		zap.Int("choices", flat.Len()),
		zap.Strings("sample", flat.Sample(5)))

	return flat, nil
}

// Run analyses the image at imagePath (DefaultImagePath if empty). Every
// failure is returned as *HaltError; a degraded ranking is not a failure and
// shows up in Result.Ranking.
func (p *Pipeline) Run(ctx context.Context, imagePath string) (*Result, error) {
	if imagePath == "" {
		imagePath = DefaultImagePath
	}

	result := &Result{RunID: uuid.NewString()}
	logger := p.logger.With(zap.String("run_id", result.RunID))
	start := time.Now()

	image, err := p.loadImage(imagePath)
	if err != nil {
		logger.Error("failed to load image", zap.String("path", imagePath), zap.Error(err))
		return nil, halt(StageImage, err)
	}
	logger.Info("image loaded",
		zap.String("path", image.Path),
		zap.String("mime_type", image.MimeType),
		zap.Int("bytes", len(image.Data)))

	stageStart := time.Now()
	flat, err := KnowledgePoints(ctx, p.catalog, logger)
	if err != nil {
		return nil, err
	}
	result.Timings.Catalog = time.Since(stageStart)

	stageStart = time.Now()
	path, err := p.classifier.Classify(ctx, image, flat.Choices)
	if err != nil {
		logger.Error("classification failed", zap.Error(err))
		return nil, halt(StageClassify, err)
	}
	result.Timings.Classify = time.Since(stageStart)
	result.KnowledgePoint = path

	id, ok := flat.Lookup(path)
	if !ok {
		logger.Error("selected path has no id", zap.String("path", path))
		return nil, halt(StageLookup, fmt.Errorf("%w: %q", types.ErrLookupMiss, path))
	}
	result.KnowledgePointID = id
	logger.Info("knowledge point selected", zap.String("path", path), zap.String("id", id))

	stageStart = time.Now()
	problems, err := p.search.SearchByKnowledgePoint(ctx, id)
	if err != nil {
		logger.Error("problem search failed", zap.String("id", id), zap.Error(err))
		return nil, halt(StageSearch, err)
	}
	result.Timings.Search = time.Since(stageStart)
	result.Candidates = len(problems)

	if len(problems) == 0 {
		logger.Warn("no problems found for knowledge point", zap.String("id", id))
		return nil, halt(StageCandidates, ErrNoCandidates)
	}
	logger.Info("candidate problems found", zap.Int("count", len(problems)))

	stageStart = time.Now()
	ranking, err := p.ranker.Rank(ctx, image, problems)
	if err != nil {
		logger.Error("ranking failed", zap.Error(err))
		return nil, halt(StageRank, err)
	}
	result.Timings.Rank = time.Since(stageStart)
	result.Ranking = ranking

	result.Problems = filterProblems(problems, ranking.IDs)
	result.Timings.Total = time.Since(start)

	logger.Info("run complete",
		zap.Strings("selected", types.ProblemIDs(result.Problems)),
		zap.Bool("fallback", ranking.Fallback),
		zap.Duration("total", result.Timings.Total))

	return result, nil
}

// filterProblems keeps the problems whose id is in ids, in their original order
func filterProblems(problems []types.Problem, ids []string) []types.Problem {
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}

	out := make([]types.Problem, 0, len(ids))
	for _, p := range problems {
		if _, ok := keep[p.QuestionID]; ok {
			out = append(out, p)
		}
	}
	return out
}
