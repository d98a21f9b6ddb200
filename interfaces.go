package matcher

import (
	"context"

	"github.com/FrenchMajesty/problem-matcher/pkg/types"
)

// Catalog returns the knowledge point taxonomy
type Catalog interface {
	FetchTree(ctx context.Context) ([]types.TaxonomyNode, error)
}

// Search returns the problems tagged with a knowledge point, best first
type Search interface {
	SearchByKnowledgePoint(ctx context.Context, knowledgePointID string) ([]types.Problem, error)
}

// Classifier picks one of choices as the knowledge point shown in image
type Classifier interface {
	Classify(ctx context.Context, image types.Image, choices []string) (string, error)
}

// ImageLoader reads the problem image at path
type ImageLoader func(path string) (types.Image, error)
