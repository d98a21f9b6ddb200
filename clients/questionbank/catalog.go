package questionbank

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/FrenchMajesty/problem-matcher/pkg/types"
)

// CatalogTimeout bounds a taxonomy request
const CatalogTimeout = 15 * time.Second

// CatalogClient fetches the knowledge point taxonomy
type CatalogClient struct {
	c *client
}

// NewCatalogClient creates a catalog client. An empty baseURL selects DefaultBaseURL.
func NewCatalogClient(baseURL, token string, opts ...Option) *CatalogClient {
	return &CatalogClient{c: newClient(baseURL, token, CatalogTimeout, opts)}
}

type catalogRequest struct {
	StudyPhaseCode string `json:"studyPhaseCode"`
	SubjectCode    string `json:"subjectCode"`
}

// FetchTree returns the root nodes of the taxonomy for the configured study
// phase and subject
func (cc *CatalogClient) FetchTree(ctx context.Context) ([]types.TaxonomyNode, error) {
	body, err := cc.c.postJSON(ctx, catalogPath, catalogRequest{
		StudyPhaseCode: cc.c.studyPhase,
		SubjectCode:    cc.c.subject,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch knowledge tree: %w", err)
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: knowledge tree response is not JSON", types.ErrMalformedResponse)
	}

	data := gjson.GetBytes(body, "data")
	if !data.IsArray() {
		return nil, fmt.Errorf("%w: knowledge tree response has no data array", types.ErrMalformedResponse)
	}

	roots, err := types.ParseTaxonomy([]byte(data.Raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrMalformedResponse, err)
	}
	return roots, nil
}
