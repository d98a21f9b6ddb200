package questionbank

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/FrenchMajesty/problem-matcher/pkg/types"
)

// SearchTimeout bounds a problem search request
const SearchTimeout = 10 * time.Second

// SearchClient queries problems by knowledge point
type SearchClient struct {
	c *client
}

// NewSearchClient creates a search client. An empty baseURL selects DefaultBaseURL.
func NewSearchClient(baseURL, token string, opts ...Option) *SearchClient {
	return &SearchClient{c: newClient(baseURL, token, SearchTimeout, opts)}
}

type searchRequest struct {
	OnlyCheckURLAndMethod bool         `json:"onlyCheckUrlAndMethod"`
	PageNum               int          `json:"pageNum"`
	PageSize              int          `json:"pageSize"`
	Params                searchParams `json:"params"`
}

type searchParams struct {
	StudyPhaseCode     string   `json:"studyPhaseCode"`
	SubjectCode        string   `json:"subjectCode"`
	SearchType         int      `json:"searchType"`
	Sort               int      `json:"sort"`
	YearCode           string   `json:"yearCode"`
	GradeCode          string   `json:"gradeCode"`
	ProvinceCode       string   `json:"provinceCode"`
	CityCode           string   `json:"cityCode"`
	AreaCode           string   `json:"areaCode"`
	OrganizationCode   string   `json:"organizationCode"`
	TermCode           string   `json:"termCode"`
	KeyWord            string   `json:"keyWord"`
	FilterQuestionFlag bool     `json:"filterQuestionFlag"`
	SearchScope        int      `json:"searchScope"`
	TreeIDs            []string `json:"treeIds"`
}

func (sc *SearchClient) request(knowledgePointID string) searchRequest {
	return searchRequest{
		OnlyCheckURLAndMethod: true,
		PageNum:               1,
		PageSize:              sc.c.pageSize,
		Params: searchParams{
			StudyPhaseCode: sc.c.studyPhase,
			SubjectCode:    sc.c.subject,
			SearchType:     2,
			TreeIDs:        []string{knowledgePointID},
		},
	}
}

// SearchByKnowledgePoint returns the first page of problems tagged with the
// knowledge point, in the order the service ranks them. An empty list is not
// an error.
func (sc *SearchClient) SearchByKnowledgePoint(ctx context.Context, knowledgePointID string) ([]types.Problem, error) {
	body, err := sc.c.postJSON(ctx, searchPath, sc.request(knowledgePointID))
	if err != nil {
		return nil, fmt.Errorf("search problems for %s: %w", knowledgePointID, err)
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: search response is not JSON", types.ErrMalformedResponse)
	}

	list := gjson.GetBytes(body, "data.list")
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: search response has no data.list array", types.ErrMalformedResponse)
	}

	problems := []types.Problem{}
	if err := json.Unmarshal([]byte(list.Raw), &problems); err != nil {
		return nil, fmt.Errorf("%w: decode problems: %w", types.ErrMalformedResponse, err)
	}
	return problems, nil
}
