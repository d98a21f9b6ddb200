package questionbank

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/goleak"

	"github.com/FrenchMajesty/problem-matcher/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// testHTTPClient gives each test its own transport and drops its pooled
// connections when the test ends
func testHTTPClient(t *testing.T) Option {
	t.Helper()
	hc := &http.Client{Transport: &http.Transport{}}
	t.Cleanup(hc.CloseIdleConnections)
	return WithHTTPClient(hc)
}

type captured struct {
	method string
	path   string
	header http.Header
	body   gjson.Result
}

func newServer(t *testing.T, status int, response string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got.method = r.Method
		got.path = r.URL.Path
		got.header = r.Header.Clone()
		got.body = gjson.ParseBytes(body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

const treeResponse = `{
  "code": 200,
  "data": [
    {"title": "Numbers", "id": 1, "children": [
      {"title": "Fractions", "id": 11, "isLeaf": true}
    ]}
  ]
}`

func TestFetchTree_Success(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, treeResponse)

	roots, err := NewCatalogClient(srv.URL, "secret", WithStudyPhase("200"), WithSubject("5"), testHTTPClient(t)).FetchTree(context.Background())
	require.NoError(t, err)

	require.Len(t, roots, 1)
	assert.Equal(t, "Numbers", roots[0].Title)
	assert.Equal(t, "1", roots[0].ID)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, types.TaxonomyNode{Title: "Fractions", ID: "11", IsLeaf: true}, roots[0].Children[0])

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, catalogPath, got.path)
	assert.Equal(t, "secret", got.header.Get("token"))
	assert.Equal(t, "application/json", got.header.Get("Content-Type"))
	assert.Equal(t, "200", got.body.Get("studyPhaseCode").String())
	assert.Equal(t, "5", got.body.Get("subjectCode").String())
}

func TestFetchTree_Defaults(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, treeResponse)

	_, err := NewCatalogClient(srv.URL+"/", "", testHTTPClient(t)).FetchTree(context.Background())
	require.NoError(t, err)

	assert.Equal(t, catalogPath, got.path)
	assert.Empty(t, got.header.Values("token"))
	assert.Equal(t, DefaultStudyPhase, got.body.Get("studyPhaseCode").String())
	assert.Equal(t, DefaultSubject, got.body.Get("subjectCode").String())
}

func TestFetchTree_HTTPError(t *testing.T) {
	srv, _ := newServer(t, http.StatusUnauthorized, strings.Repeat("x", 2000))

	_, err := NewCatalogClient(srv.URL, "expired", testHTTPClient(t)).FetchTree(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Len(t, apiErr.Body, maxErrorBody)
	assert.ErrorIs(t, err, types.ErrTransport)
}

func TestFetchTree_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"not json", "<html>gateway</html>"},
		{"no data", `{"code": 401, "msg": "login required"}`},
		{"data not array", `{"data": {"title": "x"}}`},
		{"node not object", `{"data": [1, 2]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, http.StatusOK, tt.response)

			_, err := NewCatalogClient(srv.URL, "", testHTTPClient(t)).FetchTree(context.Background())
			assert.ErrorIs(t, err, types.ErrMalformedResponse)
		})
	}
}

func TestFetchTree_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewCatalogClient(url, "", testHTTPClient(t)).FetchTree(context.Background())
	assert.ErrorIs(t, err, types.ErrTransport)
}

func TestFetchTree_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	_, err := NewCatalogClient(srv.URL, "", WithTimeout(50*time.Millisecond), testHTTPClient(t)).FetchTree(context.Background())
	assert.ErrorIs(t, err, types.ErrTransport)
}

const searchResponse = `{
  "code": 200,
  "data": {
    "total": 3,
    "list": [
      {"questionId": "q9", "questionArticle": "<p>nine</p>", "difficulty": 3},
      {"questionId": "q2", "questionArticle": "<p>two</p>"},
      {"questionId": "q5", "questionArticle": "<p>five</p>", "source": {"year": 2023}}
    ]
  }
}`

func TestSearch_Success(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, searchResponse)

	problems, err := NewSearchClient(srv.URL, "secret", WithPageSize(20), testHTTPClient(t)).SearchByKnowledgePoint(context.Background(), "kp-42")
	require.NoError(t, err)

	assert.Equal(t, []string{"q9", "q2", "q5"}, types.ProblemIDs(problems))
	assert.Equal(t, "<p>nine</p>", problems[0].QuestionArticle)

	out, err := json.Marshal(problems[2])
	require.NoError(t, err)
	assert.JSONEq(t, `{"questionId": "q5", "questionArticle": "<p>five</p>", "source": {"year": 2023}}`, string(out))

	assert.Equal(t, searchPath, got.path)
	assert.Equal(t, "secret", got.header.Get("token"))

	body := got.body
	assert.True(t, body.Get("onlyCheckUrlAndMethod").Bool())
	assert.Equal(t, int64(1), body.Get("pageNum").Int())
	assert.Equal(t, int64(20), body.Get("pageSize").Int())
	assert.Equal(t, DefaultStudyPhase, body.Get("params.studyPhaseCode").String())
	assert.Equal(t, DefaultSubject, body.Get("params.subjectCode").String())
	assert.Equal(t, int64(2), body.Get("params.searchType").Int())
	assert.Equal(t, int64(0), body.Get("params.sort").Int())
	assert.True(t, body.Get("params.keyWord").Exists())
	assert.Equal(t, "", body.Get("params.keyWord").String())
	assert.False(t, body.Get("params.filterQuestionFlag").Bool())
	assert.Equal(t, int64(0), body.Get("params.searchScope").Int())
	assert.Equal(t, `["kp-42"]`, body.Get("params.treeIds").Raw)
}

func TestSearch_EmptyList(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"data": {"list": []}}`)

	problems, err := NewSearchClient(srv.URL, "", testHTTPClient(t)).SearchByKnowledgePoint(context.Background(), "kp")
	require.NoError(t, err)
	assert.NotNil(t, problems)
	assert.Empty(t, problems)
}

func TestSearch_Malformed(t *testing.T) {
	for _, response := range []string{
		`{"data": {}}`,
		`{"data": {"list": "none"}}`,
		`{"data": {"list": ["q1"]}}`,
		`not json`,
	} {
		srv, _ := newServer(t, http.StatusOK, response)

		_, err := NewSearchClient(srv.URL, "", testHTTPClient(t)).SearchByKnowledgePoint(context.Background(), "kp")
		assert.ErrorIs(t, err, types.ErrMalformedResponse, response)
	}
}

func TestSearch_HTTPError(t *testing.T) {
	srv, _ := newServer(t, http.StatusBadGateway, `upstream down`)

	_, err := NewSearchClient(srv.URL, "", testHTTPClient(t)).SearchByKnowledgePoint(context.Background(), "kp")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Body)
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestWithHTTPClient_DoesNotMutateCaller(t *testing.T) {
	hc := &http.Client{Timeout: time.Minute}
	sc := NewSearchClient("", "", WithHTTPClient(hc))

	assert.Equal(t, time.Minute, hc.Timeout)
	assert.Equal(t, SearchTimeout, sc.c.httpClient.Timeout)
	assert.Equal(t, DefaultBaseURL, sc.c.baseURL)
}
