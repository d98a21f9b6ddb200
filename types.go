package matcher

import (
	"time"
	"unicode/utf8"

	"github.com/FrenchMajesty/problem-matcher/pkg/ranker"
	"github.com/FrenchMajesty/problem-matcher/pkg/taxonomy"
	"github.com/FrenchMajesty/problem-matcher/pkg/types"
)

// Result represents the outcome of one pipeline run
type Result struct {
	// RunID identifies the run in logs and in the report
	RunID string

	// KnowledgePoint is the path the classifier selected
	KnowledgePoint string

	// KnowledgePointID is the catalog id behind KnowledgePoint
	KnowledgePointID string

	// Candidates is how many problems the search returned
	Candidates int

	// Problems are the selected problems, in search order
	Problems []types.Problem

	// Ranking is the ranker's answer, including whether it fell back
	Ranking *types.RankResult

	Timings Timings
}

// Timings records how long each stage took
type Timings struct {
	Catalog  time.Duration
	Classify time.Duration
	Search   time.Duration
	Rank     time.Duration
	Total    time.Duration
}

// Report is the analysis document handed to front ends
type Report struct {
	AnalysisID       string          `json:"analysisId"`
	Status           string          `json:"status"`
	KnowledgePoint   string          `json:"knowledgePoint"`
	KnowledgePointID string          `json:"knowledgePointId"`
	RankingFallback  bool            `json:"rankingFallback"`
	Problems         []ReportProblem `json:"problems"`
}

// ReportProblem is a problem as shown in a Report
type ReportProblem struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

const (
	StatusCompleted = "completed"
	reportTitleLen  = 50
)

// Report converts the result into an analysis document
func (r *Result) Report() Report {
	tag := taxonomy.Title(r.KnowledgePoint)

	problems := make([]ReportProblem, len(r.Problems))
	for i, p := range r.Problems {
		content := ranker.CleanHTML(p.QuestionArticle)
		problems[i] = ReportProblem{
			ID:      p.QuestionID,
			Title:   truncate(content, reportTitleLen),
			Content: content,
			Tags:    []string{tag},
		}
	}

	return Report{
		AnalysisID:       "analysis_" + r.RunID,
		Status:           StatusCompleted,
		KnowledgePoint:   r.KnowledgePoint,
		KnowledgePointID: r.KnowledgePointID,
		RankingFallback:  r.Ranking != nil && r.Ranking.Fallback,
		Problems:         problems,
	}
}

// truncate cuts s to n runes, marking the cut with "..."
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
