package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FrenchMajesty/problem-matcher/pkg/taxonomy"
	"github.com/FrenchMajesty/problem-matcher/pkg/types"
)

func TestWriteJSON_KeepsHTMLAndUnicode(t *testing.T) {
	var buf bytes.Buffer
	problems := []types.Problem{{QuestionID: "q1", QuestionArticle: "<p>解方程 x&nbsp;+ 1 = 2</p>"}}

	require.NoError(t, writeJSON(&buf, problems))

	want := "[\n  {\n    \"questionId\": \"q1\",\n    \"questionArticle\": \"<p>解方程 x&nbsp;+ 1 = 2</p>\"\n  }\n]\n"
	assert.Equal(t, want, buf.String())
}

func TestKnowledgePoints(t *testing.T) {
	flat := taxonomy.Flatten([]types.TaxonomyNode{
		{Title: "代数", ID: "1", Children: []types.TaxonomyNode{
			{Title: "一元二次方程", ID: "11", IsLeaf: true},
		}},
		{Title: "统计", ID: "2", IsLeaf: true},
	})

	got := knowledgePoints(flat)

	assert.Equal(t, []knowledgePoint{
		{ID: "11", Path: "代数 -> 一元二次方程", Title: "一元二次方程"},
		{ID: "2", Path: "统计", Title: "统计"},
	}, got)
}

func TestRootCommandWiring(t *testing.T) {
	assert.Equal(t, "math_problem.png", rootCmd.Flags().Lookup("image").DefValue)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))

	cmd, _, err := rootCmd.Find([]string{"knowledge-points"})
	require.NoError(t, err)
	assert.Equal(t, knowledgePointsCmd, cmd)
}
