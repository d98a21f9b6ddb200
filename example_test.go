package matcher_test

import (
	"context"
	"fmt"
	"log"
	"os"

	matcher "github.com/FrenchMajesty/problem-matcher"
	"github.com/FrenchMajesty/problem-matcher/pkg/adapters"
	"github.com/FrenchMajesty/problem-matcher/pkg/types"
)

// Example shows basic usage of the pipeline
func Example_basic() {
	// No clients provided: the Gemini adapter reads GOOGLE_API_KEY and the
	// question bank clients use their default endpoint
	p, err := matcher.NewPipeline(matcher.Config{
		APIToken: os.Getenv("MATCHER_API_TOKEN"),
	})
	if err != nil {
		log.Fatal(err)
	}

	result, err := p.Run(context.Background(), "math_problem.png")
	if err != nil {
		log.Printf("halted: %v", err)
		os.Exit(matcher.ExitCode(err))
	}

	fmt.Printf("Knowledge point: %s (%s)\n", result.KnowledgePoint, result.KnowledgePointID)
	for _, problem := range result.Problems {
		fmt.Println(problem.QuestionID)
	}
}

// Example shows customizing the configuration
func Example_customConfig() {
	model, err := adapters.NewDefaultModelClient(adapters.ProviderOpenAI, nil, "gpt-4.1", "")
	if err != nil {
		log.Fatal(err)
	}

	p, err := matcher.NewPipeline(matcher.Config{
		Model:      model,
		Subject:    "3",
		PageSize:   20,
		RankPolicy: types.PolicyFailHard,
	})
	if err != nil {
		log.Fatal(err)
	}

	result, err := p.Run(context.Background(), "geometry.jpg")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Analysis: %+v\n", result.Report())
}
