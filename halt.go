package matcher

import (
	"errors"
	"fmt"
)

// Stage names the pipeline step a run stopped at
type Stage string

const (
	StageImage      Stage = "image"
	StageCatalog    Stage = "catalog"
	StageTaxonomy   Stage = "taxonomy"
	StageClassify   Stage = "classify"
	StageLookup     Stage = "lookup"
	StageSearch     Stage = "search"
	StageCandidates Stage = "candidates"
	StageRank       Stage = "rank"
)

// Process exit codes, one per halt point
const (
	ExitOK           = 0
	ExitUsage        = 1
	ExitImage        = 2
	ExitCatalog      = 3
	ExitNoChoices    = 4
	ExitClassify     = 5
	ExitLookup       = 6
	ExitSearch       = 7
	ExitNoCandidates = 8
	ExitRank         = 9
)

var stageCodes = map[Stage]int{
	StageImage:      ExitImage,
	StageCatalog:    ExitCatalog,
	StageTaxonomy:   ExitNoChoices,
	StageClassify:   ExitClassify,
	StageLookup:     ExitLookup,
	StageSearch:     ExitSearch,
	StageCandidates: ExitNoCandidates,
	StageRank:       ExitRank,
}

var (
	// ErrEmptyTaxonomy is returned when flattening yields no choices
	ErrEmptyTaxonomy = errors.New("taxonomy has no titled leaves")

	// ErrNoCandidates is returned when the search finds no problems
	ErrNoCandidates = errors.New("search returned no problems")
)

// HaltError reports the stage that stopped a run
type HaltError struct {
	Stage Stage
	Code  int
	Err   error
}

func (e *HaltError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *HaltError) Unwrap() error {
	return e.Err
}

func halt(stage Stage, err error) *HaltError {
	return &HaltError{Stage: stage, Code: stageCodes[stage], Err: err}
}

// ExitCode maps a Run error to a process exit code. Errors that are not
// halts count as usage errors.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var h *HaltError
	if errors.As(err, &h) {
		return h.Code
	}
	return ExitUsage
}
