package sweep

import (
	"github.com/perfkit/schedtune-validator/internal/platform"
)

// ItemResult is the verdict for one sweep point, immutable once produced.
type ItemResult struct {
	Boost         int
	PreferIdle    bool
	TargetFreqKHz platform.KHz
	AvgFreqKHz    float64
	DistancePct   float64
	Passed        bool
}

// LabeledResult pairs an item verdict with its stable sweep label so merge
// order is deterministic.
type LabeledResult struct {
	Label  string
	Result ItemResult
}

// Result is the aggregated verdict over a whole sweep.
type Result struct {
	PerItem       map[string]ItemResult
	FailedLabels  []string
	OverallPassed bool
}

// Merge folds per-item verdicts into the sweep verdict. OverallPassed is the
// conjunction of every item's result; FailedLabels lists the labels that did
// not pass, in input order. Merge is pure and never fails; an empty input
// yields a vacuous pass.
func Merge(results []LabeledResult) Result {
	merged := Result{
		PerItem:       make(map[string]ItemResult, len(results)),
		OverallPassed: true,
	}

	for _, labeled := range results {
		merged.PerItem[labeled.Label] = labeled.Result
		if !labeled.Result.Passed {
			merged.OverallPassed = false
			merged.FailedLabels = append(merged.FailedLabels, labeled.Label)
		}
	}

	return merged
}
