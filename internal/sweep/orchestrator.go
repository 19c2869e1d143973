package sweep

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
)

// Orchestrator runs a sweep's items strictly sequentially. All items share
// one physical target and one tuning-group namespace, so each item must
// fully complete its execution before the next one is configured.
type Orchestrator interface {
	// RunSweep executes every item in order, fail-fast. On execution
	// failure it returns the items that completed alongside the error, so
	// already-captured results can still be evaluated and reported.
	RunSweep(ctx context.Context) ([]*Item, error)
	// RequiredEvents is the sweep-wide union of trace events to capture.
	RequiredEvents() []string
}

type orchestratorImpl struct {
	factory ItemFactory
	logger  logr.Logger
}

func NewOrchestrator(factory ItemFactory, logger logr.Logger) Orchestrator {
	return &orchestratorImpl{
		factory: factory,
		logger:  logger,
	}
}

func (o *orchestratorImpl) RunSweep(ctx context.Context) ([]*Item, error) {
	items, err := o.factory.Items()
	if err != nil {
		return nil, fmt.Errorf("failed to create sweep items: %w", err)
	}

	executed := make([]*Item, 0, len(items))
	for _, item := range items {
		o.logger.Info("running sweep item",
			"boost", item.Boost(), "preferIdle", item.PreferIdle())

		if err := item.Configure(); err != nil {
			return executed, err
		}
		if err := item.Execute(ctx); err != nil {
			return executed, fmt.Errorf("sweep aborted at %s: %w", item.Label(), err)
		}
		executed = append(executed, item)
	}

	return executed, nil
}

func (o *orchestratorImpl) RequiredEvents() []string {
	return o.factory.RequiredEvents()
}

// EvaluateItems produces the labeled verdicts for already-executed items. An
// evaluation failure is fatal for that item only; the remaining items still
// report, and the per-item errors are joined into the returned error.
func EvaluateItems(items []*Item, marginPct float64) ([]LabeledResult, error) {
	results := make([]LabeledResult, 0, len(items))
	var errs []error

	for _, item := range items {
		result, err := item.Evaluate(marginPct)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, LabeledResult{Label: item.Label(), Result: result})
	}

	return results, errors.Join(errs...)
}
