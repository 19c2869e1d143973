package sweep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"

	"github.com/perfkit/schedtune-validator/internal/cgroup"
	"github.com/perfkit/schedtune-validator/internal/estimator"
	"github.com/perfkit/schedtune-validator/internal/platform"
	"github.com/perfkit/schedtune-validator/internal/trace"
	"github.com/perfkit/schedtune-validator/internal/workload"
)

// State tracks an item's progress through its lifecycle. Transitions only
// move forward; evaluation may repeat since it only reads captured data.
type State int

const (
	StateCreated State = iota
	StateConfigured
	StateExecuted
	StateEvaluated
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateConfigured:
		return "configured"
	case StateExecuted:
		return "executed"
	case StateEvaluated:
		return "evaluated"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// TraceOpener opens the trace captured in an item's artifact directory.
type TraceOpener func(itemDir string) (trace.Source, error)

// ItemDeps carries the collaborators every sweep item needs.
type ItemDeps struct {
	Platform     *platform.Info
	Runner       workload.Runner
	OpenTrace    TraceOpener
	ArtifactRoot string
	Logger       logr.Logger
}

// Item is one sweep point: a workload execution under one tuning-group
// configuration, later evaluated against the captured trace.
type Item struct {
	boost      int
	preferIdle bool
	deps       ItemDeps
	dir        string
	group      cgroup.Config
	state      State
}

// NewItem returns an item in the created state. Its artifact directory is
// derived from the boost and idle-preference values so repeated sweeps do
// not collide across items.
func NewItem(boost int, preferIdle bool, deps ItemDeps) *Item {
	return &Item{
		boost:      boost,
		preferIdle: preferIdle,
		deps:       deps,
		dir:        filepath.Join(deps.ArtifactRoot, itemDirName(boost, preferIdle)),
		state:      StateCreated,
	}
}

func itemDirName(boost int, preferIdle bool) string {
	preferIdleVal := 0
	if preferIdle {
		preferIdleVal = 1
	}
	return fmt.Sprintf("boost_%d_prefer_idle_%d", boost, preferIdleVal)
}

func (i *Item) Boost() int       { return i.boost }
func (i *Item) PreferIdle() bool { return i.preferIdle }
func (i *Item) State() State     { return i.state }
func (i *Item) Dir() string      { return i.dir }

// Label is the item's stable sweep key, derived from the boost level.
func (i *Item) Label() string {
	return fmt.Sprintf("boost%d", i.boost)
}

// Group returns the tuning-group descriptor; only valid once configured.
func (i *Item) Group() cgroup.Config {
	return i.group
}

// RequiredEvents lists the trace events this item's evaluation consumes.
func (i *Item) RequiredEvents() []string {
	return []string{"cpu_frequency", "sched_switch"}
}

// Configure builds the item's tuning-group descriptor.
func (i *Item) Configure() error {
	if i.state != StateCreated {
		return fmt.Errorf("cannot configure item %s in state %s", i.Label(), i.state)
	}

	i.group = cgroup.Build(i.boost, i.preferIdle)
	i.state = StateConfigured
	return nil
}

// Execute runs the workload under the item's tuning group, synchronously,
// writing all artifacts into the item directory. The directory is created
// fresh; execution and trace capture must fully complete before evaluation.
func (i *Item) Execute(ctx context.Context) error {
	if i.state != StateConfigured {
		return fmt.Errorf("cannot execute item %s in state %s", i.Label(), i.state)
	}

	cpu, err := i.deps.Platform.BiggestCPU()
	if err != nil {
		return fmt.Errorf("item %s: %w", i.Label(), err)
	}

	if err := os.MkdirAll(i.dir, 0755); err != nil {
		return fmt.Errorf("failed to create item directory %s: %w", i.dir, err)
	}

	profile := workload.TinyRTProfile(cpu)
	if err := i.deps.Runner.Run(ctx, profile, i.group, i.dir); err != nil {
		return fmt.Errorf("item %s: %w", i.Label(), err)
	}

	i.state = StateExecuted
	return nil
}

// Evaluate produces the item's verdict from the captured trace. It is lazy
// and idempotent: it only reads already-captured data and may be invoked
// again, e.g. with a different margin.
func (i *Item) Evaluate(marginPct float64) (ItemResult, error) {
	if i.state != StateExecuted && i.state != StateEvaluated {
		return ItemResult{}, fmt.Errorf("cannot evaluate item %s in state %s", i.Label(), i.state)
	}

	plat := i.deps.Platform
	cpu, err := plat.BiggestCPU()
	if err != nil {
		return ItemResult{}, fmt.Errorf("item %s: %w", i.Label(), err)
	}
	freqs, err := plat.AvailableFreqs(cpu)
	if err != nil {
		return ItemResult{}, fmt.Errorf("item %s: %w", i.Label(), err)
	}
	maxFreq := freqs[len(freqs)-1]

	// advisory only, the verdict is judged purely on the numeric margin
	if supported, err := platform.BoostHoldSupported(plat.KernelVersion); err != nil {
		i.deps.Logger.V(5).Info("skipping boost-hold check", "error", err.Error())
	} else if !supported {
		i.deps.Logger.Info("kernel may lack the RT boost hold, frequency comparison may be unreliable",
			"kernel", plat.KernelVersion)
	}

	source, err := i.deps.OpenTrace(i.dir)
	if err != nil {
		return ItemResult{}, fmt.Errorf("item %s: %w", i.Label(), err)
	}

	switches, err := source.Events("sched_switch")
	if err != nil {
		return ItemResult{}, fmt.Errorf("item %s: %w", i.Label(), err)
	}
	workloadStart, workloadStop, err := trace.TaskWindow(switches, workload.ValidationTaskName)
	if err != nil {
		return ItemResult{}, fmt.Errorf("item %s: %w", i.Label(), err)
	}

	allFreqEvents, err := source.Events("cpu_frequency")
	if err != nil {
		return ItemResult{}, fmt.Errorf("item %s: %w", i.Label(), err)
	}
	freqEvents := allFreqEvents.FilterCPU(cpu)

	window, err := trace.LocateWindow(freqEvents, workloadStart, workloadStop)
	if err != nil {
		return ItemResult{}, fmt.Errorf("item %s: %w", i.Label(), err)
	}

	avgFreq, err := trace.AverageFrequency(freqEvents, window)
	if err != nil {
		return ItemResult{}, fmt.Errorf("item %s: %w", i.Label(), err)
	}

	targetFreq, err := estimator.TargetFrequency(i.boost, maxFreq, freqs)
	if err != nil {
		return ItemResult{}, fmt.Errorf("item %s: %w", i.Label(), err)
	}

	distancePct, passed := estimator.Validate(targetFreq, avgFreq, marginPct)

	i.deps.Logger.V(5).Info("item evaluated",
		"label", i.Label(),
		"targetFreqKHz", uint64(targetFreq),
		"avgFreqKHz", avgFreq,
		"distancePct", distancePct,
		"passed", passed)

	i.state = StateEvaluated
	return ItemResult{
		Boost:         i.boost,
		PreferIdle:    i.preferIdle,
		TargetFreqKHz: targetFreq,
		AvgFreqKHz:    avgFreq,
		DistancePct:   distancePct,
		Passed:        passed,
	}, nil
}
