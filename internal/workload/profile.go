package workload

import (
	"context"
	"time"

	"github.com/perfkit/schedtune-validator/internal/cgroup"
)

// Policy is the scheduling class requested for a profile's task.
type Policy string

const (
	PolicyFIFO  Policy = "SCHED_FIFO"
	PolicyOther Policy = "SCHED_OTHER"
)

// ValidationTaskName is the task name the reference workload runs under; the
// trace analysis locates the workload window by this name.
const ValidationTaskName = "rta_stune"

// PeriodicProfile is a declarative description of one periodic task.
type PeriodicProfile struct {
	Name         string
	DutyCyclePct int
	Duration     time.Duration
	Period       time.Duration
	CPUs         []uint
	Policy       Policy
}

// TinyRTProfile returns the frequency-validation workload: a 1% duty cycle
// FIFO task pinned to the given CPU. The task is small enough to have no
// frequency impact of its own without boost, and RT so the boost hold keeps
// the selected frequency stable.
func TinyRTProfile(cpu uint) PeriodicProfile {
	return PeriodicProfile{
		Name:         ValidationTaskName,
		DutyCyclePct: 1,
		Duration:     10 * time.Second,
		Period:       16 * time.Millisecond,
		CPUs:         []uint{cpu},
		Policy:       PolicyFIFO,
	}
}

// Runner executes a profile on the target inside a tuning group, writing all
// artifacts (workload config, logs, trace capture) into outDir. Run is
// synchronous: when it returns, the workload has finished and its trace is
// on disk.
type Runner interface {
	Run(ctx context.Context, profile PeriodicProfile, group cgroup.Config, outDir string) error
}
