package trace

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoEnclosingSample is returned when no frequency-change event exists
// strictly before the workload started or strictly after it stopped. The
// average frequency over the workload cannot be computed without one
// bracketing sample on each side.
var ErrNoEnclosingSample = errors.New("no enclosing frequency sample")

// ErrTaskNotTraced is returned when the workload task never appears in the
// capture's scheduling events.
var ErrTaskNotTraced = errors.New("task not found in trace")

// Window is the span between the two frequency-change events that enclose
// the workload's execution.
type Window struct {
	Start time.Duration
	End   time.Duration
}

// LocateWindow finds the bounding frequency-event timestamps around the
// workload: the greatest event timestamp strictly before workloadStart and
// the least strictly after workloadStop. The instantaneous frequency at any
// time is defined by the most recent preceding change event, so sampling
// strictly inside the workload span could miss the frequency already in
// effect when it began.
func LocateWindow(events Table, workloadStart, workloadStop time.Duration) (Window, error) {
	window := Window{Start: -1, End: -1}

	for _, event := range events {
		if event.Timestamp < workloadStart {
			window.Start = event.Timestamp
		}
		if event.Timestamp > workloadStop {
			window.End = event.Timestamp
			break
		}
	}

	if window.Start < 0 {
		return Window{}, fmt.Errorf("before workload start %v: %w", workloadStart, ErrNoEnclosingSample)
	}
	if window.End < 0 {
		return Window{}, fmt.Errorf("after workload stop %v: %w", workloadStop, ErrNoEnclosingSample)
	}

	return window, nil
}

// TaskWindow returns the span between the first and last time the named task
// was switched in, from sched_switch events. rt-app suffixes thread names
// with an index, so "<task>-<n>" also matches.
func TaskWindow(switchEvents Table, task string) (start, stop time.Duration, err error) {
	matched := false
	for _, event := range switchEvents {
		comm := event.Fields["next_comm"]
		if comm != task && !strings.HasPrefix(comm, task+"-") {
			continue
		}
		if !matched {
			start = event.Timestamp
			matched = true
		}
		stop = event.Timestamp
	}

	if !matched {
		return 0, 0, fmt.Errorf("task %q: %w", task, ErrTaskNotTraced)
	}
	return start, stop, nil
}
