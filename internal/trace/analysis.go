package trace

import (
	"fmt"
)

// AverageFrequency computes the time-weighted mean frequency over the given
// window from a table of one CPU's frequency-change events. The frequency in
// effect at any instant is the state of the most recent event at or before
// it; each value is weighted by how long it remained selected.
func AverageFrequency(freqEvents Table, window Window) (float64, error) {
	span := window.End - window.Start
	if span <= 0 {
		return 0, fmt.Errorf("invalid window %v..%v", window.Start, window.End)
	}

	// frequency in effect when the window opens
	current := uint64(0)
	known := false
	for _, event := range freqEvents {
		if event.Timestamp > window.Start {
			break
		}
		freq, err := event.Uint("state")
		if err != nil {
			return 0, err
		}
		current = freq
		known = true
	}
	if !known {
		return 0, fmt.Errorf("no frequency sample at or before window start %v: %w",
			window.Start, ErrNoEnclosingSample)
	}

	weighted := 0.0
	prev := window.Start
	for _, event := range freqEvents {
		if event.Timestamp <= window.Start {
			continue
		}
		ts := event.Timestamp
		if ts > window.End {
			break
		}
		freq, err := event.Uint("state")
		if err != nil {
			return 0, err
		}
		weighted += float64(current) * float64(ts-prev)
		prev = ts
		current = freq
	}
	weighted += float64(current) * float64(window.End-prev)

	return weighted / float64(span), nil
}
