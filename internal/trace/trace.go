package trace

import (
	"fmt"
	"strconv"
	"time"
)

// Event is one parsed trace record. Timestamps are offsets from the start
// of the capture. Fields holds the raw key=value payload of the record.
type Event struct {
	Timestamp time.Duration
	Name      string
	Fields    map[string]string
}

// Uint returns the named field parsed as an unsigned integer.
func (e Event) Uint(key string) (uint64, error) {
	raw, found := e.Fields[key]
	if !found {
		return 0, fmt.Errorf("event %s at %v has no field %q", e.Name, e.Timestamp, key)
	}

	val, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("field %q of event %s is not an unsigned integer: %w", key, e.Name, err)
	}
	return val, nil
}

// Table is a timestamp-ordered sequence of events.
type Table []Event

// Filter returns the events satisfying the predicate, preserving order.
func (t Table) Filter(pred func(Event) bool) Table {
	filtered := make(Table, 0, len(t))
	for _, event := range t {
		if pred(event) {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

// FilterCPU returns the events whose cpu_id field matches the given CPU.
func (t Table) FilterCPU(cpu uint) Table {
	return t.Filter(func(e Event) bool {
		id, err := e.Uint("cpu_id")
		return err == nil && uint(id) == cpu
	})
}

// Source provides query access to one captured trace. Implementations are
// read-only; repeated queries over the same capture return the same events.
type Source interface {
	// Events returns the trace's records for the named event, ordered by
	// timestamp.
	Events(name string) (Table, error)
}
