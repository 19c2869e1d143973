package cgroup

const (
	groupName      = "stune_validator"
	controllerName = "schedtune"
)

// Attributes holds the schedtune knobs applied to every task in the group.
// PreferIdle is carried as 0/1 to match the descriptor consumed by the
// target layer.
type Attributes struct {
	Boost      int
	PreferIdle int
}

// Config describes one schedtune tuning group. Instances are immutable once
// built; one is created per sweep item.
type Config struct {
	Name       string
	Controller string
	Attributes Attributes
}

// Build returns the tuning-group descriptor for the given boost level and
// idle preference. Boost is passed through untouched even when outside
// [0, 100]; the target layer is the authority on the valid range.
func Build(boost int, preferIdle bool) Config {
	preferIdleVal := 0
	if preferIdle {
		preferIdleVal = 1
	}

	return Config{
		Name:       groupName,
		Controller: controllerName,
		Attributes: Attributes{
			Boost:      boost,
			PreferIdle: preferIdleVal,
		},
	}
}
