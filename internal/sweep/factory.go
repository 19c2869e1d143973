package sweep

// The fixed boost sweep: 20% to 100% in steps of 20, idle preference off.
var defaultBoostLevels = []int{20, 40, 60, 80, 100}

// ItemFactory produces the items for one sweep. Implementations per
// platform or test variant are injected into the orchestrator.
type ItemFactory interface {
	// Items materializes the sweep's items, in execution order.
	Items() ([]*Item, error)
	// RequiredEvents is the union of the trace events every produced item
	// needs, handed to the capture configuration before execution.
	RequiredEvents() []string
}

// FreqSweepFactory builds the boost frequency sweep.
type FreqSweepFactory struct {
	// Boosts overrides the default boost levels when non-empty.
	Boosts []int
	Deps   ItemDeps
}

func (f *FreqSweepFactory) Items() ([]*Item, error) {
	boosts := f.Boosts
	if len(boosts) == 0 {
		boosts = defaultBoostLevels
	}

	items := make([]*Item, 0, len(boosts))
	for _, boost := range boosts {
		items = append(items, NewItem(boost, false, f.Deps))
	}
	return items, nil
}

func (f *FreqSweepFactory) RequiredEvents() []string {
	items, err := f.Items()
	if err != nil {
		return nil
	}

	seen := map[string]struct{}{}
	var union []string
	for _, item := range items {
		for _, event := range item.RequiredEvents() {
			if _, found := seen[event]; found {
				continue
			}
			seen[event] = struct{}{}
			union = append(union, event)
		}
	}
	return union
}
