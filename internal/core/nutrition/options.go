package nutrition

import "time"

const (
	// DefaultWeightGrams is used for unknown units and failed ingredients.
	DefaultWeightGrams = 50.0
	// FuzzyThreshold is the bar for the standalone fuzzy tier.
	FuzzyThreshold = 70.0
	// ChainFuzzyThreshold is the bar for fuzzy matching inside the store lookup chain.
	ChainFuzzyThreshold = 80.0

	DefaultQueryTimeout = 2 * time.Second
)

// Options tunes the engine without touching the tables.
type Options struct {
	DefaultWeightGrams  float64
	FuzzyThreshold      float64
	ChainFuzzyThreshold float64
	QueryTimeout        time.Duration
}

func DefaultOptions() Options {
	return Options{
		DefaultWeightGrams:  DefaultWeightGrams,
		FuzzyThreshold:      FuzzyThreshold,
		ChainFuzzyThreshold: ChainFuzzyThreshold,
		QueryTimeout:        DefaultQueryTimeout,
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.DefaultWeightGrams <= 0 {
		o.DefaultWeightGrams = d.DefaultWeightGrams
	}
	if o.FuzzyThreshold <= 0 {
		o.FuzzyThreshold = d.FuzzyThreshold
	}
	if o.ChainFuzzyThreshold <= 0 {
		o.ChainFuzzyThreshold = d.ChainFuzzyThreshold
	}
	if o.QueryTimeout <= 0 {
		o.QueryTimeout = d.QueryTimeout
	}
	return o
}
