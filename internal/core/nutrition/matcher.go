package nutrition

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"nutrition-calculator/internal/pkg/common"
)

// Resolver resolves a normalized ingredient name to per-100g values.
type Resolver interface {
	Resolve(ctx context.Context, name string) MatchResult
}

// Matcher resolves names through the manual table, the reference store and
// finally a category estimate. Resolve never fails.
type Matcher struct {
	tables         *Tables
	store          ReferenceStore
	queryTimeout   time.Duration
	fuzzyThreshold float64
	chainThreshold float64
}

// NewMatcher builds a Matcher. store may be nil, in which case only the
// manual table and category estimates are used.
func NewMatcher(tables *Tables, store ReferenceStore, opts Options) *Matcher {
	opts = opts.withDefaults()
	return &Matcher{
		tables:         tables,
		store:          store,
		queryTimeout:   opts.QueryTimeout,
		fuzzyThreshold: opts.FuzzyThreshold,
		chainThreshold: opts.ChainFuzzyThreshold,
	}
}

// errStoreFailed marks a store error that aborts the store tiers.
var errStoreFailed = errors.New("reference store failed")

func (m *Matcher) Resolve(ctx context.Context, name string) MatchResult {
	name = strings.ToLower(strings.TrimSpace(name))

	result, err := m.resolve(ctx, name)
	if err != nil {
		common.LogWarn("reference store unavailable, using category estimate",
			zap.String("ingredient", name),
			zap.Error(err),
		)
	}
	if result != nil {
		return *result
	}
	return m.estimate(name)
}

// resolution carries per-call state so the food name list is read at most
// once per Resolve.
type resolution struct {
	m     *Matcher
	names []string
	read  bool
}

type lookupStep struct {
	tier string
	find func(context.Context, string) (*FoodRecord, error)
	arg  string
}

func (m *Matcher) resolve(ctx context.Context, name string) (*MatchResult, error) {
	r := &resolution{m: m}

	if label, ok := m.tables.Names.Corrections[name]; ok {
		if per100g, ok := m.manual(name); ok {
			return &MatchResult{Source: SourceManualTable, Label: label, Per100g: per100g}, nil
		}
		rec, err := r.lookup(ctx, strings.ToLower(label))
		if err != nil {
			return nil, err
		}
		if rec != nil {
			return &MatchResult{Source: SourceReferenceDB, Label: label, Per100g: rec.Per100g}, nil
		}
	}

	if per100g, ok := m.manual(name); ok {
		return &MatchResult{Source: SourceManualTable, Label: name + " (standard values)", Per100g: per100g}, nil
	}

	rec, err := r.lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		if rec, err = r.fuzzy(ctx, name); err != nil {
			return nil, err
		}
	}
	if rec != nil {
		return &MatchResult{Source: SourceReferenceDB, Label: rec.Name, Per100g: rec.Per100g}, nil
	}
	return nil, nil
}

// manual returns the first manual entry whose name occurs in name.
func (m *Matcher) manual(name string) (NutrientVector, bool) {
	for _, e := range m.tables.Matching.Manual {
		if strings.Contains(name, e.Name) {
			return e.Per100g, true
		}
	}
	return NutrientVector{}, false
}

// lookup runs the store chain: exact, substring both ways, variations, then
// fuzzy above the chain threshold. A nil record with nil error is a miss.
func (r *resolution) lookup(ctx context.Context, name string) (*FoodRecord, error) {
	m := r.m
	if m.store == nil || name == "" {
		return nil, nil
	}

	steps := []lookupStep{
		{"exact", m.store.FindExact, name},
		{"partial", m.store.FindContaining, name},
		{"contained", m.store.FindContainedIn, name},
	}
	for _, variant := range m.Variations(name) {
		steps = append(steps, lookupStep{"variation", m.store.FindContaining, variant})
	}

	for _, step := range steps {
		rec, err := m.query(ctx, step.find, step.arg)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			common.LogDebug("reference match",
				zap.String("ingredient", name),
				zap.String("tier", step.tier),
				zap.String("query", step.arg),
				zap.String("food", rec.Name),
			)
			return rec, nil
		}
	}

	best, score, err := r.bestFuzzy(ctx, name, Ratio)
	if err != nil {
		return nil, err
	}
	if best != "" && score > m.chainThreshold {
		return m.fetchByName(ctx, name, best, score)
	}
	return nil, nil
}

// fuzzy is the standalone fuzzy tier: word order and punctuation are
// ignored and the lower threshold applies.
func (r *resolution) fuzzy(ctx context.Context, name string) (*FoodRecord, error) {
	m := r.m
	if m.store == nil || name == "" {
		return nil, nil
	}
	best, score, err := r.bestFuzzy(ctx, name, func(a, b string) float64 {
		return max(Ratio(a, b), TokenSortRatio(a, b))
	})
	if err != nil {
		return nil, err
	}
	if best != "" && score > m.fuzzyThreshold {
		return m.fetchByName(ctx, name, best, score)
	}
	return nil, nil
}

// bestFuzzy returns the highest scoring food name; ties keep the first seen.
func (r *resolution) bestFuzzy(ctx context.Context, name string, score func(a, b string) float64) (string, float64, error) {
	if !r.read {
		qctx, cancel := context.WithTimeout(ctx, r.m.queryTimeout)
		names, err := r.m.store.FoodNames(qctx)
		cancel()
		if err != nil {
			return "", 0, fmt.Errorf("%w: list food names: %v", errStoreFailed, err)
		}
		r.names, r.read = names, true
	}

	var best string
	var bestScore float64
	for _, candidate := range r.names {
		if s := score(name, strings.ToLower(candidate)); s > bestScore {
			best, bestScore = candidate, s
		}
	}
	return best, bestScore, nil
}

func (m *Matcher) fetchByName(ctx context.Context, name, food string, score float64) (*FoodRecord, error) {
	rec, err := m.query(ctx, m.store.FindExact, strings.ToLower(food))
	if err != nil || rec == nil {
		return nil, err
	}
	common.LogDebug("fuzzy reference match",
		zap.String("ingredient", name),
		zap.String("food", rec.Name),
		zap.Float64("score", score),
	)
	return rec, nil
}

// query runs one bounded store call and folds ErrFoodNotFound into a miss.
func (m *Matcher) query(ctx context.Context, find func(context.Context, string) (*FoodRecord, error), arg string) (*FoodRecord, error) {
	qctx, cancel := context.WithTimeout(ctx, m.queryTimeout)
	defer cancel()

	rec, err := find(qctx, arg)
	switch {
	case errors.Is(err, ErrFoodNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("%w: %v", errStoreFailed, err)
	}
	return rec, nil
}

// Variations lists alternate spellings tried against the store, in order:
// plural toggle, regional variations, then the name without parentheses.
func (m *Matcher) Variations(name string) []string {
	var out []string
	if strings.HasSuffix(name, "s") {
		out = append(out, strings.TrimSuffix(name, "s"))
	} else {
		out = append(out, name+"s")
	}

	for _, group := range m.tables.Names.Variations {
		if name == group.Canonical {
			out = append(out, group.Alternates...)
			continue
		}
		for _, alt := range group.Alternates {
			if alt == name {
				out = append(out, group.Canonical)
				for _, other := range group.Alternates {
					if other != name {
						out = append(out, other)
					}
				}
				break
			}
		}
	}

	if clean, _, found := strings.Cut(name, "("); found {
		if clean = strings.TrimSpace(clean); clean != name && clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

// estimate is the last tier and cannot fail.
func (m *Matcher) estimate(name string) MatchResult {
	category := m.tables.CategoryOf(name)
	per100g, ok := m.tables.Matching.CategoryEstimates[category]
	if !ok {
		per100g = m.tables.Matching.CategoryEstimates[categoryDefault]
	}
	return MatchResult{Source: SourceCategoryEstimate, Label: LabelEstimated, Per100g: per100g}
}
