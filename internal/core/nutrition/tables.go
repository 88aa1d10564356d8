package nutrition

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var embeddedTables []byte

// Tables is the immutable lookup configuration of the engine, grouped by
// the component that owns each table.
type Tables struct {
	Units        UnitTables         `yaml:"units"`
	Categories   []Category         `yaml:"categories"`
	Names        NameTables         `yaml:"names"`
	Matching     MatchingTables     `yaml:"matching"`
	Plausibility PlausibilityTables `yaml:"plausibility"`
	Serving      ServingTables      `yaml:"serving"`
	Profiles     []DishProfile      `yaml:"profiles"`

	profilesByName map[string]DishProfile
	wetTypes       map[string]bool
}

type UnitTables struct {
	Fixed          map[Unit]float64        `yaml:"fixed"`
	Measures       map[Unit]Measure        `yaml:"measures"`
	SizedPieces    map[string]SizedWeights `yaml:"sized_pieces"`
	CurryLeafGrams float64                 `yaml:"curry_leaf_grams"`
	Descriptions   DescriptionEstimates    `yaml:"descriptions"`
}

// Measure converts one household unit; Grams is keyed by exact ingredient
// name or by ingredient category.
type Measure struct {
	Grams   map[string]float64 `yaml:"grams"`
	Default float64            `yaml:"default"`
}

// SizedWeights maps a size qualifier to grams per piece.
type SizedWeights map[Size]float64

func (w SizedWeights) For(size Size) float64 {
	if g, ok := w[size]; ok {
		return g
	}
	return w[SizeDefault]
}

type DescriptionEstimates struct {
	CookingFat  float64            `yaml:"cooking_fat"`
	CookingSalt float64            `yaml:"cooking_salt"`
	Phrases     []PhraseWeight     `yaml:"phrases"`
	Categories  map[string]float64 `yaml:"categories"`
}

type PhraseWeight struct {
	Words []string `yaml:"words"`
	Grams float64  `yaml:"grams"`
}

// Category is an ingredient class recognised by keyword substring.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// SynonymGroup ties alternate spellings to one canonical name.
type SynonymGroup struct {
	Canonical  string   `yaml:"canonical"`
	Alternates []string `yaml:"alternates"`
}

type NameTables struct {
	Synonyms    []SynonymGroup    `yaml:"synonyms"`
	Corrections map[string]string `yaml:"corrections"`
	Variations  []SynonymGroup    `yaml:"variations"`
}

type ManualEntry struct {
	Name    string         `yaml:"name"`
	Per100g NutrientVector `yaml:"per_100g"`
}

type MatchingTables struct {
	Manual            []ManualEntry             `yaml:"manual"`
	CategoryEstimates map[string]NutrientVector `yaml:"category_estimates"`
}

type TotalsRules struct {
	LowCalorieLimit  float64        `yaml:"low_calorie_limit"`
	MinRows          int            `yaml:"min_rows"`
	TargetCalories   float64        `yaml:"target_calories"`
	MaxScale         float64        `yaml:"max_scale"`
	FiberShareLimit  float64        `yaml:"fiber_share_limit"`
	FiberShareTarget float64        `yaml:"fiber_share_target"`
	FiberCap         float64        `yaml:"fiber_cap"`
	FiberCapValue    float64        `yaml:"fiber_cap_value"`
	MacroDeviation   float64        `yaml:"macro_deviation"`
	Floor            NutrientVector `yaml:"floor"`
}

// NameOverride clamps a South Indian dish whose name contains every word
// in Contains: nutrients are raised to Floor and fiber is capped at FiberMax.
type NameOverride struct {
	Contains []string       `yaml:"contains"`
	Floor    NutrientVector `yaml:"floor"`
	FiberMax float64        `yaml:"fiber_max"`
}

type PlausibilityTables struct {
	Totals      TotalsRules               `yaml:"totals"`
	DishFloors  map[string]NutrientVector `yaml:"dish_floors"`
	FiberCaps   map[string]float64        `yaml:"fiber_caps"`
	GlobalFloor NutrientVector            `yaml:"global_floor"`
	SouthIndian []NameOverride            `yaml:"south_indian"`
}

type ServingTables struct {
	Sizes              map[string]ServingSize `yaml:"sizes"`
	Default            ServingSize            `yaml:"default"`
	BatchWeights       map[string]float64     `yaml:"batch_weights"`
	DefaultBatchWeight float64                `yaml:"default_batch_weight"`
	MinRawWeight       float64                `yaml:"min_raw_weight"`
	WetTypes           []string               `yaml:"wet_types"`
	WetFactor          float64                `yaml:"wet_factor"`
	DiscreteRatio      float64                `yaml:"discrete_ratio"`
	MLDensity          float64                `yaml:"ml_density"`
}

// DishProfile is a fixed per-serving answer for a well-known dish.
type DishProfile struct {
	Name       string         `yaml:"name"`
	DishType   string         `yaml:"dish_type"`
	Serving    ServingSize    `yaml:"serving"`
	PerServing NutrientVector `yaml:"per_serving"`
}

var (
	defaultTablesOnce sync.Once
	defaultTables     *Tables
	defaultTablesErr  error
)

// DefaultTables returns the embedded tables. They are parsed once and
// shared; callers must not modify them.
func DefaultTables() (*Tables, error) {
	defaultTablesOnce.Do(func() {
		defaultTables, defaultTablesErr = ParseTables(embeddedTables)
	})
	return defaultTables, defaultTablesErr
}

// MustDefaultTables is DefaultTables for tests and static wiring.
func MustDefaultTables() *Tables {
	t, err := DefaultTables()
	if err != nil {
		panic(fmt.Sprintf("embedded nutrition tables are invalid: %v", err))
	}
	return t
}

// LoadTables reads tables from path, or returns the embedded tables when
// path is empty.
func LoadTables(path string) (*Tables, error) {
	if path == "" {
		return DefaultTables()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file: %w", err)
	}
	return ParseTables(data)
}

// ParseTables decodes and validates a YAML tables document.
func ParseTables(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode tables: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	t.index()
	return &t, nil
}

func (t *Tables) validate() error {
	if len(t.Units.Fixed) == 0 || len(t.Units.Measures) == 0 {
		return fmt.Errorf("tables: units.fixed and units.measures are required")
	}
	for unit, m := range t.Units.Measures {
		if m.Default <= 0 {
			return fmt.Errorf("tables: measure %q needs a positive default", unit)
		}
	}
	for name, w := range t.Units.SizedPieces {
		if _, ok := w[SizeDefault]; !ok {
			return fmt.Errorf("tables: sized piece %q needs a default weight", name)
		}
	}
	if len(t.Categories) == 0 {
		return fmt.Errorf("tables: categories are required")
	}
	if _, ok := t.Matching.CategoryEstimates[categoryDefault]; !ok {
		return fmt.Errorf("tables: matching.category_estimates.default is required")
	}
	if t.Serving.Default.Quantity == "" {
		return fmt.Errorf("tables: serving.default is required")
	}
	if t.Serving.DefaultBatchWeight <= 0 {
		return fmt.Errorf("tables: serving.default_batch_weight must be positive")
	}
	return nil
}

func (t *Tables) index() {
	t.profilesByName = make(map[string]DishProfile, len(t.Profiles))
	for _, p := range t.Profiles {
		t.profilesByName[strings.ToLower(p.Name)] = p
	}
	t.wetTypes = make(map[string]bool, len(t.Serving.WetTypes))
	for _, dt := range t.Serving.WetTypes {
		t.wetTypes[dt] = true
	}
}

const categoryDefault = "default"

// CategoryOf classifies an ingredient name by the first category whose
// keyword occurs in it, or "default".
func (t *Tables) CategoryOf(name string) string {
	name = strings.ToLower(name)
	for _, c := range t.Categories {
		for _, kw := range c.Keywords {
			if strings.Contains(name, kw) {
				return c.Name
			}
		}
	}
	return categoryDefault
}

// Profile returns the predefined profile for a lower-cased dish name.
func (t *Tables) Profile(dishName string) (DishProfile, bool) {
	p, ok := t.profilesByName[dishName]
	return p, ok
}
