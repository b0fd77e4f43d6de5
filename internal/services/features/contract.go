package features

import "fmt"

// Kind selects how an engineered column is derived.
type Kind string

const (
	KindRollingMean   Kind = "rolling_mean"    // trailing mean of Source
	KindRollingPctStd Kind = "rolling_pct_std" // trailing sample std of Source's period-over-period change
	KindConstant      Kind = "constant"        // Value on every row
	KindDayOfWeek     Kind = "day_of_week"     // Monday=0 ... Sunday=6
)

// Engineered describes one derived column appended after the raw schema.
type Engineered struct {
	Name   string
	Kind   Kind
	Source string
	Window int
	Value  float64
}

// Contract is the input contract between the feature pipeline and the model:
// raw column order, engineered columns, and the columns dropped before inference.
type Contract struct {
	Version    string
	Schema     []string
	Engineered []Engineered
	Exclude    []string
}

const (
	ColumnMA7VIX       = "MA7_VIX"
	ColumnXAUVol       = "XAU_BGNL_volatility"
	ColumnDummy        = "dummy_feature"
	ColumnDayOfWeek    = "day_of_week"
	DefaultWindow      = 7
	DefaultContractTag = "v1"
)

// DefaultContract is the contract the bundled crash model was trained with.
var DefaultContract = Contract{
	Version: DefaultContractTag,
	Schema: []string{
		"XAU BGNL", "BDIY", "CRY", "DXY", "JPY", "GBP", "Cl1",
		"VIX", "USGG30YR", "USGG2YR", "MXEU", "MXJP", "MXBR",
	},
	Engineered: []Engineered{
		{Name: ColumnMA7VIX, Kind: KindRollingMean, Source: "VIX", Window: DefaultWindow},
		{Name: ColumnXAUVol, Kind: KindRollingPctStd, Source: "XAU BGNL", Window: DefaultWindow},
		{Name: ColumnDummy, Kind: KindConstant, Value: 1},
	},
	Exclude: []string{ColumnDummy, "CRY"},
}

// WithWindow returns a copy of c whose rolling columns use window n.
func (c Contract) WithWindow(n int) Contract {
	out := c
	out.Engineered = make([]Engineered, len(c.Engineered))
	for i, e := range c.Engineered {
		if e.Kind == KindRollingMean || e.Kind == KindRollingPctStd {
			e.Window = n
		}
		out.Engineered[i] = e
	}
	return out
}

// Columns lists every formatted column in order: schema first, then engineered.
func (c Contract) Columns() []string {
	out := make([]string, 0, len(c.Schema)+len(c.Engineered))
	out = append(out, c.Schema...)
	for _, e := range c.Engineered {
		out = append(out, e.Name)
	}
	return out
}

// FeatureNames lists the model inputs in order: Columns minus Exclude.
func (c Contract) FeatureNames() []string {
	excluded := make(map[string]struct{}, len(c.Exclude))
	for _, name := range c.Exclude {
		excluded[name] = struct{}{}
	}
	cols := c.Columns()
	out := make([]string, 0, len(cols))
	for _, name := range cols {
		if _, ok := excluded[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// Width is the model input width.
func (c Contract) Width() int { return len(c.FeatureNames()) }

// Validate checks the contract is self-consistent.
func (c Contract) Validate() error {
	if len(c.Schema) == 0 {
		return fmt.Errorf("contract %s: empty schema", c.Version)
	}
	seen := make(map[string]struct{})
	for _, name := range c.Columns() {
		if _, dup := seen[name]; dup {
			return fmt.Errorf("contract %s: duplicate column %q", c.Version, name)
		}
		seen[name] = struct{}{}
	}
	for _, e := range c.Engineered {
		switch e.Kind {
		case KindRollingMean, KindRollingPctStd:
			if e.Window < 1 {
				return fmt.Errorf("contract %s: column %q needs a positive window", c.Version, e.Name)
			}
			if e.Source == "" {
				return fmt.Errorf("contract %s: column %q needs a source", c.Version, e.Name)
			}
		case KindConstant, KindDayOfWeek:
		default:
			return fmt.Errorf("contract %s: column %q has unknown kind %q", c.Version, e.Name, e.Kind)
		}
	}
	for _, name := range c.Exclude {
		if _, ok := seen[name]; !ok {
			return fmt.Errorf("contract %s: excluded column %q is not produced", c.Version, name)
		}
	}
	return nil
}
