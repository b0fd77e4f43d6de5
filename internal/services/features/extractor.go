package features

import (
	"errors"
	"fmt"

	"CrashRadar/internal/domain/models"
)

var (
	// ErrEmptyTable means there is no row to extract.
	ErrEmptyTable = errors.New("formatted table has no rows")
	// ErrSchemaExclusion means a column the model contract drops is not in the table,
	// so the remaining columns cannot be trusted to line up with the model.
	ErrSchemaExclusion = errors.New("excluded column missing from formatted table")
)

// ExtractLatest turns the most recent row of t into a feature vector.
// Missing cells become 0 here and nowhere earlier. Every name in exclude must be
// a column of t; those columns are dropped and the rest keep table order.
func ExtractLatest(t *Table, exclude []string) (models.FeatureVector, error) {
	if t == nil || t.Len() == 0 {
		return models.FeatureVector{}, ErrEmptyTable
	}

	drop := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		if !t.Has(name) {
			return models.FeatureVector{}, fmt.Errorf("%w: %q", ErrSchemaExclusion, name)
		}
		drop[name] = struct{}{}
	}

	last := t.Len() - 1
	v := models.FeatureVector{
		Date:   t.Dates[last],
		Names:  make([]string, 0, t.Width()-len(drop)),
		Values: make([]float64, 0, t.Width()-len(drop)),
	}
	for _, col := range t.Columns() {
		if _, skip := drop[col.Name]; skip {
			continue
		}
		v.Names = append(v.Names, col.Name)
		v.Values = append(v.Values, col.Cells[last].ValueOrZero())
	}
	return v, nil
}

// MissingAt lists the columns whose latest cell is Missing, i.e. the features
// that ExtractLatest reports as 0 without an observation behind them.
func MissingAt(t *Table, exclude []string) []string {
	if t == nil || t.Len() == 0 {
		return nil
	}
	drop := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		drop[name] = struct{}{}
	}
	last := t.Len() - 1
	var out []string
	for _, col := range t.Columns() {
		if _, skip := drop[col.Name]; skip {
			continue
		}
		if !col.Cells[last].Valid {
			out = append(out, col.Name)
		}
	}
	return out
}
