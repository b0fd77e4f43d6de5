package features

import (
	"gonum.org/v1/gonum/stat"
)

// RollingMean is the trailing mean over the last window rows, using whatever
// present cells the window holds. A window with no present cell is Missing.
func RollingMean(cells []Cell, window int) []Cell {
	return rolling(cells, window, 1, func(vals []float64) float64 {
		return stat.Mean(vals, nil)
	})
}

// RollingStdDev is the trailing sample standard deviation over the last window rows.
// It needs at least two present cells in the window.
func RollingStdDev(cells []Cell, window int) []Cell {
	return rolling(cells, window, 2, func(vals []float64) float64 {
		return stat.StdDev(vals, nil)
	})
}

func rolling(cells []Cell, window, minPresent int, fn func([]float64) float64) []Cell {
	out := make([]Cell, len(cells))
	if window < 1 {
		return out
	}
	vals := make([]float64, 0, window)
	for i := range cells {
		vals = vals[:0]
		for j := max(0, i-window+1); j <= i; j++ {
			if cells[j].Valid {
				vals = append(vals, cells[j].Float64)
			}
		}
		if len(vals) >= minPresent {
			out[i] = Present(fn(vals))
		}
	}
	return out
}

// PctChange is the relative change of each present cell against the previous
// present cell, c_t/c_prev - 1. Missing rows stay Missing and are skipped over,
// never filled. The first observation and any change from zero are Missing.
func PctChange(cells []Cell) []Cell {
	out := make([]Cell, len(cells))
	prev := Missing
	for i, c := range cells {
		if !c.Valid {
			continue
		}
		if prev.Valid && prev.Float64 != 0 {
			out[i] = Present(c.Float64/prev.Float64 - 1)
		}
		prev = c
	}
	return out
}
