package features

import (
	"time"

	applogger "CrashRadar/pkg/logger"
)

// Formatter projects merged tables onto a contract.
type Formatter struct {
	contract Contract
	logger   *applogger.Logger
}

func NewFormatter(contract Contract, logger *applogger.Logger) *Formatter {
	if logger == nil {
		logger = applogger.NewNop()
	}
	return &Formatter{contract: contract, logger: logger}
}

// Contract returns the contract this formatter targets.
func (f *Formatter) Contract() Contract { return f.contract }

// Format returns a new table over the same dates holding exactly the contract's
// schema columns, in schema order, followed by its engineered columns.
// Schema columns absent from in are filled with Missing. Engineered columns are
// derived only from the placed schema columns; one whose source is absent is skipped.
// Format(Format(t)) has the same columns and cells as Format(t).
func (f *Formatter) Format(in *Table) *Table {
	out := NewTable(in.Dates)

	var filled []string
	for _, name := range f.contract.Schema {
		cells, ok := in.Column(name)
		if !ok {
			filled = append(filled, name)
			cells = missingCells(in.Len())
		}
		out.mustAddColumn(name, cells)
	}
	if len(filled) > 0 {
		f.logger.Warn("features filled with missing marker",
			applogger.Strings("features", filled),
			applogger.String("contract", f.contract.Version),
		)
	}

	for _, e := range f.contract.Engineered {
		cells, ok := f.engineer(out, e)
		if !ok {
			f.logger.Warn("engineered feature skipped",
				applogger.String("feature", e.Name),
				applogger.String("source", e.Source),
			)
			continue
		}
		out.mustAddColumn(e.Name, cells)
	}
	return out
}

func (f *Formatter) engineer(t *Table, e Engineered) ([]Cell, bool) {
	switch e.Kind {
	case KindConstant:
		cells := make([]Cell, t.Len())
		for i := range cells {
			cells[i] = Present(e.Value)
		}
		return cells, true
	case KindDayOfWeek:
		cells := make([]Cell, t.Len())
		for i, d := range t.Dates {
			cells[i] = Present(float64(mondayFirst(d.Weekday())))
		}
		return cells, true
	}

	src, ok := t.Column(e.Source)
	if !ok {
		return nil, false
	}
	switch e.Kind {
	case KindRollingMean:
		return RollingMean(src, e.Window), true
	case KindRollingPctStd:
		return RollingStdDev(PctChange(src), e.Window), true
	default:
		return nil, false
	}
}

func mondayFirst(d time.Weekday) int {
	return (int(d) + 6) % 7
}
