package features

import (
	"sort"
	"time"

	"CrashRadar/internal/domain/models"
	"CrashRadar/pkg/util"
)

// Merge outer-joins the fetched series on calendar date.
// The result spans the union of all dates in ascending order; a feature without
// an observation on a date gets a Missing cell there. No filling of any kind.
// Columns follow order; series whose feature is not in order come after, sorted by name.
func Merge(series map[string]models.TimeSeries, order []string) *Table {
	byFeature := make(map[string]map[time.Time]float64, len(series))
	dateSet := make(map[time.Time]struct{})
	for feature, s := range series {
		values := make(map[time.Time]float64, len(s.Points))
		for _, p := range s.Points {
			d := util.Day(p.Date)
			values[d] = p.Value
			dateSet[d] = struct{}{}
		}
		byFeature[feature] = values
	}

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	t := NewTable(dates)
	for _, feature := range columnOrder(byFeature, order) {
		values := byFeature[feature]
		cells := make([]Cell, len(dates))
		for i, d := range dates {
			if v, ok := values[d]; ok {
				cells[i] = Present(v)
			}
		}
		t.mustAddColumn(feature, cells)
	}
	return t
}

func columnOrder(byFeature map[string]map[time.Time]float64, order []string) []string {
	out := make([]string, 0, len(byFeature))
	placed := make(map[string]struct{}, len(byFeature))
	for _, name := range order {
		if _, ok := byFeature[name]; !ok {
			continue
		}
		if _, dup := placed[name]; dup {
			continue
		}
		placed[name] = struct{}{}
		out = append(out, name)
	}
	var rest []string
	for name := range byFeature {
		if _, ok := placed[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
