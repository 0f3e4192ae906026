package timeseries

import (
	"sort"

	"github.com/samber/lo"

	"github.com/de-tools/transparency-atlas/pkg/models/domain"
)

// Assemble lays out dm as one row per period, ascending by label, with one
// value per country in the given order. Countries missing from a period
// contribute 0.
func Assemble(dm domain.DatasetMap, countries []string) []domain.TimeSeriesRow {
	rows := make([]domain.TimeSeriesRow, 0, len(dm))
	for _, period := range Periods(dm) {
		ds := dm[period]
		values := lo.Map(countries, func(c string, _ int) float64 {
			v, _ := ds.Get(c)
			return v
		})
		rows = append(rows, domain.TimeSeriesRow{Period: period, Values: values})
	}
	return rows
}

// Periods returns the labels of dm sorted ascending.
func Periods(dm domain.DatasetMap) []string {
	periods := lo.Keys(dm)
	sort.Strings(periods)
	return periods
}

// Latest returns the most recent period label of dm, or "" when empty.
func Latest(dm domain.DatasetMap) string {
	periods := Periods(dm)
	if len(periods) == 0 {
		return ""
	}
	return periods[len(periods)-1]
}

// Collect picks metric m out of per-period extraction results.
func Collect(byPeriod map[string]domain.AllMetrics, m domain.Metric) domain.DatasetMap {
	return lo.MapValues(byPeriod, func(all domain.AllMetrics, _ string) *domain.Dataset {
		return all.Dataset(m)
	})
}
