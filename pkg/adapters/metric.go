package adapters

import (
	"github.com/de-tools/transparency-atlas/pkg/models/domain"
	"github.com/de-tools/transparency-atlas/pkg/models/store"
)

// MapAllMetricsToStoreValues flattens the five datasets of one period.
func MapAllMetricsToStoreValues(runID string, c domain.Category, period string, all domain.AllMetrics) []store.MetricValue {
	var values []store.MetricValue
	for _, m := range domain.Metrics {
		position := 0
		all.Dataset(m).Each(func(country string, v float64) {
			values = append(values, store.MetricValue{
				RunID:    runID,
				Category: string(c),
				Period:   period,
				Metric:   string(m),
				Country:  country,
				Position: position,
				Value:    v,
			})
			position++
		})
	}
	return values
}

// MapStoreValuesToDataset rebuilds a dataset from values ordered by position.
func MapStoreValuesToDataset(values []store.MetricValue) *domain.Dataset {
	d := domain.NewDataset()
	for _, v := range values {
		d.Set(v.Country, v.Value)
	}
	return d
}
