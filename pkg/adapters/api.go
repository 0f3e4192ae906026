package adapters

import (
	"math"

	"github.com/samber/lo"

	"github.com/de-tools/transparency-atlas/pkg/models/api"
	"github.com/de-tools/transparency-atlas/pkg/models/domain"
)

func optional(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func MapCategoryToAPI(c domain.Category) api.Category {
	return api.Category{
		Slug:     string(c),
		Name:     c.Name(),
		FileName: c.FileName(),
	}
}

func MapRankedValuesToAPI(values []domain.RankedValue) []api.RankedValue {
	return lo.Map(values, func(v domain.RankedValue, _ int) api.RankedValue {
		return api.RankedValue{Country: v.Country, Value: optional(v.Value)}
	})
}

func MapBucketsToAPI(buckets []domain.Bucket) []api.Bucket {
	return lo.Map(buckets, func(b domain.Bucket, _ int) api.Bucket {
		return api.Bucket{StdDev: b.Bucket, Countries: b.Count}
	})
}

func MapTimeSeriesRowsToAPI(rows []domain.TimeSeriesRow) []api.TimeSeriesRow {
	return lo.Map(rows, func(r domain.TimeSeriesRow, _ int) api.TimeSeriesRow {
		return api.TimeSeriesRow{
			Period: r.Period,
			Values: lo.Map(r.Values, func(v float64, _ int) *float64 { return optional(v) }),
		}
	})
}
