package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/de-tools/transparency-atlas/pkg/models/domain"
)

// Summary describes the value spread of a dataset.
type Summary struct {
	Count  int
	Mean   float64
	StdDev float64 // population
	Min    float64
	Max    float64
}

// Summarize computes count, mean, population standard deviation, min and max.
// Non-finite values propagate into Mean and StdDev.
func Summarize(d *domain.Dataset) Summary {
	values := d.Values()
	if len(values) == 0 {
		return Summary{}
	}

	s := Summary{Count: len(values), Min: values[0], Max: values[0]}
	s.Mean = lo.Sum(values) / float64(len(values))
	var squares float64
	for _, v := range values {
		diff := v - s.Mean
		squares += diff * diff
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.StdDev = math.Sqrt(squares / float64(len(values)))
	return s
}

// ZScores standardizes every value of d against its mean and population
// standard deviation. It fails with domain.ErrNumericDomain when a value is
// not finite or all values are identical.
func ZScores(d *domain.Dataset) (*domain.Dataset, error) {
	out := domain.NewDataset()
	if d.Len() == 0 {
		return out, nil
	}

	for _, v := range d.Values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: dataset holds non-finite value %v", domain.ErrNumericDomain, v)
		}
	}

	s := Summarize(d)
	if s.StdDev == 0 {
		return nil, fmt.Errorf("%w: zero variance across %d values", domain.ErrNumericDomain, s.Count)
	}

	d.Each(func(country string, v float64) {
		out.Set(country, (v-s.Mean)/s.StdDev)
	})
	return out, nil
}

// Distribution counts countries per z-score bucket. Buckets are the z-score
// rounded half away from zero.
func Distribution(d *domain.Dataset) (domain.Distribution, error) {
	z, err := ZScores(d)
	if err != nil {
		return nil, err
	}

	dist := make(domain.Distribution)
	z.Each(func(_ string, v float64) {
		dist[int(math.Round(v))]++
	})
	return dist, nil
}

// Buckets returns the distribution entries ordered by bucket ascending.
func Buckets(dist domain.Distribution) []domain.Bucket {
	keys := lo.Keys(dist)
	sort.Ints(keys)
	return lo.Map(keys, func(k int, _ int) domain.Bucket {
		return domain.Bucket{Bucket: k, Count: dist[k]}
	})
}
