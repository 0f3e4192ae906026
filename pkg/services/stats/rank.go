package stats

import (
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/de-tools/transparency-atlas/pkg/models/domain"
)

// Top returns up to n countries with the highest values. Equal values keep
// the dataset's insertion order.
func Top(d *domain.Dataset, n int) []string {
	return Rank(d, n, domain.DirectionTop)
}

// Bottom returns up to n countries with the lowest values, lowest first.
func Bottom(d *domain.Dataset, n int) []string {
	return Rank(d, n, domain.DirectionBottom)
}

// Rank returns up to n countries of d in the given direction.
//
// Both directions are cut from one stable descending ordering: Top is its
// head, Bottom its tail read backwards. Top and Bottom therefore never share
// a country while 2n <= d.Len(), even with ties. NaN values rank lowest.
func Rank(d *domain.Dataset, n int, dir domain.Direction) []string {
	ordered := sortedDescending(d)
	if n < 0 {
		n = 0
	}
	if n > len(ordered) {
		n = len(ordered)
	}

	if dir == domain.DirectionBottom {
		tail := ordered[len(ordered)-n:]
		return lo.Reverse(lo.Map(tail, func(e entry, _ int) string { return e.country }))
	}
	return lo.Map(ordered[:n], func(e entry, _ int) string { return e.country })
}

// Ranked pairs the result of Rank with the dataset values.
func Ranked(d *domain.Dataset, n int, dir domain.Direction) []domain.RankedValue {
	return Values(d, Rank(d, n, dir))
}

// Values looks up countries in d, in order. Missing countries are skipped.
func Values(d *domain.Dataset, countries []string) []domain.RankedValue {
	out := make([]domain.RankedValue, 0, len(countries))
	for _, c := range countries {
		v, ok := d.Get(c)
		if !ok {
			continue
		}
		out = append(out, domain.RankedValue{Country: c, Value: v})
	}
	return out
}

type entry struct {
	country string
	value   float64
}

func sortedDescending(d *domain.Dataset) []entry {
	entries := make([]entry, 0, d.Len())
	d.Each(func(country string, v float64) {
		entries = append(entries, entry{country: country, value: v})
	})

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].value, entries[j].value
		if math.IsNaN(a) {
			return false
		}
		if math.IsNaN(b) {
			return true
		}
		return a > b
	})
	return entries
}
