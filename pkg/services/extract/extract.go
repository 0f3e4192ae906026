package extract

import (
	"fmt"
	"math"
	"strings"

	"github.com/de-tools/transparency-atlas/pkg/models/domain"
	"github.com/de-tools/transparency-atlas/pkg/services/category"
	"github.com/de-tools/transparency-atlas/pkg/services/parser"
)

// ZeroDivision selects what a ratio with a zero denominator becomes.
type ZeroDivision string

const (
	// ZeroDivisionNaN stores NaN for ratios and percentages of countries without requests.
	ZeroDivisionNaN ZeroDivision = "nan"
	// ZeroDivisionZero stores 0 for ratios and percentages of countries without requests.
	ZeroDivisionZero ZeroDivision = "zero"
)

func ParseZeroDivision(s string) (ZeroDivision, error) {
	switch ZeroDivision(s) {
	case "", ZeroDivisionNaN:
		return ZeroDivisionNaN, nil
	case ZeroDivisionZero:
		return ZeroDivisionZero, nil
	default:
		return "", fmt.Errorf("unknown zero division policy %q", s)
	}
}

type Options struct {
	ZeroDivision ZeroDivision
}

// Extract computes the five per-country datasets for the rows of one
// (category, period) group. A country listed twice keeps its last row.
func Extract(rows []domain.Row, c domain.Category, opts Options) (domain.AllMetrics, error) {
	minFields, err := category.MinFields(c)
	if err != nil {
		return domain.AllMetrics{}, err
	}

	all := domain.NewAllMetrics()
	for i, row := range rows {
		if len(row) < minFields {
			return domain.AllMetrics{}, fmt.Errorf("%w: %s has %d fields, expected at least %d",
				domain.ErrMalformedInput, rowRef(i, row), len(row), minFields)
		}

		country := strings.TrimSpace(row[category.ColumnCountry])
		requests, err := category.Number(row, category.ColumnRequestCount)
		if err != nil {
			return domain.AllMetrics{}, fmt.Errorf("%s: %w", rowRef(i, row), err)
		}
		items, err := category.Number(row, category.ColumnTotalItemCount)
		if err != nil {
			return domain.AllMetrics{}, fmt.Errorf("%s: %w", rowRef(i, row), err)
		}
		honoredPct, err := category.HonoredPercentage(c, row, requests)
		if err != nil {
			return domain.AllMetrics{}, fmt.Errorf("%s: %w", rowRef(i, row), err)
		}

		ratio := math.NaN()
		if requests != 0 {
			ratio = items / requests
		}
		if opts.ZeroDivision == ZeroDivisionZero {
			if math.IsNaN(ratio) {
				ratio = 0
			}
			if math.IsNaN(honoredPct) {
				honoredPct = 0
			}
		}
		honoredCount := math.Round(honoredPct * requests / 100)

		all.Requests.Set(country, requests)
		all.Items.Set(country, items)
		all.Ratios.Set(country, ratio)
		all.HonoredRequests.Set(country, honoredCount)
		all.HonoredPercentages.Set(country, honoredPct)
	}

	return all, nil
}

// rowRef names a row by its 1-based position inside its period group, which
// differs from the file line reported by parser.Validate.
func rowRef(i int, row domain.Row) string {
	if len(row) > parser.ColumnTimePeriod {
		return fmt.Sprintf("row %d of period %s", i+1, row[parser.ColumnTimePeriod])
	}
	return fmt.Sprintf("row %d of period group", i+1)
}
