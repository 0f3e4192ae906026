package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/de-tools/transparency-atlas/pkg/models/domain"
)

// ColumnTimePeriod is the index of the period label in every export.
const ColumnTimePeriod = 0

// ParseRows splits raw export text into data rows, dropping the header.
// At least one data row is required.
func ParseRows(text string) ([]domain.Row, error) {
	rows, err := ParseRowsAllowEmpty(text)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no data rows after header", domain.ErrMalformedInput)
	}
	return rows, nil
}

// ParseRowsAllowEmpty behaves like ParseRows but accepts a header-only file.
func ParseRowsAllowEmpty(text string) ([]domain.Row, error) {
	records := splitRecords(text)
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty file", domain.ErrMalformedInput)
	}

	rows := make([]domain.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, strings.Split(record, ","))
	}
	return rows, nil
}

// Validate checks every row carries at least minFields fields.
func Validate(rows []domain.Row, minFields int) error {
	for i, row := range rows {
		if len(row) < minFields {
			// +2: one for the header, one for 1-based line numbers
			return fmt.Errorf("%w: line %d has %d fields, expected at least %d",
				domain.ErrMalformedInput, i+2, len(row), minFields)
		}
	}
	return nil
}

// GroupByPeriod buckets rows by their time period label. Rows keep their
// relative order inside a bucket; the labels are returned sorted ascending.
func GroupByPeriod(rows []domain.Row) (map[string][]domain.Row, []string) {
	groups := make(map[string][]domain.Row)
	for _, row := range rows {
		if len(row) <= ColumnTimePeriod {
			continue
		}
		period := row[ColumnTimePeriod]
		groups[period] = append(groups[period], row)
	}

	periods := make([]string, 0, len(groups))
	for p := range groups {
		periods = append(periods, p)
	}
	sort.Strings(periods)
	return groups, periods
}

func splitRecords(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var records []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, line)
	}
	return records
}
