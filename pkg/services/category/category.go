package category

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/de-tools/transparency-atlas/pkg/models/domain"
)

// Column positions shared by every export. The period label sits at
// parser.ColumnTimePeriod.
const (
	ColumnCountry        = 3
	ColumnRequestCount   = 4
	ColumnTotalItemCount = 5
)

// Honored value columns.
const (
	columnAccountPreservation = 6
	columnDevicesHonored      = 7
	columnAccountDeletion     = 8
	columnAccountInfo         = 9
)

// Mode describes how the honored percentage is derived from its columns.
type Mode int

const (
	// ModePercentage reads a percentage directly from a single column.
	ModePercentage Mode = iota
	// ModeCountOfRequests reads an absolute count and divides by the request count.
	ModeCountOfRequests
	// ModeSum adds the listed columns as-is.
	ModeSum
)

// Layout is the honored-value column mapping of one category.
type Layout struct {
	Columns []int
	Mode    Mode
}

var layouts = map[domain.Category]Layout{
	domain.CategoryDevices:             {Columns: []int{columnDevicesHonored}, Mode: ModePercentage},
	domain.CategoryFinancialIDs:        {Columns: []int{columnDevicesHonored}, Mode: ModePercentage},
	domain.CategoryAccountRequests:     {Columns: []int{columnAccountInfo}, Mode: ModePercentage},
	domain.CategoryAccountPreservation: {Columns: []int{columnAccountPreservation}, Mode: ModeCountOfRequests},
	domain.CategoryAccountRestrictionDeletion: {
		Columns: []int{columnAccountPreservation, columnAccountDeletion},
		Mode:    ModeSum,
	},
}

// LayoutFor returns the column layout of c.
func LayoutFor(c domain.Category) (Layout, error) {
	l, ok := layouts[c]
	if !ok {
		return Layout{}, fmt.Errorf("%w: %q", domain.ErrInvalidCategory, string(c))
	}
	return l, nil
}

// MinFields is the number of fields a row of category c must carry.
func MinFields(c domain.Category) (int, error) {
	l, err := LayoutFor(c)
	if err != nil {
		return 0, err
	}
	maxCol := ColumnTotalItemCount
	for _, col := range l.Columns {
		if col > maxCol {
			maxCol = col
		}
	}
	return maxCol + 1, nil
}

// HonoredPercentage returns the percentage of honored requests for a row.
// requestCount is only consulted by categories reporting absolute counts; a
// zero count yields NaN which callers handle per their policy.
func HonoredPercentage(c domain.Category, row domain.Row, requestCount float64) (float64, error) {
	l, err := LayoutFor(c)
	if err != nil {
		return 0, err
	}

	switch l.Mode {
	case ModePercentage:
		return Number(row, l.Columns[0])
	case ModeCountOfRequests:
		count, err := Number(row, l.Columns[0])
		if err != nil {
			return 0, err
		}
		if requestCount == 0 {
			return math.NaN(), nil
		}
		return count / requestCount * 100, nil
	case ModeSum:
		var total float64
		for _, col := range l.Columns {
			v, err := Number(row, col)
			if err != nil {
				return 0, err
			}
			total += v
		}
		return total, nil
	default:
		return 0, fmt.Errorf("%w: unsupported mode %d for %q", domain.ErrInvalidCategory, l.Mode, string(c))
	}
}

// Number parses the numeric field at col. Blank cells read as zero.
func Number(row domain.Row, col int) (float64, error) {
	if col >= len(row) {
		return 0, fmt.Errorf("%w: missing column %d", domain.ErrMalformedInput, col)
	}
	raw := strings.TrimSpace(row[col])
	raw = strings.TrimSuffix(raw, "%")
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: column %d: %q is not a number", domain.ErrMalformedInput, col, row[col])
	}
	return v, nil
}
