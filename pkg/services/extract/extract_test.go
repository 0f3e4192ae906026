package extract

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/transparency-atlas/pkg/models/domain"
)

func preservationRow(country, requests, items, preserved string) domain.Row {
	return domain.Row{"2018-H1", "", "", country, requests, items, preserved, "0", "0", "0"}
}

func TestExtract_AccountPreservation(t *testing.T) {
	rows := []domain.Row{
		preservationRow("United States", "200", "500", "50"),
		preservationRow("Germany", "10", "10", "5"),
	}

	all, err := Extract(rows, domain.CategoryAccountPreservation, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"United States", "Germany"}, all.Requests.Keys())

	pct, _ := all.HonoredPercentages.Get("United States")
	assert.InDelta(t, 25.0, pct, 1e-9)
	count, _ := all.HonoredRequests.Get("United States")
	assert.Equal(t, 50.0, count)
	ratio, _ := all.Ratios.Get("United States")
	assert.Equal(t, 2.5, ratio)
	items, _ := all.Items.Get("Germany")
	assert.Equal(t, 10.0, items)
}

func TestExtract_HonoredCountRoundsHalfAwayFromZero(t *testing.T) {
	rows := []domain.Row{
		{"2018-H1", "", "", "France", "5", "5", "0", "50", "0", "0"},
	}

	all, err := Extract(rows, domain.CategoryDevices, Options{})
	require.NoError(t, err)

	count, _ := all.HonoredRequests.Get("France")
	assert.Equal(t, 3.0, count) // 50% of 5 = 2.5
}

func TestExtract_ZeroRequests(t *testing.T) {
	rows := []domain.Row{
		preservationRow("Nowhere", "0", "0", "0"),
	}

	t.Run("nan policy", func(t *testing.T) {
		all, err := Extract(rows, domain.CategoryAccountPreservation, Options{ZeroDivision: ZeroDivisionNaN})
		require.NoError(t, err)

		ratio, _ := all.Ratios.Get("Nowhere")
		pct, _ := all.HonoredPercentages.Get("Nowhere")
		count, _ := all.HonoredRequests.Get("Nowhere")
		assert.True(t, math.IsNaN(ratio))
		assert.True(t, math.IsNaN(pct))
		assert.True(t, math.IsNaN(count))
	})

	t.Run("zero policy", func(t *testing.T) {
		all, err := Extract(rows, domain.CategoryAccountPreservation, Options{ZeroDivision: ZeroDivisionZero})
		require.NoError(t, err)

		ratio, _ := all.Ratios.Get("Nowhere")
		pct, _ := all.HonoredPercentages.Get("Nowhere")
		count, _ := all.HonoredRequests.Get("Nowhere")
		assert.Equal(t, 0.0, ratio)
		assert.Equal(t, 0.0, pct)
		assert.Equal(t, 0.0, count)
	})
}

func TestExtract_EveryDatasetHasTheSameCountries(t *testing.T) {
	rows := []domain.Row{
		{"2018-H1", "", "", "A", "10", "20", "0", "50", "0", "0"},
		{"2018-H1", "", "", "B", "0", "0", "0", "0", "0", "0"},
		{"2018-H1", "", "", "A", "12", "24", "0", "50", "0", "0"},
	}

	all, err := Extract(rows, domain.CategoryDevices, Options{})
	require.NoError(t, err)

	for _, m := range domain.Metrics {
		assert.Equal(t, []string{"A", "B"}, all.Dataset(m).Keys(), m)
	}
	requests, _ := all.Requests.Get("A")
	assert.Equal(t, 12.0, requests)
}

func TestExtract_Errors(t *testing.T) {
	_, err := Extract([]domain.Row{{"2018-H1", "", "", "A", "1"}}, domain.CategoryDevices, Options{})
	assert.ErrorIs(t, err, domain.ErrMalformedInput)

	_, err = Extract([]domain.Row{{"2018-H1", "", "", "A", "x", "1", "0", "0"}}, domain.CategoryDevices, Options{})
	assert.ErrorIs(t, err, domain.ErrMalformedInput)

	_, err = Extract([]domain.Row{
		{"2018-H1", "", "", "A", "1", "1", "0", "0"},
		{"2018-H1", "", "", "B", "1"},
	}, domain.CategoryDevices, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2 of period 2018-H1")

	_, err = Extract([]domain.Row{{"2018-H2", "", "", "A", "x", "1", "0", "0"}}, domain.CategoryDevices, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1 of period 2018-H2:")

	_, err = Extract(nil, domain.Category("nope"), Options{})
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)
}

func TestParseZeroDivision(t *testing.T) {
	p, err := ParseZeroDivision("")
	require.NoError(t, err)
	assert.Equal(t, ZeroDivisionNaN, p)

	p, err = ParseZeroDivision("zero")
	require.NoError(t, err)
	assert.Equal(t, ZeroDivisionZero, p)

	_, err = ParseZeroDivision("infinity")
	assert.Error(t, err)
}
