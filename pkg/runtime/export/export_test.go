package export

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/de-tools/transparency-atlas/pkg/models/domain"
)

func rankingTable() domain.Table {
	return domain.Table{
		Category: domain.CategoryDevices,
		Kind:     domain.TableKindRanking,
		Period:   "2019-H1",
		Name:     "Top 2 Requests",
		SortedBy: domain.MetricItemRatio,
		Header:   []string{"Country", "Device Requests"},
		Rows:     [][]string{{"Germany", "100"}, {"Korea, Republic of", "50"}},
	}
}

func TestRelativePath(t *testing.T) {
	table := rankingTable()
	assert.Equal(t, "time-periods/2019-h1/devices/top-2-requests/by-items-per-request.csv", RelativePath(table))

	table.Kind = domain.TableKindDistribution
	table.Name = "Honored Request Percentages"
	assert.Equal(t, "time-periods/2019-h1/devices/_distributions/honored-request-percentages.csv", RelativePath(table))

	table.Kind = domain.TableKindTimeSeries
	table.Name = "Requests Over Time (Top 10)"
	table.SortedBy = domain.MetricRequests
	assert.Equal(t, "time-series/devices/requests-over-time-top-10/by-requests.csv", RelativePath(table))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "a-b-c", Slug("  A / b (C) "))
	assert.Equal(t, "2019-h1", Slug("2019-H1"))
	assert.Equal(t, "", Slug("--"))
}

func TestCSVSink_Write(t *testing.T) {
	dir := t.TempDir()
	sink := NewCSVSink(dir)

	require.NoError(t, sink.Write(context.Background(), rankingTable()))

	f, err := os.Open(filepath.Join(dir, filepath.FromSlash(RelativePath(rankingTable()))))
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Country", "Device Requests"},
		{"Germany", "100"},
		{"Korea, Republic of", "50"},
	}, records)
}

func TestCSVSink_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewCSVSink(t.TempDir()).Write(ctx, rankingTable())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestXLSXSink(t *testing.T) {
	dir := t.TempDir()
	sink := NewXLSXSink(dir)
	ctx := context.Background()

	require.NoError(t, sink.Write(ctx, rankingTable()))
	dist := domain.Table{
		Category: domain.CategoryDevices,
		Kind:     domain.TableKindDistribution,
		Period:   "2019-H1",
		Name:     "Requests",
		Header:   []string{"Standard Deviation", "# of Countries"},
		Rows:     [][]string{{"-1", "3"}, {"2", "1"}},
	}
	require.NoError(t, sink.Write(ctx, dist))
	require.NoError(t, Close(sink))

	f, err := excelize.OpenFile(filepath.Join(dir, "devices.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	index, err := f.GetRows(indexSheet)
	require.NoError(t, err)
	require.Len(t, index, 3)
	assert.Equal(t, []string{"T0001", "ranking", "2019-H1", "Top 2 Requests", "Items Per Request"}, index[1])
	assert.Equal(t, []string{"T0002", "distribution", "2019-H1", "Requests"}, index[2])

	rows, err := f.GetRows("T0001")
	require.NoError(t, err)
	assert.Equal(t, []string{"Korea, Republic of", "50"}, rows[2])
}

func TestXLSXSink_CloseWithoutTables(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "never")
	require.NoError(t, NewXLSXSink(dir).Close())

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

type failingSink struct{ err error }

func (f failingSink) Write(context.Context, domain.Table) error { return f.err }

func TestMulti(t *testing.T) {
	mem := NewMemorySink()
	boom := errors.New("boom")
	sink := Multi(failingSink{err: boom}, mem)

	err := sink.Write(context.Background(), rankingTable())

	assert.ErrorIs(t, err, boom)
	assert.Len(t, mem.Tables(), 1)
	assert.NoError(t, Close(sink))
}

func TestMemorySink_Find(t *testing.T) {
	mem := NewMemorySink()
	require.NoError(t, mem.Write(context.Background(), rankingTable()))

	got, ok := mem.Find(domain.TableKindRanking, "2019-H1", "Top 2 Requests", domain.MetricItemRatio)
	assert.True(t, ok)
	assert.Equal(t, "Germany", got.Rows[0][0])

	_, ok = mem.Find(domain.TableKindRanking, "2019-H1", "Top 2 Requests", domain.MetricRequests)
	assert.False(t, ok)
}
