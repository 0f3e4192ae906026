package pipeline

import (
	"context"
	"os"
	"testing"

	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/transparency-atlas/pkg/models/domain"
	"github.com/de-tools/transparency-atlas/pkg/runtime/export"
	"github.com/de-tools/transparency-atlas/pkg/services/extract"
	"github.com/de-tools/transparency-atlas/pkg/services/source"
	"github.com/de-tools/transparency-atlas/pkg/store/duckdb"
	"github.com/de-tools/transparency-atlas/pkg/store/duckdb/metrics"
)

const devicesCSV = `Time Period,Start,End,Country,Requests,Devices,Unused,Honored
2019-H1,,,Germany,100,200,,50
2019-H1,,,France,50,100,,80
2019-H1,,,Spain,10,40,,10
2019-H2,,,Germany,120,240,,50
2019-H2,,,France,60,90,,60
2019-H2,,,Italy,30,30,,100
`

// every account is honored, so the percentage has no variance
const accountsCSV = `Time Period,Start,End,Country,Requests,Accounts,,,,Honored
2019-H1,,,A,10,20,,,,100
2019-H1,,,B,20,20,,,,100
2019-H1,,,C,40,50,,,,100
`

type fixture struct {
	sink    *export.MemorySink
	metrics *Metrics
	ctrl    *Controller
}

func setupFixture(t *testing.T, src source.Source, opts ...Option) *fixture {
	sink := export.NewMemorySink()
	m := NewMetrics(prometheus.NewRegistry())
	opts = append([]Option{WithTopN(2), WithWorkers(2), WithMetrics(m)}, opts...)

	ctrl, err := NewController(src, sink, opts...)
	require.NoError(t, err)

	return &fixture{sink: sink, metrics: m, ctrl: ctrl}
}

func TestNewController(t *testing.T) {
	_, err := NewController(nil, export.NewMemorySink())
	assert.Error(t, err)

	_, err = NewController(source.StaticSource{}, nil)
	assert.Error(t, err)
}

func TestController_Run(t *testing.T) {
	f := setupFixture(t, source.StaticSource{domain.CategoryDevices: devicesCSV})

	result, err := f.ctrl.Run(context.Background(), []domain.Category{domain.CategoryDevices})
	require.NoError(t, err)

	report, ok := result.Report(domain.CategoryDevices)
	require.True(t, ok)
	assert.Equal(t, []string{"2019-H1", "2019-H2"}, report.Periods)
	assert.Equal(t, "2019-H2", report.Latest)
	assert.Equal(t, []string{"Germany", "France"}, report.LatestLists[domain.DirectionTop][domain.MetricRequests])
	assert.Equal(t, []string{"Italy", "France"}, report.LatestLists[domain.DirectionBottom][domain.MetricRequests])

	// per period: 50 rankings, 10 z-score tables, 5 distributions; 50 time series
	assert.Len(t, f.sink.Tables(), 2*65+50)
	assert.Equal(t, float64(6), testutil.ToFloat64(f.metrics.RowsParsed.WithLabelValues("devices")))
	assert.Equal(t, float64(50), testutil.ToFloat64(f.metrics.TablesWritten.WithLabelValues("devices", "timeseries")))

	top, ok := f.sink.Find(domain.TableKindRanking, "2019-H1", "Top 2 Requests", domain.MetricRequests)
	require.True(t, ok)
	assert.Equal(t, [][]string{{"Germany", "100"}, {"France", "50"}}, top.Rows)

	bottom, ok := f.sink.Find(domain.TableKindRanking, "2019-H1", "Bottom 2 Requests", domain.MetricRequests)
	require.True(t, ok)
	assert.Equal(t, [][]string{{"Spain", "10"}, {"France", "50"}}, bottom.Rows)

	// honored counts of the countries with the most requested items
	honored, ok := f.sink.Find(domain.TableKindRanking, "2019-H1", "Top 2 Honored Requests", domain.MetricItems)
	require.True(t, ok)
	assert.Equal(t, [][]string{{"Germany", "50"}, {"France", "40"}}, honored.Rows)

	ts, ok := f.sink.Find(domain.TableKindTimeSeries, "", "Requests Over Time (Top 2)", domain.MetricRequests)
	require.True(t, ok)
	assert.Equal(t, []string{"Time Period", "Germany", "France"}, ts.Header)
	assert.Equal(t, [][]string{{"2019-H1", "100", "50"}, {"2019-H2", "120", "60"}}, ts.Rows)

	tsBottom, ok := f.sink.Find(domain.TableKindTimeSeries, "", "Requests Over Time (Bottom 2)", domain.MetricRequests)
	require.True(t, ok)
	assert.Equal(t, [][]string{{"2019-H1", "0", "50"}, {"2019-H2", "30", "60"}}, tsBottom.Rows)

	dist, ok := f.sink.Find(domain.TableKindDistribution, "2019-H1", "Requests", "")
	require.True(t, ok)
	assert.Equal(t, []string{"Standard Deviation", "# of Countries"}, dist.Header)
}

func TestController_SkipsUndefinedZScores(t *testing.T) {
	f := setupFixture(t, source.StaticSource{domain.CategoryAccountRequests: accountsCSV})

	_, err := f.ctrl.Run(context.Background(), []domain.Category{domain.CategoryAccountRequests})
	require.NoError(t, err)

	skipped := f.metrics.NumericSkipped.WithLabelValues("account_requests", "honored_percentage")
	assert.Equal(t, float64(1), testutil.ToFloat64(skipped))

	_, ok := f.sink.Find(domain.TableKindDistribution, "2019-H1", "Honored Request Percentages", "")
	assert.False(t, ok)
	_, ok = f.sink.Find(domain.TableKindDistribution, "2019-H1", "Requests", "")
	assert.True(t, ok)
}

func TestController_ZeroDivisionPolicy(t *testing.T) {
	csv := `h,,,,,,
2019-H1,,,A,0,5,,80
2019-H1,,,B,10,5,,80
`
	f := setupFixture(t, source.StaticSource{domain.CategoryDevices: csv}, WithZeroDivision(extract.ZeroDivisionZero))

	result, err := f.ctrl.Run(context.Background(), []domain.Category{domain.CategoryDevices})
	require.NoError(t, err)

	report, _ := result.Report(domain.CategoryDevices)
	v, ok := report.ByPeriod["2019-H1"].Ratios.Get("A")
	require.True(t, ok)
	assert.Equal(t, 0.0, v)
}

func TestController_Errors(t *testing.T) {
	t.Run("missing export", func(t *testing.T) {
		f := setupFixture(t, source.StaticSource{})
		_, err := f.ctrl.Run(context.Background(), []domain.Category{domain.CategoryDevices})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("short row", func(t *testing.T) {
		f := setupFixture(t, source.StaticSource{domain.CategoryDevices: "h\n2019-H1,,,A,1\n"})
		_, err := f.ctrl.Run(context.Background(), []domain.Category{domain.CategoryDevices})
		assert.ErrorIs(t, err, domain.ErrMalformedInput)
	})

	t.Run("header only", func(t *testing.T) {
		f := setupFixture(t, source.StaticSource{domain.CategoryDevices: "h\n"})
		_, err := f.ctrl.Run(context.Background(), []domain.Category{domain.CategoryDevices})
		assert.ErrorIs(t, err, domain.ErrMalformedInput)
	})

	t.Run("bad number", func(t *testing.T) {
		f := setupFixture(t, source.StaticSource{domain.CategoryDevices: "h\n2019-H1,,,A,x,1,,1\n"})
		_, err := f.ctrl.Run(context.Background(), []domain.Category{domain.CategoryDevices})
		assert.ErrorIs(t, err, domain.ErrMalformedInput)
	})
}

func TestController_PersistsDatasets(t *testing.T) {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})
	store, err := metrics.NewStore(db)
	require.NoError(t, err)

	f := setupFixture(t, source.StaticSource{domain.CategoryDevices: devicesCSV}, WithStore(db, store))
	ctx := context.Background()

	result, err := f.ctrl.Run(ctx, []domain.Category{domain.CategoryDevices})
	require.NoError(t, err)
	require.NotEmpty(t, result.RunID)

	run, err := store.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.RunID, run.ID)

	d, err := store.GetDataset(ctx, run.ID, domain.CategoryDevices, "2019-H2", domain.MetricRequests)
	require.NoError(t, err)
	assert.Equal(t, []string{"Germany", "France", "Italy"}, d.Keys())
}
