package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/de-tools/transparency-atlas/pkg/adapters"
	"github.com/de-tools/transparency-atlas/pkg/models/domain"
	"github.com/de-tools/transparency-atlas/pkg/runtime/export"
	"github.com/de-tools/transparency-atlas/pkg/services/category"
	"github.com/de-tools/transparency-atlas/pkg/services/extract"
	"github.com/de-tools/transparency-atlas/pkg/services/parser"
	"github.com/de-tools/transparency-atlas/pkg/services/source"
	"github.com/de-tools/transparency-atlas/pkg/services/stats"
	"github.com/de-tools/transparency-atlas/pkg/services/timeseries"
	"github.com/de-tools/transparency-atlas/pkg/store/duckdb"
	"github.com/de-tools/transparency-atlas/pkg/store/duckdb/metrics"
)

const (
	DefaultTopN    = 10
	DefaultWorkers = 4
)

// Controller runs the aggregation for a set of categories and hands every
// rendered table to its sink.
type Controller struct {
	source  source.Source
	sink    export.Sink
	topN    int
	workers int
	zero    extract.ZeroDivision
	db      *sql.DB
	store   metrics.Store
	metrics *Metrics
}

type Option func(*Controller)

func WithTopN(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.topN = n
		}
	}
}

func WithWorkers(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.workers = n
		}
	}
}

func WithZeroDivision(z extract.ZeroDivision) Option {
	return func(c *Controller) {
		c.zero = z
	}
}

// WithStore persists extracted datasets. When db is set, each category is
// written in one transaction.
func WithStore(db *sql.DB, s metrics.Store) Option {
	return func(c *Controller) {
		c.db = db
		c.store = s
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

func NewController(src source.Source, sink export.Sink, opts ...Option) (*Controller, error) {
	if src == nil {
		return nil, fmt.Errorf("source is nil")
	}
	if sink == nil {
		return nil, fmt.Errorf("sink is nil")
	}
	c := &Controller{
		source:  src,
		sink:    sink,
		topN:    DefaultTopN,
		workers: DefaultWorkers,
		zero:    extract.ZeroDivisionNaN,
		metrics: NewMetrics(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Result is the outcome of a run.
type Result struct {
	RunID   string
	Reports []domain.CategoryReport
}

// Report returns the report of category c.
func (r *Result) Report(c domain.Category) (domain.CategoryReport, bool) {
	for _, rep := range r.Reports {
		if rep.Category == c {
			return rep, true
		}
	}
	return domain.CategoryReport{}, false
}

func (c *Controller) Run(ctx context.Context, categories []domain.Category) (*Result, error) {
	start := time.Now()
	defer func() {
		c.metrics.RunDuration.Observe(time.Since(start).Seconds())
	}()

	result := &Result{}
	if c.store != nil {
		run, err := c.store.CreateRun(ctx, categories)
		if err != nil {
			return nil, fmt.Errorf("failed to create run: %w", err)
		}
		result.RunID = run.ID
	}

	for _, cat := range categories {
		logger := zerolog.Ctx(ctx).With().Str("category", string(cat)).Logger()
		catCtx := logger.WithContext(ctx)

		report, err := c.runCategory(catCtx, result.RunID, cat)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", cat, err)
		}
		result.Reports = append(result.Reports, report)
		logger.Info().
			Int("periods", len(report.Periods)).
			Str("latest", report.Latest).
			Msg("category processed")
	}

	if c.store != nil {
		if err := c.store.FinishRun(ctx, result.RunID); err != nil {
			return nil, fmt.Errorf("failed to finish run: %w", err)
		}
	}
	return result, nil
}

func (c *Controller) runCategory(ctx context.Context, runID string, cat domain.Category) (domain.CategoryReport, error) {
	minFields, err := category.MinFields(cat)
	if err != nil {
		return domain.CategoryReport{}, err
	}

	text, err := c.source.Load(ctx, cat)
	if err != nil {
		return domain.CategoryReport{}, err
	}
	rows, err := parser.ParseRows(text)
	if err != nil {
		return domain.CategoryReport{}, err
	}
	if err := parser.Validate(rows, minFields); err != nil {
		return domain.CategoryReport{}, err
	}
	c.metrics.RowsParsed.WithLabelValues(string(cat)).Add(float64(len(rows)))

	groups, periods := parser.GroupByPeriod(rows)
	byPeriod, err := c.extractPeriods(ctx, cat, groups)
	if err != nil {
		return domain.CategoryReport{}, err
	}

	if c.store != nil {
		if err := c.persist(ctx, runID, cat, periods, byPeriod); err != nil {
			return domain.CategoryReport{}, err
		}
	}

	for _, period := range periods {
		if err := c.writePeriod(ctx, cat, period, byPeriod[period]); err != nil {
			return domain.CategoryReport{}, err
		}
	}

	report := domain.CategoryReport{
		Category:    cat,
		Periods:     periods,
		Latest:      periods[len(periods)-1],
		ByPeriod:    byPeriod,
		LatestLists: c.rankAll(byPeriod[periods[len(periods)-1]]),
	}
	if err := c.writeTimeSeries(ctx, report); err != nil {
		return domain.CategoryReport{}, err
	}
	return report, nil
}

// extractPeriods extracts every period group concurrently. Results are
// merged into one map before anything reads across periods.
func (c *Controller) extractPeriods(
	ctx context.Context,
	cat domain.Category,
	groups map[string][]domain.Row,
) (map[string]domain.AllMetrics, error) {
	var (
		mu       sync.Mutex
		byPeriod = make(map[string]domain.AllMetrics, len(groups))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for period, rows := range groups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			all, err := extract.Extract(rows, cat, extract.Options{ZeroDivision: c.zero})
			if err != nil {
				return fmt.Errorf("period %s: %w", period, err)
			}
			mu.Lock()
			byPeriod[period] = all
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return byPeriod, nil
}

func (c *Controller) persist(
	ctx context.Context,
	runID string,
	cat domain.Category,
	periods []string,
	byPeriod map[string]domain.AllMetrics,
) error {
	if c.db == nil {
		for _, period := range periods {
			if err := c.store.AddDatasets(ctx, runID, cat, period, byPeriod[period]); err != nil {
				return fmt.Errorf("failed to store period %s: %w", period, err)
			}
		}
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to instantiate transaction: %w", err)
	}
	ctxWithTx := duckdb.WithTransaction(ctx, tx)
	for _, period := range periods {
		if err := c.store.AddDatasets(ctxWithTx, runID, cat, period, byPeriod[period]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to store period %s: %w", period, err)
		}
	}
	return tx.Commit()
}

// rankAll ranks the countries of every metric in both directions.
func (c *Controller) rankAll(all domain.AllMetrics) map[domain.Direction]map[domain.Metric][]string {
	lists := make(map[domain.Direction]map[domain.Metric][]string, len(domain.Directions))
	for _, dir := range domain.Directions {
		lists[dir] = make(map[domain.Metric][]string, len(domain.Metrics))
		for _, m := range domain.Metrics {
			lists[dir][m] = stats.Rank(all.Dataset(m), c.topN, dir)
		}
	}
	return lists
}

func (c *Controller) write(ctx context.Context, table domain.Table) error {
	if err := c.sink.Write(ctx, table); err != nil {
		return fmt.Errorf("failed to write table %q: %w", table.Name, err)
	}
	c.metrics.TablesWritten.WithLabelValues(string(table.Category), string(table.Kind)).Inc()
	return nil
}

// writePeriod emits, for one period: a ranking table for every
// (value metric, ranking metric) pair in both directions, the z-scores of
// the ranked countries and the z-score distribution of every metric.
func (c *Controller) writePeriod(ctx context.Context, cat domain.Category, period string, all domain.AllMetrics) error {
	logger := zerolog.Ctx(ctx).With().Str("period", period).Logger()
	lists := c.rankAll(all)

	zscores := make(map[domain.Metric]*domain.Dataset, len(domain.Metrics))
	for _, m := range domain.Metrics {
		z, err := stats.ZScores(all.Dataset(m))
		if errors.Is(err, domain.ErrNumericDomain) {
			logger.Warn().Err(err).Str("metric", string(m)).Msg("skipping z-scores")
			c.metrics.NumericSkipped.WithLabelValues(string(cat), string(m)).Inc()
			continue
		}
		if err != nil {
			return err
		}
		zscores[m] = z
	}

	for _, dir := range domain.Directions {
		for _, rankBy := range domain.Metrics {
			list := lists[dir][rankBy]
			for _, m := range domain.Metrics {
				values := stats.Values(all.Dataset(m), list)
				table := adapters.MapRankingToTable(cat, period, dir, c.topN, m, rankBy, values)
				if err := c.write(ctx, table); err != nil {
					return err
				}
			}
			if z, ok := zscores[rankBy]; ok {
				table := adapters.MapZScoresToTable(cat, period, dir, c.topN, rankBy, stats.Values(z, list))
				if err := c.write(ctx, table); err != nil {
					return err
				}
			}
		}
	}

	for _, m := range domain.Metrics {
		if _, ok := zscores[m]; !ok {
			continue
		}
		dist, err := stats.Distribution(all.Dataset(m))
		if err != nil {
			return err
		}
		table := adapters.MapDistributionToTable(cat, period, m, stats.Buckets(dist))
		if err := c.write(ctx, table); err != nil {
			return err
		}
	}
	return nil
}

// writeTimeSeries emits one table per (direction, ranking metric, value
// metric) using the latest period's ranked lists.
func (c *Controller) writeTimeSeries(ctx context.Context, report domain.CategoryReport) error {
	series := make(map[domain.Metric]domain.DatasetMap, len(domain.Metrics))
	for _, m := range domain.Metrics {
		series[m] = timeseries.Collect(report.ByPeriod, m)
	}

	for _, dir := range domain.Directions {
		for _, rankBy := range domain.Metrics {
			countries := report.LatestLists[dir][rankBy]
			for _, m := range domain.Metrics {
				rows := timeseries.Assemble(series[m], countries)
				table := adapters.MapTimeSeriesToTable(report.Category, dir, c.topN, m, rankBy, countries, rows)
				if err := c.write(ctx, table); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
