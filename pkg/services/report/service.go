package report

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/de-tools/transparency-atlas/pkg/models/domain"
	"github.com/de-tools/transparency-atlas/pkg/models/store"
	"github.com/de-tools/transparency-atlas/pkg/services/stats"
	"github.com/de-tools/transparency-atlas/pkg/services/timeseries"
	"github.com/de-tools/transparency-atlas/pkg/store/duckdb/metrics"
)

// Service answers report queries from the datasets of the latest finished run.
type Service interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListPeriods(ctx context.Context, c domain.Category) (*Periods, error)
	Ranking(ctx context.Context, q RankingQuery) ([]domain.RankedValue, error)
	Distribution(ctx context.Context, c domain.Category, period string, m domain.Metric) ([]domain.Bucket, error)
	TimeSeries(ctx context.Context, q TimeSeriesQuery) (*TimeSeries, error)
}

type Periods struct {
	RunID   string
	Periods []string
	Latest  string
}

type RankingQuery struct {
	Category  domain.Category
	Period    string
	Metric    domain.Metric
	Direction domain.Direction
	N         int
}

type TimeSeriesQuery struct {
	Category  domain.Category
	Metric    domain.Metric
	RankBy    domain.Metric
	Direction domain.Direction
	N         int
}

type TimeSeries struct {
	Countries []string
	Rows      []domain.TimeSeriesRow
}

type service struct {
	store metrics.Store
}

func NewService(s metrics.Store) Service {
	return &service{store: s}
}

func (s *service) run(ctx context.Context, c domain.Category) (*store.Run, error) {
	run, err := s.store.LatestRun(ctx)
	if err != nil {
		return nil, err
	}
	if !lo.Contains(run.Categories, string(c)) {
		return nil, fmt.Errorf("category %s in run %s: %w", c, run.ID, domain.ErrNotFound)
	}
	return run, nil
}

func (s *service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	run, err := s.store.LatestRun(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(domain.Categories, func(c domain.Category, _ int) bool {
		return lo.Contains(run.Categories, string(c))
	}), nil
}

func (s *service) ListPeriods(ctx context.Context, c domain.Category) (*Periods, error) {
	run, err := s.run(ctx, c)
	if err != nil {
		return nil, err
	}
	periods, err := s.store.ListPeriods(ctx, run.ID, c)
	if err != nil {
		return nil, err
	}
	if len(periods) == 0 {
		return nil, fmt.Errorf("periods of %s: %w", c, domain.ErrNotFound)
	}
	return &Periods{
		RunID:   run.ID,
		Periods: periods,
		Latest:  lo.Max(periods),
	}, nil
}

func (s *service) Ranking(ctx context.Context, q RankingQuery) ([]domain.RankedValue, error) {
	run, err := s.run(ctx, q.Category)
	if err != nil {
		return nil, err
	}
	d, err := s.store.GetDataset(ctx, run.ID, q.Category, q.Period, q.Metric)
	if err != nil {
		return nil, err
	}
	return stats.Ranked(d, q.N, q.Direction), nil
}

func (s *service) Distribution(
	ctx context.Context,
	c domain.Category,
	period string,
	m domain.Metric,
) ([]domain.Bucket, error) {
	run, err := s.run(ctx, c)
	if err != nil {
		return nil, err
	}
	d, err := s.store.GetDataset(ctx, run.ID, c, period, m)
	if err != nil {
		return nil, err
	}
	dist, err := stats.Distribution(d)
	if err != nil {
		return nil, err
	}
	return stats.Buckets(dist), nil
}

// TimeSeries ranks the latest period by q.RankBy and follows those
// countries through every period of q.Metric.
func (s *service) TimeSeries(ctx context.Context, q TimeSeriesQuery) (*TimeSeries, error) {
	run, err := s.run(ctx, q.Category)
	if err != nil {
		return nil, err
	}

	ranking, err := s.store.GetDatasetMap(ctx, run.ID, q.Category, q.RankBy)
	if err != nil {
		return nil, err
	}
	latest := timeseries.Latest(ranking)
	if latest == "" {
		return nil, fmt.Errorf("periods of %s: %w", q.Category, domain.ErrNotFound)
	}
	countries := stats.Rank(ranking[latest], q.N, q.Direction)

	dm := ranking
	if q.Metric != q.RankBy {
		dm, err = s.store.GetDatasetMap(ctx, run.ID, q.Category, q.Metric)
		if err != nil {
			return nil, err
		}
	}

	return &TimeSeries{
		Countries: countries,
		Rows:      timeseries.Assemble(dm, countries),
	}, nil
}
