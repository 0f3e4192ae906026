package metrics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/de-tools/transparency-atlas/pkg/adapters"
	"github.com/de-tools/transparency-atlas/pkg/models/domain"
	"github.com/de-tools/transparency-atlas/pkg/models/store"
	"github.com/de-tools/transparency-atlas/pkg/store/duckdb"
)

// Store persists extracted datasets per pipeline run. Writes join the
// transaction carried by the context, if any.
type Store interface {
	CreateRun(ctx context.Context, categories []domain.Category) (*store.Run, error)
	FinishRun(ctx context.Context, runID string) error
	AddDatasets(ctx context.Context, runID string, c domain.Category, period string, all domain.AllMetrics) error
	LatestRun(ctx context.Context) (*store.Run, error)
	ListPeriods(ctx context.Context, runID string, c domain.Category) ([]string, error)
	GetDataset(ctx context.Context, runID string, c domain.Category, period string, m domain.Metric) (*domain.Dataset, error)
	GetDatasetMap(ctx context.Context, runID string, c domain.Category, m domain.Metric) (domain.DatasetMap, error)
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type metricStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &metricStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *metricStore) conn(ctx context.Context) querier {
	if tx := duckdb.GetTransaction(ctx); tx != nil {
		return tx
	}
	return s.db
}

func (s *metricStore) CreateRun(ctx context.Context, categories []domain.Category) (*store.Run, error) {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	run := &store.Run{
		ID:         uuid.NewString(),
		StartedAt:  s.now(),
		Categories: names,
	}

	_, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO runs (id, started_at, categories) VALUES (?, ?, ?)`,
		run.ID, run.StartedAt, strings.Join(names, ","),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

func (s *metricStore) FinishRun(ctx context.Context, runID string) error {
	res, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE runs SET finished_at = ? WHERE id = ?`,
		s.now(), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s: %w", runID, domain.ErrNotFound)
	}
	return nil
}

func (s *metricStore) AddDatasets(
	ctx context.Context,
	runID string,
	c domain.Category,
	period string,
	all domain.AllMetrics,
) error {
	values := adapters.MapAllMetricsToStoreValues(runID, c, period, all)
	if len(values) == 0 {
		return nil
	}

	stmt, err := s.conn(ctx).PrepareContext(ctx, `
		INSERT INTO metric_values (
			run_id, category, period, metric, country, position, value
		) VALUES (
			?, ?, ?, ?, ?, ?, ?
		)`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, v := range values {
		_, err = stmt.ExecContext(ctx,
			v.RunID,
			v.Category,
			v.Period,
			v.Metric,
			v.Country,
			v.Position,
			v.Value,
		)
		if err != nil {
			return fmt.Errorf("insert value: %w", err)
		}
	}
	return nil
}

func (s *metricStore) LatestRun(ctx context.Context) (*store.Run, error) {
	var (
		run        store.Run
		finishedAt sql.NullTime
		categories string
	)
	err := s.conn(ctx).QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, categories
		FROM runs
		WHERE finished_at IS NOT NULL
		ORDER BY started_at DESC
		LIMIT 1`,
	).Scan(&run.ID, &run.StartedAt, &finishedAt, &categories)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("finished run: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get latest run: %w", err)
	}

	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	if categories != "" {
		run.Categories = strings.Split(categories, ",")
	}
	return &run, nil
}

func (s *metricStore) ListPeriods(ctx context.Context, runID string, c domain.Category) ([]string, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT DISTINCT period
		FROM metric_values
		WHERE run_id = ? AND category = ?
		ORDER BY period`,
		runID, string(c),
	)
	if err != nil {
		return nil, fmt.Errorf("query periods: %w", err)
	}
	defer rows.Close()

	periods := make([]string, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (s *metricStore) GetDataset(
	ctx context.Context,
	runID string,
	c domain.Category,
	period string,
	m domain.Metric,
) (*domain.Dataset, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT period, country, position, value
		FROM metric_values
		WHERE run_id = ? AND category = ? AND period = ? AND metric = ?
		ORDER BY position`,
		runID, string(c), period, string(m),
	)
	if err != nil {
		return nil, fmt.Errorf("query dataset: %w", err)
	}
	defer rows.Close()

	values, err := scanValues(rows, runID, c, m)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("period %s of %s: %w", period, c, domain.ErrNotFound)
	}
	return adapters.MapStoreValuesToDataset(values), nil
}

func (s *metricStore) GetDatasetMap(
	ctx context.Context,
	runID string,
	c domain.Category,
	m domain.Metric,
) (domain.DatasetMap, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT period, country, position, value
		FROM metric_values
		WHERE run_id = ? AND category = ? AND metric = ?
		ORDER BY period, position`,
		runID, string(c), string(m),
	)
	if err != nil {
		return nil, fmt.Errorf("query datasets: %w", err)
	}
	defer rows.Close()

	values, err := scanValues(rows, runID, c, m)
	if err != nil {
		return nil, err
	}

	byPeriod := make(map[string][]store.MetricValue)
	for _, v := range values {
		byPeriod[v.Period] = append(byPeriod[v.Period], v)
	}
	dm := make(domain.DatasetMap, len(byPeriod))
	for period, vs := range byPeriod {
		dm[period] = adapters.MapStoreValuesToDataset(vs)
	}
	return dm, nil
}

func scanValues(rows *sql.Rows, runID string, c domain.Category, m domain.Metric) ([]store.MetricValue, error) {
	values := make([]store.MetricValue, 0)
	for rows.Next() {
		v := store.MetricValue{
			RunID:    runID,
			Category: string(c),
			Metric:   string(m),
		}
		if err := rows.Scan(&v.Period, &v.Country, &v.Position, &v.Value); err != nil {
			return nil, fmt.Errorf("scan value: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
