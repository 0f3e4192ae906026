package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const RunsTableSchema = `
	CREATE TABLE IF NOT EXISTS runs (
		id VARCHAR PRIMARY KEY,
		started_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		finished_at TIMESTAMP NULL,
		categories VARCHAR NOT NULL
	);
`

const MetricValuesTableSchema = `
	CREATE TABLE IF NOT EXISTS metric_values (
		run_id VARCHAR NOT NULL,
		category VARCHAR NOT NULL,
		period VARCHAR NOT NULL,
		metric VARCHAR NOT NULL,
		country VARCHAR NOT NULL,
		position INTEGER NOT NULL,
		value DOUBLE,
		PRIMARY KEY (run_id, category, period, metric, country)
	);
`

var bootQueries = []string{
	RunsTableSchema,
	MetricValuesTableSchema,
}

type Settings struct {
	DbPath  string
	Threads int
}

func NewDB(settings Settings) (*sql.DB, error) {
	threads := settings.Threads
	if threads <= 0 {
		threads = 4
	}
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=%d", settings.DbPath, threads), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}
