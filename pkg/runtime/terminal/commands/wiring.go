package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/de-tools/transparency-atlas/pkg/runtime/export"
	"github.com/de-tools/transparency-atlas/pkg/services/config"
	"github.com/de-tools/transparency-atlas/pkg/services/pipeline"
	"github.com/de-tools/transparency-atlas/pkg/services/source"
	"github.com/de-tools/transparency-atlas/pkg/store/duckdb"
	"github.com/de-tools/transparency-atlas/pkg/store/duckdb/metrics"
	"github.com/de-tools/transparency-atlas/pkg/store/s3"
)

func loadManifest(cfg *config.Config) (source.Manifest, error) {
	if cfg.Input.Manifest == "" {
		return nil, nil
	}
	return config.LoadManifest(cfg.Input.Manifest)
}

func newBucket(ctx context.Context, c config.S3Config, manifest source.Manifest) (*s3.Bucket, error) {
	awsCfg, err := s3.LoadConfig(ctx, c.Profile, c.Region)
	if err != nil {
		return nil, err
	}
	return s3.NewBucket(s3.NewClient(awsCfg), c.Bucket, c.Prefix, manifest), nil
}

// buildSource reads from S3 when an input bucket is configured and from the
// input directory otherwise.
func buildSource(ctx context.Context, cfg *config.Config) (source.Source, error) {
	manifest, err := loadManifest(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Input.S3.Bucket != "" {
		zerolog.Ctx(ctx).Info().
			Str("bucket", cfg.Input.S3.Bucket).
			Str("prefix", cfg.Input.S3.Prefix).
			Msg("reading exports from s3")
		return newBucket(ctx, cfg.Input.S3, manifest)
	}
	return source.NewDirSource(cfg.Input.Dir, manifest), nil
}

func buildSink(ctx context.Context, cfg *config.Config) (export.Sink, error) {
	var sinks []export.Sink
	if cfg.Output.Dir != "" {
		for _, format := range cfg.Output.Formats {
			switch format {
			case "csv":
				sinks = append(sinks, export.NewCSVSink(cfg.Output.Dir))
			case "xlsx":
				sinks = append(sinks, export.NewXLSXSink(cfg.Output.Dir))
			default:
				return nil, fmt.Errorf("unsupported output format %q", format)
			}
		}
	}
	if cfg.Output.S3.Bucket != "" {
		bucket, err := newBucket(ctx, cfg.Output.S3, nil)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, bucket)
	}
	if len(sinks) == 0 {
		return nil, fmt.Errorf("no output configured")
	}
	return export.Multi(sinks...), nil
}

func openStore(cfg *config.Config) (*sql.DB, metrics.Store, error) {
	if cfg.Store.DbPath == "" {
		return nil, nil, nil
	}
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: cfg.Store.DbPath})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
	}
	s, err := metrics.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to create metric store: %w", err)
	}
	return db, s, nil
}

// Generate runs the pipeline over the configured categories, writing to the
// configured outputs. Sinks are flushed even when the run fails.
func Generate(ctx context.Context, cfg *config.Config, extra ...pipeline.Option) (*pipeline.Result, error) {
	src, err := buildSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sink, err := buildSink(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := append([]pipeline.Option{
		pipeline.WithTopN(cfg.Analysis.TopN),
		pipeline.WithWorkers(cfg.Analysis.Workers),
		pipeline.WithZeroDivision(cfg.ZeroDivision()),
	}, extra...)
	ctrl, err := pipeline.NewController(src, sink, opts...)
	if err != nil {
		return nil, err
	}

	result, runErr := ctrl.Run(ctx, cfg.Categories())
	if err := export.Close(sink); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to flush output: %w", err)
	}
	if runErr != nil {
		return nil, runErr
	}
	return result, nil
}
