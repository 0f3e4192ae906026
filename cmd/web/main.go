package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/transparency-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/transparency-atlas/pkg/server"
	"github.com/de-tools/transparency-atlas/pkg/services/config"
	"github.com/de-tools/transparency-atlas/pkg/services/pipeline"
	"github.com/de-tools/transparency-atlas/pkg/services/report"
	"github.com/de-tools/transparency-atlas/pkg/store/duckdb"
	"github.com/de-tools/transparency-atlas/pkg/store/duckdb/metrics"
)

var (
	cfgPath  string
	generate bool
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Serve the stored transparency reports over HTTP",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to the YAML configuration file")
	rootCmd.Flags().BoolVar(&generate, "generate", false, "Run the pipeline into the store before serving")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	load := config.LoadServe
	if generate {
		load = config.Load
	}
	cfg, err := load(cfgPath)
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	ctx := logger.WithContext(cmd.Context())

	dbPath := cfg.Store.DbPath
	if dbPath == "" {
		dbPath = "transparency-atlas.db"
	}
	db, err := duckdb.NewDB(duckdb.Settings{
		DbPath: dbPath,
	})
	if err != nil {
		return fmt.Errorf("failed to create DuckDB instance: %w", err)
	}
	defer db.Close()

	store, err := metrics.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create metric store: %w", err)
	}

	pipelineMetrics := pipeline.NewMetrics(prometheus.DefaultRegisterer)
	if generate {
		result, err := commands.Generate(ctx, cfg,
			pipeline.WithStore(db, store),
			pipeline.WithMetrics(pipelineMetrics),
		)
		if err != nil {
			return fmt.Errorf("failed to generate reports: %w", err)
		}
		logger.Info().Str("run_id", result.RunID).Msg("reports generated")
	}

	logger.Info().Msgf("Serving reports stored in `%s`.", dbPath)

	api := server.NewWebAPI(server.Config{
		Addr: cfg.Server.Addr,
		Dependencies: server.Dependencies{
			Reports:  report.NewService(store),
			Logger:   logger,
			Gatherer: prometheus.DefaultGatherer,
		},
	})
	return api.Start()
}
