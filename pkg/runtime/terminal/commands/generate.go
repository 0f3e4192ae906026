package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/transparency-atlas/pkg/runtime/terminal/console"
	"github.com/de-tools/transparency-atlas/pkg/services/config"
	"github.com/de-tools/transparency-atlas/pkg/services/pipeline"
)

type GenerateCmd struct {
	configPath   string
	inputDir     string
	outputDir    string
	formats      []string
	topN         int
	workers      int
	zeroDivision string
	dbPath       string
	reporter     *console.Reporter
}

func NewGenerateCmd(reporter *console.Reporter) *cobra.Command {
	gc := &GenerateCmd{reporter: reporter}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Aggregate category exports into report tables",
		RunE:  gc.run,
	}

	cmd.Flags().StringVarP(&gc.configPath, "config", "c", "", "Path to the YAML configuration file")
	cmd.Flags().StringVar(&gc.inputDir, "input", "", "Directory holding the category exports")
	cmd.Flags().StringVar(&gc.outputDir, "output", "", "Directory receiving the report tables")
	cmd.Flags().StringSliceVar(&gc.formats, "format", nil, "Output formats (csv, xlsx)")
	cmd.Flags().IntVar(&gc.topN, "top", pipeline.DefaultTopN, "Number of countries per ranking")
	cmd.Flags().IntVar(&gc.workers, "workers", pipeline.DefaultWorkers, "Periods extracted concurrently")
	cmd.Flags().StringVar(&gc.zeroDivision, "zero-division", "", "Value of ratios without requests (nan, zero)")
	cmd.Flags().StringVar(&gc.dbPath, "db", "", "DuckDB file persisting the extracted datasets")

	return cmd
}

// loadConfig merges flags over the configuration file.
func (gc *GenerateCmd) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Read(gc.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if gc.inputDir != "" {
		cfg.Input.Dir = gc.inputDir
	}
	if gc.outputDir != "" {
		cfg.Output.Dir = gc.outputDir
	}
	if flags.Changed("format") {
		cfg.Output.Formats = gc.formats
	}
	if flags.Changed("top") {
		cfg.Analysis.TopN = gc.topN
	}
	if flags.Changed("workers") {
		cfg.Analysis.Workers = gc.workers
	}
	if gc.zeroDivision != "" {
		cfg.Analysis.ZeroDivision = gc.zeroDivision
	}
	if gc.dbPath != "" {
		cfg.Store.DbPath = gc.dbPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (gc *GenerateCmd) run(cmd *cobra.Command, _ []string) error {
	cfg, err := gc.loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)
	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		l := logger.Level(level)
		logger = &l
		ctx = logger.WithContext(ctx)
	}

	var opts []pipeline.Option
	db, store, err := openStore(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		opts = append(opts, pipeline.WithStore(db, store))
	}

	result, err := Generate(ctx, cfg, opts...)
	if err != nil {
		return err
	}

	logger.Info().
		Str("run_id", result.RunID).
		Int("categories", len(result.Reports)).
		Msg("reports generated")
	gc.reporter.Summary(result.Reports)
	return nil
}
