package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/de-tools/transparency-atlas/pkg/adapters"
	"github.com/de-tools/transparency-atlas/pkg/models/domain"
	"github.com/de-tools/transparency-atlas/pkg/runtime/terminal/console"
	"github.com/de-tools/transparency-atlas/pkg/services/category"
	"github.com/de-tools/transparency-atlas/pkg/services/config"
	"github.com/de-tools/transparency-atlas/pkg/services/extract"
	"github.com/de-tools/transparency-atlas/pkg/services/parser"
	"github.com/de-tools/transparency-atlas/pkg/services/source"
	"github.com/de-tools/transparency-atlas/pkg/services/stats"
)

type RankCmd struct {
	inputDir     string
	manifest     string
	category     string
	period       string
	metric       string
	direction    string
	n            int
	zeroDivision string
	reporter     *console.Reporter
}

func NewRankCmd(reporter *console.Reporter) *cobra.Command {
	rc := &RankCmd{reporter: reporter}
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Print the highest or lowest ranked countries of one metric",
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.inputDir, "input", "", "Directory holding the category exports")
	cmd.Flags().StringVar(&rc.manifest, "manifest", "", "INI manifest overriding export file names")
	cmd.Flags().StringVar(&rc.category, "category", "", "Category slug")
	cmd.Flags().StringVar(&rc.period, "period", "", "Time period (defaults to the latest)")
	cmd.Flags().StringVar(&rc.metric, "metric", string(domain.MetricRequests), "Metric to rank by")
	cmd.Flags().StringVar(&rc.direction, "direction", string(domain.DirectionTop), "Ranking direction (top, bottom)")
	cmd.Flags().IntVarP(&rc.n, "n", "n", 10, "Number of countries")
	cmd.Flags().StringVar(&rc.zeroDivision, "zero-division", "", "Value of ratios without requests (nan, zero)")

	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func (rc *RankCmd) run(cmd *cobra.Command, _ []string) error {
	c, err := domain.ParseCategory(rc.category)
	if err != nil {
		return err
	}
	metric, err := domain.ParseMetric(rc.metric)
	if err != nil {
		return err
	}
	dir, err := domain.ParseDirection(rc.direction)
	if err != nil {
		return err
	}
	zero, err := extract.ParseZeroDivision(rc.zeroDivision)
	if err != nil {
		return err
	}
	if rc.n < 1 {
		return fmt.Errorf("n must be positive, got %d", rc.n)
	}

	var manifest source.Manifest
	if rc.manifest != "" {
		if manifest, err = config.LoadManifest(rc.manifest); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	text, err := source.NewDirSource(rc.inputDir, manifest).Load(ctx, c)
	if err != nil {
		return err
	}
	rows, err := parser.ParseRows(text)
	if err != nil {
		return err
	}
	minFields, err := category.MinFields(c)
	if err != nil {
		return err
	}
	if err := parser.Validate(rows, minFields); err != nil {
		return err
	}

	groups, periods := parser.GroupByPeriod(rows)
	period := rc.period
	if period == "" && len(periods) > 0 {
		period = periods[len(periods)-1]
	}
	group, ok := groups[period]
	if !ok {
		return fmt.Errorf("%w: period %q in %s", domain.ErrNotFound, period, c)
	}

	all, err := extract.Extract(group, c, extract.Options{ZeroDivision: zero})
	if err != nil {
		return err
	}
	values := stats.Ranked(all.Dataset(metric), rc.n, dir)
	return rc.reporter.Write(ctx, adapters.MapRankingToTable(c, period, dir, rc.n, metric, metric, values))
}
