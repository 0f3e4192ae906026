package adapters

import (
	"fmt"
	"strconv"

	"github.com/de-tools/transparency-atlas/pkg/models/domain"
)

// FormatValue renders a metric value for CSV output. NaN stays "NaN".
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// MapRankingToTable renders the values of metric for a ranked country list.
func MapRankingToTable(
	c domain.Category,
	period string,
	dir domain.Direction,
	n int,
	metric, sortedBy domain.Metric,
	values []domain.RankedValue,
) domain.Table {
	rows := make([][]string, 0, len(values))
	for _, v := range values {
		rows = append(rows, []string{v.Country, FormatValue(v.Value)})
	}
	return domain.Table{
		Category: c,
		Kind:     domain.TableKindRanking,
		Period:   period,
		Name:     fmt.Sprintf("%s %d %s", dir.Title(), n, metric.Name()),
		SortedBy: sortedBy,
		Header:   []string{"Country", c.Name()},
		Rows:     rows,
	}
}

// MapZScoresToTable renders z-scores of the ranked countries of one metric.
func MapZScoresToTable(
	c domain.Category,
	period string,
	dir domain.Direction,
	n int,
	metric domain.Metric,
	values []domain.RankedValue,
) domain.Table {
	rows := make([][]string, 0, len(values))
	for _, v := range values {
		rows = append(rows, []string{v.Country, FormatValue(v.Value)})
	}
	return domain.Table{
		Category: c,
		Kind:     domain.TableKindZScores,
		Period:   period,
		Name:     fmt.Sprintf("%s %d %s Z-Scores", dir.Title(), n, metric.Name()),
		SortedBy: metric,
		Header:   []string{"Country", "Z-Score"},
		Rows:     rows,
	}
}

func MapDistributionToTable(
	c domain.Category,
	period string,
	metric domain.Metric,
	buckets []domain.Bucket,
) domain.Table {
	rows := make([][]string, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, []string{strconv.Itoa(b.Bucket), strconv.Itoa(b.Count)})
	}
	return domain.Table{
		Category: c,
		Kind:     domain.TableKindDistribution,
		Period:   period,
		Name:     metric.Name(),
		Header:   []string{"Standard Deviation", "# of Countries"},
		Rows:     rows,
	}
}

var timeSeriesTitles = map[domain.Metric]string{
	domain.MetricRequests:          "Requests Over Time",
	domain.MetricItems:             "Requested Items Over Time",
	domain.MetricItemRatio:         "Items Per Request Over Time",
	domain.MetricHonoredRequests:   "Honored Requests Over Time",
	domain.MetricHonoredPercentage: "Honored Request Percentages Over Time",
}

// MapTimeSeriesToTable renders assembled rows with one column per country.
func MapTimeSeriesToTable(
	c domain.Category,
	dir domain.Direction,
	n int,
	metric, sortedBy domain.Metric,
	countries []string,
	series []domain.TimeSeriesRow,
) domain.Table {
	header := append([]string{"Time Period"}, countries...)
	rows := make([][]string, 0, len(series))
	for _, s := range series {
		row := make([]string, 0, len(s.Values)+1)
		row = append(row, s.Period)
		for _, v := range s.Values {
			row = append(row, FormatValue(v))
		}
		rows = append(rows, row)
	}
	return domain.Table{
		Category: c,
		Kind:     domain.TableKindTimeSeries,
		Name:     fmt.Sprintf("%s (%s %d)", timeSeriesTitles[metric], dir.Title(), n),
		SortedBy: sortedBy,
		Header:   header,
		Rows:     rows,
	}
}
