package domain

// TableKind tells sinks what a table holds.
type TableKind string

const (
	TableKindRanking      TableKind = "ranking"
	TableKindZScores      TableKind = "zscores"
	TableKindDistribution TableKind = "distribution"
	TableKindTimeSeries   TableKind = "timeseries"
)

// Table is a rendered report section ready to be written by a sink.
type Table struct {
	Category Category
	Kind     TableKind
	Period   string // empty for time series
	Name     string // e.g. "Top 10 Requests"
	SortedBy Metric // ranking metric, empty for distributions
	Header   []string
	Rows     [][]string
}

// RankedValue is a country with its value in a ranking.
type RankedValue struct {
	Country string
	Value   float64
}

// CategoryReport is the computed output for one category.
type CategoryReport struct {
	Category Category
	Periods  []string // ascending
	Latest   string
	ByPeriod map[string]AllMetrics
	// Ranked lists of the latest period, by direction and ranking metric.
	LatestLists map[Direction]map[Metric][]string
}

