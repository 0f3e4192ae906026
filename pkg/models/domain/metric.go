package domain

import "fmt"

// Metric names one of the five derived datasets.
type Metric string

const (
	MetricRequests          Metric = "requests"
	MetricItems             Metric = "items"
	MetricItemRatio         Metric = "item_ratio"
	MetricHonoredRequests   Metric = "honored_requests"
	MetricHonoredPercentage Metric = "honored_percentage"
)

// Metrics lists every metric in report order.
var Metrics = []Metric{
	MetricRequests,
	MetricItems,
	MetricItemRatio,
	MetricHonoredRequests,
	MetricHonoredPercentage,
}

var metricNames = map[Metric]string{
	MetricRequests:          "Requests",
	MetricItems:             "Items Requested",
	MetricItemRatio:         "Items Per Request",
	MetricHonoredRequests:   "Honored Requests",
	MetricHonoredPercentage: "Honored Request Percentages",
}

func ParseMetric(s string) (Metric, error) {
	m := Metric(s)
	if _, ok := metricNames[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
	return m, nil
}

// Name is the display name used in table titles.
func (m Metric) Name() string {
	return metricNames[m]
}

func (m Metric) String() string {
	return string(m)
}

// Direction selects the highest or lowest ranked countries.
type Direction string

const (
	DirectionTop    Direction = "top"
	DirectionBottom Direction = "bottom"
)

var Directions = []Direction{DirectionTop, DirectionBottom}

func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionTop, DirectionBottom:
		return Direction(s), nil
	case "":
		return DirectionTop, nil
	default:
		return "", fmt.Errorf("unknown direction %q", s)
	}
}

// Title is "Top" or "Bottom".
func (d Direction) Title() string {
	if d == DirectionBottom {
		return "Bottom"
	}
	return "Top"
}
