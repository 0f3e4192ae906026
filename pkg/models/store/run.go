package store

import "time"

type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	Categories []string
}

// MetricValue is one country value of a stored dataset. Position keeps the
// dataset's insertion order.
type MetricValue struct {
	RunID    string
	Category string
	Period   string
	Metric   string
	Country  string
	Position int
	Value    float64
}
