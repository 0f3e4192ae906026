package api

type Category struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	FileName string `json:"file_name"`
}

type Periods struct {
	Category string   `json:"category"`
	RunID    string   `json:"run_id"`
	Periods  []string `json:"periods"`
	Latest   string   `json:"latest"`
}

// RankedValue carries a nil Value for NaN, which JSON cannot encode.
type RankedValue struct {
	Country string   `json:"country"`
	Value   *float64 `json:"value"`
}

type Ranking struct {
	Category  string        `json:"category"`
	Period    string        `json:"period"`
	Metric    string        `json:"metric"`
	Direction string        `json:"direction"`
	N         int           `json:"n"`
	Values    []RankedValue `json:"values"`
}

type Bucket struct {
	StdDev    int `json:"std_dev"`
	Countries int `json:"countries"`
}

type Distribution struct {
	Category string   `json:"category"`
	Period   string   `json:"period"`
	Metric   string   `json:"metric"`
	Buckets  []Bucket `json:"buckets"`
}

type TimeSeriesRow struct {
	Period string     `json:"period"`
	Values []*float64 `json:"values"`
}

type TimeSeries struct {
	Category  string          `json:"category"`
	Metric    string          `json:"metric"`
	RankedBy  string          `json:"ranked_by"`
	Direction string          `json:"direction"`
	Countries []string        `json:"countries"`
	Rows      []TimeSeriesRow `json:"rows"`
}

type Error struct {
	Error string `json:"error"`
}
