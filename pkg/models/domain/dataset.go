package domain

// Row is one CSV record split into fields.
type Row []string

// Dataset maps country names to a value for one metric, period and category.
// Countries keep their first insertion order.
type Dataset struct {
	keys   []string
	values map[string]float64
}

// NewDataset creates an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{values: make(map[string]float64)}
}

// DatasetOf builds a dataset from parallel key/value slices.
func DatasetOf(keys []string, values []float64) *Dataset {
	d := NewDataset()
	for i, k := range keys {
		d.Set(k, values[i])
	}
	return d
}

// Set stores v for country. Overwriting keeps the original position.
func (d *Dataset) Set(country string, v float64) {
	if _, ok := d.values[country]; !ok {
		d.keys = append(d.keys, country)
	}
	d.values[country] = v
}

func (d *Dataset) Get(country string) (float64, bool) {
	if d == nil {
		return 0, false
	}
	v, ok := d.values[country]
	return v, ok
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns the countries in insertion order.
func (d *Dataset) Keys() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.keys...)
}

// Values returns the values in insertion order.
func (d *Dataset) Values() []float64 {
	if d == nil {
		return nil
	}
	out := make([]float64, len(d.keys))
	for i, k := range d.keys {
		out[i] = d.values[k]
	}
	return out
}

// Each calls fn for every entry in insertion order.
func (d *Dataset) Each(fn func(country string, v float64)) {
	if d == nil {
		return
	}
	for _, k := range d.keys {
		fn(k, d.values[k])
	}
}

// DatasetMap collects one metric's datasets by period label.
type DatasetMap map[string]*Dataset

// AllMetrics holds the five datasets extracted for one (category, period).
type AllMetrics struct {
	Requests           *Dataset
	Items              *Dataset
	Ratios             *Dataset
	HonoredRequests    *Dataset
	HonoredPercentages *Dataset
}

// NewAllMetrics returns five empty datasets.
func NewAllMetrics() AllMetrics {
	return AllMetrics{
		Requests:           NewDataset(),
		Items:              NewDataset(),
		Ratios:             NewDataset(),
		HonoredRequests:    NewDataset(),
		HonoredPercentages: NewDataset(),
	}
}

// Dataset returns the dataset for m.
func (a AllMetrics) Dataset(m Metric) *Dataset {
	switch m {
	case MetricRequests:
		return a.Requests
	case MetricItems:
		return a.Items
	case MetricItemRatio:
		return a.Ratios
	case MetricHonoredRequests:
		return a.HonoredRequests
	case MetricHonoredPercentage:
		return a.HonoredPercentages
	default:
		return nil
	}
}

// Distribution counts countries per rounded z-score bucket.
type Distribution map[int]int

// Bucket is one entry of a Distribution.
type Bucket struct {
	Bucket int
	Count  int
}

// TimeSeriesRow is one period with values aligned to a country list.
type TimeSeriesRow struct {
	Period string
	Values []float64
}
