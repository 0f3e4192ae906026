package domain

import "errors"

var (
	// ErrMalformedInput reports rows or columns that do not match the export layout.
	ErrMalformedInput = errors.New("malformed input")
	// ErrInvalidCategory reports a category outside the known set.
	ErrInvalidCategory = errors.New("invalid category")
	// ErrNumericDomain reports statistics that are undefined for the given values,
	// e.g. z-scores of a dataset with zero variance.
	ErrNumericDomain = errors.New("numeric domain error")
	ErrUnknownMetric = errors.New("unknown metric")
)

// ErrNotFound reports a missing run or period in the metric store.
var ErrNotFound = errors.New("not found")
