// Package trend computes per-category direction from a time-ordered sample
// window.
package trend

import (
	"math"
	"strconv"

	"github.com/vitalwatch/vitalwatch/internal/store"
)

// Direction classifies how a category moved across the window.
type Direction string

const (
	Increasing   Direction = "increasing"
	Decreasing   Direction = "decreasing"
	Stable       Direction = "stable"
	Insufficient Direction = "insufficient_data"
	NonNumeric   Direction = "non_numeric"
)

// Percent-change classification threshold.
const threshold = 5.0

// Result is the trend for one category.
type Result struct {
	Category string    `json:"category"`
	Count    int       `json:"count"`
	Trend    Direction `json:"trend"`
	// MagnitudePercent is abs(percent change) rounded to one decimal.
	// Only meaningful for increasing/decreasing/stable.
	MagnitudePercent float64       `json:"magnitude_percent,omitempty"`
	Latest           *store.Sample `json:"latest,omitempty"`
}

// Analyze groups samples by category and classifies each group. Samples must
// be ordered by recording time ascending (the store guarantees this).
//
// The classification compares only the first and last sample of a group, not
// a fit over all points. That endpoint heuristic is intentional: it is cheap,
// and noisy intermediate points do not move it.
func Analyze(samples []store.Sample) []Result {
	groups := make(map[string][]store.Sample)
	var order []string
	for _, s := range samples {
		if _, seen := groups[s.Category]; !seen {
			order = append(order, s.Category)
		}
		groups[s.Category] = append(groups[s.Category], s)
	}

	results := make([]Result, 0, len(order))
	for _, cat := range order {
		results = append(results, analyzeGroup(cat, groups[cat]))
	}
	return results
}

func analyzeGroup(category string, group []store.Sample) Result {
	res := Result{Category: category, Count: len(group)}
	if len(group) > 0 {
		res.Latest = &group[len(group)-1]
	}
	if len(group) < 2 {
		res.Trend = Insufficient
		return res
	}

	first, errFirst := strconv.ParseFloat(group[0].Value, 64)
	last, errLast := strconv.ParseFloat(group[len(group)-1].Value, 64)
	if errFirst != nil || errLast != nil || first == 0 {
		// first == 0 would divide by zero; treat like an unparseable series.
		res.Trend = NonNumeric
		return res
	}

	change := (last - first) / first * 100
	res.MagnitudePercent = math.Round(math.Abs(change)*10) / 10
	switch {
	case change > threshold:
		res.Trend = Increasing
	case change < -threshold:
		res.Trend = Decreasing
	default:
		res.Trend = Stable
	}
	return res
}
