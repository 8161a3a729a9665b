// Package chart builds render-ready chart specifications: histogram bins
// for numeric columns and top-N value-count bar charts for categorical
// columns. Rendering to pixels is the frontend's job; this package only
// computes the data series.
package chart

import (
	"fmt"
	"sort"

	"tabcli/internal/dataset"
)

const (
	// DefaultBins is the histogram bin count when the request does not set one.
	DefaultBins = 20
	// DefaultTopN is the bar-chart category limit when the request does not set one.
	DefaultTopN = 20
)

// HistogramBin is one bar of a histogram: the half-open interval
// [Lower, Upper) and the number of values that fell into it. The last bin
// includes its upper edge.
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram is a render-ready histogram specification.
type Histogram struct {
	Column string         `json:"column"`
	Bins   []HistogramBin `json:"bins"`
	Values int            `json:"values"` // non-missing values counted
}

// BarItem is one bar of a value-count bar chart.
type BarItem struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// BarChart is a render-ready bar chart of the most frequent values of a
// categorical column.
type BarChart struct {
	Column    string    `json:"column"`
	Items     []BarItem `json:"items"`
	Truncated bool      `json:"truncated"` // more distinct values existed than items returned
}

// BuildHistogram bins the non-missing values of a numeric column into
// equal-width intervals over [min, max]. A column whose values are all
// identical yields a single bin.
func BuildHistogram(t *dataset.Table, column string, bins int) (*Histogram, error) {
	col := t.Column(column)
	if col == nil {
		return nil, fmt.Errorf("column %q not found", column)
	}
	if col.Kind() != dataset.ColumnNumeric {
		return nil, fmt.Errorf("column %q is not numeric", column)
	}
	if bins <= 0 {
		bins = DefaultBins
	}

	values := col.Numbers()
	h := &Histogram{Column: column, Values: len(values)}
	if len(values) == 0 {
		return h, nil
	}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min == max {
		h.Bins = []HistogramBin{{Lower: min, Upper: max, Count: len(values)}}
		return h, nil
	}

	width := (max - min) / float64(bins)
	h.Bins = make([]HistogramBin, bins)
	for i := range h.Bins {
		h.Bins[i].Lower = min + float64(i)*width
		h.Bins[i].Upper = min + float64(i+1)*width
	}
	h.Bins[bins-1].Upper = max

	for _, v := range values {
		idx := int((v - min) / width)
		if idx >= bins {
			idx = bins - 1
		}
		h.Bins[idx].Count++
	}
	return h, nil
}

// BuildBarChart counts the distinct values of a non-numeric column, sorted
// by count descending with ties broken by value, truncated to topN.
func BuildBarChart(t *dataset.Table, column string, topN int) (*BarChart, error) {
	col := t.Column(column)
	if col == nil {
		return nil, fmt.Errorf("column %q not found", column)
	}
	if col.Kind() == dataset.ColumnNumeric {
		return nil, fmt.Errorf("column %q is numeric, bar charts need a categorical column", column)
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	counts := make(map[string]int)
	for _, v := range col.Values() {
		counts[v]++
	}

	items := make([]BarItem, 0, len(counts))
	for value, count := range counts {
		items = append(items, BarItem{Value: value, Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Value < items[j].Value
	})

	chart := &BarChart{Column: column}
	if len(items) > topN {
		chart.Items = items[:topN]
		chart.Truncated = true
	} else {
		chart.Items = items
	}
	return chart, nil
}
