// Package stats computes the descriptive analysis shown after cleaning:
// shape, column types, numeric summaries, categorical unique counts, and
// the Pearson correlation matrix.
package stats

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"tabcli/internal/dataset"
)

// Shape is the row/column count of the analyzed table.
type Shape struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

// ColumnType is one row of the dtype table.
type ColumnType struct {
	Column string             `json:"column"`
	Kind   dataset.ColumnKind `json:"kind"`
}

// NumericSummary is the describe row for one numeric column.
type NumericSummary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	P25    float64 `json:"p25"`
	P50    float64 `json:"p50"`
	P75    float64 `json:"p75"`
	Max    float64 `json:"max"`
}

// UniqueCount is the distinct-value count for one categorical column.
type UniqueCount struct {
	Column string `json:"column"`
	Unique int    `json:"unique"`
}

// Correlation holds a Pearson correlation matrix over numeric columns.
// Values[i][j] is the correlation between Columns[i] and Columns[j].
type Correlation struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// Analysis is the full describe output for one table.
type Analysis struct {
	Shape        Shape            `json:"shape"`
	Types        []ColumnType     `json:"types"`
	Numeric      []NumericSummary `json:"numeric"`
	UniqueCounts []UniqueCount    `json:"unique_counts"`
	Correlation  *Correlation     `json:"correlation,omitempty"`
}

// Describer produces Analysis values from tables.
type Describer struct {
	logger *slog.Logger
}

// NewDescriber creates a describer. A nil logger falls back to slog.Default.
func NewDescriber(logger *slog.Logger) *Describer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Describer{logger: logger.With(slog.String("component", "describer"))}
}

// Describe computes the full analysis for a table. The correlation matrix is
// present only when the table has at least two numeric columns.
func (d *Describer) Describe(ctx context.Context, t *dataset.Table) *Analysis {
	analysis := &Analysis{
		Shape: Shape{Rows: t.Rows(), Columns: t.Cols()},
	}

	var numericCols []*dataset.Column
	for _, col := range t.Columns {
		kind := col.Kind()
		analysis.Types = append(analysis.Types, ColumnType{Column: col.Name, Kind: kind})

		switch kind {
		case dataset.ColumnNumeric:
			numericCols = append(numericCols, col)
			analysis.Numeric = append(analysis.Numeric, summarize(col))
		default:
			analysis.UniqueCounts = append(analysis.UniqueCounts, UniqueCount{
				Column: col.Name,
				Unique: uniqueCount(col),
			})
		}
	}

	if len(numericCols) >= 2 {
		analysis.Correlation = correlate(numericCols)
	}

	d.logger.InfoContext(ctx, "analysis computed",
		slog.Int("rows", analysis.Shape.Rows),
		slog.Int("columns", analysis.Shape.Columns),
		slog.Int("numeric_columns", len(analysis.Numeric)),
		slog.Bool("correlation", analysis.Correlation != nil))

	return analysis
}

// summarize computes the describe row for a numeric column, skipping
// missing cells.
func summarize(col *dataset.Column) NumericSummary {
	values := col.Numbers()
	summary := NumericSummary{Column: col.Name, Count: len(values)}
	if len(values) == 0 {
		return summary
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	summary.Mean = Mean(values)
	summary.Std = Std(values)
	summary.Min = sorted[0]
	summary.Max = sorted[len(sorted)-1]
	summary.P25 = quantile(sorted, 0.25)
	summary.P50 = quantile(sorted, 0.50)
	summary.P75 = quantile(sorted, 0.75)
	return summary
}

func uniqueCount(col *dataset.Column) int {
	seen := make(map[string]bool)
	for _, v := range col.Values() {
		seen[v] = true
	}
	return len(seen)
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Std returns the sample standard deviation, or 0 with fewer than two
// values.
func Std(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	sum := 0.0
	for _, v := range values {
		sum += (v - mean) * (v - mean)
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// quantile computes the q-quantile of sorted values by linear interpolation.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// correlate builds the pairwise Pearson correlation matrix. Rows with a
// missing cell in either column of a pair are skipped for that pair.
func correlate(cols []*dataset.Column) *Correlation {
	corr := &Correlation{
		Columns: make([]string, len(cols)),
		Values:  make([][]float64, len(cols)),
	}
	for i, col := range cols {
		corr.Columns[i] = col.Name
		corr.Values[i] = make([]float64, len(cols))
	}
	for i := range cols {
		corr.Values[i][i] = 1
		for j := i + 1; j < len(cols); j++ {
			r := pearson(cols[i], cols[j])
			corr.Values[i][j] = r
			corr.Values[j][i] = r
		}
	}
	return corr
}

func pearson(a, b *dataset.Column) float64 {
	var xs, ys []float64
	n := len(a.Cells)
	if len(b.Cells) < n {
		n = len(b.Cells)
	}
	for i := 0; i < n; i++ {
		if a.Cells[i].Kind == dataset.KindNumber && b.Cells[i].Kind == dataset.KindNumber {
			xs = append(xs, a.Cells[i].Num)
			ys = append(ys, b.Cells[i].Num)
		}
	}
	if len(xs) < 2 {
		return 0
	}

	meanX, meanY := Mean(xs), Mean(ys)
	var cov, varX, varY float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}
