package stats

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabcli/internal/dataset"
)

func numericColumn(name string, values ...float64) *dataset.Column {
	col := &dataset.Column{Name: name}
	for _, v := range values {
		col.Cells = append(col.Cells, dataset.Number(v))
	}
	return col
}

func TestMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{name: "empty", values: nil, want: 0},
		{name: "single", values: []float64{4}, want: 4},
		{name: "several", values: []float64{1, 2, 3, 4}, want: 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Mean(tt.values), 1e-9)
		})
	}
}

func TestStd(t *testing.T) {
	// Sample standard deviation of {2, 4, 4, 4, 5, 5, 7, 9} is ~2.138.
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 2.138089935, Std(values), 1e-6)
	assert.Zero(t, Std([]float64{5}))
	assert.Zero(t, Std(nil))
}

func TestDescribeNumericSummary(t *testing.T) {
	table := &dataset.Table{Columns: []*dataset.Column{
		numericColumn("v", 1, 2, 3, 4, 5),
	}}
	table.Columns[0].Cells = append(table.Columns[0].Cells, dataset.Null())

	analysis := NewDescriber(nil).Describe(context.Background(), table)

	require.Len(t, analysis.Numeric, 1)
	summary := analysis.Numeric[0]
	assert.Equal(t, "v", summary.Column)
	assert.Equal(t, 5, summary.Count) // null skipped
	assert.InDelta(t, 3.0, summary.Mean, 1e-9)
	assert.InDelta(t, 1.0, summary.Min, 1e-9)
	assert.InDelta(t, 2.0, summary.P25, 1e-9)
	assert.InDelta(t, 3.0, summary.P50, 1e-9)
	assert.InDelta(t, 4.0, summary.P75, 1e-9)
	assert.InDelta(t, 5.0, summary.Max, 1e-9)
	assert.InDelta(t, math.Sqrt(2.5), summary.Std, 1e-9)
}

func TestDescribeShapeAndTypes(t *testing.T) {
	table := &dataset.Table{Columns: []*dataset.Column{
		numericColumn("n", 1, 2),
		{Name: "c", Cells: []dataset.Cell{dataset.String("a"), dataset.String("b")}},
	}}

	analysis := NewDescriber(nil).Describe(context.Background(), table)

	assert.Equal(t, Shape{Rows: 2, Columns: 2}, analysis.Shape)
	require.Len(t, analysis.Types, 2)
	assert.Equal(t, dataset.ColumnNumeric, analysis.Types[0].Kind)
	assert.Equal(t, dataset.ColumnCategorical, analysis.Types[1].Kind)
}

func TestDescribeUniqueCounts(t *testing.T) {
	table := &dataset.Table{Columns: []*dataset.Column{
		{Name: "city", Cells: []dataset.Cell{
			dataset.String("baghdad"),
			dataset.String("basra"),
			dataset.String("baghdad"),
			dataset.Null(),
		}},
	}}

	analysis := NewDescriber(nil).Describe(context.Background(), table)

	require.Len(t, analysis.UniqueCounts, 1)
	assert.Equal(t, UniqueCount{Column: "city", Unique: 2}, analysis.UniqueCounts[0])
}

func TestDescribeCorrelation(t *testing.T) {
	// y = 2x is perfectly correlated; z = -x perfectly anti-correlated.
	table := &dataset.Table{Columns: []*dataset.Column{
		numericColumn("x", 1, 2, 3, 4),
		numericColumn("y", 2, 4, 6, 8),
		numericColumn("z", -1, -2, -3, -4),
	}}

	analysis := NewDescriber(nil).Describe(context.Background(), table)

	corr := analysis.Correlation
	require.NotNil(t, corr)
	assert.Equal(t, []string{"x", "y", "z"}, corr.Columns)
	assert.InDelta(t, 1.0, corr.Values[0][0], 1e-9)
	assert.InDelta(t, 1.0, corr.Values[0][1], 1e-9)
	assert.InDelta(t, -1.0, corr.Values[0][2], 1e-9)
	assert.InDelta(t, corr.Values[1][2], corr.Values[2][1], 1e-9)
}

func TestDescribeCorrelationNeedsTwoNumericColumns(t *testing.T) {
	table := &dataset.Table{Columns: []*dataset.Column{
		numericColumn("x", 1, 2, 3),
		{Name: "c", Cells: []dataset.Cell{dataset.String("a"), dataset.String("b"), dataset.String("c")}},
	}}

	analysis := NewDescriber(nil).Describe(context.Background(), table)
	assert.Nil(t, analysis.Correlation)
}

func TestPearsonSkipsRowsWithMissing(t *testing.T) {
	a := &dataset.Column{Name: "a", Cells: []dataset.Cell{
		dataset.Number(1), dataset.Null(), dataset.Number(3), dataset.Number(4),
	}}
	b := &dataset.Column{Name: "b", Cells: []dataset.Cell{
		dataset.Number(2), dataset.Number(100), dataset.Number(6), dataset.Number(8),
	}}

	assert.InDelta(t, 1.0, pearson(a, b), 1e-9)
}

func TestQuantileInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, quantile(sorted, 0.25), 1e-9)
	assert.InDelta(t, 2.5, quantile(sorted, 0.5), 1e-9)
	assert.InDelta(t, 4.0, quantile(sorted, 1.0), 1e-9)
	assert.InDelta(t, 7.0, quantile([]float64{7}, 0.5), 1e-9)
}
