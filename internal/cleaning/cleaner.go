// Package cleaning implements the fixed data-cleaning sequence: mean
// imputation on numeric columns, mode imputation on categorical columns,
// duplicate row removal, and best-effort type coercion of string columns.
package cleaning

import (
	"context"
	"log/slog"

	"tabcli/internal/dataset"
)

// ImputedColumn records the fills applied to one column.
type ImputedColumn struct {
	Column string `json:"column"`
	Method string `json:"method"` // "mean" or "mode"
	Filled int    `json:"filled"`
	Value  string `json:"value"`
}

// CoercedColumn records a column whose type changed during coercion.
type CoercedColumn struct {
	Column string             `json:"column"`
	To     dataset.ColumnKind `json:"to"`
}

// Report describes what a cleaning run changed. A run on an already clean
// table produces a zero-valued report.
type Report struct {
	Imputed           []ImputedColumn `json:"imputed"`
	DuplicatesRemoved int             `json:"duplicates_removed"`
	Coerced           []CoercedColumn `json:"coerced"`
	RowsBefore        int             `json:"rows_before"`
	RowsAfter         int             `json:"rows_after"`
}

// Cleaner runs the cleaning pipeline over a table.
type Cleaner struct {
	logger *slog.Logger
}

// NewCleaner creates a cleaner. A nil logger falls back to slog.Default.
func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{logger: logger.With(slog.String("component", "cleaner"))}
}

// Clean returns a cleaned copy of the table together with a report of the
// changes. The input table is not modified.
func (c *Cleaner) Clean(ctx context.Context, t *dataset.Table) (*dataset.Table, *Report, error) {
	cleaned := t.Clone()
	report := &Report{RowsBefore: t.Rows()}

	c.imputeNumeric(cleaned, report)
	c.imputeCategorical(cleaned, report)
	report.DuplicatesRemoved = dropDuplicates(cleaned)
	c.coerceTypes(cleaned, report)

	report.RowsAfter = cleaned.Rows()

	c.logger.InfoContext(ctx, "cleaning completed",
		slog.Int("rows_before", report.RowsBefore),
		slog.Int("rows_after", report.RowsAfter),
		slog.Int("columns_imputed", len(report.Imputed)),
		slog.Int("duplicates_removed", report.DuplicatesRemoved),
		slog.Int("columns_coerced", len(report.Coerced)))

	return cleaned, report, nil
}

// imputeNumeric fills missing cells of numeric columns with the column mean.
// A numeric column with no observed values is left untouched.
func (c *Cleaner) imputeNumeric(t *dataset.Table, report *Report) {
	for _, col := range t.Columns {
		if col.Kind() != dataset.ColumnNumeric || col.MissingCount() == 0 {
			continue
		}
		values := col.Numbers()
		if len(values) == 0 {
			continue
		}
		mean := meanOf(values)
		filled := 0
		for i, cell := range col.Cells {
			if cell.IsNull() {
				col.Cells[i] = dataset.Number(mean)
				filled++
			}
		}
		report.Imputed = append(report.Imputed, ImputedColumn{
			Column: col.Name,
			Method: "mean",
			Filled: filled,
			Value:  dataset.Number(mean).Render(),
		})
	}
}

// imputeCategorical fills missing cells of categorical and datetime columns
// with the column mode. When the mode is empty the values are left
// unchanged.
func (c *Cleaner) imputeCategorical(t *dataset.Table, report *Report) {
	for _, col := range t.Columns {
		kind := col.Kind()
		if kind == dataset.ColumnNumeric || col.MissingCount() == 0 {
			continue
		}
		mode, ok := modeOf(col)
		if !ok {
			continue
		}
		filled := 0
		for i, cell := range col.Cells {
			if cell.IsNull() {
				col.Cells[i] = mode
				filled++
			}
		}
		report.Imputed = append(report.Imputed, ImputedColumn{
			Column: col.Name,
			Method: "mode",
			Filled: filled,
			Value:  mode.Render(),
		})
	}
}

// dropDuplicates removes rows whose rendered values match an earlier row,
// keeping the first occurrence. It returns the number of rows removed.
func dropDuplicates(t *dataset.Table) int {
	seen := make(map[string]bool, t.Rows())
	keep := make([]int, 0, t.Rows())
	for i := 0; i < t.Rows(); i++ {
		key := t.RowKey(i)
		if seen[key] {
			continue
		}
		seen[key] = true
		keep = append(keep, i)
	}
	if len(keep) == t.Rows() {
		return 0
	}
	removed := t.Rows() - len(keep)
	for _, col := range t.Columns {
		cells := make([]dataset.Cell, len(keep))
		for j, i := range keep {
			cells[j] = col.Cells[i]
		}
		col.Cells = cells
	}
	return removed
}

// coerceTypes attempts numeric-then-datetime conversion of each categorical
// column; a column converts only when every non-missing cell converts.
func (c *Cleaner) coerceTypes(t *dataset.Table, report *Report) {
	for _, col := range t.Columns {
		if kind, changed := dataset.CoerceColumn(col); changed {
			report.Coerced = append(report.Coerced, CoercedColumn{Column: col.Name, To: kind})
		}
	}
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// modeOf returns the most frequent non-missing cell of a column, breaking
// ties by first occurrence. ok is false when the column has no observed
// values.
func modeOf(col *dataset.Column) (dataset.Cell, bool) {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	cells := make(map[string]dataset.Cell)

	order := 0
	for _, cell := range col.Cells {
		if cell.IsNull() {
			continue
		}
		key := cell.Render()
		if _, ok := counts[key]; !ok {
			firstSeen[key] = order
			cells[key] = cell
			order++
		}
		counts[key]++
	}
	if len(counts) == 0 {
		return dataset.Cell{}, false
	}

	best, found := "", false
	for key := range counts {
		if !found ||
			counts[key] > counts[best] ||
			(counts[key] == counts[best] && firstSeen[key] < firstSeen[best]) {
			best, found = key, true
		}
	}
	return cells[best], true
}
