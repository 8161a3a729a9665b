package dataset

// ColumnMissing is one row of the missing-value report.
type ColumnMissing struct {
	Column  string `json:"column"`
	Missing int    `json:"missing"`
}

// MissingReport counts missing cells per column, in table column order.
func MissingReport(t *Table) []ColumnMissing {
	report := make([]ColumnMissing, len(t.Columns))
	for i, col := range t.Columns {
		report[i] = ColumnMissing{Column: col.Name, Missing: col.MissingCount()}
	}
	return report
}

// TotalMissing returns the number of missing cells in the whole table.
func TotalMissing(t *Table) int {
	total := 0
	for _, col := range t.Columns {
		total += col.MissingCount()
	}
	return total
}
