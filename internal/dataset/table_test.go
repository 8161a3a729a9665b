package dataset

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellRender(t *testing.T) {
	ts := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		cell Cell
		want string
	}{
		{name: "null renders empty", cell: Null(), want: ""},
		{name: "integer-valued number", cell: Number(42), want: "42"},
		{name: "fractional number", cell: Number(3.5), want: "3.5"},
		{name: "string", cell: String("laptop"), want: "laptop"},
		{name: "time", cell: Time(ts), want: "2024-03-15 10:30:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cell.Render())
		})
	}
}

func TestCellMarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want string
	}{
		{name: "null", cell: Null(), want: "null"},
		{name: "number", cell: Number(1.25), want: "1.25"},
		{name: "string", cell: String("a"), want: `"a"`},
		{name: "time", cell: Time(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)), want: `"2024-01-02T00:00:00Z"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.cell)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(raw))
		})
	}
}

func TestColumnKind(t *testing.T) {
	tests := []struct {
		name  string
		cells []Cell
		want  ColumnKind
	}{
		{
			name:  "all numbers",
			cells: []Cell{Number(1), Number(2)},
			want:  ColumnNumeric,
		},
		{
			name:  "numbers with missing",
			cells: []Cell{Number(1), Null(), Number(2)},
			want:  ColumnNumeric,
		},
		{
			name:  "all times",
			cells: []Cell{Time(time.Now()), Time(time.Now())},
			want:  ColumnDatetime,
		},
		{
			name:  "strings",
			cells: []Cell{String("a"), String("b")},
			want:  ColumnCategorical,
		},
		{
			name:  "mixed number and string",
			cells: []Cell{Number(1), String("a")},
			want:  ColumnCategorical,
		},
		{
			name:  "all missing",
			cells: []Cell{Null(), Null()},
			want:  ColumnCategorical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := &Column{Name: "c", Cells: tt.cells}
			assert.Equal(t, tt.want, col.Kind())
		})
	}
}

func TestTableAppendRowAndShape(t *testing.T) {
	table := NewTable("a", "b")
	require.NoError(t, table.AppendRow([]Cell{Number(1), String("x")}))
	require.NoError(t, table.AppendRow([]Cell{Number(2), String("y")}))

	assert.Equal(t, 2, table.Rows())
	assert.Equal(t, 2, table.Cols())
	assert.Equal(t, []string{"a", "b"}, table.ColumnNames())

	err := table.AppendRow([]Cell{Number(3)})
	assert.Error(t, err)
}

func TestTableCloneIsIndependent(t *testing.T) {
	table := NewTable("a")
	require.NoError(t, table.AppendRow([]Cell{Number(1)}))

	clone := table.Clone()
	clone.Columns[0].Cells[0] = Number(99)

	assert.Equal(t, 1.0, table.Columns[0].Cells[0].Num)
	assert.Equal(t, 99.0, clone.Columns[0].Cells[0].Num)
}

func TestTableHead(t *testing.T) {
	table := NewTable("a")
	for i := 0; i < 10; i++ {
		require.NoError(t, table.AppendRow([]Cell{Number(float64(i))}))
	}

	assert.Equal(t, 5, table.Head(5).Rows())
	assert.Equal(t, 10, table.Head(50).Rows())
}

func TestRowKeyDistinguishesNullFromEmpty(t *testing.T) {
	table := NewTable("a", "b")
	require.NoError(t, table.AppendRow([]Cell{Null(), String("x")}))
	require.NoError(t, table.AppendRow([]Cell{String(""), String("x")}))

	assert.NotEqual(t, table.RowKey(0), table.RowKey(1))
}

func TestMissingReport(t *testing.T) {
	table := NewTable("a", "b")
	require.NoError(t, table.AppendRow([]Cell{Null(), String("x")}))
	require.NoError(t, table.AppendRow([]Cell{Number(1), Null()}))
	require.NoError(t, table.AppendRow([]Cell{Null(), String("y")}))

	report := MissingReport(table)
	require.Len(t, report, 2)
	assert.Equal(t, ColumnMissing{Column: "a", Missing: 2}, report[0])
	assert.Equal(t, ColumnMissing{Column: "b", Missing: 1}, report[1])
	assert.Equal(t, 3, TotalMissing(table))
}
