package table

import (
	"context"
	"fmt"
	"strings"
)

// Store is the tabular backend the batch pipelines read from and write to.
// Row and column indices are zero-based grid coordinates; the header row is
// row 0 and the data region starts at row 1.
type Store interface {
	// Identity returns a stable identifier for the active sheet, used to
	// detect a sheet switch between a pause and a resume.
	Identity() string

	// ReadAll returns the full grid, header row included. Trailing empty
	// cells may be absent from a row.
	ReadAll(ctx context.Context) ([][]interface{}, error)

	// ReadCell returns the value at (row, col), or nil when the cell is
	// empty or beyond the populated region.
	ReadCell(ctx context.Context, row, col int) (interface{}, error)

	// WriteCell sets the value at (row, col), growing the sheet if needed.
	WriteCell(ctx context.Context, row, col int, value interface{}) error

	// AppendColumnHeader writes label into the first empty header cell and
	// returns its column index.
	AppendColumnHeader(ctx context.Context, label string) (int, error)
}

// CellString safely extracts a string field from a row at the given index.
func CellString(row []interface{}, index int) string {
	if len(row) > index && row[index] != nil {
		return fmt.Sprintf("%v", row[index])
	}
	return ""
}

// CellTrimmed is CellString with surrounding whitespace removed.
func CellTrimmed(row []interface{}, index int) string {
	return strings.TrimSpace(CellString(row, index))
}

// HeaderStrings converts a header row to plain strings.
func HeaderStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i := range row {
		out[i] = CellString(row, i)
	}
	return out
}
