package table

import (
	"context"
	"fmt"
)

// Fake is a slice-backed Store used by tests across packages.
type Fake struct {
	ID    string
	Cells [][]interface{}

	// Writes records every WriteCell in call order.
	Writes []Write
}

type Write struct {
	Row, Col int
	Value    interface{}
}

func NewFake(id string, cells [][]interface{}) *Fake {
	return &Fake{ID: id, Cells: cells}
}

func (f *Fake) Identity() string { return f.ID }

func (f *Fake) ReadAll(ctx context.Context) ([][]interface{}, error) {
	out := make([][]interface{}, len(f.Cells))
	for i, row := range f.Cells {
		out[i] = append([]interface{}(nil), row...)
	}
	return out, nil
}

func (f *Fake) ReadCell(ctx context.Context, row, col int) (interface{}, error) {
	if row >= len(f.Cells) || col >= len(f.Cells[row]) {
		return nil, nil
	}
	return f.Cells[row][col], nil
}

func (f *Fake) WriteCell(ctx context.Context, row, col int, value interface{}) error {
	for row >= len(f.Cells) {
		f.Cells = append(f.Cells, nil)
	}
	for col >= len(f.Cells[row]) {
		f.Cells[row] = append(f.Cells[row], nil)
	}
	f.Cells[row][col] = value
	f.Writes = append(f.Writes, Write{Row: row, Col: col, Value: value})
	return nil
}

func (f *Fake) AppendColumnHeader(ctx context.Context, label string) (int, error) {
	col := 0
	if len(f.Cells) > 0 {
		col = len(f.Cells[0])
	}
	if err := f.WriteCell(ctx, 0, col, label); err != nil {
		return 0, err
	}
	return col, nil
}

// CellAt returns the cell as a string for assertions, "" when empty.
func (f *Fake) CellAt(row, col int) string {
	v, _ := f.ReadCell(context.Background(), row, col)
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
