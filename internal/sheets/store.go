package sheets

import (
	"context"
	"fmt"

	"steam_sheet_enrich/internal/table"

	"github.com/rs/zerolog/log"
)

// readRegion bounds the grid read; rosters beyond this are out of scope.
const readRegion = "A1:ZZ10000"

// Sheet binds a Client to one tab of one spreadsheet and implements
// table.Store on top of it.
type Sheet struct {
	client        *Client
	spreadsheetID string
	sheetName     string
}

func NewSheet(client *Client, spreadsheetID, sheetName string) *Sheet {
	return &Sheet{
		client:        client,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}
}

var _ table.Store = (*Sheet)(nil)

func (s *Sheet) Identity() string {
	return s.spreadsheetID + "#" + s.sheetName
}

func (s *Sheet) ReadAll(ctx context.Context) ([][]interface{}, error) {
	readRange := fmt.Sprintf("%s!%s", s.sheetName, readRegion)
	values, err := s.client.ReadSheet(ctx, s.spreadsheetID, readRange)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("rows", len(values)).Msg("Retrieved sheet data")
	return values, nil
}

func (s *Sheet) ReadCell(ctx context.Context, row, col int) (interface{}, error) {
	cellRange := fmt.Sprintf("%s!%s", s.sheetName, cellRef(row, col))
	values, err := s.client.ReadSheet(ctx, s.spreadsheetID, cellRange)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 || len(values[0]) == 0 {
		return nil, nil
	}
	return values[0][0], nil
}

func (s *Sheet) WriteCell(ctx context.Context, row, col int, value interface{}) error {
	cellRange := fmt.Sprintf("%s!%s", s.sheetName, cellRef(row, col))
	return s.client.UpdateRange(ctx, s.spreadsheetID, cellRange, [][]interface{}{{value}})
}

func (s *Sheet) AppendColumnHeader(ctx context.Context, label string) (int, error) {
	headerRange := fmt.Sprintf("%s!1:1", s.sheetName)
	values, err := s.client.ReadSheet(ctx, s.spreadsheetID, headerRange)
	if err != nil {
		return 0, err
	}
	col := 0
	if len(values) > 0 {
		col = len(values[0])
	}
	if err := s.WriteCell(ctx, 0, col, label); err != nil {
		return 0, err
	}
	log.Debug().Str("label", label).Int("column", col).Msg("Appended header column")
	return col, nil
}

// cellRef converts zero-based grid coordinates to A1 notation.
func cellRef(row, col int) string {
	return fmt.Sprintf("%s%d", columnLetter(col), row+1)
}

func columnLetter(col int) string {
	letters := ""
	for col >= 0 {
		letters = string(rune('A'+col%26)) + letters
		col = col/26 - 1
	}
	return letters
}
