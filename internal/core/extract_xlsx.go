package core

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// extractWorkbook reads the first sheet of a workbook. GetRows returns each
// cell's formatted text, so phone numbers keep their leading zeros and dates
// keep the format the author chose.
func extractWorkbook(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoTableData
	}

	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrUnreadableFile, sheets[0], err)
	}

	// GetRows keeps leading empty rows; the header is the first non-empty one.
	for len(grid) > 0 && isBlankRow(grid[0]) {
		grid = grid[1:]
	}

	return buildTable(grid, gridOptions{widen: true})
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
