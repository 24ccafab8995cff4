package core

// extract.go turns uploaded bytes into a Table. Two strategies converge on
// the same shape: spreadsheets (CSV or workbook, first sheet only) and
// word-processor documents (first table only).

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/calllist/internal/logging"
)

// invisibleChars matches zero-width characters and the BOM, which word
// processors like to leave in header cells.
var invisibleChars = regexp.MustCompile(`[\x{200B}-\x{200D}\x{FEFF}]`)

// Extract decodes data according to the kind implied by fileName.
func Extract(ctx context.Context, fileName string, data []byte) (*Table, error) {
	if len(data) == 0 {
		return nil, ErrUnreadableFile
	}

	start := time.Now()
	kind := DetectKind(fileName)

	var (
		table *Table
		err   error
	)
	switch kind {
	case KindDocument:
		table, err = extractDocument(data)
	default:
		switch {
		case isCompoundFile(data):
			table, err = extractLegacyWorkbook(data)
		case strings.EqualFold(filepath.Ext(fileName), ".csv"):
			table, err = extractCSV(data)
		default:
			table, err = extractWorkbook(data)
		}
	}
	if err != nil {
		return nil, err
	}
	if len(table.Rows) == 0 {
		return nil, ErrNoTableData
	}

	logging.FromContext(ctx).Debug("file extracted",
		"file", fileName,
		"kind", kind.String(),
		"headers", len(table.Headers),
		"rows", len(table.Rows),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return table, nil
}

// gridOptions controls how a raw cell grid becomes a Table.
type gridOptions struct {
	// widen names columns that appear only in data rows.
	widen bool
	// trim trims surrounding whitespace from data cells.
	trim bool
}

// buildTable uses grid[0] as the header row. Every emitted row has every
// header key; rows whose cells are all empty are dropped.
func buildTable(grid [][]string, opts gridOptions) (*Table, error) {
	if len(grid) == 0 {
		return nil, ErrNoTableData
	}

	width := len(grid[0])
	if opts.widen {
		for _, row := range grid[1:] {
			if len(row) > width {
				width = len(row)
			}
		}
	}
	if width == 0 {
		return nil, ErrNoColumns
	}

	headers := cleanHeaders(grid[0], width)
	rows := make([]RawRow, 0, len(grid)-1)

	for _, cells := range grid[1:] {
		row := make(RawRow, len(headers))
		hasData := false
		for i, h := range headers {
			val := ""
			if i < len(cells) {
				val = cells[i]
				if opts.trim {
					val = strings.TrimSpace(val)
				}
			}
			if strings.TrimSpace(val) != "" {
				hasData = true
			}
			row[h] = val
		}
		if hasData {
			rows = append(rows, row)
		}
	}

	return &Table{Headers: headers, Rows: rows}, nil
}

// cleanHeaders strips invisible characters, fills blanks with Column_<n>
// and suffixes duplicates so every header is a distinct key.
func cleanHeaders(raw []string, width int) []string {
	headers := make([]string, width)
	seen := make(map[string]int, width)

	for i := 0; i < width; i++ {
		h := ""
		if i < len(raw) {
			h = strings.TrimSpace(invisibleChars.ReplaceAllString(raw[i], ""))
		}
		if h == "" {
			h = "Column_" + strconv.Itoa(i+1)
		}

		base := h
		for seen[h] > 0 {
			h = fmt.Sprintf("%s_%d", base, seen[base])
			seen[base]++
		}
		seen[h]++
		headers[i] = h
	}
	return headers
}
