package core

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/extrame/xls"
	"github.com/richardlehane/mscfb"
)

// compoundFileMagic opens every OLE2 compound file, which is the container
// of legacy .xls workbooks.
var compoundFileMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// BIFF record ids checked before the workbook is handed to the reader.
const (
	biffBOF      = 0x0809
	biffSST      = 0x00FC
	biffLabelSST = 0x00FD
	biff8Version = 0x0600
)

func isCompoundFile(data []byte) bool {
	return bytes.HasPrefix(data, compoundFileMagic)
}

// extractLegacyWorkbook reads the first sheet of a BIFF8 workbook. Cells come
// back as the reader formats them; numbers without a display format keep
// their digits.
func extractLegacyWorkbook(data []byte) (table *Table, err error) {
	stream, err := workbookStream(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	if err := checkBIFF(stream); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	// The reader indexes record data without bounds checks.
	defer func() {
		if r := recover(); r != nil {
			table, err = nil, fmt.Errorf("%w: corrupt workbook: %v", ErrUnreadableFile, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, ErrNoTableData
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrNoTableData
	}

	grid := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		grid = append(grid, legacyRow(sheet, i))
	}
	for len(grid) > 0 && isBlankRow(grid[0]) {
		grid = grid[1:]
	}

	return buildTable(grid, gridOptions{widen: true})
}

// legacyRow returns the cells of row i with trailing empty cells dropped.
// Rows the sheet never wrote come back empty.
func legacyRow(sheet *xls.WorkSheet, i int) (cells []string) {
	// WorkSheet.Row dereferences the stored row, which is nil when absent.
	defer func() {
		if r := recover(); r != nil {
			cells = nil
		}
	}()

	row := sheet.Row(i)
	for c := 0; c <= row.LastCol(); c++ {
		cells = append(cells, row.Col(c))
	}
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}

// workbookStream returns the BIFF stream of a compound file. mscfb rejects
// broken sector chains, which the BIFF reader would otherwise follow.
func workbookStream(data []byte) ([]byte, error) {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name != "Workbook" && entry.Name != "Book" {
			continue
		}
		return io.ReadAll(entry)
	}
	return nil, errors.New("no workbook stream")
}

// checkBIFF walks the record headers of a BIFF8 stream. It rejects
// truncated records, shared-string tables whose declared count cannot fit
// in the stream, and cells that point past the shared-string table.
func checkBIFF(stream []byte) error {
	if len(stream) < 8 || binary.LittleEndian.Uint16(stream) != biffBOF {
		return errors.New("missing BOF record")
	}
	if v := binary.LittleEndian.Uint16(stream[4:]); v != biff8Version {
		return fmt.Errorf("unsupported BIFF version %#x", v)
	}

	var shared uint32
	for off := 0; off+4 <= len(stream); {
		id := binary.LittleEndian.Uint16(stream[off:])
		size := int(binary.LittleEndian.Uint16(stream[off+2:]))
		body := off + 4
		if body+size > len(stream) {
			return fmt.Errorf("record %#x at %d overruns the stream", id, off)
		}
		switch id {
		case biffSST:
			if size < 8 {
				return errors.New("short shared-string table")
			}
			shared = binary.LittleEndian.Uint32(stream[body+4:])
			// Every string carries at least a length and a flag byte.
			if uint64(shared)*3 > uint64(len(stream)) {
				return fmt.Errorf("shared-string table claims %d strings", shared)
			}
		case biffLabelSST:
			if size < 10 {
				return errors.New("short string cell")
			}
			if idx := binary.LittleEndian.Uint32(stream[body+6:]); idx >= shared {
				return fmt.Errorf("string cell refers to entry %d of %d", idx, shared)
			}
		}
		off = body + size
	}
	return nil
}
