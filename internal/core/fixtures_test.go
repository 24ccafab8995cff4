package core

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"html"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes rows to the first sheet of a new workbook.
// Extra sheets, when given, follow the first one.
func buildWorkbook(t *testing.T, rows [][]any, extraSheets ...string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue("Sheet1", cell, v); err != nil {
				t.Fatalf("set cell %s: %v", cell, err)
			}
		}
	}

	for _, name := range extraSheets {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		if err := f.SetCellValue(name, "A1", "Other"); err != nil {
			t.Fatalf("set cell: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// buildDocx wraps body XML in a minimal .docx archive.
func buildDocx(t *testing.T, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// wordParagraph renders text as a paragraph; newlines start new paragraphs.
func wordParagraph(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		b.WriteString(`<w:p><w:r><w:t xml:space="preserve">` + html.EscapeString(line) + `</w:t></w:r></w:p>`)
	}
	return b.String()
}

// wordTable renders rows as a table. A nil row renders as a row with no cells.
func wordTable(rows [][]string) string {
	var b strings.Builder
	b.WriteString("<w:tbl>")
	for _, row := range rows {
		b.WriteString("<w:tr>")
		for _, cell := range row {
			b.WriteString("<w:tc>" + wordParagraph(cell) + "</w:tc>")
		}
		b.WriteString("</w:tr>")
	}
	b.WriteString("</w:tbl>")
	return b.String()
}

// Compound file constants used by buildLegacyWorkbook.
const (
	cfbSectorSize = 512
	cfbStreamMin  = 4096
	cfbFATSect    = 0xFFFFFFFD
	cfbEndOfChain = 0xFFFFFFFE
	cfbFree       = 0xFFFFFFFF
)

// buildLegacyWorkbook writes rows to the only sheet of a BIFF8 workbook
// wrapped in a compound file. Cells are strings or float64; empty strings
// are left unwritten. A nil row is left out of the sheet entirely.
func buildLegacyWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()

	var sst []string
	index := make(map[string]uint32)

	var sheet bytes.Buffer
	writeBIFF(&sheet, 0x0809, biffBOFBody(0x0010))
	for r, row := range rows {
		if row == nil {
			continue
		}
		writeBIFF(&sheet, 0x0208, leBytes(uint16(r), uint16(0), uint16(len(row)), uint16(0x00FF), uint16(0), uint16(0), uint32(0x0100)))
		for c, v := range row {
			switch v := v.(type) {
			case string:
				if v == "" {
					continue
				}
				i, ok := index[v]
				if !ok {
					i = uint32(len(sst))
					index[v] = i
					sst = append(sst, v)
				}
				writeBIFF(&sheet, 0x00FD, leBytes(uint16(r), uint16(c), uint16(0x000F), i))
			case float64:
				writeBIFF(&sheet, 0x0203, leBytes(uint16(r), uint16(c), uint16(0x000F), v))
			default:
				t.Fatalf("unsupported cell %T", v)
			}
		}
	}
	writeBIFF(&sheet, 0x000A, nil)

	globals := func(sheetPos uint32) []byte {
		var b bytes.Buffer
		writeBIFF(&b, 0x0809, biffBOFBody(0x0005))
		name := "Sheet1"
		writeBIFF(&b, 0x0085, leBytes(sheetPos, byte(0), byte(0), byte(len(name)), byte(0), []byte(name)))

		sstBody := leBytes(uint32(len(sst)), uint32(len(sst)))
		for _, s := range sst {
			units := utf16.Encode([]rune(s))
			sstBody = append(sstBody, leBytes(uint16(len(units)), byte(1), units)...)
		}
		if len(sstBody) > 8224 {
			t.Fatalf("shared strings need a CONTINUE record")
		}
		writeBIFF(&b, 0x00FC, sstBody)
		writeBIFF(&b, 0x000A, nil)
		return b.Bytes()
	}
	head := globals(0)
	head = globals(uint32(len(head)))

	stream := append(head, sheet.Bytes()...)
	size := max(cfbStreamMin, (len(stream)+cfbSectorSize-1)/cfbSectorSize*cfbSectorSize)
	stream = append(stream, make([]byte, size-len(stream))...)

	// Sector 0 holds the FAT, the stream follows, and the directory comes last.
	n := uint32(size / cfbSectorSize)
	if n+2 > cfbSectorSize/4 {
		t.Fatalf("workbook too large for a single FAT sector")
	}
	dirSector := n + 1

	msat := make([]uint32, 109)
	for i := range msat {
		msat[i] = cfbFree
	}
	msat[0] = 0
	header := leBytes(
		uint32(0xE011CFD0), uint32(0xE11AB1A1), make([]byte, 16),
		uint16(0x003E), uint16(0x0003), uint16(0xFFFE), uint16(9), uint16(6), make([]byte, 6),
		uint32(0), uint32(1), dirSector, uint32(0), uint32(cfbStreamMin),
		uint32(cfbEndOfChain), uint32(0), uint32(cfbEndOfChain), uint32(0),
		msat,
	)

	fat := make([]uint32, cfbSectorSize/4)
	for i := range fat {
		fat[i] = cfbFree
	}
	fat[0] = cfbFATSect
	for i := uint32(1); i < n; i++ {
		fat[i] = i + 1
	}
	fat[n] = cfbEndOfChain
	fat[dirSector] = cfbEndOfChain

	dir := leBytes(
		cfbEntry("Root Entry", 5, 1, cfbEndOfChain, 0),
		cfbEntry("Workbook", 2, cfbFree, 1, uint32(size)),
		make([]byte, 2*128),
	)

	var out bytes.Buffer
	out.Write(header)
	out.Write(leBytes(fat))
	out.Write(stream)
	out.Write(dir)
	return out.Bytes()
}

// biffBOFBody is the body of a BIFF8 BOF record for the given substream type.
func biffBOFBody(substream uint16) []byte {
	return leBytes(uint16(0x0600), substream, uint16(0x0DBB), uint16(0x07CC), uint32(0), uint32(0x0600))
}

func writeBIFF(b *bytes.Buffer, id uint16, body []byte) {
	b.Write(leBytes(id, uint16(len(body))))
	b.Write(body)
}

// cfbEntry renders a 128-byte directory entry with no siblings.
func cfbEntry(name string, objectType byte, child, start, size uint32) []byte {
	var raw [32]uint16
	units := utf16.Encode([]rune(name))
	copy(raw[:], units)
	return leBytes(
		raw, uint16((len(units)+1)*2), objectType, byte(1),
		uint32(cfbFree), uint32(cfbFree), child,
		make([]byte, 16), uint32(0), uint64(0), uint64(0),
		start, size, uint32(0),
	)
}

// leBytes concatenates fixed-size values in little-endian order.
func leBytes(values ...any) []byte {
	var b bytes.Buffer
	for _, v := range values {
		if err := binary.Write(&b, binary.LittleEndian, v); err != nil {
			panic(err)
		}
	}
	return b.Bytes()
}
