package core

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// csvDelimiters are the separators sniffed from the header line, in
// preference order when counts tie.
var csvDelimiters = []rune{',', ';', '\t'}

// extractCSV reads a delimited text file. Cells are kept as written.
func extractCSV(data []byte) (*Table, error) {
	r := csv.NewReader(newTextReader(bytes.NewReader(data)))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var grid [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
		}
		grid = append(grid, record)
	}

	return buildTable(grid, gridOptions{widen: true})
}

// sniffDelimiter picks the separator that occurs most often on the first line.
func sniffDelimiter(data []byte) rune {
	line, _ := bufio.NewReader(bytes.NewReader(data)).ReadString('\n')

	best, bestCount := csvDelimiters[0], 0
	for _, d := range csvDelimiters {
		if n := bytes.Count([]byte(line), []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
