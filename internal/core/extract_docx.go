package core

// extract_docx.go reads the first table of a .docx document.
//
// The document body (word/document.xml) is rewritten as a small HTML tree
// made of <p>, <table>, <tr> and <td colspan> elements, then parsed with
// x/net/html and queried with goquery. Only rows that belong directly to the
// first table are read; tables nested inside its cells are ignored. Grid
// columns become <col> elements so the table width is known.

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// maxGridSpan bounds how many columns a single merged cell may cover.
const maxGridSpan = 64

// extractDocument returns ErrNoTableData when the document has no table or
// the first table lacks a header row plus at least one data row.
func extractDocument(data []byte) (*Table, error) {
	body, err := documentXML(data)
	if err != nil {
		return nil, err
	}

	markup, err := documentToHTML(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	doc := goquery.NewDocumentFromNode(root)
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, ErrNoTableData
	}

	rows := table.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.Closest("table").IsSelection(table)
	})
	if rows.Length() < 2 {
		return nil, ErrNoTableData
	}

	// The table grid, when present, is the widest a row can legitimately be.
	width := table.ChildrenFiltered("colgroup").ChildrenFiltered("col").Length()

	grid := make([][]string, 0, rows.Length())
	rows.Each(func(_ int, tr *goquery.Selection) {
		grid = append(grid, rowCells(tr, width))
	})

	return buildTable(grid, gridOptions{trim: true})
}

// rowCells expands merged cells so later columns keep their positions.
// Spans are capped at maxGridSpan, and padding stops at width columns when
// width is positive.
func rowCells(tr *goquery.Selection, width int) []string {
	var cells []string
	tr.ChildrenFiltered("td,th").Each(func(_ int, td *goquery.Selection) {
		cells = append(cells, cellText(td))
		span, err := strconv.Atoi(td.AttrOr("colspan", "1"))
		if err != nil {
			return
		}
		span = min(span, maxGridSpan)
		for i := 1; i < span; i++ {
			if width > 0 && len(cells) >= width {
				break
			}
			cells = append(cells, "")
		}
	})
	return cells
}

// cellText joins the cell's own paragraphs with newlines, so two numbers
// typed on separate lines stay separable.
func cellText(td *goquery.Selection) string {
	var lines []string
	td.Find("p").Each(func(_ int, p *goquery.Selection) {
		if !p.Closest("td,th").IsSelection(td) {
			return
		}
		if line := strings.TrimSpace(p.Text()); line != "" {
			lines = append(lines, line)
		}
	})
	if len(lines) == 0 {
		return strings.TrimSpace(td.Text())
	}
	return strings.Join(lines, "\n")
}

// documentXML returns the main document part of a .docx archive.
func documentXML(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
		}
		defer rc.Close()

		body, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
		}
		return body, nil
	}

	return nil, fmt.Errorf("%w: missing word/document.xml", ErrUnreadableFile)
}

// documentToHTML walks WordprocessingML and emits the matching HTML elements.
// Text runs become escaped text; tabs and breaks become whitespace.
func documentToHTML(body []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	var b strings.Builder
	inText := false

	// A "<td" start tag stays open until we know whether it has a colspan.
	cellOpen := false
	closeCell := func() {
		if cellOpen {
			b.WriteString(">")
			cellOpen = false
		}
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				closeCell()
				b.WriteString("<table>")
			case "gridCol":
				b.WriteString("<col>")
			case "tr":
				b.WriteString("<tr>")
			case "tc":
				b.WriteString("<td")
				cellOpen = true
			case "gridSpan":
				if span := attr(t, "val"); span != "" && cellOpen {
					b.WriteString(` colspan="` + html.EscapeString(span) + `"`)
				}
			case "p":
				closeCell()
				b.WriteString("<p>")
			case "t":
				inText = true
			case "tab":
				b.WriteString("\t")
			case "br", "cr":
				b.WriteString("\n")
			}

		case xml.EndElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				b.WriteString("</table>")
			case "tr":
				b.WriteString("</tr>")
			case "tc":
				closeCell()
				b.WriteString("</td>")
			case "p":
				b.WriteString("</p>")
			case "t":
				inText = false
			}

		case xml.CharData:
			if inText {
				b.WriteString(html.EscapeString(string(t)))
			}
		}
	}

	return b.String(), nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
