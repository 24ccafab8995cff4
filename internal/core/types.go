// Package core provides the import pipeline for call lists.
// This package has no UI dependencies and can be used by any frontend.
package core

import (
	"path/filepath"
	"strings"
	"time"
)

// FileKind selects the extraction strategy for an uploaded file.
type FileKind int

const (
	KindSpreadsheet FileKind = iota
	KindDocument
)

func (k FileKind) String() string {
	if k == KindDocument {
		return "document"
	}
	return "spreadsheet"
}

// DetectKind routes ".docx" files to the document path and everything
// else to the spreadsheet path.
func DetectKind(fileName string) FileKind {
	if strings.EqualFold(filepath.Ext(fileName), ".docx") {
		return KindDocument
	}
	return KindSpreadsheet
}

// RawRow maps a column header to the cell text for one source row.
type RawRow map[string]string

// Table is the output of extraction: headers in column order and rows in file order.
// Every row carries every header as a key.
type Table struct {
	Headers []string
	Rows    []RawRow
}

// FieldMapping binds the four target fields to source headers.
// An empty key means the field is unmapped.
type FieldMapping struct {
	NameKey        string `json:"nameKey"`
	PhoneKey       string `json:"phoneKey"`
	DateKey        string `json:"dateKey"`
	DescriptionKey string `json:"descriptionKey"`
}

// Record is one normalized contact entry.
type Record struct {
	ID           string     `json:"id"`
	Date         *time.Time `json:"date"`
	Name         string     `json:"name"`
	PhoneNumber  string     `json:"phoneNumber"`
	Description  string     `json:"description"`
	OriginalData RawRow     `json:"originalData"`
}

// PhoneEntry is one independently dialable number split out of a record.
type PhoneEntry struct {
	Display string `json:"display"`
	Dial    string `json:"dial"`
}

// TelURI returns the dial-scheme reference for the entry.
func (p PhoneEntry) TelURI() string {
	return "tel:" + p.Dial
}

// Affordance is how a record's numbers are offered for dialing.
type Affordance string

const (
	AffordanceSingle Affordance = "single"
	AffordanceList   Affordance = "list"
)

// Status is the state of an import session.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusAnalyzing Status = "analyzing"
	StatusMapping   Status = "mapping"
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
)

// Snapshot is the persisted form of a successful import.
type Snapshot struct {
	Records  []Record  `json:"records"`
	FileName string    `json:"fileName"`
	SavedAt  time.Time `json:"savedAt"`
}
