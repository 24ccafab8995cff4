// Package templates holds the HTML components of the call list UI.
//
// The components are written in the .templ files; the _templ.go files are
// generated from them.
package templates

//go:generate templ generate

import "github.com/JonMunkholm/calllist/internal/core"

// Phone is one dialable number as shown on a card.
type Phone struct {
	Display string
	Tel     string
}

// RecordView is a record prepared for display.
type RecordView struct {
	ID          string
	Name        string
	Description string
	Phones      []Phone
	Affordance  core.Affordance
}

// DateTab is one entry of the day selector.
type DateTab struct {
	Value    string // YYYY-MM-DD
	Label    string
	Selected bool
}

// PageData is everything the page needs for one render.
type PageData struct {
	Status    core.Status
	FileName  string
	Headers   []string
	Suggested core.FieldMapping
	Source    core.MappingSource
	Error     *core.UserMessage
	Dates     []DateTab
	Records   []RecordView
	Total     int
	IsSaved   bool
}
