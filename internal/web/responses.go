package web

import (
	"time"

	"github.com/JonMunkholm/calllist/internal/core"
	"github.com/JonMunkholm/calllist/internal/web/templates"
)

// PhoneResponse is one dialable number of a record.
type PhoneResponse struct {
	Display string `json:"display"`
	Dial    string `json:"dial"`
	Tel     string `json:"tel"`
}

// RecordResponse is a record with its numbers split for dialing.
type RecordResponse struct {
	ID           string          `json:"id"`
	Date         *string         `json:"date"`
	Name         string          `json:"name"`
	PhoneNumber  string          `json:"phoneNumber"`
	Description  string          `json:"description"`
	Phones       []PhoneResponse `json:"phones"`
	Affordance   core.Affordance `json:"affordance"`
	OriginalData core.RawRow     `json:"originalData"`
}

// ViewResponse is the JSON form of a session view. Days are YYYY-MM-DD.
type ViewResponse struct {
	SessionID    string             `json:"sessionId"`
	Status       core.Status        `json:"status"`
	FileName     string             `json:"fileName,omitempty"`
	Headers      []string           `json:"headers,omitempty"`
	Suggested    *core.FieldMapping `json:"suggested,omitempty"`
	Source       core.MappingSource `json:"source,omitempty"`
	Error        *core.UserMessage  `json:"error,omitempty"`
	Dates        []string           `json:"dates"`
	SelectedDate *string            `json:"selectedDate"`
	Records      []RecordResponse   `json:"records"`
	Total        int                `json:"total"`
	IsSaved      bool               `json:"isSaved"`
}

// AnalysisResponse is returned by the import endpoint.
type AnalysisResponse struct {
	FileName  string             `json:"fileName"`
	Headers   []string           `json:"headers"`
	Suggested core.FieldMapping  `json:"suggested"`
	Source    core.MappingSource `json:"source"`
}

func toViewResponse(v core.View) ViewResponse {
	resp := ViewResponse{
		SessionID:    v.SessionID,
		Status:       v.Status,
		FileName:     v.FileName,
		Headers:      v.Headers,
		Suggested:    v.Suggested,
		Source:       v.Source,
		Error:        v.Error,
		Dates:        make([]string, len(v.Dates)),
		SelectedDate: formatDayPtr(v.SelectedDate),
		Records:      make([]RecordResponse, len(v.Records)),
		Total:        v.Total,
		IsSaved:      v.IsSaved,
	}
	for i, d := range v.Dates {
		resp.Dates[i] = core.FormatDay(d)
	}
	for i, rec := range v.Records {
		resp.Records[i] = toRecordResponse(rec)
	}
	return resp
}

func toRecordResponse(rec core.Record) RecordResponse {
	entries := core.SplitPhones(rec.PhoneNumber)
	phones := make([]PhoneResponse, len(entries))
	for i, e := range entries {
		phones[i] = PhoneResponse{Display: e.Display, Dial: e.Dial, Tel: e.TelURI()}
	}
	return RecordResponse{
		ID:           rec.ID,
		Date:         formatDayPtr(rec.Date),
		Name:         rec.Name,
		PhoneNumber:  rec.PhoneNumber,
		Description:  rec.Description,
		Phones:       phones,
		Affordance:   core.AffordanceFor(entries),
		OriginalData: rec.OriginalData,
	}
}

func formatDayPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := core.FormatDay(*t)
	return &s
}

// toPageData prepares a view for the HTML page.
func toPageData(v core.View) templates.PageData {
	d := templates.PageData{
		Status:   v.Status,
		FileName: v.FileName,
		Headers:  v.Headers,
		Source:   v.Source,
		Error:    v.Error,
		Total:    v.Total,
		IsSaved:  v.IsSaved,
	}
	if v.Suggested != nil {
		d.Suggested = *v.Suggested
	}

	for _, day := range v.Dates {
		d.Dates = append(d.Dates, templates.DateTab{
			Value:    core.FormatDay(day),
			Label:    day.Format("Mon, Jan 2"),
			Selected: v.SelectedDate != nil && core.SameDay(day, *v.SelectedDate),
		})
	}

	for _, rec := range v.Records {
		entries := core.SplitPhones(rec.PhoneNumber)
		phones := make([]templates.Phone, len(entries))
		for i, e := range entries {
			phones[i] = templates.Phone{Display: e.Display, Tel: e.TelURI()}
		}
		d.Records = append(d.Records, templates.RecordView{
			ID:          rec.ID,
			Name:        rec.Name,
			Description: rec.Description,
			Phones:      phones,
			Affordance:  core.AffordanceFor(entries),
		})
	}
	return d
}
