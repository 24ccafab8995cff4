package core

// dates.go interprets the date column of a contact list.
//
// Parsing is locale-agnostic and ISO-first. Slash, dash and dot forms with
// the year last are read month-first (1/2/2006 is January 2). Values that
// fit no calendar layout get a second chance against full timestamp layouts
// and, for plain numbers, the workbook serial day format.

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// TwoDigitYearPivot: two-digit years that would land more than this many
// years in the future are moved back a century.
var TwoDigitYearPivot = 20

// minExcelSerial keeps small integers (row numbers, counts) from being read
// as dates; 10000 is 1927-05-18.
const minExcelSerial = 10000

var (
	calendarLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02", "20060102",
		"2006-1-2", "2006/1/2",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"Jan 2, 2006", "Jan 2 2006", "2 Jan 2006", "02-Jan-2006", "2-Jan-2006",
		"January 2, 2006", "January 2 2006", "2 January 2006",
	}
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06", "02-Jan-06", "2-Jan-06",
	}
	timestampLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"1/2/2006 15:04:05",
		"1/2/2006 15:04",
		"1/2/2006 3:04:05 PM",
		"1/2/2006 3:04 PM",
		"1/2/06 15:04",
		time.RFC1123Z,
		time.RFC1123,
		"Mon, 2 Jan 2006",
		"Mon Jan 02 2006",
		"Mon Jan 2 2006",
		"Monday, January 2, 2006",
		time.ANSIC,
		time.UnixDate,
	}
)

// ParseDate returns the calendar day s denotes as UTC midnight, or false.
// It never fails loudly: an unreadable value is simply no date.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if t, ok := parseCalendarDate(s); ok {
		return t, true
	}
	return parseGeneralDate(s)
}

// parseCalendarDate handles values that are only a date.
func parseCalendarDate(s string) (time.Time, bool) {
	for _, layout := range calendarLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return truncateDay(t), true
		}
	}

	return time.Time{}, false
}

// parseGeneralDate handles timestamps and workbook serial numbers. The
// calendar day is taken as written, before any zone conversion.
func parseGeneralDate(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), true
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= minExcelSerial {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return truncateDay(t), true
		}
	}

	return time.Time{}, false
}

// truncateDay keeps the wall-clock calendar day and drops everything else.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// FormatDay renders a day as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// ParseDay parses the YYYY-MM-DD form produced by FormatDay.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return truncateDay(t), nil
}
