package core

import (
	"sort"
	"time"
)

// Views over a record batch. They are recomputed on every call so they can
// never disagree with the batch they came from.

// AvailableDates returns the distinct days present in records, ascending.
func AvailableDates(records []Record) []time.Time {
	seen := make(map[string]bool)
	var dates []time.Time
	for _, r := range records {
		if r.Date == nil {
			continue
		}
		key := FormatDay(*r.Date)
		if seen[key] {
			continue
		}
		seen[key] = true
		dates = append(dates, truncateDay(r.Date.UTC()))
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// FilterByDate returns the records on day. With no day selected it returns
// every record when the batch has no dates at all, and nothing otherwise.
func FilterByDate(records []Record, day *time.Time) []Record {
	if day == nil {
		if len(AvailableDates(records)) == 0 {
			return records
		}
		return nil
	}

	var out []Record
	for _, r := range records {
		if r.Date != nil && SameDay(*r.Date, *day) {
			out = append(out, r)
		}
	}
	return out
}

// DefaultDate picks today when it is one of dates, else the earliest date.
// It returns nil for an empty list.
func DefaultDate(dates []time.Time, now time.Time) *time.Time {
	if len(dates) == 0 {
		return nil
	}
	for _, d := range dates {
		if SameDay(d, truncateDay(now)) {
			day := d
			return &day
		}
	}
	day := dates[0]
	return &day
}

// DayGroup is the records for one day.
type DayGroup struct {
	Day     time.Time
	Records []Record
}

// GroupByDate buckets records by day in ascending order. Records without a
// date are returned separately.
func GroupByDate(records []Record) (groups []DayGroup, undated []Record) {
	for _, d := range AvailableDates(records) {
		day := d
		groups = append(groups, DayGroup{Day: d, Records: FilterByDate(records, &day)})
	}
	for _, r := range records {
		if r.Date == nil {
			undated = append(undated, r)
		}
	}
	return groups, undated
}
