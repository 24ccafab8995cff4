package core

import "strconv"

// UnknownName is used when no name column is mapped.
const UnknownName = "Unknown"

// Normalize converts rows into records, one per row and in row order.
// Callers validate the mapping first; Normalize itself tolerates unmapped
// fields and unparseable dates. The result depends only on its inputs.
func Normalize(rows []RawRow, m FieldMapping) []Record {
	records := make([]Record, len(rows))
	for i, row := range rows {
		records[i] = normalizeRow(i, row, m)
	}
	return records
}

func normalizeRow(index int, row RawRow, m FieldMapping) Record {
	rec := Record{
		ID:           strconv.Itoa(index),
		Name:         UnknownName,
		OriginalData: row,
	}

	if m.NameKey != "" {
		rec.Name = row[m.NameKey]
	}
	if m.PhoneKey != "" {
		rec.PhoneNumber = row[m.PhoneKey]
	}
	if m.DescriptionKey != "" {
		rec.Description = row[m.DescriptionKey]
	}
	if m.DateKey != "" {
		if raw := row[m.DateKey]; raw != "" {
			if d, ok := ParseDate(raw); ok {
				rec.Date = &d
			}
		}
	}

	return rec
}
