package core

import (
	"testing"
	"time"
)

func TestMatchHeaders(t *testing.T) {
	tests := []struct {
		name       string
		headers    []string
		remembered []string
		want       float64
	}{
		{"identical", []string{"Name", "Phone"}, []string{"Name", "Phone"}, 1.0},
		{"case and space insensitive", []string{" name ", "PHONE"}, []string{"Name", "Phone"}, 1.0},
		{"reordered", []string{"Phone", "Name"}, []string{"Name", "Phone"}, 1.0},
		{"partial", []string{"Name", "Phone", "Date"}, []string{"Name", "Phone", "Notes", "Ward"}, 0.5},
		{"disjoint", []string{"A"}, []string{"B"}, 0},
		{"empty remembered", []string{"A"}, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchHeaders(tt.headers, tt.remembered); got != tt.want {
				t.Errorf("matchHeaders() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMappingMemory_RememberAndMatch(t *testing.T) {
	mm := NewMappingMemory(10)
	headers := []string{"Who", "Digits", "When"}
	m := FieldMapping{NameKey: "Who", PhoneKey: "Digits", DateKey: "When"}

	if _, ok := mm.Match(headers); ok {
		t.Fatal("Match() on empty memory returned a mapping")
	}

	mm.Remember(headers, m)

	got, ok := mm.Match([]string{"When", "Who", "Digits"})
	if !ok {
		t.Fatal("Match() found nothing for the same header set")
	}
	if got.Mapping != m || got.Score != 1.0 {
		t.Errorf("Match() = %+v", got)
	}

	// Same set, new choice: replaced rather than added.
	m2 := FieldMapping{NameKey: "Who", PhoneKey: "Digits"}
	mm.Remember([]string{"who", "digits", "when"}, m2)
	if mm.Len() != 1 {
		t.Errorf("Len() = %d, want 1", mm.Len())
	}
	if got, _ := mm.Match(headers); got.Mapping != m2 {
		t.Errorf("Match() = %+v, want latest mapping", got.Mapping)
	}
}

func TestMappingMemory_RequiresKeysPresent(t *testing.T) {
	mm := NewMappingMemory(10)
	mm.Remember([]string{"Who", "Digits", "When", "Notes"},
		FieldMapping{NameKey: "Who", PhoneKey: "Digits", DescriptionKey: "Notes"})

	// 3 of 4 remembered headers present clears the threshold, but the
	// description column is gone so the mapping cannot apply.
	if _, ok := mm.Match([]string{"Who", "Digits", "When"}); ok {
		t.Error("Match() proposed a mapping referencing a missing column")
	}
}

func TestMappingMemory_BelowThreshold(t *testing.T) {
	mm := NewMappingMemory(10)
	mm.Remember([]string{"Who", "Digits", "When", "Notes"}, FieldMapping{NameKey: "Who", PhoneKey: "Digits"})

	if _, ok := mm.Match([]string{"Who", "Digits", "Other", "More"}); ok {
		t.Error("Match() accepted a 50% overlap")
	}
}

func TestMappingMemory_PrefersMostRecentOnTie(t *testing.T) {
	mm := NewMappingMemory(10)
	older := FieldMapping{NameKey: "A", PhoneKey: "B"}
	newer := FieldMapping{NameKey: "B", PhoneKey: "A"}

	mm.Remember([]string{"A", "B", "C"}, older)
	time.Sleep(time.Millisecond)
	mm.Remember([]string{"A", "B", "D"}, newer)

	got, ok := mm.Match([]string{"A", "B", "C", "D"})
	if !ok {
		t.Fatal("Match() found nothing")
	}
	if got.Mapping != newer {
		t.Errorf("Match() = %+v, want most recent %+v", got.Mapping, newer)
	}
}

func TestMappingMemory_EvictsOldest(t *testing.T) {
	mm := NewMappingMemory(2)
	m := FieldMapping{NameKey: "A", PhoneKey: "B"}

	mm.Remember([]string{"A", "B", "1"}, m)
	time.Sleep(time.Millisecond)
	mm.Remember([]string{"A", "B", "2"}, m)
	time.Sleep(time.Millisecond)
	mm.Remember([]string{"A", "B", "3"}, m)

	if mm.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", mm.Len())
	}
	// Survivors share only 2 of 3 headers with the evicted set, which is
	// below the threshold.
	if _, ok := mm.Match([]string{"A", "B", "1"}); ok {
		t.Error("oldest entry was not evicted")
	}
	if _, ok := mm.Match([]string{"A", "B", "3"}); !ok {
		t.Error("newest entry is missing")
	}
}

func TestNewMappingMemory_Default(t *testing.T) {
	mm := NewMappingMemory(0)
	if mm.max != DefaultMappingMemorySize {
		t.Errorf("max = %d, want %d", mm.max, DefaultMappingMemorySize)
	}
}
