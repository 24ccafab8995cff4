package core

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// MappingMatchThreshold is the minimum header overlap for a remembered
// mapping to be proposed again.
const MappingMatchThreshold = 0.7

// DefaultMappingMemorySize bounds how many header sets are remembered.
const DefaultMappingMemorySize = 100

// RememberedMapping is a confirmed mapping and the headers it was made for.
type RememberedMapping struct {
	Headers   []string
	Mapping   FieldMapping
	UpdatedAt time.Time
}

// MappingMatch is a remembered mapping that fits a new header list.
type MappingMatch struct {
	Mapping FieldMapping
	Score   float64
}

// MappingMemory keeps confirmed mappings so a file with the same layout as
// an earlier one gets the user's previous choice instead of a guess.
type MappingMemory struct {
	mu      sync.RWMutex
	entries map[string]RememberedMapping
	max     int
}

// NewMappingMemory creates a memory holding at most max header sets.
func NewMappingMemory(max int) *MappingMemory {
	if max <= 0 {
		max = DefaultMappingMemorySize
	}
	return &MappingMemory{
		entries: make(map[string]RememberedMapping),
		max:     max,
	}
}

// Remember stores m for headers, replacing any mapping for the same set.
// The least recently updated entry is evicted when the memory is full.
func (mm *MappingMemory) Remember(headers []string, m FieldMapping) {
	key := headerSetKey(headers)

	mm.mu.Lock()
	defer mm.mu.Unlock()

	if _, ok := mm.entries[key]; !ok && len(mm.entries) >= mm.max {
		mm.evictOldest()
	}
	mm.entries[key] = RememberedMapping{
		Headers:   append([]string(nil), headers...),
		Mapping:   m,
		UpdatedAt: time.Now(),
	}
}

func (mm *MappingMemory) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for k, e := range mm.entries {
		if oldestKey == "" || e.UpdatedAt.Before(oldest) {
			oldestKey, oldest = k, e.UpdatedAt
		}
	}
	delete(mm.entries, oldestKey)
}

// Match returns the best remembered mapping for headers whose overlap
// reaches MappingMatchThreshold and whose keys all exist in headers.
func (mm *MappingMemory) Match(headers []string) (MappingMatch, bool) {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	var (
		best     MappingMatch
		bestTime time.Time
		found    bool
	)
	for _, e := range mm.entries {
		score := matchHeaders(headers, e.Headers)
		if score < MappingMatchThreshold || e.Mapping.Validate(headers) != nil {
			continue
		}
		// Highest score wins; ties go to the most recent confirmation.
		if found && (score < best.Score || (score == best.Score && !e.UpdatedAt.After(bestTime))) {
			continue
		}
		best = MappingMatch{Mapping: e.Mapping, Score: score}
		bestTime = e.UpdatedAt
		found = true
	}
	return best, found
}

// Len returns the number of remembered header sets.
func (mm *MappingMemory) Len() int {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return len(mm.entries)
}

// matchHeaders is the share of remembered headers present in headers,
// compared case-insensitively.
func matchHeaders(headers, remembered []string) float64 {
	if len(remembered) == 0 {
		return 0
	}

	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[normalizeHeader(h)] = true
	}

	matched := 0
	for _, h := range remembered {
		if present[normalizeHeader(h)] {
			matched++
		}
	}
	return float64(matched) / float64(len(remembered))
}

func headerSetKey(headers []string) string {
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = normalizeHeader(h)
	}
	sort.Strings(keys)
	return strings.Join(keys, "\x00")
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}
