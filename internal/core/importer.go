package core

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/calllist/internal/logging"
	"github.com/JonMunkholm/calllist/internal/store"
)

// Importer holds what every import session shares: the decode limiter, the
// keyword set, remembered mappings and the snapshot store.
type Importer struct {
	limiter  *DecodeLimiter
	memory   *MappingMemory
	keywords Keywords
	store    store.Store
	now      func() time.Time
}

// ImporterOptions configures NewImporter. Zero values get defaults.
type ImporterOptions struct {
	MaxConcurrent int
	MaxWait       time.Duration
	Keywords      *Keywords
	MemorySize    int
	Store         store.Store
	Now           func() time.Time
}

// NewImporter creates an Importer. A nil Store keeps snapshots in memory.
func NewImporter(opts ImporterOptions) *Importer {
	kw := DefaultKeywords
	if opts.Keywords != nil {
		kw = *opts.Keywords
	}
	st := opts.Store
	if st == nil {
		st = store.NewMemory()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Importer{
		limiter:  NewDecodeLimiter(opts.MaxConcurrent, opts.MaxWait),
		memory:   NewMappingMemory(opts.MemorySize),
		keywords: kw,
		store:    st,
		now:      now,
	}
}

// Analyze extracts the table and proposes a mapping for it. A remembered
// mapping for the same header layout wins over the keyword heuristic.
func (imp *Importer) Analyze(ctx context.Context, fileName string, data []byte) (*Table, Analysis, error) {
	var table *Table
	err := imp.limiter.Do(ctx, func() error {
		var err error
		table, err = Extract(ctx, fileName, data)
		return err
	})
	if err != nil {
		return nil, Analysis{}, err
	}

	analysis, err := AnalyzeHeaders(table.Headers, imp.keywords)
	if err != nil {
		return nil, Analysis{}, err
	}

	if match, ok := imp.memory.Match(table.Headers); ok {
		analysis.Suggested = match.Mapping
		analysis.Source = SourceRemembered
		logging.FromContext(ctx).Debug("using remembered mapping", "score", match.Score)
	}

	return table, analysis, nil
}

// Apply validates m against the table and normalizes its rows.
func (imp *Importer) Apply(table *Table, m FieldMapping) ([]Record, error) {
	if err := m.Validate(table.Headers); err != nil {
		return nil, err
	}
	records := Normalize(table.Rows, m)
	imp.memory.Remember(table.Headers, m)
	return records, nil
}

// Limiter exposes the decode limiter for shutdown and status reporting.
func (imp *Importer) Limiter() *DecodeLimiter {
	return imp.limiter
}

// Memory exposes remembered mappings.
func (imp *Importer) Memory() *MappingMemory {
	return imp.memory
}

// StorageKey is the snapshot key for a session.
func StorageKey(sessionID string) string {
	return fmt.Sprintf("smart_call_list_data:%s", sessionID)
}
