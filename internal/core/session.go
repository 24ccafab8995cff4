package core

// session.go is the import state machine for one user:
//
//	idle ──Import──▶ analyzing ──▶ mapping ──ConfirmMapping──▶ success
//	                     │              │                          │
//	                     └──▶ error ◀───┘                          │
//	any state ──Reset/Cancel──▶ idle ◀──────── ClearSaved ◀────────┘
//
// A new import may only start from idle, success or error. The decode runs
// without holding the session lock so status reads stay responsive; a reset
// that happens meanwhile discards the decode's result.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/calllist/internal/logging"
	"github.com/JonMunkholm/calllist/internal/store"
)

// Session owns the record batch and mapping draft of one user.
type Session struct {
	id  string
	imp *Importer

	mu           sync.Mutex
	status       Status
	generation   uint64
	fileName     string
	table        *Table
	analysis     Analysis
	records      []Record
	selectedDate *time.Time
	isSaved      bool
	lastErr      error
	lastActive   time.Time
}

// View is a consistent read of a session.
type View struct {
	SessionID    string        `json:"sessionId"`
	Status       Status        `json:"status"`
	FileName     string        `json:"fileName,omitempty"`
	Headers      []string      `json:"headers,omitempty"`
	Suggested    *FieldMapping `json:"suggested,omitempty"`
	Source       MappingSource `json:"source,omitempty"`
	Error        *UserMessage  `json:"error,omitempty"`
	Dates        []time.Time   `json:"dates"`
	SelectedDate *time.Time    `json:"selectedDate"`
	Records      []Record      `json:"records"`
	Total        int           `json:"total"`
	IsSaved      bool          `json:"isSaved"`
}

// NewSession creates an idle session.
func (imp *Importer) NewSession(id string) *Session {
	return &Session{
		id:         id,
		imp:        imp,
		status:     StatusIdle,
		lastActive: imp.now(),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// LastActive returns when the session was last used.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Touch marks the session as used now. Reads count as activity, so a
// session someone is only viewing is not swept as idle.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
}

// Status returns the current state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Import reads a file and moves the session to mapping. On failure the
// session moves to error and the error is returned.
func (s *Session) Import(ctx context.Context, fileName string, data []byte) (Analysis, error) {
	s.mu.Lock()
	switch s.status {
	case StatusAnalyzing, StatusMapping:
		s.mu.Unlock()
		return Analysis{}, ErrImportInProgress
	}
	s.generation++
	gen := s.generation
	s.status = StatusAnalyzing
	s.fileName = fileName
	s.lastErr = nil
	s.isSaved = false
	s.table = nil
	s.analysis = Analysis{}
	s.records = nil
	s.selectedDate = nil
	s.touch()
	s.mu.Unlock()

	logger := logging.WithFields(ctx, "file", fileName, "bytes", len(data))
	logger.Info("import started")

	table, analysis, err := s.imp.Analyze(ctx, fileName, data)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		logger.Info("import discarded after reset")
		return Analysis{}, fmt.Errorf("%w: session was reset", context.Canceled)
	}
	if err != nil {
		logger.Warn("import failed", "error", err)
		s.fail(err)
		return Analysis{}, err
	}

	s.table = table
	s.analysis = analysis
	s.status = StatusMapping
	logger.Info("awaiting column mapping",
		"headers", len(table.Headers),
		"rows", len(table.Rows),
		"source", analysis.Source,
	)
	return analysis, nil
}

// ConfirmMapping normalizes the pending rows with m and moves to success.
// A mapping that fails validation moves the session to error.
func (s *Session) ConfirmMapping(ctx context.Context, m FieldMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusMapping || s.table == nil {
		return ErrNoMappingPending
	}
	s.touch()

	records, err := s.imp.Apply(s.table, m)
	if err != nil {
		logging.FromContext(ctx).Warn("mapping rejected", "error", err)
		s.fail(err)
		return err
	}

	s.records = records
	s.table = nil
	s.status = StatusSuccess
	s.selectedDate = DefaultDate(AvailableDates(records), s.imp.now())

	logging.FromContext(ctx).Info("import completed",
		"file", s.fileName,
		"records", len(records),
	)
	return nil
}

// SelectDate changes the day shown by View. Nil clears the selection.
func (s *Session) SelectDate(day *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	if day == nil {
		s.selectedDate = nil
		return
	}
	d := truncateDay(day.UTC())
	s.selectedDate = &d
}

// Cancel abandons a pending mapping. It behaves like Reset.
func (s *Session) Cancel() {
	s.Reset()
}

// Reset drops records, pending rows, selection and file name.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) resetLocked() {
	s.generation++
	s.status = StatusIdle
	s.fileName = ""
	s.table = nil
	s.analysis = Analysis{}
	s.records = nil
	s.selectedDate = nil
	s.isSaved = false
	s.lastErr = nil
	s.touch()
}

// Save persists the current batch. Failure leaves in-memory state as is.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusSuccess {
		return fmt.Errorf("%w: nothing imported", ErrPersistence)
	}
	s.touch()

	payload, err := json.Marshal(Snapshot{
		Records:  s.records,
		FileName: s.fileName,
		SavedAt:  s.imp.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if err := s.imp.store.Save(ctx, StorageKey(s.id), payload); err != nil {
		logging.FromContext(ctx).Error("save failed", "error", err)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.isSaved = true
	logging.FromContext(ctx).Info("list saved", "records", len(s.records), "bytes", len(payload))
	return nil
}

// ClearSaved deletes the stored batch and resets the session.
func (s *Session) ClearSaved(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.imp.store.Delete(ctx, StorageKey(s.id)); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.resetLocked()
	return nil
}

// Restore loads a saved batch into success state. A missing batch leaves
// the session idle; an unreadable one is deleted and also leaves it idle.
func (s *Session) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := logging.FromContext(ctx)
	key := StorageKey(s.id)

	payload, err := s.imp.store.Load(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		logger.Warn("discarding unreadable saved list", "error", err)
		if err := s.imp.store.Delete(ctx, key); err != nil {
			logger.Warn("delete unreadable saved list", "error", err)
		}
		s.resetLocked()
		return nil
	}

	for i := range snap.Records {
		if d := snap.Records[i].Date; d != nil {
			day := truncateDay(d.UTC())
			snap.Records[i].Date = &day
		}
	}

	s.resetLocked()
	s.records = snap.Records
	s.fileName = snap.FileName
	s.status = StatusSuccess
	s.isSaved = true
	s.selectedDate = DefaultDate(AvailableDates(snap.Records), s.imp.now())

	logger.Info("saved list restored", "records", len(snap.Records), "saved_at", snap.SavedAt)
	return nil
}

// View returns the session's state with the derived date list and the
// records for the selected day.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		SessionID:    s.id,
		Status:       s.status,
		FileName:     s.fileName,
		Dates:        AvailableDates(s.records),
		SelectedDate: s.selectedDate,
		Records:      FilterByDate(s.records, s.selectedDate),
		Total:        len(s.records),
		IsSaved:      s.isSaved,
	}
	if s.status == StatusMapping {
		suggested := s.analysis.Suggested
		v.Headers = s.analysis.Headers
		v.Suggested = &suggested
		v.Source = s.analysis.Source
	}
	if s.status == StatusError && s.lastErr != nil {
		msg := MapError(s.lastErr)
		v.Error = &msg
	}
	return v
}

// Records returns the whole batch.
func (s *Session) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records
}

func (s *Session) fail(err error) {
	s.status = StatusError
	s.lastErr = err
	s.table = nil
}

func (s *Session) touch() {
	s.lastActive = s.imp.now()
}
