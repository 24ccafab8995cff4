package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/JonMunkholm/calllist/internal/store"
)

var testNow = time.Date(2024, 1, 6, 9, 30, 0, 0, time.UTC)

func newTestImporter(t *testing.T, st store.Store) *Importer {
	t.Helper()
	return NewImporter(ImporterOptions{
		MaxConcurrent: 2,
		MaxWait:       time.Second,
		Store:         st,
		Now:           func() time.Time { return testNow },
	})
}

func visitsWorkbook(t *testing.T) []byte {
	t.Helper()
	return buildWorkbook(t, [][]any{
		{"Client Name", "Mobile", "Visit Date", "Notes"},
		{"Jane Doe", "555-1111 / 555-2222", "2024-01-05", "Follow up"},
		{"John Roe", "555-3333", "2024-01-06", ""},
		{"Ann Poe", "555-4444", "2024-01-06", "Walk-in"},
	})
}

// importAndConfirm drives a session through a successful import.
func importAndConfirm(t *testing.T, s *Session) {
	t.Helper()
	ctx := context.Background()

	analysis, err := s.Import(ctx, "visits.xlsx", visitsWorkbook(t))
	require.NoError(t, err)
	require.Equal(t, StatusMapping, s.Status())
	require.NoError(t, s.ConfirmMapping(ctx, analysis.Suggested))
	require.Equal(t, StatusSuccess, s.Status())
}

type failingStore struct {
	*store.Memory
	err error
}

func (f *failingStore) Save(ctx context.Context, key string, data []byte) error {
	return f.err
}

func TestSession_ImportFlow(t *testing.T) {
	imp := newTestImporter(t, nil)
	s := imp.NewSession("s1")
	ctx := context.Background()

	assert.Equal(t, StatusIdle, s.Status())

	analysis, err := s.Import(ctx, "visits.xlsx", visitsWorkbook(t))
	require.NoError(t, err)
	assert.Equal(t, SourceHeuristic, analysis.Source)
	assert.Equal(t, "Client Name", analysis.Suggested.NameKey)

	v := s.View()
	assert.Equal(t, StatusMapping, v.Status)
	assert.Equal(t, "visits.xlsx", v.FileName)
	assert.Equal(t, []string{"Client Name", "Mobile", "Visit Date", "Notes"}, v.Headers)
	require.NotNil(t, v.Suggested)
	assert.Empty(t, v.Records)

	require.NoError(t, s.ConfirmMapping(ctx, analysis.Suggested))

	v = s.View()
	assert.Equal(t, StatusSuccess, v.Status)
	assert.Equal(t, 3, v.Total)
	assert.Len(t, v.Dates, 2)
	assert.Nil(t, v.Headers, "mapping draft should not be shown after success")

	// Today (2024-01-06) is in the batch, so it is selected.
	require.NotNil(t, v.SelectedDate)
	assert.Equal(t, "2024-01-06", FormatDay(*v.SelectedDate))
	assert.Len(t, v.Records, 2)

	jan5 := day(2024, 1, 5)
	s.SelectDate(&jan5)
	v = s.View()
	require.Len(t, v.Records, 1)
	assert.Equal(t, "Jane Doe", v.Records[0].Name)

	s.SelectDate(nil)
	assert.Empty(t, s.View().Records, "no selection with dated records shows nothing")
	assert.Len(t, s.Records(), 3)
}

func TestSession_DefaultDateFallsBackToFirst(t *testing.T) {
	imp := NewImporter(ImporterOptions{
		Now: func() time.Time { return time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC) },
	})
	s := imp.NewSession("s1")
	importAndConfirm(t, s)

	v := s.View()
	require.NotNil(t, v.SelectedDate)
	assert.Equal(t, "2024-01-05", FormatDay(*v.SelectedDate))
}

func TestSession_ImportFailure(t *testing.T) {
	imp := newTestImporter(t, nil)
	s := imp.NewSession("s1")

	_, err := s.Import(context.Background(), "broken.xlsx", []byte("garbage"))
	require.ErrorIs(t, err, ErrUnreadableFile)

	v := s.View()
	assert.Equal(t, StatusError, v.Status)
	require.NotNil(t, v.Error)
	assert.Equal(t, "FILE001", v.Error.Code)

	// A new import is allowed from error.
	importAndConfirm(t, s)
	assert.Nil(t, s.View().Error)
}

func TestSession_InvalidMapping(t *testing.T) {
	imp := newTestImporter(t, nil)
	s := imp.NewSession("s1")

	_, err := s.Import(context.Background(), "visits.xlsx", visitsWorkbook(t))
	require.NoError(t, err)

	err = s.ConfirmMapping(context.Background(), FieldMapping{NameKey: "Client Name"})
	require.ErrorIs(t, err, ErrInvalidMapping)

	v := s.View()
	assert.Equal(t, StatusError, v.Status)
	require.NotNil(t, v.Error)
	assert.Equal(t, "MAP001", v.Error.Code)
	assert.Equal(t, "Failed to map data: phone column is required", v.Error.Message)
}

func TestSession_ConfirmWithoutImport(t *testing.T) {
	imp := newTestImporter(t, nil)
	s := imp.NewSession("s1")

	err := s.ConfirmMapping(context.Background(), FieldMapping{NameKey: "a", PhoneKey: "b"})
	assert.ErrorIs(t, err, ErrNoMappingPending)
	assert.Equal(t, StatusIdle, s.Status())
}

func TestSession_ImportRejectedWhileMapping(t *testing.T) {
	imp := newTestImporter(t, nil)
	s := imp.NewSession("s1")

	_, err := s.Import(context.Background(), "visits.xlsx", visitsWorkbook(t))
	require.NoError(t, err)

	_, err = s.Import(context.Background(), "other.xlsx", visitsWorkbook(t))
	assert.ErrorIs(t, err, ErrImportInProgress)
	assert.Equal(t, "visits.xlsx", s.View().FileName)
}

func TestSession_NewImportReplacesBatch(t *testing.T) {
	imp := newTestImporter(t, nil)
	s := imp.NewSession("s1")
	importAndConfirm(t, s)

	data := buildWorkbook(t, [][]any{
		{"Client Name", "Mobile", "Visit Date", "Notes"},
		{"Solo", "555-9999", "", ""},
	})
	analysis, err := s.Import(context.Background(), "solo.xlsx", data)
	require.NoError(t, err)
	assert.Empty(t, s.Records(), "previous batch cleared at import start")

	require.NoError(t, s.ConfirmMapping(context.Background(), analysis.Suggested))
	v := s.View()
	assert.Equal(t, 1, v.Total)
	assert.Empty(t, v.Dates)
	assert.Nil(t, v.SelectedDate)
	require.Len(t, v.Records, 1, "undated batch shows every record")
	assert.Equal(t, "Solo", v.Records[0].Name)
}

func TestSession_Reset(t *testing.T) {
	imp := newTestImporter(t, nil)
	s := imp.NewSession("s1")
	importAndConfirm(t, s)

	s.Reset()

	v := s.View()
	assert.Equal(t, StatusIdle, v.Status)
	assert.Empty(t, v.FileName)
	assert.Empty(t, v.Records)
	assert.Empty(t, v.Dates)
	assert.Nil(t, v.SelectedDate)
	assert.Zero(t, v.Total)
	assert.Empty(t, s.Records())
}

func TestSession_CancelDuringMapping(t *testing.T) {
	imp := newTestImporter(t, nil)
	s := imp.NewSession("s1")

	_, err := s.Import(context.Background(), "visits.xlsx", visitsWorkbook(t))
	require.NoError(t, err)

	s.Cancel()
	assert.Equal(t, StatusIdle, s.Status())
	assert.ErrorIs(t, s.ConfirmMapping(context.Background(), FieldMapping{}), ErrNoMappingPending)
}

func TestSession_ResetDuringDecodeDiscardsResult(t *testing.T) {
	defer goleak.VerifyNone(t)

	imp := NewImporter(ImporterOptions{MaxConcurrent: 1, MaxWait: 5 * time.Second})
	s := imp.NewSession("s1")
	ctx := context.Background()
	data := visitsWorkbook(t)

	// Hold the only decode slot so the import parks in analyzing.
	require.NoError(t, imp.Limiter().Acquire(ctx))

	done := make(chan error, 1)
	go func() {
		_, err := s.Import(ctx, "visits.xlsx", data)
		done <- err
	}()

	require.Eventually(t, func() bool { return s.Status() == StatusAnalyzing },
		time.Second, 5*time.Millisecond)

	_, err := s.Import(ctx, "second.xlsx", data)
	assert.ErrorIs(t, err, ErrImportInProgress)

	s.Reset()
	imp.Limiter().Release()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("import did not return")
	}

	v := s.View()
	assert.Equal(t, StatusIdle, v.Status)
	assert.Empty(t, v.Records)
	assert.Nil(t, v.Headers)
}

func TestSession_ConcurrentImports(t *testing.T) {
	defer goleak.VerifyNone(t)

	imp := newTestImporter(t, nil)
	s := imp.NewSession("s1")
	data := visitsWorkbook(t)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Import(context.Background(), "visits.xlsx", data)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrImportInProgress):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, rejected)
	assert.Equal(t, StatusMapping, s.Status())
}

func TestSession_SaveAndRestore(t *testing.T) {
	st := store.NewMemory()
	imp := newTestImporter(t, st)
	ctx := context.Background()

	s := imp.NewSession("s1")
	importAndConfirm(t, s)
	assert.False(t, s.View().IsSaved)

	require.NoError(t, s.Save(ctx))
	assert.True(t, s.View().IsSaved)

	raw, err := st.Load(ctx, StorageKey("s1"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"fileName":"visits.xlsx"`)

	restored := imp.NewSession("s1")
	require.NoError(t, restored.Restore(ctx))

	v := restored.View()
	assert.Equal(t, StatusSuccess, v.Status)
	assert.True(t, v.IsSaved)
	assert.Equal(t, "visits.xlsx", v.FileName)
	assert.Equal(t, 3, v.Total)
	require.NotNil(t, v.SelectedDate)
	assert.Equal(t, "2024-01-06", FormatDay(*v.SelectedDate))
	assert.Equal(t, s.Records(), restored.Records())
}

func TestSession_RestoreNothingSaved(t *testing.T) {
	imp := newTestImporter(t, nil)
	s := imp.NewSession("fresh")

	require.NoError(t, s.Restore(context.Background()))
	assert.Equal(t, StatusIdle, s.Status())
}

func TestSession_RestoreCorruptSnapshot(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, StorageKey("s1"), []byte("{not json")))

	imp := newTestImporter(t, st)
	s := imp.NewSession("s1")

	require.NoError(t, s.Restore(ctx))
	assert.Equal(t, StatusIdle, s.Status())

	_, err := st.Load(ctx, StorageKey("s1"))
	assert.ErrorIs(t, err, store.ErrNotFound, "corrupt snapshot should be deleted")
}

func TestSession_SaveRequiresSuccess(t *testing.T) {
	imp := newTestImporter(t, nil)
	s := imp.NewSession("s1")

	assert.ErrorIs(t, s.Save(context.Background()), ErrPersistence)
}

func TestSession_SaveFailureKeepsRecords(t *testing.T) {
	st := &failingStore{Memory: store.NewMemory(), err: errors.New("quota exceeded")}
	imp := newTestImporter(t, st)
	s := imp.NewSession("s1")
	importAndConfirm(t, s)

	err := s.Save(context.Background())
	require.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, "STO001", MapError(err).Code)

	v := s.View()
	assert.Equal(t, StatusSuccess, v.Status)
	assert.False(t, v.IsSaved)
	assert.Equal(t, 3, v.Total)
}

func TestSession_ClearSaved(t *testing.T) {
	st := store.NewMemory()
	imp := newTestImporter(t, st)
	ctx := context.Background()

	s := imp.NewSession("s1")
	importAndConfirm(t, s)
	require.NoError(t, s.Save(ctx))

	require.NoError(t, s.ClearSaved(ctx))
	assert.Equal(t, StatusIdle, s.Status())

	_, err := st.Load(ctx, StorageKey("s1"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestImporter_RemembersConfirmedMapping(t *testing.T) {
	imp := newTestImporter(t, nil)
	ctx := context.Background()
	data := buildWorkbook(t, [][]any{
		{"Col A", "Col B", "Col C"},
		{"555-1111", "Jane", "note"},
	})

	s := imp.NewSession("s1")
	analysis, err := s.Import(ctx, "odd.xlsx", data)
	require.NoError(t, err)
	assert.Equal(t, SourceHeuristic, analysis.Source)

	chosen := FieldMapping{NameKey: "Col B", PhoneKey: "Col A", DescriptionKey: "Col C"}
	require.NoError(t, s.ConfirmMapping(ctx, chosen))

	other := imp.NewSession("s2")
	analysis, err = other.Import(ctx, "odd-again.xlsx", data)
	require.NoError(t, err)
	assert.Equal(t, SourceRemembered, analysis.Source)
	assert.Equal(t, chosen, analysis.Suggested)
}

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "smart_call_list_data:abc", StorageKey("abc"))
}
