package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/lexidrill/pkg/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memStore is an in-memory ProgressStore with the same serialization
// contract as the SQL implementation.
type memStore struct {
	mu     sync.Mutex
	recs   map[[2]int64]*models.ProgressRecord
	nextID int64
	fail   error
}

func newMemStore() *memStore {
	return &memStore{recs: make(map[[2]int64]*models.ProgressRecord)}
}

func (s *memStore) Mutate(_ context.Context, enrollmentID, itemID int64, apply func(rec *models.ProgressRecord)) (*models.ProgressRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	key := [2]int64{enrollmentID, itemID}
	rec, ok := s.recs[key]
	if !ok {
		s.nextID++
		rec = &models.ProgressRecord{
			ID:             s.nextID,
			EnrollmentID:   enrollmentID,
			ItemID:         itemID,
			EasinessFactor: 2.5,
			IntervalDays:   1,
		}
		s.recs[key] = rec
	}
	apply(rec)
	cp := *rec
	return &cp, nil
}

func (s *memStore) GetByEnrollment(_ context.Context, enrollmentID int64) ([]models.ProgressRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ProgressRecord
	for _, rec := range s.recs {
		if rec.EnrollmentID == enrollmentID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

type fakeCatalog struct {
	items   map[int64][]int64
	targets map[int64]float64
}

func (c *fakeCatalog) ItemIDs(_ context.Context, enrollmentID int64) ([]int64, error) {
	ids, ok := c.items[enrollmentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return ids, nil
}

func (c *fakeCatalog) HasItem(_ context.Context, enrollmentID, itemID int64) (bool, error) {
	ids, ok := c.items[enrollmentID]
	if !ok {
		return false, sql.ErrNoRows
	}
	for _, id := range ids {
		if id == itemID {
			return true, nil
		}
	}
	return false, nil
}

func (c *fakeCatalog) TargetMastery(_ context.Context, enrollmentID int64) (float64, error) {
	if _, ok := c.items[enrollmentID]; !ok {
		return 0, sql.ErrNoRows
	}
	return c.targets[enrollmentID], nil
}

// failingSessionLog simulates an unavailable audit store.
type failingSessionLog struct {
	appendCalls int
}

func (l *failingSessionLog) CreateSession(context.Context, *models.PracticeSession) error {
	return fmt.Errorf("audit store down")
}

func (l *failingSessionLog) AppendAnswer(context.Context, *models.PracticeAnswer) error {
	l.appendCalls++
	return fmt.Errorf("audit store down")
}

func (l *failingSessionLog) CompleteSession(context.Context, string, time.Time) error {
	return fmt.Errorf("audit store down")
}

func newTestEngine(store *memStore, catalog *fakeCatalog, clock Clock, recorder *Recorder) *Engine {
	return New(store, catalog, recorder, clock, DefaultConfig())
}

func TestEngine_RecordAnswer_FirstAnswer(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newMemStore()
	catalog := &fakeCatalog{items: map[int64][]int64{1: {10, 11}}}
	e := newTestEngine(store, catalog, clock, nil)

	res, err := e.RecordAnswer(context.Background(), AnswerEvent{EnrollmentID: 1, ItemID: 10, Correct: true})
	require.NoError(t, err)

	assert.Equal(t, 0.5, res.MemoryStrength)
	assert.Equal(t, 2.5, res.EasinessFactor)
	assert.Equal(t, 1, res.RepetitionCount)
	assert.Equal(t, clock.Now().Add(24*time.Hour), res.NextReviewAt)
}

func TestEngine_RecordAnswer_UnknownEnrollment(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	e := newTestEngine(newMemStore(), &fakeCatalog{items: map[int64][]int64{}}, clock, nil)

	_, err := e.RecordAnswer(context.Background(), AnswerEvent{EnrollmentID: 99, ItemID: 10, Correct: true})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "enrollment", verr.Field)
}

func TestEngine_RecordAnswer_ItemOutsideAssignment(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	catalog := &fakeCatalog{items: map[int64][]int64{1: {10}}}
	e := newTestEngine(newMemStore(), catalog, clock, nil)

	_, err := e.RecordAnswer(context.Background(), AnswerEvent{EnrollmentID: 1, ItemID: 42, Correct: true})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "item", verr.Field)
}

func TestEngine_RecordAnswer_StorageFailureIsRetryable(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	store := newMemStore()
	store.fail = errors.New("connection refused")
	catalog := &fakeCatalog{items: map[int64][]int64{1: {10}}}
	e := newTestEngine(store, catalog, clock, nil)

	_, err := e.RecordAnswer(context.Background(), AnswerEvent{EnrollmentID: 1, ItemID: 10, Correct: true})
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, store.fail)
}

func TestEngine_RecordAnswer_AuditFailureDoesNotSurface(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	store := newMemStore()
	catalog := &fakeCatalog{items: map[int64][]int64{1: {10}}}
	auditLog := &failingSessionLog{}
	recorder := NewRecorder(auditLog, clock, zap.NewNop())
	e := newTestEngine(store, catalog, clock, recorder)

	res, err := e.RecordAnswer(context.Background(), AnswerEvent{
		EnrollmentID: 1, ItemID: 10, Correct: true, SessionID: "s-1",
	})
	require.NoError(t, err, "a failed audit write must not fail the progress update")
	require.NotNil(t, res)
	assert.Equal(t, 1, auditLog.appendCalls)
}

func TestEngine_RecordAnswer_AttemptsGrowByOnePerCall(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newMemStore()
	catalog := &fakeCatalog{items: map[int64][]int64{1: {10}}}
	e := newTestEngine(store, catalog, clock, nil)

	for i := 1; i <= 5; i++ {
		_, err := e.RecordAnswer(context.Background(), AnswerEvent{EnrollmentID: 1, ItemID: 10, Correct: i%2 == 0})
		require.NoError(t, err)
		rec := store.recs[[2]int64{1, 10}]
		assert.Equal(t, i, rec.TotalAttempts)
		assert.Equal(t, rec.CorrectCount+rec.IncorrectCount, rec.TotalAttempts)
		clock.advance(6 * time.Hour)
	}
}

func TestEngine_ConcurrentFirstAnswersCreateOneRecord(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newMemStore()
	catalog := &fakeCatalog{items: map[int64][]int64{1: {10}}}
	e := newTestEngine(store, catalog, clock, nil)

	const callers = 8
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.RecordAnswer(context.Background(), AnswerEvent{EnrollmentID: 1, ItemID: 10, Correct: true})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, store.recs, 1, "exactly one record for the pair")
	rec := store.recs[[2]int64{1, 10}]
	assert.Equal(t, callers, rec.TotalAttempts, "no lost updates")
}

func TestEngine_SelectPracticeItems_Validation(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	catalog := &fakeCatalog{items: map[int64][]int64{1: {10, 11}}}
	e := newTestEngine(newMemStore(), catalog, clock, nil)

	_, err := e.SelectPracticeItems(context.Background(), 1, -1)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	got, err := e.SelectPracticeItems(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = e.SelectPracticeItems(context.Background(), 99, 5)
	require.ErrorAs(t, err, &verr)
}

func TestEngine_SelectPracticeItems_EndToEnd(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newMemStore()
	catalog := &fakeCatalog{items: map[int64][]int64{1: {10, 11, 12}}}
	e := newTestEngine(store, catalog, clock, nil)

	// Item 11 answered wrong just now: due tomorrow, weak.
	_, err := e.RecordAnswer(context.Background(), AnswerEvent{EnrollmentID: 1, ItemID: 11, Correct: false})
	require.NoError(t, err)

	// Item 12 answered correctly: also not due until tomorrow, stronger.
	_, err = e.RecordAnswer(context.Background(), AnswerEvent{EnrollmentID: 1, ItemID: 12, Correct: true})
	require.NoError(t, err)

	got, err := e.SelectPracticeItems(context.Background(), 1, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Never-practiced item 10 leads; of the two not-due records the
	// weaker one (11, strength 0.2) outranks the stronger (12, 0.5).
	assert.Equal(t, int64(10), got[0].ItemID)
	assert.Equal(t, int64(11), got[1].ItemID)
	assert.Equal(t, int64(12), got[2].ItemID)
}

func TestEngine_ComputeMastery(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newMemStore()
	catalog := &fakeCatalog{items: map[int64][]int64{1: {10, 11}}, targets: map[int64]float64{}}
	e := newTestEngine(store, catalog, clock, nil)

	res, err := e.ComputeMastery(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0.90, res.TargetMastery, "engine default applies when the enrollment sets none")
	assert.Equal(t, 2, res.TotalWords)
	assert.False(t, res.Achieved)

	_, err = e.ComputeMastery(context.Background(), 404)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestEngine_ComputeMastery_EnrollmentTargetWins(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	catalog := &fakeCatalog{
		items:   map[int64][]int64{1: {10}},
		targets: map[int64]float64{1: 0.75},
	}
	e := newTestEngine(newMemStore(), catalog, clock, nil)

	res, err := e.ComputeMastery(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0.75, res.TargetMastery)
}
