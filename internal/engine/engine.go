package engine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/lexidrill/pkg/models"
)

// ProgressStore is the durable per-(enrollment, item) state the engine
// mutates. Mutate must serialize concurrent calls for the same pair
// and fold a lost creation race into an update.
type ProgressStore interface {
	Mutate(ctx context.Context, enrollmentID, itemID int64, apply func(rec *models.ProgressRecord)) (*models.ProgressRecord, error)
	GetByEnrollment(ctx context.Context, enrollmentID int64) ([]models.ProgressRecord, error)
}

// Catalog supplies the content an enrollment covers. Implementations
// signal an unknown enrollment with sql.ErrNoRows.
type Catalog interface {
	ItemIDs(ctx context.Context, enrollmentID int64) ([]int64, error)
	HasItem(ctx context.Context, enrollmentID, itemID int64) (bool, error)
	TargetMastery(ctx context.Context, enrollmentID int64) (float64, error)
}

// Config carries the engine's tunables.
type Config struct {
	// Mastery threshold used when the enrollment doesn't set its own
	TargetMastery float64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{TargetMastery: 0.90}
}

// AnswerEvent is one graded answer arriving from upstream. The engine
// consumes only the correctness signal; grading happens elsewhere.
type AnswerEvent struct {
	EnrollmentID     int64
	ItemID           int64
	Correct          bool
	SessionID        string // optional; links the audit row to a session
	TimeSpentSeconds int
	AnswerText       string
}

// AnswerResult carries the headline fields of the updated record.
type AnswerResult struct {
	MemoryStrength  float64   `json:"memory_strength"`
	EasinessFactor  float64   `json:"easiness_factor"`
	RepetitionCount int       `json:"repetition_count"`
	NextReviewAt    time.Time `json:"next_review_at"`
}

// Engine is the practice-scheduling core: answer processing, item
// selection and mastery aggregation.
type Engine struct {
	progress ProgressStore
	catalog  Catalog
	recorder *Recorder
	selector *Selector
	curve    *Curve
	clock    Clock
	config   Config
}

// New assembles an engine. recorder may be nil when no audit trail is
// wanted.
func New(progress ProgressStore, catalog Catalog, recorder *Recorder, clock Clock, config Config) *Engine {
	if config.TargetMastery <= 0 {
		config.TargetMastery = DefaultConfig().TargetMastery
	}
	return &Engine{
		progress: progress,
		catalog:  catalog,
		recorder: recorder,
		selector: NewSelector(),
		curve:    NewCurve(),
		clock:    clock,
		config:   config,
	}
}

// RecordAnswer folds one answer into the matching progress record and
// appends a best-effort audit row.
func (e *Engine) RecordAnswer(ctx context.Context, ev AnswerEvent) (*AnswerResult, error) {
	ok, err := e.catalog.HasItem(ctx, ev.EnrollmentID, ev.ItemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ValidationError{Field: "enrollment", Reason: "unknown enrollment"}
	}
	if err != nil {
		return nil, &PersistenceError{Op: "record answer", Err: err}
	}
	if !ok {
		return nil, &ValidationError{Field: "item", Reason: "item is not part of the enrollment's assignment"}
	}

	now := e.clock.Now()
	rec, err := e.progress.Mutate(ctx, ev.EnrollmentID, ev.ItemID, func(rec *models.ProgressRecord) {
		e.curve.Apply(rec, now, ev.Correct)
	})
	if err != nil {
		return nil, &PersistenceError{Op: "record answer", Err: err}
	}

	if e.recorder != nil {
		e.recorder.LogAnswer(ctx, ev.SessionID, ev.ItemID, ev.Correct, ev.TimeSpentSeconds, ev.AnswerText)
	}

	return &AnswerResult{
		MemoryStrength:  rec.MemoryStrength,
		EasinessFactor:  rec.EasinessFactor,
		RepetitionCount: rec.RepetitionCount,
		NextReviewAt:    *rec.NextReviewAt,
	}, nil
}

// SelectPracticeItems returns up to limit items to practice next,
// highest priority first, ties in random order.
func (e *Engine) SelectPracticeItems(ctx context.Context, enrollmentID int64, limit int) ([]PracticeItem, error) {
	if limit < 0 {
		return nil, &ValidationError{Field: "limit", Reason: "must not be negative"}
	}
	if limit == 0 {
		return []PracticeItem{}, nil
	}

	candidates, err := e.catalog.ItemIDs(ctx, enrollmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ValidationError{Field: "enrollment", Reason: "unknown enrollment"}
	}
	if err != nil {
		return nil, &PersistenceError{Op: "select practice items", Err: err}
	}

	records, err := e.progress.GetByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, &PersistenceError{Op: "select practice items", Err: err}
	}
	byItem := make(map[int64]*models.ProgressRecord, len(records))
	for i := range records {
		byItem[records[i].ItemID] = &records[i]
	}

	return e.selector.Rank(candidates, byItem, e.clock.Now(), limit), nil
}

// ComputeMastery derives assignment-level readiness for an enrollment.
func (e *Engine) ComputeMastery(ctx context.Context, enrollmentID int64) (*MasteryResult, error) {
	target, err := e.catalog.TargetMastery(ctx, enrollmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ValidationError{Field: "enrollment", Reason: "unknown enrollment"}
	}
	if err != nil {
		return nil, &PersistenceError{Op: "compute mastery", Err: err}
	}
	if target <= 0 {
		target = e.config.TargetMastery
	}

	items, err := e.catalog.ItemIDs(ctx, enrollmentID)
	if err != nil {
		return nil, &PersistenceError{Op: "compute mastery", Err: err}
	}
	records, err := e.progress.GetByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, &PersistenceError{Op: "compute mastery", Err: err}
	}

	res := computeMastery(records, len(items), target)
	return &res, nil
}

// Recorder exposes the session audit component, if configured.
func (e *Engine) Recorder() *Recorder { return e.recorder }
