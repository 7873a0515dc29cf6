package engine

import (
	"math"
	"time"

	"github.com/example/lexidrill/pkg/models"
)

// Curve implements the forgetting-curve update: exponential decay of
// memory strength between reviews plus SM-2 style interval spacing.
// Apply is pure over its inputs, which keeps every scheduling property
// testable without a live store.
type Curve struct {
	// Strength regained on a correct recall
	CorrectBoost float64
	// Multiplier applied to decayed strength on a miss
	MissPenalty float64
	// Strength never drops below this on a miss
	MissFloor float64
	// Easiness lost on a miss
	MissEasinessDrop float64
	// Minimum easiness factor
	MinEasiness float64
	// Ceiling on the review interval in days
	MaxIntervalDays float64
	// Recall quality fed into the SM-2 easiness update on correct
	// answers. Held constant at 4, where the SM-2 delta evaluates to
	// exactly zero, so in practice only misses move the easiness
	// factor. Kept as the formula rather than a no-op so the behavior
	// is explicit.
	RecallQuality float64
}

// NewCurve returns a curve with the production constants.
func NewCurve() *Curve {
	return &Curve{
		CorrectBoost:     0.3,
		MissPenalty:      0.5,
		MissFloor:        0.1,
		MissEasinessDrop: 0.2,
		MinEasiness:      1.3,
		MaxIntervalDays:  365,
		RecallQuality:    4,
	}
}

// Apply folds one answer into the record. The single now instant feeds
// both lastReviewedAt and nextReviewAt so the two never drift within a
// call.
func (c *Curve) Apply(rec *models.ProgressRecord, now time.Time, correct bool) {
	if rec.TotalAttempts == 0 {
		c.applyFirst(rec, now, correct)
		return
	}

	elapsed := 0.0
	if rec.LastReviewedAt != nil {
		elapsed = now.Sub(*rec.LastReviewedAt).Seconds()
	}
	if elapsed < 0 {
		// Clock skew: treat the review as instantaneous.
		elapsed = 0
	}

	// Retention fades toward zero the longer since the last review,
	// more slowly for easier items.
	decayed := rec.MemoryStrength * math.Exp(-elapsed/(86400*rec.EasinessFactor))

	if correct {
		strength := decayed + c.CorrectBoost
		if strength > 1 {
			strength = 1
		}

		q := c.RecallQuality
		ef := rec.EasinessFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
		if ef < c.MinEasiness {
			ef = c.MinEasiness
		}
		ef = round2(ef)

		// Interval ladder keys on the streak before this answer.
		var interval float64
		switch rec.RepetitionCount {
		case 0:
			interval = 1
		case 1:
			interval = 6
		default:
			interval = rec.IntervalDays * ef
		}
		if interval > c.MaxIntervalDays {
			interval = c.MaxIntervalDays
		}

		rec.MemoryStrength = round4(strength)
		rec.EasinessFactor = ef
		rec.IntervalDays = interval
		rec.RepetitionCount++
		rec.CorrectCount++
	} else {
		strength := decayed * c.MissPenalty
		if strength < c.MissFloor {
			strength = c.MissFloor
		}
		ef := rec.EasinessFactor - c.MissEasinessDrop
		if ef < c.MinEasiness {
			ef = c.MinEasiness
		}

		rec.MemoryStrength = round4(strength)
		rec.EasinessFactor = round2(ef)
		rec.IntervalDays = 1
		rec.RepetitionCount = 0
		rec.IncorrectCount++
	}

	c.stamp(rec, now)
}

// applyFirst handles the very first answer for a pair: fixed starting
// strengths, review tomorrow, no decay step.
func (c *Curve) applyFirst(rec *models.ProgressRecord, now time.Time, correct bool) {
	if correct {
		rec.MemoryStrength = 0.5
		rec.RepetitionCount = 1
		rec.CorrectCount = 1
	} else {
		rec.MemoryStrength = 0.2
		rec.RepetitionCount = 0
		rec.IncorrectCount = 1
	}
	rec.IntervalDays = 1
	c.stamp(rec, now)
}

func (c *Curve) stamp(rec *models.ProgressRecord, now time.Time) {
	rec.TotalAttempts = rec.CorrectCount + rec.IncorrectCount
	if rec.TotalAttempts > 0 {
		rec.AccuracyRate = round4(float64(rec.CorrectCount) / float64(rec.TotalAttempts))
	}
	reviewed := now
	next := now.Add(daysToDuration(rec.IntervalDays))
	rec.LastReviewedAt = &reviewed
	rec.NextReviewAt = &next
}

func daysToDuration(days float64) time.Duration {
	return time.Duration(days * 24 * float64(time.Hour))
}

// Stored precision: strength keeps 4 decimal places, easiness 2.
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
