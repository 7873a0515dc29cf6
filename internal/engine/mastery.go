package engine

import "github.com/example/lexidrill/pkg/models"

// An item counts as mastered once its memory strength reaches this.
const masteredStrength = 0.8

// MasteryResult summarizes assignment-level readiness for one
// enrollment.
type MasteryResult struct {
	CurrentMastery float64 `json:"current_mastery"`
	TargetMastery  float64 `json:"target_mastery"`
	Achieved       bool    `json:"achieved"`
	WordsMastered  int     `json:"words_mastered"`
	TotalWords     int     `json:"total_words"`
}

// computeMastery derives the aggregate from existing progress records.
// Unpracticed items scale the average down without ever materializing
// a record: avg-of-practiced × practiced/total.
func computeMastery(records []models.ProgressRecord, totalWords int, target float64) MasteryResult {
	res := MasteryResult{TargetMastery: target, TotalWords: totalWords}
	if totalWords == 0 {
		return res
	}

	var sum float64
	for _, rec := range records {
		sum += rec.MemoryStrength
		if rec.MemoryStrength >= masteredStrength {
			res.WordsMastered++
		}
	}
	if len(records) > 0 {
		avg := sum / float64(len(records))
		res.CurrentMastery = round4(avg * float64(len(records)) / float64(totalWords))
	}
	res.Achieved = res.CurrentMastery >= target
	return res
}
