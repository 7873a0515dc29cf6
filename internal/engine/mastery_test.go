package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/lexidrill/pkg/models"
)

func recordsAtStrength(n int, strength float64) []models.ProgressRecord {
	records := make([]models.ProgressRecord, n)
	for i := range records {
		records[i] = models.ProgressRecord{ItemID: int64(i + 1), MemoryStrength: strength}
	}
	return records
}

func TestComputeMastery_Boundary(t *testing.T) {
	at90 := computeMastery(recordsAtStrength(10, 0.90), 10, 0.90)
	assert.True(t, at90.Achieved, "all records at exactly the target must achieve it")
	assert.Equal(t, 0.90, at90.CurrentMastery)
	assert.Equal(t, 10, at90.WordsMastered)

	at89 := computeMastery(recordsAtStrength(10, 0.89), 10, 0.90)
	assert.False(t, at89.Achieved)
	assert.Equal(t, 0.89, at89.CurrentMastery)
	assert.Equal(t, 10, at89.WordsMastered) // 0.89 >= 0.8 still counts as mastered per item
}

func TestComputeMastery_PartialPracticeScalesDown(t *testing.T) {
	// 5 of 10 items practiced to perfection: mastery is 0.5, not 1.0.
	res := computeMastery(recordsAtStrength(5, 1.0), 10, 0.90)
	assert.Equal(t, 0.5, res.CurrentMastery)
	assert.False(t, res.Achieved)
	assert.Equal(t, 5, res.WordsMastered)
	assert.Equal(t, 10, res.TotalWords)
}

func TestComputeMastery_NoItems(t *testing.T) {
	res := computeMastery(nil, 0, 0.90)
	assert.Equal(t, MasteryResult{TargetMastery: 0.90}, res)
}

func TestComputeMastery_NoRecords(t *testing.T) {
	res := computeMastery(nil, 8, 0.90)
	assert.Equal(t, 0.0, res.CurrentMastery)
	assert.False(t, res.Achieved)
	assert.Equal(t, 8, res.TotalWords)
	assert.Equal(t, 0, res.WordsMastered)
}

func TestComputeMastery_MasteredCountUsesStrengthThreshold(t *testing.T) {
	records := append(recordsAtStrength(3, 0.85), recordsAtStrength(2, 0.75)...)
	res := computeMastery(records, 5, 0.90)
	assert.Equal(t, 3, res.WordsMastered)
}
