package engine

import (
	"math/rand"
	"sort"
	"time"

	"github.com/example/lexidrill/pkg/models"
)

// Selection priorities. Never-practiced items always win; due items
// rank above everything not yet due.
const (
	priorityNew     = 100.0
	priorityDueBase = 50.0
	priorityDueSpan = 50.0
	priorityAhead   = 30.0
)

// PracticeItem is one ranked selection result.
type PracticeItem struct {
	ItemID         int64   `json:"item_id"`
	MemoryStrength float64 `json:"memory_strength"`
	Priority       float64 `json:"priority"`
}

// Selector ranks candidate items for practice.
type Selector struct {
	rnd *rand.Rand
}

// NewSelector creates a selector with a time-seeded source. Tie order
// is intentionally non-deterministic across calls.
func NewSelector() *Selector {
	return &Selector{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Rank scores every candidate item, orders by priority descending with
// random order inside equal-priority bands, and truncates to limit.
func (s *Selector) Rank(candidates []int64, records map[int64]*models.ProgressRecord, now time.Time, limit int) []PracticeItem {
	items := make([]PracticeItem, 0, len(candidates))
	if limit <= 0 {
		return items
	}

	for _, id := range candidates {
		pi := PracticeItem{ItemID: id}
		rec := records[id]
		switch {
		case rec == nil || rec.NextReviewAt == nil:
			// Never practiced
			pi.Priority = priorityNew
		case !rec.NextReviewAt.After(now):
			// Due: weaker memories first
			pi.MemoryStrength = rec.MemoryStrength
			pi.Priority = priorityDueBase + (1-rec.MemoryStrength)*priorityDueSpan
		default:
			// Not yet due
			pi.MemoryStrength = rec.MemoryStrength
			pi.Priority = (1 - rec.MemoryStrength) * priorityAhead
		}
		items = append(items, pi)
	}

	// Stable sort, then an explicit shuffle within each tie band, so
	// tied items don't drill in a fixed order call after call.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Priority > items[j].Priority
	})
	s.shuffleTies(items)

	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func (s *Selector) shuffleTies(items []PracticeItem) {
	start := 0
	for i := 1; i <= len(items); i++ {
		if i == len(items) || items[i].Priority != items[start].Priority {
			band := items[start:i]
			s.rnd.Shuffle(len(band), func(a, b int) {
				band[a], band[b] = band[b], band[a]
			})
			start = i
		}
	}
}
