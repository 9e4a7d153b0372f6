package scoring

import (
	"fmt"
	"sort"

	"github.com/okian/drawcast/internal/domain/category"
	"github.com/okian/drawcast/internal/domain/model"
)

// Entry is one candidate's final score.
type Entry struct {
	Number int
	Score  float64
}

// Board is a ranked, immutable set of scored candidates.
type Board struct {
	entries []Entry
}

// less orders by score descending, then number ascending.
func less(a, b Entry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Number < b.Number
}

// Rank returns a ranked copy of entries.
func Rank(entries []Entry) []Entry {
	out := append([]Entry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// NewBoard validates entries and ranks them.
func NewBoard(entries []Entry) (Board, error) {
	var seen model.DrawSet
	for _, e := range entries {
		if !category.InPool(e.Number) {
			return Board{}, fmt.Errorf("%w: number %d", ErrInvalidEntry, e.Number)
		}
		if seen[e.Number] {
			return Board{}, fmt.Errorf("%w: number %d repeated", ErrInvalidEntry, e.Number)
		}
		seen[e.Number] = true
	}
	return Board{entries: Rank(entries)}, nil
}

// Len returns the number of ranked candidates.
func (b Board) Len() int { return len(b.entries) }

// Entries returns the ranked entries.
func (b Board) Entries() []Entry { return append([]Entry(nil), b.entries...) }

// Top returns at most k leading entries.
func (b Board) Top(k int) []Entry {
	k = min(k, len(b.entries))
	return append([]Entry(nil), b.entries[:k]...)
}

// Selection is the partition of a board.
type Selection struct {
	Primary int
	Special [model.ShortlistSize]int
	// Normal is sorted ascending.
	Normal [model.ShortlistSize]int
	Combo  model.Combo
}

// Partition takes rank 1 as primary, ranks 1-6 as the special shortlist and
// ranks 7-12 as the normal shortlist, so the two shortlists never overlap.
func (b Board) Partition() (Selection, error) {
	if len(b.entries) < 2*model.ShortlistSize {
		return Selection{}, fmt.Errorf("%w: %d eligible, need %d", ErrTooFewCandidates, len(b.entries), 2*model.ShortlistSize)
	}
	var s Selection
	for i := 0; i < model.ShortlistSize; i++ {
		s.Special[i] = b.entries[i].Number
		s.Normal[i] = b.entries[model.ShortlistSize+i].Number
	}
	s.Primary = s.Special[0]
	sort.Ints(s.Normal[:])
	s.Combo = ComboOf(append(s.Normal[:], s.Primary))
	return s, nil
}

// ComboOf summarizes numbers by odd/even split, big/small split and sum.
func ComboOf(numbers []int) model.Combo {
	odd, big, sum := 0, 0, 0
	for _, n := range numbers {
		if n%2 == 1 {
			odd++
		}
		if n >= category.BigThreshold {
			big++
		}
		sum += n
	}
	return model.Combo{
		OddEven:  fmt.Sprintf("奇%d偶%d", odd, len(numbers)-odd),
		BigSmall: fmt.Sprintf("大%d小%d", big, len(numbers)-big),
		Sum:      sum,
	}
}
