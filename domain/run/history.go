package run

import (
	"fmt"
	"slices"

	"rmvc/domain/core"
)

// History is the append-only, ordered list of runs of one session. It is not
// safe for concurrent use; callers that share it add their own locking.
type History struct {
	records []*Record
	byID    map[core.RunID]int
	limit   int
}

// NewHistory creates an empty history holding at most limit records
// (limit <= 0 means unbounded).
func NewHistory(limit int) *History {
	return &History{byID: make(map[core.RunID]int), limit: limit}
}

// Append adds a record at the end. Existing records are never replaced.
func (h *History) Append(r *Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if _, dup := h.byID[r.ID]; dup {
		return fmt.Errorf("%w: run %s already recorded", core.ErrHistoryAppendOnly, r.ID)
	}
	if !core.ID(r.Parent).IsEmpty() {
		if _, ok := h.byID[r.Parent]; !ok {
			return fmt.Errorf("%w: parent %s", core.ErrRunNotFound, r.Parent)
		}
	}
	if h.limit > 0 && len(h.records) >= h.limit {
		return fmt.Errorf("%w: %d runs", core.ErrHistoryFull, h.limit)
	}
	h.byID[r.ID] = len(h.records)
	h.records = append(h.records, r)
	return nil
}

// Get returns the record with the given id.
func (h *History) Get(id core.RunID) (*Record, error) {
	i, ok := h.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	return h.records[i], nil
}

// Records returns the records in insertion order.
func (h *History) Records() []*Record {
	return slices.Clone(h.records)
}

// Latest returns the most recent record, or nil.
func (h *History) Latest() *Record {
	if len(h.records) == 0 {
		return nil
	}
	return h.records[len(h.records)-1]
}

// Len returns the number of records.
func (h *History) Len() int { return len(h.records) }

// Lineage walks from id back to the first run of its chain and returns the
// chain oldest first.
func (h *History) Lineage(id core.RunID) ([]*Record, error) {
	var chain []*Record
	for cur := id; !core.ID(cur).IsEmpty(); {
		r, err := h.Get(cur)
		if err != nil {
			return nil, err
		}
		chain = append(chain, r)
		cur = r.Parent
	}
	slices.Reverse(chain)
	return chain, nil
}

// Change describes how the optimal set moved between two runs.
type Change struct {
	From    core.RunID `json:"from"`
	To      core.RunID `json:"to"`
	Entered []string   `json:"entered,omitempty"`
	Left    []string   `json:"left,omitempty"`
	Stable  bool       `json:"stable"`
}

// Compare reports the optimal choices that entered or left between a and b.
func Compare(a, b *Record) Change {
	before, _ := a.Optimal()
	after, _ := b.Optimal()
	ch := Change{From: a.ID, To: b.ID}
	for _, u := range after {
		if !slices.Contains(before, u) {
			ch.Entered = append(ch.Entered, u)
		}
	}
	for _, u := range before {
		if !slices.Contains(after, u) {
			ch.Left = append(ch.Left, u)
		}
	}
	ch.Stable = len(ch.Entered) == 0 && len(ch.Left) == 0
	return ch
}
