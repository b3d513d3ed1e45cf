package softset

import (
	"fmt"
	"slices"

	"rmvc/domain/core"
)

// Criterion is one parameter e of the soft set together with Φ(e).
type Criterion struct {
	Key     string   `json:"key"`             // e_1, e_2, ...
	Label   string   `json:"label,omitempty"` // original column header
	Members []string `json:"members"`         // Φ(e), natural order
}

// Size returns |Φ(e)|.
func (c Criterion) Size() int { return len(c.Members) }

// Empty reports whether the criterion is degenerate.
func (c Criterion) Empty() bool { return len(c.Members) == 0 }

// SoftSet is the immutable pair (U, Φ).
type SoftSet struct {
	universe []string
	index    map[string]int
	criteria []Criterion
	byKey    map[string]int
	member   [][]bool // [criterion][candidate]
}

// New validates and builds a soft set. The universe is sorted in natural
// order; criteria keep the given order. Duplicate members are collapsed.
func New(universe []string, criteria []Criterion) (*SoftSet, error) {
	s := &SoftSet{
		universe: append([]string(nil), universe...),
		index:    make(map[string]int, len(universe)),
		criteria: make([]Criterion, 0, len(criteria)),
		byKey:    make(map[string]int, len(criteria)),
		member:   make([][]bool, 0, len(criteria)),
	}
	SortCandidates(s.universe)
	for i, u := range s.universe {
		if _, dup := s.index[u]; dup {
			return nil, fmt.Errorf("%w: %q", core.ErrDuplicateCandidate, u)
		}
		s.index[u] = i
	}

	for pos, c := range criteria {
		if c.Key == "" {
			return nil, fmt.Errorf("%w: criterion %d has an empty key", core.ErrInvalidCriterion, pos+1)
		}
		if _, dup := s.byKey[c.Key]; dup {
			return nil, fmt.Errorf("%w: %q", core.ErrDuplicateCriterion, c.Key)
		}
		row := make([]bool, len(s.universe))
		for _, m := range c.Members {
			i, ok := s.index[m]
			if !ok {
				return nil, core.NewSubsetError(c.Key, m)
			}
			row[i] = true
		}
		members := make([]string, 0, len(c.Members))
		for i, in := range row {
			if in {
				members = append(members, s.universe[i])
			}
		}
		s.byKey[c.Key] = len(s.criteria)
		s.criteria = append(s.criteria, Criterion{Key: c.Key, Label: c.Label, Members: members})
		s.member = append(s.member, row)
	}
	return s, nil
}

// Universe returns U in natural order.
func (s *SoftSet) Universe() []string {
	return append([]string(nil), s.universe...)
}

// Size returns |U|.
func (s *SoftSet) Size() int { return len(s.universe) }

// CriterionCount returns m, the number of criteria (empty ones included).
func (s *SoftSet) CriterionCount() int { return len(s.criteria) }

// NonEmptyCount returns the number of criteria with at least one member.
func (s *SoftSet) NonEmptyCount() int {
	n := 0
	for _, c := range s.criteria {
		if !c.Empty() {
			n++
		}
	}
	return n
}

// Criteria returns a copy of the criteria in key order.
func (s *SoftSet) Criteria() []Criterion {
	out := make([]Criterion, len(s.criteria))
	for i, c := range s.criteria {
		out[i] = Criterion{Key: c.Key, Label: c.Label, Members: slices.Clone(c.Members)}
	}
	return out
}

// Keys returns the criterion keys in order.
func (s *SoftSet) Keys() []string {
	keys := make([]string, len(s.criteria))
	for i, c := range s.criteria {
		keys[i] = c.Key
	}
	return keys
}

// Criterion looks up a criterion by key.
func (s *SoftSet) Criterion(key string) (Criterion, bool) {
	i, ok := s.byKey[key]
	if !ok {
		return Criterion{}, false
	}
	c := s.criteria[i]
	return Criterion{Key: c.Key, Label: c.Label, Members: slices.Clone(c.Members)}, true
}

// Contains reports u ∈ Φ(key).
func (s *SoftSet) Contains(key, u string) bool {
	ci, ok := s.byKey[key]
	if !ok {
		return false
	}
	ui, ok := s.index[u]
	if !ok {
		return false
	}
	return s.member[ci][ui]
}

// CriterionIndex returns the position of key in criterion order.
func (s *SoftSet) CriterionIndex(key string) (int, bool) {
	i, ok := s.byKey[key]
	return i, ok
}

// CandidateIndex returns the position of u in U.
func (s *SoftSet) CandidateIndex(u string) (int, bool) {
	i, ok := s.index[u]
	return i, ok
}

// Member is the index-based membership test used by the delta engine.
func (s *SoftSet) Member(criterion, candidate int) bool {
	return s.member[criterion][candidate]
}

// Filter returns a soft set keeping only criteria with at least minSize
// members. minSize <= 0 returns s unchanged.
func (s *SoftSet) Filter(minSize int) *SoftSet {
	if minSize <= 0 {
		return s
	}
	kept := make([]Criterion, 0, len(s.criteria))
	for _, c := range s.criteria {
		if c.Size() >= minSize {
			kept = append(kept, c)
		}
	}
	// members already validated against the same universe
	out, err := New(s.universe, kept)
	if err != nil {
		panic(fmt.Sprintf("softset: filter produced invalid set: %v", err))
	}
	return out
}
