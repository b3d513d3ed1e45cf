package run

import (
	"math/big"

	"rmvc/domain/core"
	"rmvc/domain/rmvc"
)

// Params are the analysis parameters that, together with (U, Φ), determine
// a run's output.
type Params struct {
	Orientation      string `json:"orientation"`
	MinCriterionSize int    `json:"min_criterion_size"`
	// Threshold is the cut that derived this run's soft set from its parent,
	// in exact form. Empty for runs built straight from a table.
	Threshold string `json:"threshold,omitempty"`
}

// Record is one immutable entry of the iteration history.
type Record struct {
	ID          core.RunID     `json:"id"`
	Iteration   int            `json:"iteration"`
	Parent      core.RunID     `json:"parent,omitempty"`
	Source      string         `json:"source"`
	Params      Params         `json:"params"`
	Fingerprint core.Hash      `json:"fingerprint"`
	Result      *rmvc.Result   `json:"-"`
	CreatedAt   core.Timestamp `json:"created_at"`
}

// NewRecord wraps an analysis result. parent is nil for the first run of a
// chain.
func NewRecord(source string, params Params, res *rmvc.Result, parent *Record) *Record {
	rec := &Record{
		ID:          core.NewRunID(),
		Source:      source,
		Params:      params,
		Fingerprint: Fingerprint(res, params),
		Result:      res,
		CreatedAt:   core.Now(),
	}
	if parent != nil {
		rec.Iteration = parent.Iteration + 1
		rec.Parent = parent.ID
	}
	return rec
}

// Optimal returns the record's optimal choices and their score.
func (r *Record) Optimal() ([]string, *big.Rat) {
	return r.Result.Optimal()
}

// Validate checks that the record is complete.
func (r *Record) Validate() error {
	if core.ID(r.ID).IsEmpty() {
		return core.NewValidationError("run", "id cannot be empty")
	}
	if r.Result == nil {
		return core.NewValidationError("run", "result cannot be nil")
	}
	if r.CreatedAt.IsZero() {
		return core.NewValidationError("run", "created_at cannot be zero")
	}
	if r.Fingerprint.IsEmpty() {
		return core.NewValidationError("run", "fingerprint cannot be empty")
	}
	if r.Iteration > 0 && core.ID(r.Parent).IsEmpty() {
		return core.NewValidationError("run", "iterated run must name its parent")
	}
	return nil
}
