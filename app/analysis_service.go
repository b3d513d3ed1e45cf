package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"rmvc/domain/core"
	"rmvc/domain/dataset"
	"rmvc/domain/rmvc"
	"rmvc/domain/run"
	"rmvc/domain/softset"
	apperrors "rmvc/internal/errors"
	"rmvc/ports"
)

// AnalysisService runs the ingest, build, analyze pipeline and the
// threshold iterations on top of it.
type AnalysisService struct {
	logger  *slog.Logger
	workers int
}

// AnalysisRequest defines the inputs of one analysis
type AnalysisRequest struct {
	Source  string // display name of the table
	Reader  ports.TableReader
	Options softset.BuildOptions
}

// AnalysisResult contains the complete output of an analysis
type AnalysisResult struct {
	Record          *run.Record         `json:"run"`
	Issues          []dataset.CellIssue `json:"issues,omitempty"`
	DroppedCriteria []string            `json:"dropped_criteria,omitempty"`
	RuntimeMs       int64               `json:"runtime_ms"`
}

// NewAnalysisService creates an analysis service. workers <= 1 builds the
// matrix sequentially.
func NewAnalysisService(logger *slog.Logger, workers int) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{logger: logger, workers: workers}
}

// Analyze reads the table and runs the full analysis.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	tbl, err := req.Reader.ReadTable(ctx)
	if err != nil {
		return nil, s.readError(req.Source, err)
	}
	return s.AnalyzeTable(ctx, req.Source, tbl, req.Options)
}

// AnalyzeTable runs the analysis over an already loaded table.
func (s *AnalysisService) AnalyzeTable(ctx context.Context, source string, tbl *dataset.Table, opts softset.BuildOptions) (*AnalysisResult, error) {
	startTime := time.Now()
	log := s.logger.With("source", source)

	set, err := softset.Build(tbl, opts)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.FromDomain(err), "cannot build soft set from %s", source)
	}
	dropped := droppedCriteria(tbl, opts, set)
	if len(dropped) > 0 {
		log.Info("criteria below minimum size dropped", "min_size", opts.MinCriterionSize, "dropped", len(dropped))
	}

	res, err := s.run(ctx, set)
	if err != nil {
		log.Warn("analysis not possible", "error", err)
		return nil, err
	}

	params := run.Params{Orientation: string(orientationOf(opts)), MinCriterionSize: opts.MinCriterionSize}
	record := run.NewRecord(source, params, res, nil)
	optimal, best := res.Optimal()
	log.Info("analysis complete",
		"run_id", record.ID,
		"candidates", set.Size(),
		"criteria", set.CriterionCount(),
		"optimal", optimal,
		"best", rmvc.FormatExact(best),
		"fingerprint", record.Fingerprint.Short(),
		"runtime_ms", time.Since(startTime).Milliseconds())

	return &AnalysisResult{
		Record:          record,
		Issues:          tbl.Issues,
		DroppedCriteria: dropped,
		RuntimeMs:       time.Since(startTime).Milliseconds(),
	}, nil
}

// Iterate derives Φ'(e) = {u : M(u, e) ≥ cut} from parent and analyzes it.
func (s *AnalysisService) Iterate(ctx context.Context, parent *run.Record, cut *big.Rat) (*run.Record, error) {
	if parent == nil || parent.Result == nil {
		return nil, apperrors.InvalidInput("iteration needs an analyzed parent run")
	}
	set, err := parent.Result.Matrix.Threshold(cut)
	if err != nil {
		return nil, apperrors.FromDomain(err)
	}
	res, err := s.run(ctx, set)
	if err != nil {
		return nil, err
	}

	params := parent.Params
	params.Threshold = cut.RatString()
	record := run.NewRecord(parent.Source, params, res, parent)
	optimal, _ := record.Optimal()
	s.logger.Info("iteration complete",
		"run_id", record.ID,
		"parent", parent.ID,
		"iteration", record.Iteration,
		"threshold", params.Threshold,
		"optimal", optimal)
	return record, nil
}

// IterateRounds applies Iterate up to rounds times, appending every run to
// history. It stops early once the soft set no longer changes.
func (s *AnalysisService) IterateRounds(ctx context.Context, history *run.History, parent *run.Record, cut *big.Rat, rounds int) ([]*run.Record, error) {
	var out []*run.Record
	current := parent
	for i := 0; i < rounds; i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		next, err := s.Iterate(ctx, current, cut)
		if err != nil {
			return out, err
		}
		if err := history.Append(next); err != nil {
			return out, apperrors.FromDomain(err)
		}
		out = append(out, next)
		if sameSets(current.Result.Set, next.Result.Set) {
			s.logger.Debug("soft set reached a fixed point", "iteration", next.Iteration)
			break
		}
		current = next
	}
	return out, nil
}

func (s *AnalysisService) run(ctx context.Context, set *softset.SoftSet) (*rmvc.Result, error) {
	var (
		res *rmvc.Result
		err error
	)
	if s.workers > 1 {
		res, err = rmvc.AnalyzeConcurrent(ctx, set, s.workers)
	} else {
		res, err = rmvc.Analyze(set)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, apperrors.FromDomain(err)
	}
	return res, nil
}

func (s *AnalysisService) readError(source string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case core.IsStructuralError(err):
		return apperrors.Wrapf(apperrors.FromDomain(err), "invalid relation table %s", source)
	default:
		return apperrors.IOError(fmt.Sprintf("cannot read relation table %s", source), err)
	}
}

func orientationOf(opts softset.BuildOptions) dataset.Orientation {
	if opts.Orientation == "" {
		return dataset.RowsAreCandidates
	}
	return opts.Orientation
}

// droppedCriteria lists the keys Build assigned but filtered out.
func droppedCriteria(tbl *dataset.Table, opts softset.BuildOptions, set *softset.SoftSet) []string {
	total := tbl.Columns()
	if orientationOf(opts) == dataset.RowsAreCriteria {
		total = tbl.Rows()
	}
	var dropped []string
	for i := 0; i < total; i++ {
		key := softset.CriterionKey(i)
		if _, ok := set.CriterionIndex(key); !ok {
			dropped = append(dropped, key)
		}
	}
	return dropped
}

func sameSets(a, b *softset.SoftSet) bool {
	return run.SetFingerprint(a, run.Params{}) == run.SetFingerprint(b, run.Params{})
}
