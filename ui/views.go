package ui

import (
	"rmvc/domain/core"
	"rmvc/domain/dataset"
	"rmvc/domain/rmvc"
	"rmvc/domain/run"
)

// RankingEntry is one ranking row in API responses
type RankingEntry struct {
	Rank         int    `json:"rank"`
	Candidate    string `json:"candidate"`
	Score        string `json:"score"`
	ScoreDecimal string `json:"score_decimal"`
	Optimal      bool   `json:"optimal"`
}

// CriterionEntry describes one criterion and its normalizer
type CriterionEntry struct {
	Key     string   `json:"key"`
	Label   string   `json:"label,omitempty"`
	Size    int      `json:"size"`
	Gamma   int64    `json:"gamma"`
	Members []string `json:"members"`
}

// RunSummary is the list view of a run
type RunSummary struct {
	ID               core.RunID     `json:"id"`
	Iteration        int            `json:"iteration"`
	Parent           core.RunID     `json:"parent,omitempty"`
	Source           string         `json:"source"`
	Params           run.Params     `json:"params"`
	Fingerprint      core.Hash      `json:"fingerprint"`
	Candidates       int            `json:"candidates"`
	Criteria         int            `json:"criteria"`
	Optimal          []string       `json:"optimal"`
	BestScore        string         `json:"best_score"`
	BestScoreDecimal string         `json:"best_score_decimal"`
	CreatedAt        core.Timestamp `json:"created_at"`
}

// RunDetail is the full view of a run
type RunDetail struct {
	RunSummary
	Ranking         []RankingEntry      `json:"ranking"`
	CriteriaDetail  []CriterionEntry    `json:"criteria_detail"`
	Issues          []dataset.CellIssue `json:"issues,omitempty"`
	DroppedCriteria []string            `json:"dropped_criteria,omitempty"`
}

func summarize(rec *run.Record, precision int) RunSummary {
	res := rec.Result
	optimal, best := res.Optimal()
	return RunSummary{
		ID:               rec.ID,
		Iteration:        rec.Iteration,
		Parent:           rec.Parent,
		Source:           rec.Source,
		Params:           rec.Params,
		Fingerprint:      rec.Fingerprint,
		Candidates:       res.Set.Size(),
		Criteria:         res.Set.CriterionCount(),
		Optimal:          optimal,
		BestScore:        rmvc.FormatExact(best),
		BestScoreDecimal: rmvc.FormatRat(best, precision),
		CreatedAt:        rec.CreatedAt,
	}
}

func detail(rec *run.Record, issues []dataset.CellIssue, dropped []string, precision int) RunDetail {
	res := rec.Result
	d := RunDetail{
		RunSummary:      summarize(rec, precision),
		Ranking:         rankingEntries(res.Ranking, precision),
		Issues:          issues,
		DroppedCriteria: dropped,
	}
	for _, c := range res.Set.Criteria() {
		gamma, _ := res.Matrix.Gamma(c.Key)
		d.CriteriaDetail = append(d.CriteriaDetail, CriterionEntry{
			Key:     c.Key,
			Label:   c.Label,
			Size:    c.Size(),
			Gamma:   gamma,
			Members: c.Members,
		})
	}
	return d
}

func rankingEntries(r rmvc.Ranking, precision int) []RankingEntry {
	out := make([]RankingEntry, len(r))
	for i, rc := range r {
		out[i] = RankingEntry{
			Rank:         rc.Rank,
			Candidate:    rc.Candidate,
			Score:        rmvc.FormatExact(rc.Score),
			ScoreDecimal: rmvc.FormatRat(rc.Score, precision),
			Optimal:      rc.Optimal,
		}
	}
	return out
}

// CandidateMembership is M(u, e) for one criterion
type CandidateMembership struct {
	Criterion    string `json:"criterion"`
	Label        string `json:"label,omitempty"`
	Member       bool   `json:"member"`
	Delta        *int   `json:"delta,omitempty"`
	Gamma        int64  `json:"gamma"`
	Value        string `json:"value"`
	ValueDecimal string `json:"value_decimal"`
}

// CandidateView is the per-candidate detail
type CandidateView struct {
	Candidate    string                `json:"candidate"`
	Rank         int                   `json:"rank"`
	Of           int                   `json:"of"`
	Percentile   float64               `json:"percentile"`
	Score        string                `json:"score"`
	ScoreDecimal string                `json:"score_decimal"`
	Optimal      bool                  `json:"optimal"`
	Memberships  []CandidateMembership `json:"memberships"`
}

func candidateView(d *rmvc.CandidateDetail, precision int) CandidateView {
	v := CandidateView{
		Candidate:    d.Candidate,
		Rank:         d.Rank,
		Of:           d.Of,
		Percentile:   d.Percentile,
		Score:        rmvc.FormatExact(d.Score),
		ScoreDecimal: rmvc.FormatRat(d.Score, precision),
		Optimal:      d.Optimal,
	}
	for _, e := range d.Entries {
		m := CandidateMembership{
			Criterion:    e.Criterion,
			Label:        e.Label,
			Member:       e.Member,
			Gamma:        e.Gamma,
			Value:        rmvc.FormatExact(e.Value),
			ValueDecimal: rmvc.FormatRat(e.Value, precision),
		}
		if !e.Member {
			delta := e.Delta
			m.Delta = &delta
		}
		v.Memberships = append(v.Memberships, m)
	}
	return v
}
