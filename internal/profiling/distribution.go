package profiling

import (
	"math"

	"github.com/montanaflynn/stats"

	"rmvc/domain/rmvc"
)

// Summary holds the descriptive statistics of one sample
type Summary struct {
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	Q25      float64 `json:"q25"`
	Q75      float64 `json:"q75"`
	Skewness float64 `json:"skewness"`
}

// Summarize computes summary statistics; an empty sample is an error.
func Summarize(data []float64) (Summary, error) {
	summary := Summary{Count: len(data)}

	mean, err := stats.Mean(data)
	if err != nil {
		return summary, err
	}
	stdDev, err := stats.StandardDeviation(data)
	if err != nil {
		return summary, err
	}
	min, err := stats.Min(data)
	if err != nil {
		return summary, err
	}
	max, err := stats.Max(data)
	if err != nil {
		return summary, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return summary, err
	}
	q25, err := stats.PercentileNearestRank(data, 25)
	if err != nil {
		return summary, err
	}
	q75, err := stats.PercentileNearestRank(data, 75)
	if err != nil {
		return summary, err
	}

	summary.Mean = mean
	summary.StdDev = stdDev
	summary.Min = min
	summary.Max = max
	summary.Median = median
	summary.Q25 = q25
	summary.Q75 = q75
	summary.Skewness = calculateSkewness(data, mean, stdDev)
	return summary, nil
}

func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumCubedDeviations := 0.0
	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumCubedDeviations += deviation * deviation * deviation
	}

	// Adjusted Fisher-Pearson coefficient
	skewness := sumCubedDeviations / n
	return skewness * math.Sqrt(n*(n-1)) / (n - 2)
}

// ScoreProfile describes the shape of an analysis result
type ScoreProfile struct {
	Scores         Summary `json:"scores"`
	CriterionSizes Summary `json:"criterion_sizes"`
	// Gap is the distance between the best score and the best score outside
	// the optimal set; 0 when every candidate is optimal.
	Gap float64 `json:"gap"`
	// Density is the share of (criterion, candidate) pairs that are members.
	Density float64 `json:"density"`
}

// ProfileResult summarizes the display scores and the criterion sizes.
func ProfileResult(res *rmvc.Result) (ScoreProfile, error) {
	var profile ScoreProfile

	scores := make([]float64, len(res.Ranking))
	for i, rc := range res.Ranking {
		scores[i] = rmvc.Approx(rc.Score)
	}
	summary, err := Summarize(scores)
	if err != nil {
		return profile, err
	}
	profile.Scores = summary

	criteria := res.Set.Criteria()
	sizes := make([]float64, len(criteria))
	members := 0
	for i, c := range criteria {
		sizes[i] = float64(c.Size())
		members += c.Size()
	}
	if profile.CriterionSizes, err = Summarize(sizes); err != nil {
		return profile, err
	}
	if cells := len(criteria) * res.Set.Size(); cells > 0 {
		profile.Density = float64(members) / float64(cells)
	}

	for _, rc := range res.Ranking {
		if !rc.Optimal {
			profile.Gap = scores[0] - rmvc.Approx(rc.Score)
			break
		}
	}
	return profile, nil
}
