package evaluation

import (
	"math"

	"github.com/agusespa/diffscribe/internal/types"
)

// StatisticsCalculator handles all statistical calculations for evaluation results
type StatisticsCalculator struct{}

func NewStatisticsCalculator() *StatisticsCalculator {
	return &StatisticsCalculator{}
}

// CalculateRunSummary fills the run's confusion matrix and statistics from its results
func (s *StatisticsCalculator) CalculateRunSummary(r *types.EvaluationRun) {
	r.Confusion = types.ConfusionMatrix{}
	r.Stats = types.EvaluationStats{}
	if len(r.Results) == 0 {
		return
	}

	var scores, durations []float64
	var correct, degraded int
	for _, result := range r.Results {
		scores = append(scores, result.Score)
		durations = append(durations, float64(result.ExecutionTime.Microseconds())/1000)
		if result.Correct {
			correct++
		}
		if result.Verdict.Degraded {
			degraded++
		}

		expected, actual := result.TestCase.Expected.Impacted, result.Verdict.BusinessLogicImpacted
		switch {
		case expected && actual:
			r.Confusion.TruePositives++
		case !expected && actual:
			r.Confusion.FalsePositives++
		case !expected && !actual:
			r.Confusion.TrueNegatives++
		default:
			r.Confusion.FalseNegatives++
		}
	}

	total := float64(len(r.Results))
	c := r.Confusion
	precision := s.Ratio(c.TruePositives, c.TruePositives+c.FalsePositives)
	recall := s.Ratio(c.TruePositives, c.TruePositives+c.FalseNegatives)

	r.Stats = types.EvaluationStats{
		Accuracy:        float64(correct) / total,
		Precision:       precision,
		Recall:          recall,
		F1:              s.CalculateF1(precision, recall),
		AverageScore:    s.CalculateMean(scores),
		DegradedRate:    float64(degraded) / total,
		AverageDuration: s.CalculateMean(durations),
		DurationStdDev:  s.CalculateStdDev(durations),
		MinDuration:     s.CalculateMin(durations),
		MaxDuration:     s.CalculateMax(durations),
	}
}

// Ratio returns n/d, or 0 when d is 0
func (s *StatisticsCalculator) Ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func (s *StatisticsCalculator) CalculateF1(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

// Statistical helper functions
func (s *StatisticsCalculator) CalculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func (s *StatisticsCalculator) CalculateStdDev(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	mean := s.CalculateMean(values)
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return math.Sqrt(sumSquares / float64(len(values)-1))
}

func (s *StatisticsCalculator) CalculateMin(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

func (s *StatisticsCalculator) CalculateMax(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}
