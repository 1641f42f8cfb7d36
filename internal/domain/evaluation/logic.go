package evaluation

import (
	"fmt"
	"math"
	"strconv"
)

const (
	MinScore = 1
	MaxScore = 5
)

// CheckScores requires exactly one score in range for every parameter of
// the matrix and nothing else.
func CheckScores(params []ParameterWeight, scores []Score) error {
	known := make(map[string]struct{}, len(params))
	for _, p := range params {
		known[p.ParameterID] = struct{}{}
	}
	seen := make(map[string]struct{}, len(scores))
	for _, s := range scores {
		if _, ok := known[s.ParameterID]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownParameter, s.ParameterID)
		}
		if _, dup := seen[s.ParameterID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateScore, s.ParameterID)
		}
		if s.Score < MinScore || s.Score > MaxScore {
			return fmt.Errorf("%w: %s=%d", ErrScoreOutOfRange, s.ParameterID, s.Score)
		}
		seen[s.ParameterID] = struct{}{}
	}
	if len(seen) != len(known) {
		return fmt.Errorf("%w: %d of %d scored", ErrIncompleteScores, len(seen), len(known))
	}
	return nil
}

// WeightedScore is sum(score * weightage) / 100, rounded to two decimals.
// With an active matrix the result stays on the 1..5 scale.
func WeightedScore(params []ParameterWeight, scores []Score) float64 {
	byID := make(map[string]int, len(scores))
	for _, s := range scores {
		byID[s.ParameterID] = s.Score
	}
	total := 0
	for _, p := range params {
		total += byID[p.ParameterID] * p.Weightage
	}
	return round2(float64(total) / 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func buildSummary(cycleID string, assignments, employees int, scores []float64) Summary {
	summary := Summary{
		CycleID:      cycleID,
		Assignments:  assignments,
		Employees:    employees,
		Evaluated:    len(scores),
		Distribution: map[string]int{},
	}
	sum := 0.0
	for _, score := range scores {
		sum += score
		bucket := int(math.Round(score))
		bucket = min(max(bucket, MinScore), MaxScore)
		summary.Distribution[strconv.Itoa(bucket)]++
	}
	if len(scores) > 0 {
		summary.AverageScore = round2(sum / float64(len(scores)))
	}
	if employees > 0 {
		summary.CompletionRate = round2(float64(len(scores)) / float64(employees))
	}
	return summary
}
