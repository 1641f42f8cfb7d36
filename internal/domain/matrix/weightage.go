package matrix

import (
	"errors"
	"fmt"
	"sort"
)

// FullWeightage is the total an active matrix must reach.
const FullWeightage = 100

var (
	ErrWeightageExceeded   = errors.New("total weightage exceeds 100")
	ErrWeightageIncomplete = errors.New("total weightage must equal 100")
	ErrWeightageOutOfRange = errors.New("weightage must be between 0 and 100")
	ErrDuplicateParameter  = errors.New("parameter appears more than once")
)

// Weight is one parameter's share of a matrix, in integer percentage points.
type Weight struct {
	ParameterID string `json:"parameterId"`
	Weightage   int    `json:"weightage"`
}

func Total(weights []Weight) int {
	total := 0
	for _, w := range weights {
		total += w.Weightage
	}
	return total
}

// ProposeChange returns the total that would result from setting
// parameterID to newWeightage. A parameter not yet in weights counts as 0,
// so the same check covers adding a parameter. The change is rejected when
// the new total passes 100.
func ProposeChange(weights []Weight, parameterID string, newWeightage int) (int, error) {
	if newWeightage < 0 || newWeightage > FullWeightage {
		return 0, ErrWeightageOutOfRange
	}
	old := 0
	for _, w := range weights {
		if w.ParameterID == parameterID {
			old = w.Weightage
			break
		}
	}
	newTotal := Total(weights) - old + newWeightage
	if newTotal > FullWeightage {
		return newTotal, fmt.Errorf("%w: %d", ErrWeightageExceeded, newTotal)
	}
	return newTotal, nil
}

// ApplyChange is ProposeChange followed by the update itself. The input is
// not modified.
func ApplyChange(weights []Weight, parameterID string, newWeightage int) ([]Weight, error) {
	if _, err := ProposeChange(weights, parameterID, newWeightage); err != nil {
		return nil, err
	}
	out := make([]Weight, 0, len(weights)+1)
	found := false
	for _, w := range weights {
		if w.ParameterID == parameterID {
			w.Weightage = newWeightage
			found = true
		}
		out = append(out, w)
	}
	if !found {
		out = append(out, Weight{ParameterID: parameterID, Weightage: newWeightage})
	}
	return out, nil
}

// CheckDraft accepts any well-formed list whose total is at most 100.
func CheckDraft(weights []Weight) error {
	seen := make(map[string]struct{}, len(weights))
	for _, w := range weights {
		if w.Weightage < 0 || w.Weightage > FullWeightage {
			return fmt.Errorf("%w: %s=%d", ErrWeightageOutOfRange, w.ParameterID, w.Weightage)
		}
		if _, dup := seen[w.ParameterID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateParameter, w.ParameterID)
		}
		seen[w.ParameterID] = struct{}{}
	}
	if total := Total(weights); total > FullWeightage {
		return fmt.Errorf("%w: %d", ErrWeightageExceeded, total)
	}
	return nil
}

// CheckActive additionally requires the total to be exactly 100.
func CheckActive(weights []Weight) error {
	if err := CheckDraft(weights); err != nil {
		return err
	}
	if total := Total(weights); total != FullWeightage {
		return fmt.Errorf("%w: got %d", ErrWeightageIncomplete, total)
	}
	return nil
}

// RescaleTo100 redistributes weights proportionally so they sum to exactly
// 100 using the largest-remainder method. Floors of the exact shares are
// handed out first; the shortfall goes one point at a time to the largest
// fractional remainders, ties resolved by input order. A zero total yields
// all zeros. Shares are computed in integers, so there is no float drift.
func RescaleTo100(weights []Weight) []Weight {
	out := make([]Weight, len(weights))
	copy(out, weights)
	if len(out) == 0 {
		return out
	}

	total := 0
	for _, w := range out {
		if w.Weightage > 0 {
			total += w.Weightage
		}
	}
	if total == 0 {
		for i := range out {
			out[i].Weightage = 0
		}
		return out
	}

	type share struct {
		index     int
		remainder int
	}
	shares := make([]share, len(out))
	allocated := 0
	for i, w := range out {
		scaled := max(w.Weightage, 0) * FullWeightage
		out[i].Weightage = scaled / total
		allocated += out[i].Weightage
		shares[i] = share{index: i, remainder: scaled % total}
	}

	sort.SliceStable(shares, func(a, b int) bool {
		return shares[a].remainder > shares[b].remainder
	})
	for k := 0; k < FullWeightage-allocated; k++ {
		out[shares[k%len(shares)].index].Weightage++
	}
	return out
}

// RemoveAndRescale drops parameterID and rescales the remainder when the
// list summed to 100 beforehand; otherwise the remaining weights are kept
// as they are. The bool reports whether a rescale happened.
func RemoveAndRescale(weights []Weight, parameterID string) ([]Weight, bool) {
	wasFull := Total(weights) == FullWeightage
	remaining := make([]Weight, 0, len(weights))
	for _, w := range weights {
		if w.ParameterID != parameterID {
			remaining = append(remaining, w)
		}
	}
	if !wasFull || len(remaining) == len(weights) || len(remaining) == 0 {
		return remaining, false
	}
	return RescaleTo100(remaining), true
}
