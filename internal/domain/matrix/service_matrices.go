package matrix

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

func (s *Service) ListMatrices(ctx context.Context, orgID, status string) ([]Matrix, error) {
	return s.store.ListMatrices(ctx, orgID, status)
}

func (s *Service) GetMatrix(ctx context.Context, orgID, matrixID string) (Matrix, error) {
	return s.store.GetMatrix(ctx, orgID, matrixID)
}

// CreateMatrix stores a new draft. The weights may be empty.
func (s *Service) CreateMatrix(ctx context.Context, orgID string, input MatrixInput) (Matrix, error) {
	if strings.TrimSpace(input.Name) == "" {
		return Matrix{}, ErrNameRequired
	}
	if err := s.checkWeights(ctx, orgID, input.Weights, nil, CheckDraft); err != nil {
		return Matrix{}, err
	}
	id, err := s.store.CreateMatrix(ctx, orgID, input)
	if err != nil {
		return Matrix{}, err
	}
	return s.store.GetMatrix(ctx, orgID, id)
}

// SaveDraft replaces the name and full parameter list of a draft matrix.
// Any total up to 100 is accepted.
func (s *Service) SaveDraft(ctx context.Context, orgID, matrixID string, input MatrixInput) (Matrix, error) {
	if strings.TrimSpace(input.Name) == "" {
		return Matrix{}, ErrNameRequired
	}
	current, err := s.editable(ctx, orgID, matrixID)
	if err != nil {
		return Matrix{}, err
	}
	if err := s.checkWeights(ctx, orgID, input.Weights, current.Weights(), CheckDraft); err != nil {
		return Matrix{}, err
	}
	if err := s.store.SaveMatrix(ctx, orgID, matrixID, StatusDraft, input); err != nil {
		return Matrix{}, err
	}
	return s.store.GetMatrix(ctx, orgID, matrixID)
}

// Activate saves the matrix and flips it to active. The total must be
// exactly 100. A nil input activates the stored draft as it is.
func (s *Service) Activate(ctx context.Context, orgID, matrixID string, input *MatrixInput) (Matrix, error) {
	current, err := s.editable(ctx, orgID, matrixID)
	if err != nil {
		return Matrix{}, err
	}
	next := MatrixInput{Name: current.Name, Description: current.Description, Weights: current.Weights()}
	if input != nil {
		next = *input
		if strings.TrimSpace(next.Name) == "" {
			next.Name = current.Name
		}
	}
	if err := s.checkWeights(ctx, orgID, next.Weights, current.Weights(), CheckActive); err != nil {
		return Matrix{}, err
	}
	if err := s.store.SaveMatrix(ctx, orgID, matrixID, StatusActive, next); err != nil {
		return Matrix{}, err
	}
	s.metrics.MatrixActivated()
	return s.store.GetMatrix(ctx, orgID, matrixID)
}

// ChangeWeightage sets one parameter's weightage on a draft, adding the
// parameter when it is not yet part of the matrix. The change is refused
// when the resulting total passes 100.
func (s *Service) ChangeWeightage(ctx context.Context, orgID, matrixID, parameterID string, weightage int) (Matrix, error) {
	current, err := s.editable(ctx, orgID, matrixID)
	if err != nil {
		return Matrix{}, err
	}
	next, err := ApplyChange(current.Weights(), parameterID, weightage)
	if err != nil {
		s.rejected(err)
		return Matrix{}, err
	}
	if err := s.checkWeights(ctx, orgID, next, current.Weights(), CheckDraft); err != nil {
		return Matrix{}, err
	}
	input := MatrixInput{Name: current.Name, Description: current.Description, Weights: next}
	if err := s.store.SaveMatrix(ctx, orgID, matrixID, StatusDraft, input); err != nil {
		return Matrix{}, err
	}
	return s.store.GetMatrix(ctx, orgID, matrixID)
}

// RemoveParameter drops a parameter from a draft. When the draft summed to
// 100 beforehand the remaining weightages are rescaled back to 100.
func (s *Service) RemoveParameter(ctx context.Context, orgID, matrixID, parameterID string) (Matrix, bool, error) {
	current, err := s.editable(ctx, orgID, matrixID)
	if err != nil {
		return Matrix{}, false, err
	}
	weights := current.Weights()
	next, rescaled := RemoveAndRescale(weights, parameterID)
	if len(next) == len(weights) {
		return Matrix{}, false, ErrParameterNotInMatrix
	}
	input := MatrixInput{Name: current.Name, Description: current.Description, Weights: next}
	if err := s.store.SaveMatrix(ctx, orgID, matrixID, StatusDraft, input); err != nil {
		return Matrix{}, false, err
	}
	if rescaled {
		s.metrics.Rescaled()
	}
	updated, err := s.store.GetMatrix(ctx, orgID, matrixID)
	return updated, rescaled, err
}

// DeleteMatrix removes a draft that no cycle refers to.
func (s *Service) DeleteMatrix(ctx context.Context, orgID, matrixID string) error {
	if _, err := s.editable(ctx, orgID, matrixID); err != nil {
		return err
	}
	assigned, err := s.store.MatrixAssigned(ctx, orgID, matrixID)
	if err != nil {
		return err
	}
	if assigned {
		return ErrMatrixInUse
	}
	return s.store.DeleteMatrix(ctx, orgID, matrixID)
}

// Clone copies any matrix, active or not, into a new draft.
func (s *Service) Clone(ctx context.Context, orgID, matrixID, name string) (Matrix, error) {
	source, err := s.store.GetMatrix(ctx, orgID, matrixID)
	if err != nil {
		return Matrix{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = source.Name + " (copy)"
	}
	id, err := s.store.CreateMatrix(ctx, orgID, MatrixInput{Name: name, Description: source.Description, Weights: source.Weights()})
	if err != nil {
		return Matrix{}, err
	}
	return s.store.GetMatrix(ctx, orgID, id)
}

// RescalePreview validates a weight list and returns its rescaled form
// without touching storage.
func (s *Service) RescalePreview(weights []Weight) ([]Weight, error) {
	for _, w := range weights {
		if w.Weightage < 0 || w.Weightage > FullWeightage {
			return nil, fmt.Errorf("%w: %s=%d", ErrWeightageOutOfRange, w.ParameterID, w.Weightage)
		}
	}
	seen := map[string]struct{}{}
	for _, w := range weights {
		if _, dup := seen[w.ParameterID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateParameter, w.ParameterID)
		}
		seen[w.ParameterID] = struct{}{}
	}
	out := RescaleTo100(weights)
	s.metrics.Rescaled()
	return out, nil
}

// editable loads a matrix and refuses it once it is active or used by an
// active cycle.
func (s *Service) editable(ctx context.Context, orgID, matrixID string) (Matrix, error) {
	current, err := s.store.GetMatrix(ctx, orgID, matrixID)
	if err != nil {
		return Matrix{}, err
	}
	if current.IsActive() {
		return Matrix{}, fmt.Errorf("%w: matrix is active", ErrMatrixLocked)
	}
	inUse, err := s.store.MatrixInActiveCycle(ctx, orgID, matrixID)
	if err != nil {
		return Matrix{}, err
	}
	if inUse {
		return Matrix{}, fmt.Errorf("%w: matrix is used by an active cycle", ErrMatrixLocked)
	}
	return current, nil
}

// checkWeights runs the weightage rule and verifies every parameter exists
// in the organization. Parameters not already present in previous must also
// be active.
func (s *Service) checkWeights(ctx context.Context, orgID string, weights, previous []Weight, rule func([]Weight) error) error {
	if err := rule(weights); err != nil {
		s.rejected(err)
		return err
	}
	if len(weights) == 0 {
		return nil
	}
	params, err := s.catalog(ctx, orgID)
	if err != nil {
		return err
	}
	byID := make(map[string]Parameter, len(params))
	for _, p := range params {
		byID[p.ID] = p
	}
	kept := make(map[string]struct{}, len(previous))
	for _, w := range previous {
		kept[w.ParameterID] = struct{}{}
	}
	for _, w := range weights {
		p, ok := byID[w.ParameterID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownParameter, w.ParameterID)
		}
		if _, already := kept[w.ParameterID]; !already && p.Status != ParameterStatusActive {
			return fmt.Errorf("%w: %s", ErrInactiveParameter, p.Name)
		}
	}
	return nil
}

func (s *Service) rejected(err error) {
	switch {
	case errors.Is(err, ErrWeightageExceeded):
		s.metrics.WeightageRejected("exceeded")
	case errors.Is(err, ErrWeightageIncomplete):
		s.metrics.WeightageRejected("incomplete")
	case errors.Is(err, ErrWeightageOutOfRange):
		s.metrics.WeightageRejected("out_of_range")
	case errors.Is(err, ErrDuplicateParameter):
		s.metrics.WeightageRejected("duplicate")
	}
}
