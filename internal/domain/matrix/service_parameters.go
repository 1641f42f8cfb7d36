package matrix

import (
	"context"
	"fmt"
	"strings"
)

func (s *Service) ListParameters(ctx context.Context, orgID string, filter ParameterFilter) ([]Parameter, error) {
	params, err := s.catalog(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return FilterParameters(params, filter), nil
}

func (s *Service) ParameterCategories(ctx context.Context, orgID, status string) ([]CategoryCount, error) {
	params, err := s.catalog(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return Categories(params, status), nil
}

func (s *Service) GetParameter(ctx context.Context, orgID, parameterID string) (Parameter, error) {
	return s.store.GetParameter(ctx, orgID, parameterID)
}

func (s *Service) CreateParameter(ctx context.Context, orgID string, input ParameterInput) (Parameter, error) {
	input, err := normalizeParameter(input)
	if err != nil {
		return Parameter{}, err
	}
	id, err := s.store.CreateParameter(ctx, orgID, input)
	if err != nil {
		return Parameter{}, err
	}
	s.invalidateCatalog(ctx, orgID)
	return s.store.GetParameter(ctx, orgID, id)
}

func (s *Service) UpdateParameter(ctx context.Context, orgID, parameterID string, input ParameterInput) (Parameter, error) {
	input, err := normalizeParameter(input)
	if err != nil {
		return Parameter{}, err
	}
	if err = s.store.UpdateParameter(ctx, orgID, parameterID, input); err != nil {
		return Parameter{}, err
	}
	s.invalidateCatalog(ctx, orgID)
	return s.store.GetParameter(ctx, orgID, parameterID)
}

// SetParameterStatus archives or restores a library entry. Archived
// parameters stay valid inside matrices that already use them but cannot
// be added to new ones.
func (s *Service) SetParameterStatus(ctx context.Context, orgID, parameterID, status string) (Parameter, error) {
	if status != ParameterStatusActive && status != ParameterStatusInactive {
		return Parameter{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := s.store.SetParameterStatus(ctx, orgID, parameterID, status); err != nil {
		return Parameter{}, err
	}
	s.invalidateCatalog(ctx, orgID)
	return s.store.GetParameter(ctx, orgID, parameterID)
}

// DeleteParameter removes a library entry that no matrix references.
// Referenced parameters must be archived instead.
func (s *Service) DeleteParameter(ctx context.Context, orgID, parameterID string) error {
	if _, err := s.store.GetParameter(ctx, orgID, parameterID); err != nil {
		return err
	}
	referenced, err := s.store.ParameterReferenced(ctx, orgID, parameterID)
	if err != nil {
		return err
	}
	if referenced {
		return ErrParameterInUse
	}
	if err := s.store.DeleteParameter(ctx, orgID, parameterID); err != nil {
		return err
	}
	s.invalidateCatalog(ctx, orgID)
	return nil
}

func normalizeParameter(input ParameterInput) (ParameterInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return input, ErrNameRequired
	}
	input.Category = strings.TrimSpace(input.Category)
	if input.Category == "" {
		input.Category = DefaultCategory
	}
	return input, nil
}
