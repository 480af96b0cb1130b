package request

import "errors"

type CreateRequestDTO struct {
	ResourceID    string `json:"resource_id"`
	Justification string `json:"justification"`
	DurationHours *int   `json:"duration_hours,omitempty"`
}

func (dto CreateRequestDTO) Validate() error {
	if dto.ResourceID == "" {
		return errors.New("resource_id is required")
	}
	if len(dto.Justification) < 6 {
		return errors.New("justification must be at least 6 characters")
	}
	if dto.DurationHours != nil && *dto.DurationHours <= 0 {
		return errors.New("duration_hours must be positive")
	}
	return nil
}

type DecideRequestDTO struct {
	Approve      bool    `json:"approve"`
	DecisionNote *string `json:"decision_note,omitempty"`
}
