package user

import (
	"errors"
	"strings"
)

type UpdateNameDTO struct {
	Name string `json:"name"`
}

func (dto UpdateNameDTO) Validate() error {
	if len(strings.TrimSpace(dto.Name)) < 2 {
		return errors.New("name must be at least 2 characters")
	}
	return nil
}
