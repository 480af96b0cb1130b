package auth

import (
	"errors"
	"strings"
)

type SignupDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (dto SignupDTO) Validate() error {
	if strings.TrimSpace(dto.Name) == "" {
		return errors.New("name is required")
	}
	if !strings.Contains(dto.Email, "@") {
		return errors.New("valid email is required")
	}
	if len(dto.Password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	switch dto.Role {
	case "developer", "qa", "admin":
	default:
		return errors.New("role must be one of developer, qa, admin")
	}
	return nil
}

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (dto LoginDTO) Validate() error {
	if !strings.Contains(dto.Email, "@") {
		return errors.New("valid email is required")
	}
	if dto.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

type SessionResponse struct {
	User *User `json:"user"`
}
