package user

import (
	"log/slog"
	"strings"
)

type Repository interface {
	GetByID(userID int64) (*User, error)
	GetByEmail(email string) (*User, error)
	UpdateName(userID int64, name string) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetByID(userID int64) (*User, error) {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// LookupRequester resolves a user's display identity for admin views.
func (s *Service) LookupRequester(userID int64) (name, email string, err error) {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return "", "", err
	}
	return u.Name, u.Email, nil
}

// UpdateName renames the calling user. Only the owning user may rename
// themselves; the handler passes the authenticated caller's id.
func (s *Service) UpdateName(userID int64, dto UpdateNameDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Warn("name update rejected", "user_id", userID, "error", err)
		return nil, err
	}

	name := strings.TrimSpace(dto.Name)
	if err := s.repo.UpdateName(userID, name); err != nil {
		s.logger.Error("failed to update user name", "user_id", userID, "error", err)
		return nil, err
	}

	return s.repo.GetByID(userID)
}
