package catalog

import "log/slog"

type Service struct {
	resources []Resource
	logger    *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	return &Service{
		resources: Resources,
		logger:    logger,
	}
}

// ListForRole returns the resources visible to the given requester role.
func (s *Service) ListForRole(role string) []Resource {
	out := make([]Resource, 0, len(s.resources))
	for _, r := range s.resources {
		if r.VisibleTo(role) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Service) GetByID(resourceID string) (*Resource, error) {
	for i := range s.resources {
		if s.resources[i].ID == resourceID {
			return &s.resources[i], nil
		}
	}
	return nil, ErrResourceNotFound
}
