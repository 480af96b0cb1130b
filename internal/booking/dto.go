package booking

import "time"

type CreateBookingDTO struct {
	EnvID           string `json:"env_id"`
	DurationMinutes int    `json:"duration_minutes"`
	Justification   string `json:"justification"`
}

type ExtendBookingDTO struct {
	AddMinutes int `json:"add_minutes"`
}

// EnvironmentStatus is the dashboard view of one environment's
// availability at a reference instant.
type EnvironmentStatus struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	IsFreeNow           bool      `json:"is_free_now"`
	FreeAt              time.Time `json:"free_at"`
	AccessLevelRequired int       `json:"access_level_required"`
}
