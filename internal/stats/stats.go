package stats

import "time"

// Summary is the admin dashboard rollup. Every figure is computed at
// read time against the reference instant.
type Summary struct {
	PendingRequests int64     `json:"pending_requests"`
	ActiveGrants    int64     `json:"active_grants"`
	ExpiringSoon    int64     `json:"expiring_soon"`
	LiveBookings    int64     `json:"live_bookings"`
	GeneratedAt     time.Time `json:"generated_at"`
}
