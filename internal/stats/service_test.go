package stats_test

import (
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/accendhq/accend/internal/request"
	"github.com/accendhq/accend/internal/stats"
)

func TestStatsService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Stats Service Suite")
}

type mockRequestStore struct {
	pending  int64
	approved []*request.Request
}

func (m *mockRequestStore) CountByStatus(status string) (int64, error) {
	if status == request.StatusPending {
		return m.pending, nil
	}
	return 0, nil
}

func (m *mockRequestStore) CountActiveGrants(now time.Time) (int64, error) {
	var n int64
	for _, req := range m.approved {
		if req.IsActiveAt(now) {
			n++
		}
	}
	return n, nil
}

func (m *mockRequestStore) CountExpiringGrants(now time.Time) (int64, error) {
	var n int64
	for _, req := range m.approved {
		if req.IsExpiringAt(now) {
			n++
		}
	}
	return n, nil
}

type mockBookingStore struct {
	live int64
}

func (m *mockBookingStore) CountLive(now time.Time) (int64, error) {
	return m.live, nil
}

var _ = Describe("StatsService", func() {
	var (
		service  *stats.Service
		requests *mockRequestStore
		bookings *mockBookingStore
		now      time.Time
	)

	BeforeEach(func() {
		now = time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
		requests = &mockRequestStore{}
		bookings = &mockBookingStore{}
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = stats.NewService(requests, bookings, prometheus.NewRegistry(), lg)
	})

	approvedReq := func(expiresIn *time.Duration) *request.Request {
		req := &request.Request{
			ID:     "r1",
			Status: request.StatusApproved,
		}
		if expiresIn != nil {
			exp := now.Add(*expiresIn)
			req.ExpiresAt = &exp
		}
		return req
	}

	dur := func(d time.Duration) *time.Duration { return &d }

	Describe("Summary", func() {
		It("requires admin", func() {
			_, err := service.Summary(false, now)
			Expect(err).To(MatchError(stats.ErrForbidden))
		})

		It("rolls up pending, active, expiring and live figures", func() {
			requests.pending = 3
			bookings.live = 2
			requests.approved = []*request.Request{
				approvedReq(nil),                     // open-ended grant
				approvedReq(dur(48 * time.Hour)),     // active, expiring soon
				approvedReq(dur(30 * 24 * time.Hour)), // active, not expiring
				approvedReq(dur(-time.Hour)),         // already lapsed
			}

			summary, err := service.Summary(true, now)
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.PendingRequests).To(Equal(int64(3)))
			Expect(summary.LiveBookings).To(Equal(int64(2)))
			Expect(summary.ActiveGrants).To(Equal(int64(3)))
			Expect(summary.ExpiringSoon).To(Equal(int64(1)))
			Expect(summary.GeneratedAt).To(Equal(now))
		})
	})
})
