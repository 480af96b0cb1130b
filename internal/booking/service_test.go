package booking_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/accendhq/accend/internal/booking"
)

func TestBookingService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Booking Service Suite")
}

// Mock repository for testing
type mockBookingRepository struct {
	bookings    map[string]*booking.Booking
	order       []string
	createError error
	getError    error
	updateError error
}

func newMockBookingRepository() *mockBookingRepository {
	return &mockBookingRepository{
		bookings: make(map[string]*booking.Booking),
	}
}

func (m *mockBookingRepository) liveForEnv(envID string, now time.Time) *booking.Booking {
	for _, b := range m.bookings {
		if b.EnvID == envID && b.IsLiveAt(now) {
			return b
		}
	}
	return nil
}

func (m *mockBookingRepository) liveForUser(userID int64, now time.Time) *booking.Booking {
	for _, b := range m.bookings {
		if b.UserID == userID && b.IsLiveAt(now) {
			return b
		}
	}
	return nil
}

func (m *mockBookingRepository) CreateLive(b *booking.Booking) error {
	if m.createError != nil {
		return m.createError
	}
	now := *b.StartedAt
	if live := m.liveForUser(b.UserID, now); live != nil {
		return booking.ErrUserHasActiveBooking
	}
	if live := m.liveForEnv(b.EnvID, now); live != nil {
		return &booking.NotFreeError{FreeAt: *live.EndsAt}
	}
	m.bookings[b.ID] = b
	m.order = append(m.order, b.ID)
	return nil
}

func (m *mockBookingRepository) GetByID(id string) (*booking.Booking, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	b, ok := m.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	return b, nil
}

func (m *mockBookingRepository) GetLiveForEnv(envID string, now time.Time) (*booking.Booking, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	return m.liveForEnv(envID, now), nil
}

func (m *mockBookingRepository) GetLiveForUser(userID int64, now time.Time) (*booking.Booking, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	return m.liveForUser(userID, now), nil
}

func (m *mockBookingRepository) GetByUserID(userID int64, limit, offset int) ([]*booking.Booking, error) {
	var out []*booking.Booking
	for _, id := range m.order {
		if m.bookings[id].UserID == userID {
			out = append(out, m.bookings[id])
		}
	}
	return out, nil
}

func (m *mockBookingRepository) GetAll(limit, offset int) ([]*booking.Booking, error) {
	var out []*booking.Booking
	for _, id := range m.order {
		out = append(out, m.bookings[id])
	}
	return out, nil
}

func (m *mockBookingRepository) Update(b *booking.Booking) error {
	if m.updateError != nil {
		return m.updateError
	}
	m.bookings[b.ID] = b
	return nil
}

func (m *mockBookingRepository) CountLive(now time.Time) (int64, error) {
	var count int64
	for _, b := range m.bookings {
		if b.IsLiveAt(now) {
			count++
		}
	}
	return count, nil
}

// Mock mirror recording ledger sync calls
type mockMirror struct {
	created  []string
	extended []string
	released []string
}

func (m *mockMirror) MirrorBookingCreated(bookingID, envID string, userID int64, justification string, createdAt, endsAt time.Time, durationMinutes int, approverID *int64, approverName *string) error {
	m.created = append(m.created, bookingID)
	return nil
}

func (m *mockMirror) MirrorBookingExtended(bookingID string, endsAt time.Time, addMinutes int) error {
	m.extended = append(m.extended, bookingID)
	return nil
}

func (m *mockMirror) MirrorBookingReleased(bookingID string, endsAt time.Time) error {
	m.released = append(m.released, bookingID)
	return nil
}

var _ = Describe("BookingService", func() {
	var (
		service  *booking.Service
		mockRepo *mockBookingRepository
		mirror   *mockMirror
		now      time.Time
	)

	const (
		devUserID   = int64(1)
		qaUserID    = int64(2)
		adminUserID = int64(3)
	)

	BeforeEach(func() {
		mockRepo = newMockBookingRepository()
		mirror = &mockMirror{}
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = booking.NewService(mockRepo, mirror, nil, lg)
		now = time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	})

	book := func(userID int64, isAdmin bool, level int, envID string, minutes int, at time.Time) (*booking.Booking, error) {
		return service.Create(userID, "Test User", isAdmin, level, booking.CreateBookingDTO{
			EnvID:           envID,
			DurationMinutes: minutes,
			Justification:   "deploy check",
		}, at)
	}

	Describe("Create", func() {
		It("books a free environment starting now", func() {
			b, err := book(devUserID, false, 3, "env_test", 30, now)

			Expect(err).ToNot(HaveOccurred())
			Expect(b.Status).To(Equal(booking.StatusApproved))
			Expect(b.EnvID).To(Equal("env_test"))
			Expect(*b.StartedAt).To(Equal(now))
			Expect(*b.EndsAt).To(Equal(now.Add(30 * time.Minute)))
			Expect(b.ExtensionMinutesTotal).To(Equal(0))
			Expect(mirror.created).To(ConsistOf(b.ID))
		})

		It("rejects a non-positive duration", func() {
			_, err := book(devUserID, false, 3, "env_test", 0, now)
			Expect(err).To(MatchError(booking.ErrInvalidDuration))

			_, err = book(devUserID, false, 3, "env_test", -15, now)
			Expect(err).To(MatchError(booking.ErrInvalidDuration))
		})

		It("rejects an unknown environment", func() {
			_, err := book(devUserID, false, 3, "env_prod", 30, now)
			Expect(err).To(MatchError(booking.ErrEnvNotFound))
		})

		It("rejects callers below the environment's access level", func() {
			_, err := book(qaUserID, false, 2, "env_staging", 30, now)
			Expect(err).To(MatchError(booking.ErrInsufficientAccess))
		})

		It("lets admins book regardless of access level", func() {
			b, err := book(adminUserID, true, 1, "env_uat", 30, now)
			Expect(err).ToNot(HaveOccurred())
			Expect(b.EnvID).To(Equal("env_uat"))
		})

		It("rejects a second live booking for the same user", func() {
			_, err := book(devUserID, false, 3, "env_dev", 60, now)
			Expect(err).ToNot(HaveOccurred())

			_, err = book(devUserID, false, 3, "env_test", 30, now.Add(10*time.Minute))
			Expect(err).To(MatchError(booking.ErrUserHasActiveBooking))
		})

		It("reports when the environment is held, with the free-at instant", func() {
			first, err := book(devUserID, false, 3, "env_test", 45, now)
			Expect(err).ToNot(HaveOccurred())

			_, err = book(qaUserID, false, 2, "env_test", 30, now.Add(5*time.Minute))

			var notFree *booking.NotFreeError
			Expect(errors.As(err, &notFree)).To(BeTrue())
			Expect(notFree.FreeAt).To(Equal(*first.EndsAt))
		})

		It("allows booking again once the previous booking lapsed", func() {
			_, err := book(devUserID, false, 3, "env_test", 30, now)
			Expect(err).ToNot(HaveOccurred())

			after := now.Add(31 * time.Minute)
			b, err := book(qaUserID, false, 2, "env_test", 30, after)
			Expect(err).ToNot(HaveOccurred())
			Expect(*b.StartedAt).To(Equal(after))
		})
	})

	Describe("Extend", func() {
		var live *booking.Booking

		BeforeEach(func() {
			var err error
			live, err = book(devUserID, false, 3, "env_test", 30, now)
			Expect(err).ToNot(HaveOccurred())
		})

		It("pushes the end out and accumulates the extension total", func() {
			b, err := service.Extend(live.ID, devUserID, false, booking.ExtendBookingDTO{AddMinutes: 20}, now.Add(10*time.Minute))

			Expect(err).ToNot(HaveOccurred())
			Expect(*b.EndsAt).To(Equal(now.Add(50 * time.Minute)))
			Expect(b.ExtensionMinutesTotal).To(Equal(20))
			Expect(mirror.extended).To(ConsistOf(live.ID))
		})

		It("rejects a non-positive extension", func() {
			_, err := service.Extend(live.ID, devUserID, false, booking.ExtendBookingDTO{AddMinutes: 0}, now)
			Expect(err).To(MatchError(booking.ErrInvalidExtension))
		})

		It("rejects extensions by users who do not own the booking", func() {
			_, err := service.Extend(live.ID, qaUserID, false, booking.ExtendBookingDTO{AddMinutes: 10}, now)
			Expect(err).To(MatchError(booking.ErrForbidden))
		})

		It("lets admins extend someone else's booking", func() {
			_, err := service.Extend(live.ID, adminUserID, true, booking.ExtendBookingDTO{AddMinutes: 10}, now)
			Expect(err).ToNot(HaveOccurred())
		})

		It("rejects extending a booking that already ended", func() {
			_, err := service.Extend(live.ID, devUserID, false, booking.ExtendBookingDTO{AddMinutes: 10}, now.Add(31*time.Minute))
			Expect(err).To(MatchError(booking.ErrNotActive))
		})

		It("allows extending up to the cumulative limit exactly", func() {
			_, err := service.Extend(live.ID, devUserID, false, booking.ExtendBookingDTO{AddMinutes: 40}, now.Add(5*time.Minute))
			Expect(err).ToNot(HaveOccurred())

			b, err := service.Extend(live.ID, devUserID, false, booking.ExtendBookingDTO{AddMinutes: 20}, now.Add(10*time.Minute))
			Expect(err).ToNot(HaveOccurred())
			Expect(b.ExtensionMinutesTotal).To(Equal(booking.ExtensionLimitMinutes))
		})

		It("rejects extensions past the cumulative limit", func() {
			_, err := service.Extend(live.ID, devUserID, false, booking.ExtendBookingDTO{AddMinutes: 40}, now.Add(5*time.Minute))
			Expect(err).ToNot(HaveOccurred())

			_, err = service.Extend(live.ID, devUserID, false, booking.ExtendBookingDTO{AddMinutes: 30}, now.Add(10*time.Minute))
			Expect(err).To(MatchError(booking.ErrExtensionLimitExceeded))
		})

		It("rejects extending an unknown booking", func() {
			_, err := service.Extend("missing", devUserID, false, booking.ExtendBookingDTO{AddMinutes: 10}, now)
			Expect(err).To(MatchError(booking.ErrBookingNotFound))
		})
	})

	Describe("Release", func() {
		var live *booking.Booking

		BeforeEach(func() {
			var err error
			live, err = book(devUserID, false, 3, "env_test", 60, now)
			Expect(err).ToNot(HaveOccurred())
		})

		It("ends the booking immediately and frees the environment", func() {
			releasedAt := now.Add(15 * time.Minute)
			b, err := service.Release(live.ID, devUserID, false, releasedAt)

			Expect(err).ToNot(HaveOccurred())
			Expect(b.Status).To(Equal(booking.StatusReleased))
			Expect(*b.EndsAt).To(Equal(releasedAt))
			Expect(*b.ReleasedAt).To(Equal(releasedAt))
			Expect(mirror.released).To(ConsistOf(live.ID))

			freeAt, err := service.FreeAt("env_test", releasedAt)
			Expect(err).ToNot(HaveOccurred())
			Expect(freeAt).To(Equal(releasedAt))
		})

		It("lets the user book again after releasing", func() {
			releasedAt := now.Add(15 * time.Minute)
			_, err := service.Release(live.ID, devUserID, false, releasedAt)
			Expect(err).ToNot(HaveOccurred())

			_, err = book(devUserID, false, 3, "env_dev", 30, releasedAt)
			Expect(err).ToNot(HaveOccurred())
		})

		It("rejects releasing someone else's booking", func() {
			_, err := service.Release(live.ID, qaUserID, false, now.Add(5*time.Minute))
			Expect(err).To(MatchError(booking.ErrForbidden))
		})

		It("rejects releasing a booking that is not live", func() {
			_, err := service.Release(live.ID, devUserID, false, now.Add(61*time.Minute))
			Expect(err).To(MatchError(booking.ErrNotActive))
		})

		It("rejects releasing twice", func() {
			_, err := service.Release(live.ID, devUserID, false, now.Add(5*time.Minute))
			Expect(err).ToNot(HaveOccurred())

			_, err = service.Release(live.ID, devUserID, false, now.Add(10*time.Minute))
			Expect(err).To(MatchError(booking.ErrNotActive))
		})
	})

	Describe("EnvironmentStatuses", func() {
		It("reports held and free environments against the reference instant", func() {
			held, err := book(devUserID, false, 3, "env_test", 45, now)
			Expect(err).ToNot(HaveOccurred())

			at := now.Add(10 * time.Minute)
			statuses, err := service.EnvironmentStatuses(at)
			Expect(err).ToNot(HaveOccurred())
			Expect(statuses).To(HaveLen(4))

			byID := make(map[string]booking.EnvironmentStatus, len(statuses))
			for _, st := range statuses {
				byID[st.ID] = st
			}

			Expect(byID["env_test"].IsFreeNow).To(BeFalse())
			Expect(byID["env_test"].FreeAt).To(Equal(*held.EndsAt))
			Expect(byID["env_dev"].IsFreeNow).To(BeTrue())
			Expect(byID["env_dev"].FreeAt).To(Equal(at))
		})
	})

	Describe("ActiveForUser", func() {
		It("returns the live booking within its window and nil outside it", func() {
			live, err := book(devUserID, false, 3, "env_test", 30, now)
			Expect(err).ToNot(HaveOccurred())

			b, err := service.ActiveForUser(devUserID, now.Add(10*time.Minute))
			Expect(err).ToNot(HaveOccurred())
			Expect(b.ID).To(Equal(live.ID))

			b, err = service.ActiveForUser(devUserID, now.Add(31*time.Minute))
			Expect(err).ToNot(HaveOccurred())
			Expect(b).To(BeNil())
		})
	})

	Describe("GetByID", func() {
		It("hides other users' bookings from non-admins", func() {
			live, err := book(devUserID, false, 3, "env_test", 30, now)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.GetByID(live.ID, qaUserID, false)
			Expect(err).To(MatchError(booking.ErrForbidden))

			b, err := service.GetByID(live.ID, adminUserID, true)
			Expect(err).ToNot(HaveOccurred())
			Expect(b.ID).To(Equal(live.ID))
		})
	})

	Describe("ListAll", func() {
		It("requires admin", func() {
			_, err := service.ListAll(false, 50, 0)
			Expect(err).To(MatchError(booking.ErrForbidden))
		})
	})
})
