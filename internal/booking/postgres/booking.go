package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/accendhq/accend/internal/booking"
	"gorm.io/gorm"
)

var liveStatuses = []string{booking.StatusApproved, booking.StatusActive}

// BookingRepository implements the booking.Repository interface using GORM
type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) booking.Repository {
	return &BookingRepository{db: db}
}

// CreateLive inserts a new live booking after verifying, inside one
// transaction, that the user holds no live booking and the target
// environment is free at the booking's start. On Postgres the
// transaction first takes advisory locks keyed on the user and the
// environment: row locks cannot serialize two creates that both find
// the slot empty, since neither sees the other's uncommitted insert.
// The advisory locks are released on commit or rollback.
func (r *BookingRepository) CreateLive(b *booking.Booking) error {
	if b.StartedAt == nil {
		return errors.New("booking has no start time")
	}
	now := *b.StartedAt

	return r.db.Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			// Lock order is fixed (user, then env) so racing creates
			// cannot deadlock.
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))",
				fmt.Sprintf("booking:user:%d", b.UserID)).Error; err != nil {
				return err
			}
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))",
				"booking:env:"+b.EnvID).Error; err != nil {
				return err
			}
		}

		var userLive booking.Booking
		err := tx.Where("user_id = ? AND status IN ? AND started_at <= ? AND ends_at > ?",
			b.UserID, liveStatuses, now, now).
			First(&userLive).Error
		if err == nil {
			return booking.ErrUserHasActiveBooking
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var envLive booking.Booking
		err = tx.Where("env_id = ? AND status IN ? AND started_at <= ? AND ends_at > ?",
			b.EnvID, liveStatuses, now, now).
			Order("ends_at DESC").
			First(&envLive).Error
		if err == nil {
			if envLive.EndsAt != nil {
				return &booking.NotFreeError{FreeAt: *envLive.EndsAt}
			}
			return &booking.NotFreeError{FreeAt: now}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(b).Error
	})
}

func (r *BookingRepository) GetByID(id string) (*booking.Booking, error) {
	var b booking.Booking
	err := r.db.Where("id = ?", id).First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// GetLiveForEnv returns the booking holding the environment at the
// given instant, or nil when the environment is free.
func (r *BookingRepository) GetLiveForEnv(envID string, now time.Time) (*booking.Booking, error) {
	var b booking.Booking
	err := r.db.Where("env_id = ? AND status IN ? AND started_at <= ? AND ends_at > ?",
		envID, liveStatuses, now, now).
		Order("ends_at DESC").
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// GetLiveForUser returns the user's live booking at the given instant,
// or nil when they hold none.
func (r *BookingRepository) GetLiveForUser(userID int64, now time.Time) (*booking.Booking, error) {
	var b booking.Booking
	err := r.db.Where("user_id = ? AND status IN ? AND started_at <= ? AND ends_at > ?",
		userID, liveStatuses, now, now).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) GetByUserID(userID int64, limit, offset int) ([]*booking.Booking, error) {
	var bookings []*booking.Booking
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&bookings).Error
	return bookings, err
}

func (r *BookingRepository) GetAll(limit, offset int) ([]*booking.Booking, error) {
	var bookings []*booking.Booking
	err := r.db.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&bookings).Error
	return bookings, err
}

func (r *BookingRepository) Update(b *booking.Booking) error {
	return r.db.Save(b).Error
}

func (r *BookingRepository) CountLive(now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&booking.Booking{}).
		Where("status IN ? AND started_at <= ? AND ends_at > ?", liveStatuses, now, now).
		Count(&count).Error
	return count, err
}
