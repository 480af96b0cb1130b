package postgres

import (
	"errors"
	"time"

	"github.com/accendhq/accend/internal/request"
	"gorm.io/gorm"
)

// RequestRepository implements the request.Repository interface using GORM
type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) request.Repository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Create(req *request.Request) error {
	return r.db.Create(req).Error
}

func (r *RequestRepository) GetByID(id string) (*request.Request, error) {
	var req request.Request
	err := r.db.Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, request.ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepository) GetByBookingID(bookingID string) (*request.Request, error) {
	var req request.Request
	err := r.db.Where("booking_id = ?", bookingID).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, request.ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepository) GetByUserID(userID int64, limit, offset int) ([]*request.Request, error) {
	var reqs []*request.Request
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reqs).Error
	return reqs, err
}

func (r *RequestRepository) GetAll(limit, offset int) ([]*request.Request, error) {
	var reqs []*request.Request
	err := r.db.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reqs).Error
	return reqs, err
}

func (r *RequestRepository) GetByStatus(status string, limit, offset int) ([]*request.Request, error) {
	var reqs []*request.Request
	err := r.db.Where("status = ?", status).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reqs).Error
	return reqs, err
}

func (r *RequestRepository) Update(req *request.Request) error {
	return r.db.Save(req).Error
}

func (r *RequestRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&request.Request{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// CountActiveGrants counts approved requests still usable at the
// instant: open-ended, or not yet past their expiry.
func (r *RequestRepository) CountActiveGrants(now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&request.Request{}).
		Where("status = ? AND (expires_at IS NULL OR expires_at > ?)", request.StatusApproved, now).
		Count(&count).Error
	return count, err
}

// CountExpiringGrants counts approved requests lapsing within the
// dashboard's expiring window.
func (r *RequestRepository) CountExpiringGrants(now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&request.Request{}).
		Where("status = ? AND expires_at > ? AND expires_at < ?",
			request.StatusApproved, now, now.Add(request.ExpiringWindow)).
		Count(&count).Error
	return count, err
}
