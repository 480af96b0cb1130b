package postgres

import (
	"errors"
	"strings"

	"github.com/accendhq/accend/internal/auth"
	"github.com/accendhq/accend/internal/user"
	"gorm.io/gorm"
)

// AuthRepository implements auth.RepositoryAPI on top of the users table.
type AuthRepository struct {
	db *gorm.DB
}

func NewAuthRepository(db *gorm.DB) auth.RepositoryAPI {
	return &AuthRepository{db: db}
}

func toSessionUser(u *user.User) *auth.User {
	return &auth.User{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        string(u.Role),
		AccessLevel: u.AccessLevel,
	}
}

func (r *AuthRepository) GetCredentials(email string) (string, *auth.User, error) {
	var u user.User
	err := r.db.Where("email = ?", strings.ToLower(email)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, auth.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !u.IsActive {
		return "", nil, auth.ErrUserInactive
	}
	return u.PasswordHash, toSessionUser(&u), nil
}

func (r *AuthRepository) GetByID(userID int64) (*auth.User, error) {
	var u user.User
	err := r.db.Where("id = ?", userID).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, auth.ErrUserInactive
	}
	return toSessionUser(&u), nil
}

func (r *AuthRepository) CreateUser(u *auth.User, passwordHash string) (*auth.User, error) {
	email := strings.ToLower(u.Email)

	var count int64
	if err := r.db.Model(&user.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, auth.ErrEmailExists
	}

	record := user.User{
		Name:         u.Name,
		Email:        email,
		Role:         user.Role(u.Role),
		AccessLevel:  user.DefaultAccessLevel(user.Role(u.Role)),
		PasswordHash: passwordHash,
		IsActive:     true,
	}
	if err := r.db.Create(&record).Error; err != nil {
		return nil, err
	}

	return toSessionUser(&record), nil
}
