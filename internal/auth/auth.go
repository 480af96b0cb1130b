package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// SessionCookie is the name of the httpOnly cookie carrying the session token.
const SessionCookie = "accend_session"

type ServiceAPI interface {
	Signup(dto SignupDTO) (*User, string, error)
	Authenticate(dto LoginDTO) (*User, string, error)
	ValidateSessionToken(tokenString string) (*Claims, error)
	GetUserByID(userID int64) (*User, error)
}

type RepositoryAPI interface {
	GetCredentials(email string) (passwordHash string, u *User, err error)
	GetByID(userID int64) (*User, error)
	CreateUser(u *User, passwordHash string) (*User, error)
}

type TokenGeneratorAPI interface {
	GenerateSessionToken(u *User) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// User is the authenticated caller attached to the request context.
// It carries just what authorization decisions need: identity, role and
// access level.
type User struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	AccessLevel int    `json:"access_level"`
}

func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	Secret     []byte
	SessionTTL time.Duration
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrUserInactive       = errors.New("user is inactive")
	ErrForbidden          = errors.New("forbidden")
)

type ctxKey string

const ContextUserKey ctxKey = "user"

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok
}

func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
