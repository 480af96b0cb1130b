package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Service is the main auth service with dependencies
type Service struct {
	repo           RepositoryAPI
	tokenGenerator TokenGeneratorAPI
	bcryptCost     int
	logger         *slog.Logger
}

func NewService(repo RepositoryAPI, tokenGen TokenGeneratorAPI, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		bcryptCost:     bcryptCost,
		logger:         logger,
	}
}

func NewJWTTokenGenerator(secret string, sessionTTL time.Duration) *JWTTokenGenerator {
	if sessionTTL <= 0 {
		sessionTTL = 7 * 24 * time.Hour
	}
	return &JWTTokenGenerator{
		Secret:     []byte(secret),
		SessionTTL: sessionTTL,
	}
}

// Signup registers a new account and returns the user with a fresh
// session token. Emails are unique case-insensitively.
func (s *Service) Signup(dto SignupDTO) (*User, string, error) {
	if err := dto.Validate(); err != nil {
		return nil, "", err
	}

	hash, err := HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Name:  strings.TrimSpace(dto.Name),
		Email: strings.ToLower(dto.Email),
		Role:  dto.Role,
	}

	created, err := s.repo.CreateUser(u, hash)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			s.logger.Warn("signup rejected: email already registered", "email", u.Email)
			return nil, "", ErrEmailExists
		}
		s.logger.Error("signup failed", "email", u.Email, "error", err)
		return nil, "", err
	}

	token, err := s.tokenGenerator.GenerateSessionToken(created)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user signed up", "user_id", created.ID, "role", created.Role)
	return created, token, nil
}

// Authenticate validates credentials and returns the user with a session token.
func (s *Service) Authenticate(dto LoginDTO) (*User, string, error) {
	if err := dto.Validate(); err != nil {
		return nil, "", err
	}

	storedHash, u, err := s.repo.GetCredentials(strings.ToLower(dto.Email))
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := VerifyPassword(storedHash, dto.Password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokenGenerator.GenerateSessionToken(u)
	if err != nil {
		return nil, "", err
	}

	return u, token, nil
}

func (s *Service) ValidateSessionToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString)
}

func (s *Service) GetUserByID(userID int64) (*User, error) {
	return s.repo.GetByID(userID)
}

func (j *JWTTokenGenerator) GenerateSessionToken(u *User) (string, error) {
	expiresAt := time.Now().Add(j.SessionTTL)

	claims := &Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		Name:   u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   fmt.Sprintf("%d", u.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.Secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
