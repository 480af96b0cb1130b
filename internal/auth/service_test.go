package auth_test

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/accendhq/accend/internal/auth"
)

func TestAuthService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Service Suite")
}

// Mock repository for testing
type mockAuthRepository struct {
	users  map[string]*auth.User
	hashes map[string]string
	nextID int64
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{
		users:  make(map[string]*auth.User),
		hashes: make(map[string]string),
		nextID: 1,
	}
}

func (m *mockAuthRepository) GetCredentials(email string) (string, *auth.User, error) {
	u, ok := m.users[email]
	if !ok {
		return "", nil, auth.ErrInvalidCredentials
	}
	return m.hashes[email], u, nil
}

func (m *mockAuthRepository) GetByID(userID int64) (*auth.User, error) {
	for _, u := range m.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, auth.ErrInvalidToken
}

func (m *mockAuthRepository) CreateUser(u *auth.User, passwordHash string) (*auth.User, error) {
	if _, ok := m.users[u.Email]; ok {
		return nil, auth.ErrEmailExists
	}
	u.ID = m.nextID
	m.nextID++
	m.users[u.Email] = u
	m.hashes[u.Email] = passwordHash
	return u, nil
}

var _ = Describe("AuthService", func() {
	var (
		service  *auth.Service
		mockRepo *mockAuthRepository
		tokenGen *auth.JWTTokenGenerator
	)

	const secret = "test-secret-that-is-long-enough-for-hs256"

	BeforeEach(func() {
		mockRepo = newMockAuthRepository()
		tokenGen = auth.NewJWTTokenGenerator(secret, time.Hour)
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = auth.NewService(mockRepo, tokenGen, 4, lg)
	})

	signup := func(email string) (*auth.User, string, error) {
		return service.Signup(auth.SignupDTO{
			Name:     "Devin Developer",
			Email:    email,
			Password: "hunter22",
			Role:     "developer",
		})
	}

	Describe("Signup", func() {
		It("creates the account and returns a usable session token", func() {
			u, token, err := signup("devin@accend.dev")

			Expect(err).ToNot(HaveOccurred())
			Expect(u.ID).To(Equal(int64(1)))
			Expect(u.Email).To(Equal("devin@accend.dev"))
			Expect(token).NotTo(BeEmpty())

			claims, err := service.ValidateSessionToken(token)
			Expect(err).ToNot(HaveOccurred())
			Expect(claims.UserID).To(Equal(u.ID))
			Expect(claims.Role).To(Equal("developer"))
		})

		It("lowercases emails before storing them", func() {
			u, _, err := signup("Devin@Accend.DEV")
			Expect(err).ToNot(HaveOccurred())
			Expect(u.Email).To(Equal("devin@accend.dev"))
		})

		It("never stores the plaintext password", func() {
			_, _, err := signup("devin@accend.dev")
			Expect(err).ToNot(HaveOccurred())

			hash := mockRepo.hashes["devin@accend.dev"]
			Expect(hash).NotTo(ContainSubstring("hunter22"))
			Expect(strings.HasPrefix(hash, "$2")).To(BeTrue())
		})

		It("rejects duplicate emails", func() {
			_, _, err := signup("devin@accend.dev")
			Expect(err).ToNot(HaveOccurred())

			_, _, err = signup("devin@accend.dev")
			Expect(err).To(MatchError(auth.ErrEmailExists))
		})

		It("rejects an invalid role", func() {
			_, _, err := service.Signup(auth.SignupDTO{
				Name:     "Eve",
				Email:    "eve@accend.dev",
				Password: "hunter22",
				Role:     "superuser",
			})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Authenticate", func() {
		BeforeEach(func() {
			_, _, err := signup("devin@accend.dev")
			Expect(err).ToNot(HaveOccurred())
		})

		It("accepts valid credentials regardless of email case", func() {
			u, token, err := service.Authenticate(auth.LoginDTO{
				Email:    "DEVIN@accend.dev",
				Password: "hunter22",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(u.Email).To(Equal("devin@accend.dev"))
			Expect(token).NotTo(BeEmpty())
		})

		It("rejects a wrong password", func() {
			_, _, err := service.Authenticate(auth.LoginDTO{
				Email:    "devin@accend.dev",
				Password: "wrong-password",
			})
			Expect(err).To(MatchError(auth.ErrInvalidCredentials))
		})

		It("rejects an unknown email", func() {
			_, _, err := service.Authenticate(auth.LoginDTO{
				Email:    "nobody@accend.dev",
				Password: "hunter22",
			})
			Expect(err).To(MatchError(auth.ErrInvalidCredentials))
		})
	})

	Describe("Session tokens", func() {
		var u *auth.User

		BeforeEach(func() {
			var err error
			u, _, err = signup("devin@accend.dev")
			Expect(err).ToNot(HaveOccurred())
		})

		It("rejects an expired token", func() {
			expiredGen := &auth.JWTTokenGenerator{Secret: []byte(secret), SessionTTL: -time.Minute}
			token, err := expiredGen.GenerateSessionToken(u)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.ValidateSessionToken(token)
			Expect(err).To(MatchError(auth.ErrTokenExpired))
		})

		It("rejects a token signed with a different secret", func() {
			otherGen := auth.NewJWTTokenGenerator("another-secret-entirely-for-testing", time.Hour)
			token, err := otherGen.GenerateSessionToken(u)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.ValidateSessionToken(token)
			Expect(err).To(MatchError(auth.ErrInvalidToken))
		})

		It("rejects garbage tokens", func() {
			_, err := service.ValidateSessionToken("not-a-jwt")
			Expect(err).To(MatchError(auth.ErrInvalidToken))
		})
	})
})
