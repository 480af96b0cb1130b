package user_test

import (
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/accendhq/accend/internal/user"
)

func TestUserService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Service Suite")
}

type mockUserRepository struct {
	users map[int64]*user.User
}

func (m *mockUserRepository) GetByID(userID int64) (*user.User, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepository) GetByEmail(email string) (*user.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *mockUserRepository) UpdateName(userID int64, name string) error {
	u, ok := m.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	u.Name = name
	return nil
}

var _ = Describe("UserService", func() {
	var (
		service  *user.Service
		mockRepo *mockUserRepository
	)

	BeforeEach(func() {
		mockRepo = &mockUserRepository{users: map[int64]*user.User{
			1: {ID: 1, Name: "Devin", Email: "devin@accend.dev", Role: user.RoleDeveloper, AccessLevel: 3},
		}}
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = user.NewService(mockRepo, lg)
	})

	Describe("UpdateName", func() {
		It("trims and stores the new name", func() {
			u, err := service.UpdateName(1, user.UpdateNameDTO{Name: "  Devin D.  "})
			Expect(err).ToNot(HaveOccurred())
			Expect(u.Name).To(Equal("Devin D."))
		})

		It("rejects names shorter than two characters", func() {
			_, err := service.UpdateName(1, user.UpdateNameDTO{Name: " a "})
			Expect(err).To(HaveOccurred())
		})

		It("surfaces a missing user", func() {
			_, err := service.UpdateName(99, user.UpdateNameDTO{Name: "Ghost"})
			Expect(err).To(MatchError(user.ErrNotFound))
		})
	})

	Describe("LookupRequester", func() {
		It("returns the display identity", func() {
			name, email, err := service.LookupRequester(1)
			Expect(err).ToNot(HaveOccurred())
			Expect(name).To(Equal("Devin"))
			Expect(email).To(Equal("devin@accend.dev"))
		})
	})

	Describe("CanAccessLevel", func() {
		It("grants admins any level and others up to their own", func() {
			admin := &user.User{Role: user.RoleAdmin, AccessLevel: 1}
			dev := &user.User{Role: user.RoleDeveloper, AccessLevel: 3}

			Expect(admin.CanAccessLevel(5)).To(BeTrue())
			Expect(dev.CanAccessLevel(3)).To(BeTrue())
			Expect(dev.CanAccessLevel(4)).To(BeFalse())
		})
	})
})
