package catalog_test

import (
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/accendhq/accend/internal/catalog"
)

func TestCatalogService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Catalog Service Suite")
}

var _ = Describe("CatalogService", func() {
	var service *catalog.Service

	BeforeEach(func() {
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = catalog.NewService(lg)
	})

	Describe("ListForRole", func() {
		It("shows developers and qa the built-in catalog", func() {
			Expect(service.ListForRole("developer")).To(HaveLen(len(catalog.Resources)))
			Expect(service.ListForRole("qa")).To(HaveLen(len(catalog.Resources)))
		})

		It("shows admins everything", func() {
			Expect(service.ListForRole("admin")).To(HaveLen(len(catalog.Resources)))
		})

		It("hides role-restricted resources from other roles", func() {
			for _, r := range service.ListForRole("auditor") {
				Expect(r.AllowedRequesterRoles).To(BeEmpty())
			}
		})
	})

	Describe("GetByID", func() {
		It("finds a resource by id", func() {
			res, err := service.GetByID("res_test_lock")
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Type).To(Equal(catalog.TypeDeploymentEnvLock))
		})

		It("maps a missing id onto the not-found error", func() {
			_, err := service.GetByID("res_missing")
			Expect(err).To(MatchError(catalog.ErrResourceNotFound))
		})
	})

	Describe("VisibleTo", func() {
		It("treats an empty role list as visible to everyone", func() {
			r := catalog.Resource{ID: "r1"}
			Expect(r.VisibleTo("developer")).To(BeTrue())
			Expect(r.VisibleTo("qa")).To(BeTrue())
		})

		It("restricts visibility to the listed roles, with admin bypass", func() {
			r := catalog.Resource{ID: "r1", AllowedRequesterRoles: []string{"developer"}}
			Expect(r.VisibleTo("developer")).To(BeTrue())
			Expect(r.VisibleTo("qa")).To(BeFalse())
			Expect(r.VisibleTo("admin")).To(BeTrue())
		})
	})
})
