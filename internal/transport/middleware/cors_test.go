package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/accendhq/accend/internal/transport/middleware"
)

func TestMiddleware(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Middleware Suite")
}

var _ = Describe("CORS", func() {
	var next http.Handler

	BeforeEach(func() {
		next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	serve := func(origins []string, origin string) *httptest.ResponseRecorder {
		handler := middleware.CORS(origins)(next)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	It("echoes an origin on the configured list with credentials", func() {
		rec := serve([]string{"http://localhost:5173"}, "http://localhost:5173")

		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("http://localhost:5173"))
		Expect(rec.Header().Get("Access-Control-Allow-Credentials")).To(Equal("true"))
		Expect(rec.Header().Get("Vary")).To(Equal("Origin"))
	})

	It("does not echo an origin missing from the list", func() {
		rec := serve([]string{"http://localhost:5173"}, "https://evil.example.com")

		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
		Expect(rec.Header().Get("Access-Control-Allow-Credentials")).To(BeEmpty())
	})

	It("admits any origin when the list carries a wildcard", func() {
		rec := serve([]string{"*"}, "https://portal.accend.dev")

		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://portal.accend.dev"))
	})

	It("echoes nothing when no origins are configured", func() {
		rec := serve(nil, "http://localhost:5173")

		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
	})

	It("short-circuits preflight requests", func() {
		handler := middleware.CORS([]string{"http://localhost:5173"})(next)
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/bookings", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(rec.Header().Get("Access-Control-Allow-Methods")).To(ContainSubstring("POST"))
	})
})
