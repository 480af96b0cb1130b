package middleware_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/accendhq/accend/internal/transport/middleware"
)

func labelValue(m *dto.Metric, name string) string {
	for _, pair := range m.GetLabel() {
		if pair.GetName() == name {
			return pair.GetValue()
		}
	}
	return ""
}

var _ = Describe("HTTPMetrics", func() {
	It("labels series by route pattern, not by raw path", func() {
		registry := prometheus.NewRegistry()
		metrics := middleware.NewHTTPMetrics(registry)

		router := chi.NewRouter()
		router.Use(metrics.Middleware)
		router.Get("/bookings/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		for _, id := range []string{"0b95f344", "4c1ad33a", "9d7e0c21"} {
			req := httptest.NewRequest(http.MethodGet, "/bookings/"+id, nil)
			router.ServeHTTP(httptest.NewRecorder(), req)
		}

		families, err := registry.Gather()
		Expect(err).NotTo(HaveOccurred())

		var found bool
		for _, mf := range families {
			if mf.GetName() != "accend_http_requests_total" {
				continue
			}
			found = true
			Expect(mf.GetMetric()).To(HaveLen(1))
			m := mf.GetMetric()[0]
			Expect(m.GetCounter().GetValue()).To(Equal(float64(3)))
			Expect(labelValue(m, "path")).To(Equal("/bookings/{id}"))
		}
		Expect(found).To(BeTrue())
	})
})
