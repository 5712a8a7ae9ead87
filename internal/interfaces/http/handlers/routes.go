package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Install registers every route on the router. /metrics stays outside the
// JSON subrouter because the Prometheus handler writes its own content type.
func (h *Handlers) Install(r *mux.Router) {
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics.MetricsHandler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/").Subrouter()
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	v1 := api.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/anomalies", h.Anomalies).Methods(http.MethodGet)
	v1.HandleFunc("/trends", h.Trends).Methods(http.MethodGet)
	v1.HandleFunc("/variations", h.Variations).Methods(http.MethodGet)
	v1.HandleFunc("/insights", h.Insights).Methods(http.MethodGet)
	v1.HandleFunc("/surges", h.Surges).Methods(http.MethodGet)
	v1.HandleFunc("/repeats", h.Repeats).Methods(http.MethodGet)
	v1.HandleFunc("/resolution", h.Resolution).Methods(http.MethodGet)
	v1.HandleFunc("/series", h.Series).Methods(http.MethodGet)
	v1.HandleFunc("/summary", h.Summary).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(h.NotFound)
}

// jsonContentTypeMiddleware sets JSON content type for API responses
func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
