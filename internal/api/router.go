package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every endpoint. The router is wrapped, not decorated with
// mux middleware, so preflight requests are answered before mux matches
// methods.
func NewRouter(h *Handler) http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/", h.Status).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/data", h.GetData).Methods("GET")
	api.HandleFunc("/history", h.GetHistory).Methods("GET")
	api.HandleFunc("/compare/{date}", h.GetCompare).Methods("GET")
	api.HandleFunc("/dates", h.GetDates).Methods("GET")
	api.HandleFunc("/auth", h.Auth).Methods("POST")
	api.HandleFunc("/upload", h.Upload).Methods("POST")

	return allowCORS(r)
}

// allowCORS lets the mini app and the upload page call the API from any
// origin.
func allowCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		hdr.Set("Access-Control-Allow-Origin", "*")
		hdr.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		hdr.Set("Access-Control-Allow-Headers", "Content-Type, "+passwordHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
