package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/legal-case-api/models"
)

// New creates a new mux router and all the routes
func New() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", healthCheckHandler)

	return r
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.HealthCheckResponse{Alive: true})
}
