// Package server exposes the Wayfare JSON API over HTTP.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wayfare-app/wayfare/internal/auth"
	"github.com/wayfare-app/wayfare/internal/events"
	"github.com/wayfare-app/wayfare/internal/middleware"
	"github.com/wayfare-app/wayfare/internal/storage"
)

// Server holds the handler dependencies.
type Server struct {
	store     storage.Store
	authn     *auth.PasswordAuthenticator
	jwt       *auth.JWTManager
	publisher events.Publisher
}

// New creates a Server with the given dependencies.
func New(store storage.Store, authn *auth.PasswordAuthenticator, jwt *auth.JWTManager, publisher events.Publisher) *Server {
	return &Server{
		store:     store,
		authn:     authn,
		jwt:       jwt,
		publisher: publisher,
	}
}

// Handler builds the route table. Auth endpoints, health, and metrics are
// public; everything else requires a valid bearer token.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	api := http.NewServeMux()
	api.HandleFunc("POST /api/trips", s.handleCreateTrip)
	api.HandleFunc("GET /api/trips", s.handleListTrips)
	api.HandleFunc("GET /api/trips/{id}", s.handleGetTrip)
	api.HandleFunc("PUT /api/trips/{id}", s.handleUpdateTrip)
	api.HandleFunc("DELETE /api/trips/{id}", s.handleDeleteTrip)
	api.HandleFunc("POST /api/trips/{id}/members", s.handleAddTripMembers)
	api.HandleFunc("GET /api/trips/{id}/balances", s.handleTripBalances)

	api.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	api.HandleFunc("GET /api/expenses", s.handleListExpenses)
	api.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	api.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	api.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	api.HandleFunc("GET /api/settlements", s.handleComputeSettlements)
	api.HandleFunc("POST /api/settlements", s.handleRecordSettlement)

	mux.Handle("/api/", middleware.RequireAuth(s.jwt, api))

	return middleware.Logging(middleware.Metrics(mux))
}
