package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/wayfare-app/wayfare/internal/middleware"
	"github.com/wayfare-app/wayfare/internal/models"
)

type tripRequest struct {
	Name        string   `json:"name"`
	Destination string   `json:"destination"`
	StartDate   int64    `json:"start_date"`
	EndDate     int64    `json:"end_date"`
	Currency    string   `json:"currency"`
	Members     []string `json:"members"`
}

type tripResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Destination string   `json:"destination"`
	StartDate   int64    `json:"start_date"`
	EndDate     int64    `json:"end_date"`
	Currency    string   `json:"currency"`
	CreatedBy   string   `json:"created_by"`
	Members     []string `json:"members"`
	CreatedAt   int64    `json:"created_at"`
}

func toTripResponse(t *models.Trip) tripResponse {
	return tripResponse{
		ID:          t.ID,
		Name:        t.Name,
		Destination: t.Destination,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Currency:    t.Currency,
		CreatedBy:   t.CreatedBy,
		Members:     t.Members,
		CreatedAt:   t.CreatedAt,
	}
}

// memberTrip loads a trip and verifies the user belongs to it.
// It writes the error response itself and returns nil on failure.
func (s *Server) memberTrip(w http.ResponseWriter, r *http.Request, tripID, userID string) *models.Trip {
	trip, err := s.store.GetTrip(r.Context(), tripID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Trip not found", nil)
		return nil
	}
	if !trip.HasMember(userID) {
		writeError(w, http.StatusForbidden, "You must be a trip member", nil)
		return nil
	}
	return trip
}

func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req tripRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Trip name required", nil)
		return
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "EUR"
	}
	if len(currency) != 3 {
		writeError(w, http.StatusBadRequest, "Currency must be a 3-letter code", nil)
		return
	}

	// The creator is always a member.
	members := req.Members
	creatorIncluded := false
	for _, m := range members {
		if m == userID {
			creatorIncluded = true
			break
		}
	}
	if !creatorIncluded {
		members = append(members, userID)
	}

	trip := &models.Trip{
		Name:        req.Name,
		Destination: req.Destination,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Currency:    currency,
		CreatedBy:   userID,
		Members:     members,
	}
	if err := s.store.CreateTrip(r.Context(), trip); err != nil {
		slog.Error("CreateTrip failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create trip", nil)
		return
	}

	slog.Info("Trip created", "trip_id", trip.ID, "user_id", userID)
	writeJSON(w, http.StatusCreated, toTripResponse(trip))
}

func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	trips, err := s.store.ListTripsByUser(r.Context(), userID)
	if err != nil {
		slog.Error("ListTrips failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list trips", nil)
		return
	}

	resp := make([]tripResponse, len(trips))
	for i, t := range trips {
		resp[i] = toTripResponse(t)
	}
	writeJSON(w, http.StatusOK, map[string]any{"trips": resp})
}

func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	trip := s.memberTrip(w, r, r.PathValue("id"), userID)
	if trip == nil {
		return
	}
	writeJSON(w, http.StatusOK, toTripResponse(trip))
}

func (s *Server) handleUpdateTrip(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	trip := s.memberTrip(w, r, r.PathValue("id"), userID)
	if trip == nil {
		return
	}

	var req tripRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) != "" {
		trip.Name = req.Name
	}
	if req.Destination != "" {
		trip.Destination = req.Destination
	}
	if req.StartDate != 0 {
		trip.StartDate = req.StartDate
	}
	if req.EndDate != 0 {
		trip.EndDate = req.EndDate
	}

	if err := s.store.UpdateTrip(r.Context(), trip); err != nil {
		slog.Error("UpdateTrip failed", "trip_id", trip.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update trip", nil)
		return
	}

	slog.Info("Trip updated", "trip_id", trip.ID, "user_id", userID)
	writeJSON(w, http.StatusOK, toTripResponse(trip))
}

func (s *Server) handleDeleteTrip(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	trip := s.memberTrip(w, r, r.PathValue("id"), userID)
	if trip == nil {
		return
	}
	if trip.CreatedBy != userID {
		writeError(w, http.StatusForbidden, "Only the trip creator can delete it", nil)
		return
	}

	if err := s.store.DeleteTrip(r.Context(), trip.ID); err != nil {
		slog.Error("DeleteTrip failed", "trip_id", trip.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete trip", nil)
		return
	}

	slog.Info("Trip deleted", "trip_id", trip.ID, "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}

type addMembersRequest struct {
	UserIDs []string `json:"user_ids"`
}

func (s *Server) handleAddTripMembers(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	trip := s.memberTrip(w, r, r.PathValue("id"), userID)
	if trip == nil {
		return
	}

	var req addMembersRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.UserIDs) == 0 {
		writeError(w, http.StatusBadRequest, "user_ids required", nil)
		return
	}

	// Every new member must be a registered user.
	for _, id := range req.UserIDs {
		if _, err := s.store.GetUserByID(r.Context(), id); err != nil {
			writeError(w, http.StatusBadRequest, "Unknown user: "+id, nil)
			return
		}
	}

	if err := s.store.AddTripMembers(r.Context(), trip.ID, req.UserIDs); err != nil {
		slog.Error("AddTripMembers failed", "trip_id", trip.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to add members", nil)
		return
	}

	updated, err := s.store.GetTrip(r.Context(), trip.ID)
	if err != nil {
		slog.Error("Failed to fetch updated trip", "trip_id", trip.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to add members", nil)
		return
	}

	slog.Info("Trip members added", "trip_id", trip.ID, "count", len(req.UserIDs))
	writeJSON(w, http.StatusOK, toTripResponse(updated))
}
