package server

import (
	"log/slog"
	"net/http"

	"github.com/wayfare-app/wayfare/internal/ledger"
	"github.com/wayfare-app/wayfare/internal/middleware"
	"github.com/wayfare-app/wayfare/internal/models"
	"github.com/wayfare-app/wayfare/internal/money"
)

type balanceResponse struct {
	UserID string `json:"user_id"`
	Net    string `json:"net"`
}

type suggestedSettlement struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type recordSettlementRequest struct {
	TripID     string `json:"trip_id"`
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
	Amount     string `json:"amount"`
	Note       string `json:"note,omitempty"`
}

type settlementResponse struct {
	ID         string `json:"id"`
	TripID     string `json:"trip_id"`
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
	Amount     string `json:"amount"`
	Note       string `json:"note,omitempty"`
	CreatedBy  string `json:"created_by"`
	CreatedAt  int64  `json:"created_at"`
}

func toSettlementResponse(st *models.Settlement) settlementResponse {
	return settlementResponse{
		ID:         st.ID,
		TripID:     st.TripID,
		FromUserID: st.FromUserID,
		ToUserID:   st.ToUserID,
		Amount:     money.FormatCents(st.AmountCents),
		Note:       st.Note,
		CreatedBy:  st.CreatedBy,
		CreatedAt:  st.CreatedAt,
	}
}

// tripBalances reads a consistent snapshot of the trip's ledger and
// aggregates it into per-member net balances.
func (s *Server) tripBalances(w http.ResponseWriter, r *http.Request, tripID string) ([]ledger.Balance, bool) {
	expenses, settlements, err := s.store.TripSnapshot(r.Context(), tripID)
	if err != nil {
		slog.Error("TripSnapshot failed", "trip_id", tripID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load trip ledger", nil)
		return nil, false
	}

	balances, err := ledger.AggregateBalances(expenses, settlements)
	if err != nil {
		writeLedgerError(w, err)
		return nil, false
	}
	return balances, true
}

func (s *Server) handleTripBalances(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	trip := s.memberTrip(w, r, r.PathValue("id"), userID)
	if trip == nil {
		return
	}

	balances, ok := s.tripBalances(w, r, trip.ID)
	if !ok {
		return
	}

	resp := make([]balanceResponse, len(balances))
	for i, b := range balances {
		resp[i] = balanceResponse{UserID: b.UserID, Net: money.FormatCents(b.NetCents)}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"trip_id":  trip.ID,
		"currency": trip.Currency,
		"balances": resp,
	})
}

func (s *Server) handleComputeSettlements(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	tripID := r.URL.Query().Get("tripId")
	if tripID == "" {
		writeError(w, http.StatusBadRequest, "tripId query parameter is required", nil)
		return
	}

	trip := s.memberTrip(w, r, tripID, userID)
	if trip == nil {
		return
	}

	balances, ok := s.tripBalances(w, r, trip.ID)
	if !ok {
		return
	}

	suggestions, err := ledger.ComputeSettlements(balances)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	recorded, err := s.store.ListSettlementsByTrip(r.Context(), trip.ID)
	if err != nil {
		slog.Error("ListSettlementsByTrip failed", "trip_id", trip.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load settlements", nil)
		return
	}

	suggested := make([]suggestedSettlement, len(suggestions))
	for i, st := range suggestions {
		suggested[i] = suggestedSettlement{
			From:   st.From,
			To:     st.To,
			Amount: money.FormatCents(st.AmountCents),
		}
	}
	recordedResp := make([]settlementResponse, len(recorded))
	for i, st := range recorded {
		recordedResp[i] = toSettlementResponse(st)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"trip_id":   trip.ID,
		"currency":  trip.Currency,
		"suggested": suggested,
		"recorded":  recordedResp,
	})
}

func (s *Server) handleRecordSettlement(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req recordSettlementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.TripID == "" {
		writeError(w, http.StatusBadRequest, "trip_id required", nil)
		return
	}

	trip := s.memberTrip(w, r, req.TripID, userID)
	if trip == nil {
		return
	}

	if req.FromUserID == req.ToUserID {
		writeError(w, http.StatusBadRequest, "Payer and receiver must differ", nil)
		return
	}
	if !trip.HasMember(req.FromUserID) {
		writeError(w, http.StatusBadRequest, "Payer is not a trip member: "+req.FromUserID, nil)
		return
	}
	if !trip.HasMember(req.ToUserID) {
		writeError(w, http.StatusBadRequest, "Receiver is not a trip member: "+req.ToUserID, nil)
		return
	}

	amountCents, err := money.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid settlement amount", err)
		return
	}

	settlement := &models.Settlement{
		TripID:      trip.ID,
		FromUserID:  req.FromUserID,
		ToUserID:    req.ToUserID,
		AmountCents: amountCents,
		Note:        req.Note,
		CreatedBy:   userID,
	}
	if err := s.store.CreateSettlement(r.Context(), settlement); err != nil {
		slog.Error("CreateSettlement failed", "trip_id", trip.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to record settlement", nil)
		return
	}

	if err := s.publisher.SettlementRecorded(r.Context(), trip.ID, settlement.ID); err != nil {
		slog.Warn("Failed to publish settlement event", "settlement_id", settlement.ID, "error", err)
	}

	slog.Info("Settlement recorded",
		"settlement_id", settlement.ID,
		"trip_id", trip.ID,
		"from", settlement.FromUserID,
		"to", settlement.ToUserID,
		"amount_cents", settlement.AmountCents,
	)
	writeJSON(w, http.StatusCreated, toSettlementResponse(settlement))
}
