package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/wayfare-app/wayfare/internal/ledger"
	"github.com/wayfare-app/wayfare/internal/middleware"
	"github.com/wayfare-app/wayfare/internal/models"
	"github.com/wayfare-app/wayfare/internal/money"
)

// amountRecord is a user/amount pair with the amount as a decimal string.
type amountRecord struct {
	UserID string `json:"user_id"`
	Amount string `json:"amount"`
}

type expenseRequest struct {
	TripID string         `json:"trip_id"`
	Title  string         `json:"title"`
	Amount string         `json:"amount"`
	Payers []amountRecord `json:"payers,omitempty"`
	// Exactly one of Shares and SplitAmong must be set: explicit per-member
	// amounts, or a member list to split the total evenly across.
	Shares     []amountRecord `json:"shares,omitempty"`
	SplitAmong []string       `json:"split_among,omitempty"`
}

type expenseResponse struct {
	ID        string         `json:"id"`
	TripID    string         `json:"trip_id"`
	Title     string         `json:"title"`
	Currency  string         `json:"currency"`
	Amount    string         `json:"amount"`
	Payers    []amountRecord `json:"payers"`
	Shares    []amountRecord `json:"shares"`
	CreatedBy string         `json:"created_by"`
	CreatedAt int64          `json:"created_at"`
}

func toExpenseResponse(e *models.Expense) expenseResponse {
	payers := make([]amountRecord, len(e.Payers))
	for i, p := range e.Payers {
		payers[i] = amountRecord{UserID: p.UserID, Amount: money.FormatCents(p.AmountCents)}
	}
	shares := make([]amountRecord, len(e.Shares))
	for i, sh := range e.Shares {
		shares[i] = amountRecord{UserID: sh.UserID, Amount: money.FormatCents(sh.AmountCents)}
	}
	return expenseResponse{
		ID:        e.ID,
		TripID:    e.TripID,
		Title:     e.Title,
		Currency:  e.Currency,
		Amount:    money.FormatCents(e.TotalCents),
		Payers:    payers,
		Shares:    shares,
		CreatedBy: e.CreatedBy,
		CreatedAt: e.CreatedAt,
	}
}

// buildExpense validates an expense request against its trip and converts it
// to a model. This is the share-sum integrity gate: an expense whose shares
// do not add up to its total within tolerance never reaches storage. Requests
// may instead name members to split the total evenly across, in which case
// the shares are derived here and sum exactly by construction.
// It writes the error response itself and returns nil on failure.
func (s *Server) buildExpense(w http.ResponseWriter, req *expenseRequest, trip *models.Trip, userID string) *models.Expense {
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "Expense title required", nil)
		return nil
	}

	totalCents, err := money.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid expense amount", err)
		return nil
	}

	var shares []models.ExpenseShare
	switch {
	case len(req.Shares) > 0 && len(req.SplitAmong) > 0:
		writeError(w, http.StatusBadRequest, "Provide either shares or split_among, not both", nil)
		return nil

	case len(req.SplitAmong) > 0:
		for _, id := range req.SplitAmong {
			if !trip.HasMember(id) {
				writeError(w, http.StatusBadRequest, "Split member is not a trip member: "+id, nil)
				return nil
			}
		}
		shares = ledger.EqualShares(totalCents, req.SplitAmong)

	case len(req.Shares) > 0:
		shares = make([]models.ExpenseShare, len(req.Shares))
		var shareSum int64
		for i, sh := range req.Shares {
			if !trip.HasMember(sh.UserID) {
				writeError(w, http.StatusBadRequest, "Share user is not a trip member: "+sh.UserID, nil)
				return nil
			}
			cents, err := money.ParseAmount(sh.Amount)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid share amount for "+sh.UserID, err)
				return nil
			}
			shares[i] = models.ExpenseShare{UserID: sh.UserID, AmountCents: cents}
			shareSum += cents
		}
		if !money.WithinTolerance(shareSum, totalCents) {
			writeError(w, http.StatusUnprocessableEntity,
				"Sum of shares must equal total expense amount", nil)
			return nil
		}

	default:
		writeError(w, http.StatusBadRequest, "At least one share required", nil)
		return nil
	}

	// MVP default: the creator paid the full amount (single-payer case).
	var payers []models.ExpensePayer
	if len(req.Payers) == 0 {
		payers = []models.ExpensePayer{{UserID: userID, AmountCents: totalCents}}
	} else {
		payers = make([]models.ExpensePayer, len(req.Payers))
		for i, p := range req.Payers {
			if !trip.HasMember(p.UserID) {
				writeError(w, http.StatusBadRequest, "Payer is not a trip member: "+p.UserID, nil)
				return nil
			}
			cents, err := money.ParseAmount(p.Amount)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid payer amount for "+p.UserID, err)
				return nil
			}
			payers[i] = models.ExpensePayer{UserID: p.UserID, AmountCents: cents}
		}
	}

	return &models.Expense{
		TripID:     trip.ID,
		Title:      req.Title,
		Currency:   trip.Currency,
		TotalCents: totalCents,
		Payers:     payers,
		Shares:     shares,
		CreatedBy:  userID,
	}
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req expenseRequest
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

	expense := s.buildExpense(w, &req, trip, userID)
	if expense == nil {
		return
	}

	if err := s.store.CreateExpense(r.Context(), expense); err != nil {
		slog.Error("CreateExpense failed", "trip_id", trip.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create expense", nil)
		return
	}

	if err := s.publisher.ExpenseCreated(r.Context(), trip.ID, expense.ID); err != nil {
		slog.Warn("Failed to publish expense event", "expense_id", expense.ID, "error", err)
	}

	slog.Info("Expense created",
		"expense_id", expense.ID,
		"trip_id", trip.ID,
		"amount_cents", expense.TotalCents,
		"user_id", userID,
	)
	writeJSON(w, http.StatusCreated, toExpenseResponse(expense))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
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

	expenses, _, err := s.store.TripSnapshot(r.Context(), trip.ID)
	if err != nil {
		slog.Error("ListExpenses failed", "trip_id", trip.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list expenses", nil)
		return
	}

	resp := make([]expenseResponse, len(expenses))
	for i := range expenses {
		resp[i] = toExpenseResponse(&expenses[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": resp})
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	expense, err := s.store.GetExpense(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Expense not found", nil)
		return
	}

	if s.memberTrip(w, r, expense.TripID, userID) == nil {
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(expense))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	existing, err := s.store.GetExpense(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Expense not found", nil)
		return
	}

	trip := s.memberTrip(w, r, existing.TripID, userID)
	if trip == nil {
		return
	}
	if existing.CreatedBy != userID {
		writeError(w, http.StatusForbidden, "Only the expense creator can update it", nil)
		return
	}

	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	expense := s.buildExpense(w, &req, trip, userID)
	if expense == nil {
		return
	}
	expense.ID = existing.ID
	expense.CreatedBy = existing.CreatedBy
	expense.CreatedAt = existing.CreatedAt

	if err := s.store.UpdateExpense(r.Context(), expense); err != nil {
		slog.Error("UpdateExpense failed", "expense_id", expense.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update expense", nil)
		return
	}

	slog.Info("Expense updated", "expense_id", expense.ID, "user_id", userID)
	writeJSON(w, http.StatusOK, toExpenseResponse(expense))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	existing, err := s.store.GetExpense(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Expense not found", nil)
		return
	}

	if s.memberTrip(w, r, existing.TripID, userID) == nil {
		return
	}
	if existing.CreatedBy != userID {
		writeError(w, http.StatusForbidden, "Only the expense creator can delete it", nil)
		return
	}

	if err := s.store.DeleteExpense(r.Context(), existing.ID); err != nil {
		slog.Error("DeleteExpense failed", "expense_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete expense", nil)
		return
	}

	slog.Info("Expense deleted", "expense_id", existing.ID, "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}
