package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/wayfare-app/wayfare/internal/auth"
	"github.com/wayfare-app/wayfare/internal/events"
	"github.com/wayfare-app/wayfare/internal/storage/sqlite"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	authn := auth.NewPasswordAuthenticator(store)
	jwtManager := auth.NewJWTManager("test-secret-key-for-unit-tests-only", time.Hour)
	srv := New(store, authn, jwtManager, events.NopPublisher{})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// doJSON performs a request with an optional bearer token and decodes the
// response body into out when out is non-nil.
func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func registerUser(t *testing.T, ts *httptest.Server, name, email string) (token, userID string) {
	t.Helper()

	var resp authResponse
	status := doJSON(t, ts, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "password123",
	}, &resp)
	if status != http.StatusCreated {
		t.Fatalf("register %s: expected status 201, got %d", email, status)
	}
	return resp.Token, resp.UserID
}

func createTrip(t *testing.T, ts *httptest.Server, token string, members []string) string {
	t.Helper()

	var resp tripResponse
	status := doJSON(t, ts, http.MethodPost, "/api/trips", token, map[string]any{
		"name":    "Lisbon 2026",
		"members": members,
	}, &resp)
	if status != http.StatusCreated {
		t.Fatalf("create trip: expected status 201, got %d", status)
	}
	return resp.ID
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	token, userID := registerUser(t, ts, "Alice", "alice@example.com")
	if token == "" || userID == "" {
		t.Fatal("expected token and user ID from registration")
	}

	// Duplicate email is a conflict.
	status := doJSON(t, ts, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Alice Again",
		"email":    "alice@example.com",
		"password": "password123",
	}, nil)
	if status != http.StatusConflict {
		t.Errorf("duplicate register: expected status 409, got %d", status)
	}

	status = doJSON(t, ts, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Bob",
		"email":    "bob@example.com",
		"password": "short",
	}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("weak password: expected status 400, got %d", status)
	}

	var login authResponse
	status = doJSON(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
	}, &login)
	if status != http.StatusOK {
		t.Fatalf("login: expected status 200, got %d", status)
	}
	if login.UserID != userID {
		t.Errorf("login user ID = %s, want %s", login.UserID, userID)
	}

	status = doJSON(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong-password",
	}, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("bad password: expected status 401, got %d", status)
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	status := doJSON(t, ts, http.MethodGet, "/api/trips", "", nil, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("no token: expected status 401, got %d", status)
	}

	status = doJSON(t, ts, http.MethodGet, "/api/trips", "not-a-token", nil, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("bad token: expected status 401, got %d", status)
	}
}

func TestNonMemberAccessForbidden(t *testing.T) {
	ts := newTestServer(t)

	aliceToken, _ := registerUser(t, ts, "Alice", "alice@example.com")
	bobToken, _ := registerUser(t, ts, "Bob", "bob@example.com")

	tripID := createTrip(t, ts, aliceToken, nil)

	status := doJSON(t, ts, http.MethodGet, "/api/trips/"+tripID, bobToken, nil, nil)
	if status != http.StatusForbidden {
		t.Errorf("non-member trip access: expected status 403, got %d", status)
	}

	status = doJSON(t, ts, http.MethodGet, "/api/settlements?tripId="+tripID, bobToken, nil, nil)
	if status != http.StatusForbidden {
		t.Errorf("non-member settlements access: expected status 403, got %d", status)
	}
}

func TestExpenseShareMismatchRejected(t *testing.T) {
	ts := newTestServer(t)

	token, _ := registerUser(t, ts, "Alice", "alice@example.com")
	_, bobID := registerUser(t, ts, "Bob", "bob@example.com")
	tripID := createTrip(t, ts, token, []string{bobID})

	// Shares total 90.00 against a 100.00 expense, well past tolerance.
	status := doJSON(t, ts, http.MethodPost, "/api/expenses", token, map[string]any{
		"trip_id": tripID,
		"title":   "Dinner",
		"amount":  "100.00",
		"shares": []map[string]string{
			{"user_id": bobID, "amount": "90.00"},
		},
	}, nil)
	if status != http.StatusUnprocessableEntity {
		t.Errorf("mismatched shares: expected status 422, got %d", status)
	}
}

func TestExpenseSplitEvenly(t *testing.T) {
	ts := newTestServer(t)

	token, aliceID := registerUser(t, ts, "Alice", "alice@example.com")
	_, bobID := registerUser(t, ts, "Bob", "bob@example.com")
	_, chrisID := registerUser(t, ts, "Chris", "chris@example.com")
	tripID := createTrip(t, ts, token, []string{bobID, chrisID})

	var created expenseResponse
	status := doJSON(t, ts, http.MethodPost, "/api/expenses", token, map[string]any{
		"trip_id":     tripID,
		"title":       "Dinner",
		"amount":      "100.00",
		"split_among": []string{aliceID, bobID, chrisID},
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create split expense: expected status 201, got %d", status)
	}
	if len(created.Shares) != 3 {
		t.Fatalf("expected 3 derived shares, got %d", len(created.Shares))
	}

	// The shares must sum to the total exactly, with the leftover cent
	// assigned to the member first in ID order.
	counts := map[string]int{}
	for _, sh := range created.Shares {
		counts[sh.Amount]++
	}
	if counts["33.34"] != 1 || counts["33.33"] != 2 {
		t.Errorf("derived shares = %+v, want one 33.34 and two 33.33", created.Shares)
	}

	// Supplying both explicit shares and a split list is ambiguous.
	status = doJSON(t, ts, http.MethodPost, "/api/expenses", token, map[string]any{
		"trip_id":     tripID,
		"title":       "Dinner",
		"amount":      "100.00",
		"split_among": []string{aliceID, bobID},
		"shares": []map[string]string{
			{"user_id": aliceID, "amount": "100.00"},
		},
	}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("shares plus split_among: expected status 400, got %d", status)
	}

	// Split members must belong to the trip.
	status = doJSON(t, ts, http.MethodPost, "/api/expenses", token, map[string]any{
		"trip_id":     tripID,
		"title":       "Dinner",
		"amount":      "100.00",
		"split_among": []string{aliceID, "stranger"},
	}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("non-member split: expected status 400, got %d", status)
	}
}

func TestSettlementFlow(t *testing.T) {
	ts := newTestServer(t)

	aliceToken, aliceID := registerUser(t, ts, "Alice", "alice@example.com")
	_, bobID := registerUser(t, ts, "Bob", "bob@example.com")
	_, chrisID := registerUser(t, ts, "Chris", "chris@example.com")
	tripID := createTrip(t, ts, aliceToken, []string{bobID, chrisID})

	// Alice pays 100.00 split three ways; she carries the rounding cent.
	status := doJSON(t, ts, http.MethodPost, "/api/expenses", aliceToken, map[string]any{
		"trip_id": tripID,
		"title":   "Groceries",
		"amount":  "100.00",
		"shares": []map[string]string{
			{"user_id": aliceID, "amount": "33.34"},
			{"user_id": bobID, "amount": "33.33"},
			{"user_id": chrisID, "amount": "33.33"},
		},
	}, nil)
	if status != http.StatusCreated {
		t.Fatalf("create expense: expected status 201, got %d", status)
	}

	var balances struct {
		Balances []balanceResponse `json:"balances"`
	}
	status = doJSON(t, ts, http.MethodGet, "/api/trips/"+tripID+"/balances", aliceToken, nil, &balances)
	if status != http.StatusOK {
		t.Fatalf("balances: expected status 200, got %d", status)
	}
	wantNet := map[string]string{
		aliceID: "66.66",
		bobID:   "-33.33",
		chrisID: "-33.33",
	}
	for _, b := range balances.Balances {
		if b.Net != wantNet[b.UserID] {
			t.Errorf("net balance for %s = %s, want %s", b.UserID, b.Net, wantNet[b.UserID])
		}
	}

	var plan struct {
		Suggested []suggestedSettlement `json:"suggested"`
	}
	status = doJSON(t, ts, http.MethodGet, "/api/settlements?tripId="+tripID, aliceToken, nil, &plan)
	if status != http.StatusOK {
		t.Fatalf("settlements: expected status 200, got %d", status)
	}
	if len(plan.Suggested) != 2 {
		t.Fatalf("expected 2 suggested settlements, got %d", len(plan.Suggested))
	}
	// Equal debts resolve in user ID order.
	first, second := plan.Suggested[0], plan.Suggested[1]
	if first.From > second.From {
		t.Errorf("settlements out of order: %s before %s", first.From, second.From)
	}
	for _, st := range plan.Suggested {
		if st.To != aliceID {
			t.Errorf("settlement receiver = %s, want %s", st.To, aliceID)
		}
		if st.Amount != "33.33" {
			t.Errorf("settlement amount = %s, want 33.33", st.Amount)
		}
	}

	// Bob pays his share; only Chris should remain in the plan.
	status = doJSON(t, ts, http.MethodPost, "/api/settlements", aliceToken, map[string]string{
		"trip_id":      tripID,
		"from_user_id": bobID,
		"to_user_id":   aliceID,
		"amount":       "33.33",
	}, nil)
	if status != http.StatusCreated {
		t.Fatalf("record settlement: expected status 201, got %d", status)
	}

	plan.Suggested = nil
	status = doJSON(t, ts, http.MethodGet, "/api/settlements?tripId="+tripID, aliceToken, nil, &plan)
	if status != http.StatusOK {
		t.Fatalf("settlements after payment: expected status 200, got %d", status)
	}
	if len(plan.Suggested) != 1 {
		t.Fatalf("expected 1 remaining settlement, got %d", len(plan.Suggested))
	}
	if got := plan.Suggested[0]; got.From != chrisID || got.To != aliceID || got.Amount != "33.33" {
		t.Errorf("remaining settlement = %+v, want %s -> %s 33.33", got, chrisID, aliceID)
	}

	// Chris settles too; the plan is empty once everyone is square.
	status = doJSON(t, ts, http.MethodPost, "/api/settlements", aliceToken, map[string]string{
		"trip_id":      tripID,
		"from_user_id": chrisID,
		"to_user_id":   aliceID,
		"amount":       "33.33",
	}, nil)
	if status != http.StatusCreated {
		t.Fatalf("record second settlement: expected status 201, got %d", status)
	}

	plan.Suggested = nil
	if status := doJSON(t, ts, http.MethodGet, "/api/settlements?tripId="+tripID, aliceToken, nil, &plan); status != http.StatusOK {
		t.Fatalf("settlements after full payment: expected status 200, got %d", status)
	}
	if len(plan.Suggested) != 0 {
		t.Errorf("expected empty plan after full settlement, got %d entries", len(plan.Suggested))
	}
}

func TestSettlementValidation(t *testing.T) {
	ts := newTestServer(t)

	token, aliceID := registerUser(t, ts, "Alice", "alice@example.com")
	_, bobID := registerUser(t, ts, "Bob", "bob@example.com")
	tripID := createTrip(t, ts, token, []string{bobID})

	tests := []struct {
		name       string
		body       map[string]string
		wantStatus int
	}{
		{
			name: "self payment",
			body: map[string]string{
				"trip_id": tripID, "from_user_id": aliceID, "to_user_id": aliceID, "amount": "10.00",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "non-member payer",
			body: map[string]string{
				"trip_id": tripID, "from_user_id": "nobody", "to_user_id": aliceID, "amount": "10.00",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "negative amount",
			body: map[string]string{
				"trip_id": tripID, "from_user_id": bobID, "to_user_id": aliceID, "amount": "-5.00",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "sub-cent amount",
			body: map[string]string{
				"trip_id": tripID, "from_user_id": bobID, "to_user_id": aliceID, "amount": "1.005",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "valid",
			body: map[string]string{
				"trip_id": tripID, "from_user_id": bobID, "to_user_id": aliceID, "amount": "10.00",
			},
			wantStatus: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := doJSON(t, ts, http.MethodPost, "/api/settlements", token, tt.body, nil)
			if status != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, status)
			}
		})
	}
}

func TestExpenseCRUD(t *testing.T) {
	ts := newTestServer(t)

	token, aliceID := registerUser(t, ts, "Alice", "alice@example.com")
	_, bobID := registerUser(t, ts, "Bob", "bob@example.com")
	tripID := createTrip(t, ts, token, []string{bobID})

	var created expenseResponse
	status := doJSON(t, ts, http.MethodPost, "/api/expenses", token, map[string]any{
		"trip_id": tripID,
		"title":   "Taxi",
		"amount":  "40.00",
		"shares": []map[string]string{
			{"user_id": aliceID, "amount": "20.00"},
			{"user_id": bobID, "amount": "20.00"},
		},
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create expense: expected status 201, got %d", status)
	}
	// No payers given, so the creator covered the full amount.
	if len(created.Payers) != 1 || created.Payers[0].UserID != aliceID || created.Payers[0].Amount != "40.00" {
		t.Errorf("default payer = %+v, want creator paying 40.00", created.Payers)
	}

	var fetched expenseResponse
	status = doJSON(t, ts, http.MethodGet, "/api/expenses/"+created.ID, token, nil, &fetched)
	if status != http.StatusOK {
		t.Fatalf("get expense: expected status 200, got %d", status)
	}
	if fetched.Amount != "40.00" || fetched.Title != "Taxi" {
		t.Errorf("fetched expense = %s %s, want Taxi 40.00", fetched.Title, fetched.Amount)
	}

	var updated expenseResponse
	status = doJSON(t, ts, http.MethodPut, "/api/expenses/"+created.ID, token, map[string]any{
		"trip_id": tripID,
		"title":   "Taxi to airport",
		"amount":  "50.00",
		"shares": []map[string]string{
			{"user_id": aliceID, "amount": "25.00"},
			{"user_id": bobID, "amount": "25.00"},
		},
	}, &updated)
	if status != http.StatusOK {
		t.Fatalf("update expense: expected status 200, got %d", status)
	}
	if updated.Amount != "50.00" {
		t.Errorf("updated amount = %s, want 50.00", updated.Amount)
	}

	var list struct {
		Expenses []expenseResponse `json:"expenses"`
	}
	status = doJSON(t, ts, http.MethodGet, "/api/expenses?tripId="+tripID, token, nil, &list)
	if status != http.StatusOK {
		t.Fatalf("list expenses: expected status 200, got %d", status)
	}
	if len(list.Expenses) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(list.Expenses))
	}

	status = doJSON(t, ts, http.MethodDelete, "/api/expenses/"+created.ID, token, nil, nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete expense: expected status 204, got %d", status)
	}

	status = doJSON(t, ts, http.MethodGet, "/api/expenses/"+created.ID, token, nil, nil)
	if status != http.StatusNotFound {
		t.Errorf("get deleted expense: expected status 404, got %d", status)
	}
}

func TestTripMembers(t *testing.T) {
	ts := newTestServer(t)

	token, aliceID := registerUser(t, ts, "Alice", "alice@example.com")
	_, bobID := registerUser(t, ts, "Bob", "bob@example.com")
	tripID := createTrip(t, ts, token, nil)

	status := doJSON(t, ts, http.MethodPost, fmt.Sprintf("/api/trips/%s/members", tripID), token, map[string]any{
		"user_ids": []string{"no-such-user"},
	}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("unknown member: expected status 400, got %d", status)
	}

	var updated tripResponse
	status = doJSON(t, ts, http.MethodPost, fmt.Sprintf("/api/trips/%s/members", tripID), token, map[string]any{
		"user_ids": []string{bobID},
	}, &updated)
	if status != http.StatusOK {
		t.Fatalf("add member: expected status 200, got %d", status)
	}
	if len(updated.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(updated.Members))
	}
	found := map[string]bool{}
	for _, m := range updated.Members {
		found[m] = true
	}
	if !found[aliceID] || !found[bobID] {
		t.Errorf("members = %v, want both %s and %s", updated.Members, aliceID, bobID)
	}
}
