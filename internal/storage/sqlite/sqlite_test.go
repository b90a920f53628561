package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/wayfare-app/wayfare/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func createTestUser(t *testing.T, store *SQLiteStore, name, email string) *models.User {
	t.Helper()

	user := &models.User{Name: name, Email: email, PasswordHash: "x"}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestUserRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, store, "Alice", "alice@example.com")
	if user.ID == "" {
		t.Fatal("expected generated user ID")
	}
	if user.CreatedAt == 0 {
		t.Fatal("expected generated CreatedAt")
	}

	byEmail, err := store.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.ID != user.ID || byEmail.Name != "Alice" {
		t.Errorf("got %+v, want id=%s name=Alice", byEmail, user.ID)
	}

	if _, err := store.GetUserByEmail(ctx, "nobody@example.com"); err == nil {
		t.Error("expected error for unknown email")
	}

	// Duplicate email must be rejected by the unique constraint.
	dup := &models.User{Name: "Other", Email: "alice@example.com", PasswordHash: "y"}
	if err := store.CreateUser(ctx, dup); err == nil {
		t.Error("expected error for duplicate email")
	}
}

func TestTripRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "Alice", "alice@example.com")
	bob := createTestUser(t, store, "Bob", "bob@example.com")

	trip := &models.Trip{
		Name:      "Lisbon 2026",
		Currency:  "EUR",
		CreatedBy: alice.ID,
		Members:   []string{alice.ID, bob.ID},
	}
	if err := store.CreateTrip(ctx, trip); err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}

	got, err := store.GetTrip(ctx, trip.ID)
	if err != nil {
		t.Fatalf("GetTrip failed: %v", err)
	}
	if got.Name != "Lisbon 2026" || got.Currency != "EUR" {
		t.Errorf("unexpected trip: %+v", got)
	}
	if len(got.Members) != 2 {
		t.Errorf("members: expected 2, got %d", len(got.Members))
	}

	chris := createTestUser(t, store, "Chris", "chris@example.com")
	if err := store.AddTripMembers(ctx, trip.ID, []string{chris.ID, bob.ID}); err != nil {
		t.Fatalf("AddTripMembers failed: %v", err)
	}
	got, err = store.GetTrip(ctx, trip.ID)
	if err != nil {
		t.Fatalf("GetTrip failed: %v", err)
	}
	if len(got.Members) != 3 {
		t.Errorf("members after add: expected 3, got %d", len(got.Members))
	}

	trips, err := store.ListTripsByUser(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ListTripsByUser failed: %v", err)
	}
	if len(trips) != 1 || trips[0].ID != trip.ID {
		t.Errorf("unexpected trips for bob: %+v", trips)
	}

	if err := store.DeleteTrip(ctx, trip.ID); err != nil {
		t.Fatalf("DeleteTrip failed: %v", err)
	}
	if _, err := store.GetTrip(ctx, trip.ID); err == nil {
		t.Error("expected error after delete")
	}
}

func TestExpenseRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "Alice", "alice@example.com")
	bob := createTestUser(t, store, "Bob", "bob@example.com")

	trip := &models.Trip{Name: "Trip", Currency: "EUR", CreatedBy: alice.ID, Members: []string{alice.ID, bob.ID}}
	if err := store.CreateTrip(ctx, trip); err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}

	expense := &models.Expense{
		TripID:     trip.ID,
		Title:      "Dinner",
		Currency:   "EUR",
		TotalCents: 6000,
		Payers:     []models.ExpensePayer{{UserID: alice.ID, AmountCents: 6000}},
		Shares: []models.ExpenseShare{
			{UserID: alice.ID, AmountCents: 3000},
			{UserID: bob.ID, AmountCents: 3000},
		},
		CreatedBy: alice.ID,
	}
	if err := store.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	got, err := store.GetExpense(ctx, expense.ID)
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if got.TotalCents != 6000 || len(got.Payers) != 1 || len(got.Shares) != 2 {
		t.Errorf("unexpected expense: %+v", got)
	}

	// Update replaces the payer/share rows, not just the parent.
	expense.Title = "Dinner at Ramiro"
	expense.TotalCents = 8000
	expense.Payers = []models.ExpensePayer{{UserID: bob.ID, AmountCents: 8000}}
	expense.Shares = []models.ExpenseShare{
		{UserID: alice.ID, AmountCents: 4000},
		{UserID: bob.ID, AmountCents: 4000},
	}
	if err := store.UpdateExpense(ctx, expense); err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}
	got, err = store.GetExpense(ctx, expense.ID)
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if got.Title != "Dinner at Ramiro" || got.TotalCents != 8000 {
		t.Errorf("update not applied: %+v", got)
	}
	if len(got.Payers) != 1 || got.Payers[0].UserID != bob.ID {
		t.Errorf("payers not replaced: %+v", got.Payers)
	}

	if err := store.DeleteExpense(ctx, expense.ID); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	if _, err := store.GetExpense(ctx, expense.ID); err == nil {
		t.Error("expected error after delete")
	}
}

func TestTripSnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "Alice", "alice@example.com")
	bob := createTestUser(t, store, "Bob", "bob@example.com")

	trip := &models.Trip{Name: "Trip", Currency: "EUR", CreatedBy: alice.ID, Members: []string{alice.ID, bob.ID}}
	if err := store.CreateTrip(ctx, trip); err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}

	expense := &models.Expense{
		TripID:     trip.ID,
		Title:      "Taxi",
		Currency:   "EUR",
		TotalCents: 2000,
		Payers:     []models.ExpensePayer{{UserID: alice.ID, AmountCents: 2000}},
		Shares: []models.ExpenseShare{
			{UserID: alice.ID, AmountCents: 1000},
			{UserID: bob.ID, AmountCents: 1000},
		},
		CreatedBy: alice.ID,
	}
	if err := store.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	settlement := &models.Settlement{
		TripID:      trip.ID,
		FromUserID:  bob.ID,
		ToUserID:    alice.ID,
		AmountCents: 1000,
		CreatedBy:   bob.ID,
	}
	if err := store.CreateSettlement(ctx, settlement); err != nil {
		t.Fatalf("CreateSettlement failed: %v", err)
	}

	expenses, settlements, err := store.TripSnapshot(ctx, trip.ID)
	if err != nil {
		t.Fatalf("TripSnapshot failed: %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("expenses: expected 1, got %d", len(expenses))
	}
	if len(expenses[0].Payers) != 1 || len(expenses[0].Shares) != 2 {
		t.Errorf("expense children missing: %+v", expenses[0])
	}
	if len(settlements) != 1 || settlements[0].AmountCents != 1000 {
		t.Errorf("unexpected settlements: %+v", settlements)
	}

	// A trip with no records yields an empty, non-error snapshot.
	empty := &models.Trip{Name: "Empty", Currency: "EUR", CreatedBy: alice.ID, Members: []string{alice.ID}}
	if err := store.CreateTrip(ctx, empty); err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}
	expenses, settlements, err = store.TripSnapshot(ctx, empty.ID)
	if err != nil {
		t.Fatalf("TripSnapshot failed: %v", err)
	}
	if len(expenses) != 0 || len(settlements) != 0 {
		t.Errorf("expected empty snapshot, got %d expenses %d settlements", len(expenses), len(settlements))
	}
}
