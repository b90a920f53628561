// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/wayfare-app/wayfare/internal/models"
)

// Store defines the interface for Wayfare's storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the handler layer.
type Store interface {
	// CreateUser persists a new user. The user.ID field will be populated
	// by the store if empty.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email address.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// CreateTrip persists a new trip including its member list.
	CreateTrip(ctx context.Context, trip *models.Trip) error

	// GetTrip retrieves a trip by ID, including members.
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)

	// ListTripsByUser retrieves all trips the user is a member of.
	ListTripsByUser(ctx context.Context, userID string) ([]*models.Trip, error)

	// UpdateTrip updates a trip's fields (not its member list).
	UpdateTrip(ctx context.Context, trip *models.Trip) error

	// DeleteTrip removes a trip and, via cascading, its expenses and
	// settlements.
	DeleteTrip(ctx context.Context, tripID string) error

	// AddTripMembers adds user IDs to a trip, ignoring existing members.
	AddTripMembers(ctx context.Context, tripID string, userIDs []string) error

	// CreateExpense persists an expense with its payers and shares in a
	// single transaction.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense by ID, including payers and shares.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// UpdateExpense replaces an expense and its payer/share rows.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// DeleteExpense removes an expense by ID.
	DeleteExpense(ctx context.Context, expenseID string) error

	// CreateSettlement persists a recorded settlement payment.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// ListSettlementsByTrip retrieves all recorded settlements for a trip.
	ListSettlementsByTrip(ctx context.Context, tripID string) ([]*models.Settlement, error)

	// TripSnapshot reads all expenses and recorded settlements of a trip in
	// one transaction, so concurrent writes cannot produce a torn view. The
	// ledger must only ever be fed from such a snapshot.
	TripSnapshot(ctx context.Context, tripID string) ([]models.Expense, []models.Settlement, error)

	// Close releases any resources held by the store.
	Close() error
}
