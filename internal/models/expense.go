package models

// ExpensePayer records that a user actually paid part of an expense.
type ExpensePayer struct {
	// UserID is the paying trip member.
	UserID string

	// AmountCents is the positive amount paid, in minor units.
	AmountCents int64
}

// ExpenseShare records what a user is obligated to contribute to an expense.
// For every expense the shares must sum to TotalCents within the ledger
// tolerance; this is enforced when the expense is created or updated.
type ExpenseShare struct {
	// UserID is the owing trip member.
	UserID string

	// AmountCents is the positive amount owed, in minor units.
	AmountCents int64
}

// Expense represents a shared cost on a trip.
//
// The common case is a single payer covering the full amount (the expense
// creator, unless payers are supplied explicitly), but multiple payers are
// supported: the payer amounts are simply summed during aggregation.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// TripID is the trip this expense belongs to.
	TripID string

	// Title is a human-readable description (e.g., "Dinner at Ramiro").
	Title string

	// Currency is the ISO 4217 code of the amount. Must match the trip
	// currency; cross-currency expenses are rejected at the boundary.
	Currency string

	// TotalCents is the full expense amount in minor units.
	TotalCents int64

	// Payers lists who actually paid, and how much.
	Payers []ExpensePayer

	// Shares lists who owes what toward the total.
	Shares []ExpenseShare

	// CreatedBy is the user ID that recorded the expense.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// SharesTotalCents returns the sum of all share amounts.
func (e *Expense) SharesTotalCents() int64 {
	var sum int64
	for _, s := range e.Shares {
		sum += s.AmountCents
	}
	return sum
}

// PayersTotalCents returns the sum of all payer amounts.
func (e *Expense) PayersTotalCents() int64 {
	var sum int64
	for _, p := range e.Payers {
		sum += p.AmountCents
	}
	return sum
}
