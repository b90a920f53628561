package models

// Settlement represents a recorded payment between trip members to clear debt.
// Recorded settlements feed back into balance aggregation: the payer's net
// balance improves by the amount, the receiver's decreases.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// TripID is the trip this settlement belongs to.
	TripID string

	// FromUserID is the user who paid (debtor settling up).
	FromUserID string

	// ToUserID is the user who received payment (creditor being paid).
	ToUserID string

	// AmountCents is the positive payment amount in minor units.
	AmountCents int64

	// Note is an optional description for the settlement.
	Note string

	// CreatedBy is the user ID who recorded this settlement.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64
}
