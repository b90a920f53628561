package models

// Trip represents a shared trip. Expenses and settlements belong to exactly
// one trip, and only trip members may read or write them.
type Trip struct {
	// ID is the unique identifier for the trip (UUID format).
	ID string

	// Name is the display name of the trip (e.g., "Lisbon 2026").
	Name string

	// Destination is a free-form destination label.
	Destination string

	// StartDate and EndDate are Unix timestamps bounding the trip.
	// Zero means unset.
	StartDate int64
	EndDate   int64

	// Currency is the ISO 4217 code all expenses on this trip settle in.
	Currency string

	// CreatedBy is the user ID of the trip creator. The creator is always
	// a member.
	CreatedBy string

	// Members is the list of user IDs participating in the trip.
	Members []string

	// CreatedAt is the Unix timestamp when the trip was created.
	CreatedAt int64
}

// HasMember reports whether userID belongs to the trip.
func (t *Trip) HasMember(userID string) bool {
	for _, m := range t.Members {
		if m == userID {
			return true
		}
	}
	return false
}
