package ledger

import (
	"sort"

	"github.com/wayfare-app/wayfare/internal/models"
)

// EqualShares splits totalCents evenly across the given members. The cents
// that do not divide evenly go one each to the members first in ID order, so
// the same inputs always produce the same shares and the share sum always
// equals the total exactly. Duplicate IDs are collapsed; an empty member list
// yields nil.
func EqualShares(totalCents int64, userIDs []string) []models.ExpenseShare {
	seen := make(map[string]struct{}, len(userIDs))
	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)

	n := int64(len(ids))
	base := totalCents / n
	remainder := totalCents % n

	shares := make([]models.ExpenseShare, len(ids))
	for i, id := range ids {
		amount := base
		if int64(i) < remainder {
			amount++
		}
		shares[i] = models.ExpenseShare{UserID: id, AmountCents: amount}
	}
	return shares
}
