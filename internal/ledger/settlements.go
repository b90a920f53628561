package ledger

import (
	"fmt"
	"sort"

	"github.com/wayfare-app/wayfare/internal/money"
)

// Settlement is a single directed payment instruction: From pays To.
type Settlement struct {
	From        string
	To          string
	AmountCents int64
}

// party is a debtor or creditor with its remaining unsettled magnitude.
type party struct {
	userID    string
	remaining int64
}

// ComputeSettlements converts a balance set into the ordered list of payments
// that zeroes every balance, using greedy two-pointer matching: smallest debt
// first against largest credit. At most n-1 settlements are produced for n
// non-zero balances.
//
// The output is fully deterministic: debtors sort ascending and creditors
// descending by magnitude, with ties broken by user ID ascending. Balances
// within the tolerance of zero are treated as already settled.
//
// If total credit and total debt disagree beyond tolerance the snapshot is
// inconsistent and ComputeSettlements returns ErrBalanceImbalance instead of
// guessing a partial resolution. The same check runs again after matching:
// clamping sub-tolerance residues mid-run can leave one side with more than
// tolerance unpaid even when the totals agreed upfront, and that case must
// fail rather than return a plan that strands a participant.
func ComputeSettlements(balances []Balance) ([]Settlement, error) {
	var debtors, creditors []party
	var debtTotal, creditTotal int64

	for _, b := range balances {
		switch {
		case b.NetCents < -money.ToleranceCents:
			debtors = append(debtors, party{userID: b.UserID, remaining: -b.NetCents})
			debtTotal += -b.NetCents
		case b.NetCents > money.ToleranceCents:
			creditors = append(creditors, party{userID: b.UserID, remaining: b.NetCents})
			creditTotal += b.NetCents
		}
	}

	if !money.WithinTolerance(debtTotal, creditTotal) {
		return nil, fmt.Errorf("%w: credits=%s debts=%s",
			ErrBalanceImbalance, money.FormatCents(creditTotal), money.FormatCents(debtTotal))
	}

	sort.Slice(debtors, func(i, j int) bool {
		if debtors[i].remaining != debtors[j].remaining {
			return debtors[i].remaining < debtors[j].remaining
		}
		return debtors[i].userID < debtors[j].userID
	})
	sort.Slice(creditors, func(i, j int) bool {
		if creditors[i].remaining != creditors[j].remaining {
			return creditors[i].remaining > creditors[j].remaining
		}
		return creditors[i].userID < creditors[j].userID
	})

	var settlements []Settlement
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := &debtors[i]
		creditor := &creditors[j]

		payment := debtor.remaining
		if creditor.remaining < payment {
			payment = creditor.remaining
		}

		settlements = append(settlements, Settlement{
			From:        debtor.userID,
			To:          creditor.userID,
			AmountCents: payment,
		})

		debtor.remaining -= payment
		creditor.remaining -= payment

		// A residue at or below tolerance is a rounding remainder, not a
		// debt worth another transfer.
		if debtor.remaining <= money.ToleranceCents {
			debtor.remaining = 0
			i++
		}
		if creditor.remaining <= money.ToleranceCents {
			creditor.remaining = 0
			j++
		}
	}

	// Both sides must be exhausted to within tolerance. A leftover beyond
	// that means the plan under- or over-pays someone.
	for _, d := range debtors[i:] {
		if d.remaining > money.ToleranceCents {
			return nil, fmt.Errorf("%w: %s left owing %s after matching",
				ErrBalanceImbalance, d.userID, money.FormatCents(d.remaining))
		}
	}
	for _, c := range creditors[j:] {
		if c.remaining > money.ToleranceCents {
			return nil, fmt.Errorf("%w: %s left owed %s after matching",
				ErrBalanceImbalance, c.userID, money.FormatCents(c.remaining))
		}
	}

	return settlements, nil
}
