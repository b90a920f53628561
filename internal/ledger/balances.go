// Package ledger computes who owes whom on a trip.
//
// It has two halves, consumed leaf-first: AggregateBalances reduces the
// expense records of a trip to one net balance per member, and
// ComputeSettlements converts those balances into the payments that clear
// them. Both are pure functions over int64 cents; the caller supplies a
// consistent snapshot (a single transactional read) and the ledger neither
// performs I/O nor retains state between calls.
package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/wayfare-app/wayfare/internal/models"
	"github.com/wayfare-app/wayfare/internal/money"
)

var (
	// ErrShareMismatch means an expense's shares do not sum to its total
	// within tolerance. Bad upstream data entry; the expense must be
	// rejected, never renormalized.
	ErrShareMismatch = errors.New("expense shares do not sum to expense total")

	// ErrBalanceImbalance means aggregated credits and debts do not conserve
	// within tolerance. The ledger data is inconsistent and no settlement
	// plan can be derived from it; retrying with the same snapshot is
	// pointless.
	ErrBalanceImbalance = errors.New("balances do not conserve")
)

// Balance is the net position of one trip member.
// Positive = owed money (creditor), negative = owes money (debtor).
type Balance struct {
	UserID   string
	NetCents int64
}

// AggregateBalances reduces a trip's expenses and recorded settlements to one
// net balance per member: each payer contribution adds to the payer's total,
// each share subtracts from the owing member's, and a recorded settlement
// moves its amount from the receiver back to the payer.
//
// Every expense is re-validated against the share-sum invariant even though
// creation already enforces it: a record this package did not originate must
// not leak an inconsistent ledger into settlement math. On violation the
// whole aggregation fails with ErrShareMismatch.
//
// Balances are returned in UserID order with raw computed sums; near-zero
// positions are dropped by ComputeSettlements, not here.
func AggregateBalances(expenses []models.Expense, settlements []models.Settlement) ([]Balance, error) {
	net := make(map[string]int64)

	for i := range expenses {
		exp := &expenses[i]
		if !money.WithinTolerance(exp.SharesTotalCents(), exp.TotalCents) {
			return nil, fmt.Errorf("%w: expense %s shares=%s total=%s",
				ErrShareMismatch, exp.ID,
				money.FormatCents(exp.SharesTotalCents()), money.FormatCents(exp.TotalCents))
		}

		for _, p := range exp.Payers {
			net[p.UserID] += p.AmountCents
		}
		for _, s := range exp.Shares {
			net[s.UserID] -= s.AmountCents
		}
	}

	for _, s := range settlements {
		net[s.FromUserID] += s.AmountCents
		net[s.ToUserID] -= s.AmountCents
	}

	balances := make([]Balance, 0, len(net))
	for userID, cents := range net {
		balances = append(balances, Balance{UserID: userID, NetCents: cents})
	}
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].UserID < balances[j].UserID
	})

	return balances, nil
}
