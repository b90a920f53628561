package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wayfare-app/wayfare/internal/models"
)

// CreateExpense persists an expense with its payers and shares in a single
// transaction, so readers never observe an expense without its child rows.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, trip_id, title, currency, total_cents, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.TripID, expense.Title, expense.Currency,
		expense.TotalCents, expense.CreatedBy, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertExpenseChildren(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdateExpense replaces an expense row and rewrites its payer/share rows.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE expenses SET title = ?, currency = ?, total_cents = ? WHERE id = ?",
		expense.Title, expense.Currency, expense.TotalCents, expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense not found: %s", expense.ID)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_payers WHERE expense_id = ?", expense.ID); err != nil {
		return fmt.Errorf("failed to clear expense payers: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_shares WHERE expense_id = ?", expense.ID); err != nil {
		return fmt.Errorf("failed to clear expense shares: %w", err)
	}

	if err := insertExpenseChildren(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func insertExpenseChildren(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	for _, p := range expense.Payers {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_payers (expense_id, user_id, amount_cents) VALUES (?, ?, ?)",
			expense.ID, p.UserID, p.AmountCents,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense payer: %w", err)
		}
	}
	for _, sh := range expense.Shares {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_shares (expense_id, user_id, amount_cents) VALUES (?, ?, ?)",
			expense.ID, sh.UserID, sh.AmountCents,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense share: %w", err)
		}
	}
	return nil
}

// GetExpense retrieves an expense by ID, including payers and shares.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense := &models.Expense{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, trip_id, title, currency, total_cents, created_by, created_at
		 FROM expenses WHERE id = ?`,
		expenseID,
	).Scan(&expense.ID, &expense.TripID, &expense.Title, &expense.Currency,
		&expense.TotalCents, &expense.CreatedBy, &expense.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense not found: %s", expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := s.loadExpenseChildren(ctx, s.db, expense); err != nil {
		return nil, err
	}

	return expense, nil
}

// DeleteExpense removes an expense by ID; payers and shares cascade.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense not found: %s", expenseID)
	}

	return nil
}

// querier lets the child-row loaders run against either the pool or a tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SQLiteStore) loadExpenseChildren(ctx context.Context, q querier, expense *models.Expense) error {
	payerRows, err := q.QueryContext(ctx,
		"SELECT user_id, amount_cents FROM expense_payers WHERE expense_id = ? ORDER BY user_id",
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get expense payers: %w", err)
	}
	defer payerRows.Close()

	for payerRows.Next() {
		var p models.ExpensePayer
		if err := payerRows.Scan(&p.UserID, &p.AmountCents); err != nil {
			return fmt.Errorf("failed to scan expense payer: %w", err)
		}
		expense.Payers = append(expense.Payers, p)
	}
	if err := payerRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expense payers: %w", err)
	}

	shareRows, err := q.QueryContext(ctx,
		"SELECT user_id, amount_cents FROM expense_shares WHERE expense_id = ? ORDER BY user_id",
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get expense shares: %w", err)
	}
	defer shareRows.Close()

	for shareRows.Next() {
		var sh models.ExpenseShare
		if err := shareRows.Scan(&sh.UserID, &sh.AmountCents); err != nil {
			return fmt.Errorf("failed to scan expense share: %w", err)
		}
		expense.Shares = append(expense.Shares, sh)
	}
	if err := shareRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expense shares: %w", err)
	}

	return nil
}

// TripSnapshot reads a trip's expenses and recorded settlements inside one
// transaction. This is the only read path the ledger consumes: two concurrent
// settlement requests may interleave with writes, but each sees a consistent
// set of rows.
func (s *SQLiteStore) TripSnapshot(ctx context.Context, tripID string) ([]models.Expense, []models.Settlement, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id, trip_id, title, currency, total_cents, created_by, created_at
		 FROM expenses WHERE trip_id = ? ORDER BY created_at DESC, id`,
		tripID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.TripID, &e.Title, &e.Currency,
			&e.TotalCents, &e.CreatedBy, &e.CreatedAt); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	rows.Close()

	for i := range expenses {
		if err := s.loadExpenseChildren(ctx, tx, &expenses[i]); err != nil {
			return nil, nil, err
		}
	}

	settlements, err := listSettlements(ctx, tx, tripID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit snapshot transaction: %w", err)
	}

	values := make([]models.Settlement, len(settlements))
	for i, st := range settlements {
		values[i] = *st
	}

	return expenses, values, nil
}
