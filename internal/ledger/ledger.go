// Package ledger owns the per-user token balance and its append-only
// transaction log. Every mutation runs in one database transaction that
// reads the balance, writes it back, and appends a transaction row with
// before/after snapshots, serialized per user via a row lock. No other
// component writes token_balance.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ninjiez/promptmaster-v3/internal/models"
)

type Service struct {
	db          *pgxpool.Pool
	signupBonus int
}

func NewService(db *pgxpool.Pool, signupBonus int) *Service {
	return &Service{db: db, signupBonus: signupBonus}
}

// EnsureUser returns the user for the given email, creating the account with
// the signup bonus on first sight. Creation and the BONUS transaction commit
// together.
func (s *Service) EnsureUser(ctx context.Context, email, name string) (*models.User, error) {
	u, err := s.GetUserByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var user models.User
	err = tx.QueryRow(ctx,
		`INSERT INTO users (email, name, token_balance, tier)
		 VALUES ($1, $2, $3, 'FREE')
		 ON CONFLICT (email) DO UPDATE SET updated_at = now()
		 RETURNING id, email, name, token_balance, tier, created_at, updated_at`,
		email, name, s.signupBonus,
	).Scan(&user.ID, &user.Email, &user.Name, &user.TokenBalance, &user.Tier, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	// A concurrent request may have created the row first; only the creator
	// records the bonus.
	if user.CreatedAt.Equal(user.UpdatedAt) && s.signupBonus > 0 {
		_, err = tx.Exec(ctx,
			`INSERT INTO token_transactions (user_id, type, amount, description, balance_before, balance_after)
			 VALUES ($1, $2, $3, $4, 0, $3)`,
			user.ID, models.TransactionBonus, s.signupBonus, "Welcome bonus",
		)
		if err != nil {
			return nil, fmt.Errorf("insert signup bonus transaction: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &user, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email", email)
}

func (s *Service) getUser(ctx context.Context, column string, value any) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		`SELECT id, email, name, token_balance, tier, created_at, updated_at
		 FROM users WHERE `+column+` = $1`,
		value,
	).Scan(&u.ID, &u.Email, &u.Name, &u.TokenBalance, &u.Tier, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}
	return &u, nil
}

// Balance reads the current token balance without locking.
func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	var balance int
	err := s.db.QueryRow(ctx, "SELECT token_balance FROM users WHERE id = $1", userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// Charge deducts amount from the user's balance and appends a USAGE
// transaction, failing closed with InsufficientBalanceError when the balance
// is short. The balance is never observably negative.
func (s *Service) Charge(ctx context.Context, userID uuid.UUID, amount int, description, reference string) (*models.TokenTransaction, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	t, err := s.ChargeTx(ctx, tx, userID, amount, description, reference)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return t, nil
}

// ChargeTx runs the charge inside a caller-owned transaction so the debit can
// commit atomically with other writes (version persistence in particular).
func (s *Service) ChargeTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int, description, reference string) (*models.TokenTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("charge amount must be positive, got %d", amount)
	}

	balance, err := lockBalance(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if balance < amount {
		return nil, &InsufficientBalanceError{Required: amount, Available: balance}
	}

	return s.applyTx(ctx, tx, userID, models.TransactionUsage, -amount, balance, description, reference)
}

// Credit adds amount to the user's balance with a transaction of the given
// type (PURCHASE or BONUS).
func (s *Service) Credit(ctx context.Context, userID uuid.UUID, amount int, txType models.TransactionType, description, reference string) (*models.TokenTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	if txType != models.TransactionPurchase && txType != models.TransactionBonus {
		return nil, fmt.Errorf("invalid credit transaction type %q", txType)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	balance, err := lockBalance(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	t, err := s.applyTx(ctx, tx, userID, txType, amount, balance, description, reference)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return t, nil
}

// History lists a user's ledger entries newest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.TokenTransaction, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, type, amount, description, COALESCE(reference, ''), balance_before, balance_after, created_at
		 FROM token_transactions WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var history []models.TokenTransaction
	for rows.Next() {
		var t models.TokenTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Description, &t.Reference, &t.BalanceBefore, &t.BalanceAfter, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		history = append(history, t)
	}
	return history, rows.Err()
}

// lockBalance reads the balance under FOR UPDATE so concurrent charges and
// credits for the same user serialize.
func lockBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error) {
	var balance int
	err := tx.QueryRow(ctx, "SELECT token_balance FROM users WHERE id = $1 FOR UPDATE", userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lock balance: %w", err)
	}
	return balance, nil
}

func (s *Service) applyTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, txType models.TransactionType, amount, balanceBefore int, description, reference string) (*models.TokenTransaction, error) {
	balanceAfter := balanceBefore + amount

	_, err := tx.Exec(ctx, "UPDATE users SET token_balance = $1, updated_at = now() WHERE id = $2", balanceAfter, userID)
	if err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	var ref *string
	if reference != "" {
		ref = &reference
	}

	var t models.TokenTransaction
	err = tx.QueryRow(ctx,
		`INSERT INTO token_transactions (user_id, type, amount, description, reference, balance_before, balance_after)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, user_id, type, amount, description, COALESCE(reference, ''), balance_before, balance_after, created_at`,
		userID, txType, amount, description, ref, balanceBefore, balanceAfter,
	).Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Description, &t.Reference, &t.BalanceBefore, &t.BalanceAfter, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	return &t, nil
}
