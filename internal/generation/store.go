package generation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ninjiez/promptmaster-v3/internal/ledger"
	"github.com/ninjiez/promptmaster-v3/internal/models"
	"github.com/ninjiez/promptmaster-v3/internal/prompt"
)

// SQLStore composes the ledger and prompt services so a token charge and the
// write it pays for commit in one database transaction.
type SQLStore struct {
	db      *pgxpool.Pool
	ledger  *ledger.Service
	prompts *prompt.Service
}

func NewSQLStore(db *pgxpool.Pool, ledgerSvc *ledger.Service, promptSvc *prompt.Service) *SQLStore {
	return &SQLStore{db: db, ledger: ledgerSvc, prompts: promptSvc}
}

func (s *SQLStore) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.ledger.Balance(ctx, userID)
}

func (s *SQLStore) Charge(ctx context.Context, userID uuid.UUID, amount int, description, reference string) (*models.TokenTransaction, error) {
	return s.ledger.Charge(ctx, userID, amount, description, reference)
}

func (s *SQLStore) ActiveVersion(ctx context.Context, promptID uuid.UUID) (*models.PromptVersion, error) {
	return s.prompts.ActiveVersion(ctx, promptID)
}

func (s *SQLStore) OwnedPrompt(ctx context.Context, promptID, userID uuid.UUID) (*models.Prompt, error) {
	return s.prompts.GetOwned(ctx, promptID, userID)
}

// ChargeAndCreatePrompt debits the flat cost and inserts the prompt with its
// first version atomically. An insufficient balance rolls back everything.
func (s *SQLStore) ChargeAndCreatePrompt(ctx context.Context, userID uuid.UUID, amount int, description string, req prompt.CreateRequest) (*models.Prompt, *models.PromptVersion, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	p, v, err := s.prompts.CreateTx(ctx, tx, userID, req)
	if err != nil {
		return nil, nil, err
	}

	if _, err := s.ledger.ChargeTx(ctx, tx, userID, amount, description, p.ID.String()); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}
	return p, v, nil
}

// ChargeAndCreateVersion debits the flat cost and appends a new active version
// atomically.
func (s *SQLStore) ChargeAndCreateVersion(ctx context.Context, userID, promptID uuid.UUID, amount int, description string, in prompt.NewVersion) (*models.PromptVersion, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := s.ledger.ChargeTx(ctx, tx, userID, amount, description, promptID.String()); err != nil {
		return nil, err
	}

	v, err := s.prompts.CreateVersionTx(ctx, tx, promptID, in)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return v, nil
}
