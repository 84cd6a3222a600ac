// Package prompt manages prompts and their version chains. A prompt's
// versions form an append-only sequence with per-prompt numbering; exactly
// one version is active at a time, and only this package flips the flag.
package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ninjiez/promptmaster-v3/internal/models"
)

var ErrPromptNotFound = errors.New("prompt not found")

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

type CreateRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	IsPublic    bool     `json:"is_public"`

	// Initial version content.
	Content      string          `json:"content"`
	SystemPrompt string          `json:"system_prompt"`
	UserPrompt   string          `json:"user_prompt"`
	TokensCost   int             `json:"tokens_cost"`
	Params       json.RawMessage `json:"generation_params"`
	Metadata     json.RawMessage `json:"metadata"`
}

// Create inserts a prompt together with its first, active version.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*models.Prompt, *models.PromptVersion, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	p, v, err := s.CreateTx(ctx, tx, userID, req)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}
	return p, v, nil
}

// CreateTx inserts a prompt and its first version inside a caller-owned
// transaction, so a token charge can commit with it atomically.
func (s *Service) CreateTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, req CreateRequest) (*models.Prompt, *models.PromptVersion, error) {
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	var p models.Prompt
	err := tx.QueryRow(ctx,
		`INSERT INTO prompts (user_id, title, description, category, tags, is_public, tokens_used)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, user_id, title, description, category, tags, is_public, tokens_used, deleted_at, created_at, updated_at`,
		userID, req.Title, req.Description, req.Category, tags, req.IsPublic, req.TokensCost,
	).Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.Category, &p.Tags, &p.IsPublic, &p.TokensUsed, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("insert prompt: %w", err)
	}

	v, err := insertVersion(ctx, tx, p.ID, 1, nil, NewVersion{
		Content:      req.Content,
		SystemPrompt: req.SystemPrompt,
		UserPrompt:   req.UserPrompt,
		TokensCost:   req.TokensCost,
		Params:       req.Params,
		Metadata:     req.Metadata,
	})
	if err != nil {
		return nil, nil, err
	}

	return &p, v, nil
}

// GetOwned fetches a non-deleted prompt belonging to userID.
func (s *Service) GetOwned(ctx context.Context, promptID, userID uuid.UUID) (*models.Prompt, error) {
	var p models.Prompt
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, title, description, category, tags, is_public, tokens_used, deleted_at, created_at, updated_at
		 FROM prompts WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`,
		promptID, userID,
	).Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.Category, &p.Tags, &p.IsPublic, &p.TokensUsed, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPromptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get prompt: %w", err)
	}
	return &p, nil
}

type ListQuery struct {
	Search   string
	Category string
	Limit    int
	Offset   int
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, q ListQuery) ([]models.Prompt, int, error) {
	if q.Limit <= 0 {
		q.Limit = 10
	}

	where := "user_id = $1 AND deleted_at IS NULL"
	args := []any{userID}
	argIdx := 2

	if q.Search != "" {
		where += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+q.Search+"%")
		argIdx++
	}
	if q.Category != "" {
		where += fmt.Sprintf(" AND category = $%d", argIdx)
		args = append(args, q.Category)
		argIdx++
	}

	var total int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM prompts WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count prompts: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT id, user_id, title, description, category, tags, is_public, tokens_used, deleted_at, created_at, updated_at
		 FROM prompts WHERE %s ORDER BY updated_at DESC LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1,
	)
	args = append(args, q.Limit, q.Offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list prompts: %w", err)
	}
	defer rows.Close()

	var prompts []models.Prompt
	for rows.Next() {
		var p models.Prompt
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.Category, &p.Tags, &p.IsPublic, &p.TokensUsed, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan prompt: %w", err)
		}
		prompts = append(prompts, p)
	}
	return prompts, total, rows.Err()
}

// SoftDelete marks a prompt deleted; versions are kept for audit.
func (s *Service) SoftDelete(ctx context.Context, promptID, userID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE prompts SET deleted_at = now(), updated_at = now() WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL",
		promptID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete prompt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPromptNotFound
	}
	return nil
}
