package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ninjiez/promptmaster-v3/internal/models"
)

// NewVersion carries the fields for one version insert.
type NewVersion struct {
	Content         string          `json:"content"`
	SystemPrompt    string          `json:"system_prompt"`
	UserPrompt      string          `json:"user_prompt"`
	TokensCost      int             `json:"tokens_cost"`
	ParentVersionID *uuid.UUID      `json:"parent_version_id"`
	Params          json.RawMessage `json:"generation_params"`
	Metadata        json.RawMessage `json:"metadata"`
}

// CreateVersion appends a new active version in its own transaction.
func (s *Service) CreateVersion(ctx context.Context, promptID uuid.UUID, in NewVersion) (*models.PromptVersion, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	v, err := s.CreateVersionTx(ctx, tx, promptID, in)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return v, nil
}

// CreateVersionTx appends a new version inside a caller-owned transaction:
// every currently active version of the prompt is deactivated, the new
// version is inserted active with the next per-prompt number, and the
// prompt's aggregate token counter and timestamp are updated. The prompt row
// is locked first so concurrent creation for the same prompt serializes and
// no reader ever observes zero or two active versions.
func (s *Service) CreateVersionTx(ctx context.Context, tx pgx.Tx, promptID uuid.UUID, in NewVersion) (*models.PromptVersion, error) {
	var deletedAt *string
	err := tx.QueryRow(ctx, "SELECT deleted_at::text FROM prompts WHERE id = $1 FOR UPDATE", promptID).Scan(&deletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPromptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock prompt: %w", err)
	}
	if deletedAt != nil {
		return nil, ErrPromptNotFound
	}

	var nextVersion int
	var latestID *uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1,
		        (SELECT id FROM prompt_versions WHERE prompt_id = $1 ORDER BY version DESC LIMIT 1)
		 FROM prompt_versions WHERE prompt_id = $1`,
		promptID,
	).Scan(&nextVersion, &latestID)
	if err != nil {
		return nil, fmt.Errorf("next version number: %w", err)
	}

	parent := in.ParentVersionID
	if parent == nil {
		parent = latestID
	}

	if _, err := tx.Exec(ctx,
		"UPDATE prompt_versions SET is_active = false WHERE prompt_id = $1 AND is_active",
		promptID,
	); err != nil {
		return nil, fmt.Errorf("deactivate versions: %w", err)
	}

	v, err := insertVersion(ctx, tx, promptID, nextVersion, parent, in)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		"UPDATE prompts SET tokens_used = tokens_used + $1, updated_at = now() WHERE id = $2",
		in.TokensCost, promptID,
	); err != nil {
		return nil, fmt.Errorf("update prompt usage: %w", err)
	}

	return v, nil
}

// ListVersions returns a prompt's versions latest first.
func (s *Service) ListVersions(ctx context.Context, promptID uuid.UUID) ([]models.PromptVersion, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, prompt_id, version, system_prompt, user_prompt, content, is_active, tokens_cost, parent_version_id, generation_params, metadata, created_at
		 FROM prompt_versions WHERE prompt_id = $1 ORDER BY version DESC`,
		promptID,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []models.PromptVersion
	for rows.Next() {
		var v models.PromptVersion
		if err := rows.Scan(&v.ID, &v.PromptID, &v.Version, &v.SystemPrompt, &v.UserPrompt, &v.Content, &v.IsActive, &v.TokensCost, &v.ParentVersionID, &v.GenerationParams, &v.Metadata, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// ActiveVersion returns the single active version of a prompt.
func (s *Service) ActiveVersion(ctx context.Context, promptID uuid.UUID) (*models.PromptVersion, error) {
	var v models.PromptVersion
	err := s.db.QueryRow(ctx,
		`SELECT id, prompt_id, version, system_prompt, user_prompt, content, is_active, tokens_cost, parent_version_id, generation_params, metadata, created_at
		 FROM prompt_versions WHERE prompt_id = $1 AND is_active`,
		promptID,
	).Scan(&v.ID, &v.PromptID, &v.Version, &v.SystemPrompt, &v.UserPrompt, &v.Content, &v.IsActive, &v.TokensCost, &v.ParentVersionID, &v.GenerationParams, &v.Metadata, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPromptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get active version: %w", err)
	}
	return &v, nil
}

func insertVersion(ctx context.Context, tx pgx.Tx, promptID uuid.UUID, version int, parent *uuid.UUID, in NewVersion) (*models.PromptVersion, error) {
	params := in.Params
	if params == nil {
		params = json.RawMessage("{}")
	}
	metadata := in.Metadata
	if metadata == nil {
		metadata = json.RawMessage("{}")
	}

	userPrompt := in.UserPrompt
	if userPrompt == "" {
		userPrompt = in.Content
	}

	var v models.PromptVersion
	err := tx.QueryRow(ctx,
		`INSERT INTO prompt_versions (prompt_id, version, system_prompt, user_prompt, content, is_active, tokens_cost, parent_version_id, generation_params, metadata)
		 VALUES ($1, $2, $3, $4, $5, true, $6, $7, $8, $9)
		 RETURNING id, prompt_id, version, system_prompt, user_prompt, content, is_active, tokens_cost, parent_version_id, generation_params, metadata, created_at`,
		promptID, version, in.SystemPrompt, userPrompt, in.Content, in.TokensCost, parent, params, metadata,
	).Scan(&v.ID, &v.PromptID, &v.Version, &v.SystemPrompt, &v.UserPrompt, &v.Content, &v.IsActive, &v.TokensCost, &v.ParentVersionID, &v.GenerationParams, &v.Metadata, &v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert version %d: %w", version, err)
	}
	return &v, nil
}
