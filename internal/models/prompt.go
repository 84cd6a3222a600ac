package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Prompt struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description,omitempty" db:"description"`
	Category    string     `json:"category,omitempty" db:"category"`
	Tags        []string   `json:"tags" db:"tags"`
	IsPublic    bool       `json:"is_public" db:"is_public"`
	TokensUsed  int        `json:"tokens_used" db:"tokens_used"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// PromptVersion is immutable after insert except for is_active, which the
// version chain manager flips so that exactly one version per prompt is
// active at any time. ParentVersionID is a back-reference for history
// lookup, not an ownership edge.
type PromptVersion struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	PromptID         uuid.UUID       `json:"prompt_id" db:"prompt_id"`
	Version          int             `json:"version" db:"version"`
	SystemPrompt     string          `json:"system_prompt,omitempty" db:"system_prompt"`
	UserPrompt       string          `json:"user_prompt,omitempty" db:"user_prompt"`
	Content          string          `json:"content" db:"content"`
	IsActive         bool            `json:"is_active" db:"is_active"`
	TokensCost       int             `json:"tokens_cost" db:"tokens_cost"`
	ParentVersionID  *uuid.UUID      `json:"parent_version_id,omitempty" db:"parent_version_id"`
	GenerationParams json.RawMessage `json:"generation_params,omitempty" db:"generation_params"`
	Metadata         json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}
