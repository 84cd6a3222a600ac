package models

import (
	"time"

	"github.com/google/uuid"
)

// UsageLog is a write-once analytics record for a single AI generation call.
type UsageLog struct {
	ID             uuid.UUID `json:"id" db:"id"`
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	Operation      string    `json:"operation" db:"operation"`
	Model          string    `json:"model" db:"model"`
	TokensUsed     int       `json:"tokens_used" db:"tokens_used"`
	ResponseTimeMs int64     `json:"response_time_ms" db:"response_time_ms"`
	CostUSD        float64   `json:"cost_usd" db:"cost_usd"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
