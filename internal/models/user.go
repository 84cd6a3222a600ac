package models

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "FREE"
	TierStarter SubscriptionTier = "STARTER"
	TierPro     SubscriptionTier = "PRO"
	TierUltra   SubscriptionTier = "ULTRA"
)

type User struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	Email        string           `json:"email" db:"email"`
	Name         string           `json:"name,omitempty" db:"name"`
	TokenBalance int              `json:"token_balance" db:"token_balance"`
	Tier         SubscriptionTier `json:"tier" db:"tier"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

type TransactionType string

const (
	TransactionUsage    TransactionType = "USAGE"
	TransactionPurchase TransactionType = "PURCHASE"
	TransactionBonus    TransactionType = "BONUS"
)

// TokenTransaction is a single append-only ledger entry. Amount is signed:
// negative for usage, positive for purchases and bonuses, so summing amounts
// for a user reproduces their current balance.
type TokenTransaction struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"user_id" db:"user_id"`
	Type          TransactionType `json:"type" db:"type"`
	Amount        int             `json:"amount" db:"amount"`
	Description   string          `json:"description" db:"description"`
	Reference     string          `json:"reference,omitempty" db:"reference"`
	BalanceBefore int             `json:"balance_before" db:"balance_before"`
	BalanceAfter  int             `json:"balance_after" db:"balance_after"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
