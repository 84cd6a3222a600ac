package ledger

import (
	"errors"
	"fmt"
)

// ErrUserNotFound is returned when a charge or credit targets an unknown user.
var ErrUserNotFound = errors.New("user not found")

// InsufficientBalanceError reports a charge rejected because the balance was
// below the requested amount. Required and Available are surfaced so callers
// can prompt a purchase.
type InsufficientBalanceError struct {
	Required  int
	Available int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient token balance: required %d, available %d", e.Required, e.Available)
}
