package ledger

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninjiez/promptmaster-v3/internal/database"
	"github.com/ninjiez/promptmaster-v3/internal/models"
)

// These tests need a real database; set TEST_DATABASE_URL to run them.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.RunMigrations(context.Background(), pool, "../../migrations"))
	return pool
}

func testEmail() string {
	return fmt.Sprintf("ledger-%s@test.local", uuid.NewString()[:8])
}

func TestEnsureUserGrantsSignupBonus(t *testing.T) {
	pool := testPool(t)
	svc := NewService(pool, 1500)
	ctx := context.Background()

	email := testEmail()
	u, err := svc.EnsureUser(ctx, email, "Test User")
	require.NoError(t, err)
	assert.Equal(t, 1500, u.TokenBalance)

	// Second sight must not grant again.
	again, err := svc.EnsureUser(ctx, email, "Test User")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, 1500, again.TokenBalance)

	history, err := svc.History(ctx, u.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.TransactionBonus, history[0].Type)
	assert.Equal(t, 1500, history[0].Amount)
	assert.Equal(t, 0, history[0].BalanceBefore)
	assert.Equal(t, 1500, history[0].BalanceAfter)
}

func TestChargeAndCredit(t *testing.T) {
	pool := testPool(t)
	svc := NewService(pool, 100)
	ctx := context.Background()

	u, err := svc.EnsureUser(ctx, testEmail(), "")
	require.NoError(t, err)

	tx1, err := svc.Charge(ctx, u.ID, 10, "Prompt generation", "")
	require.NoError(t, err)
	assert.Equal(t, -10, tx1.Amount)
	assert.Equal(t, 100, tx1.BalanceBefore)
	assert.Equal(t, 90, tx1.BalanceAfter)

	tx2, err := svc.Credit(ctx, u.ID, 500, models.TransactionPurchase, "Token purchase", "sess_123")
	require.NoError(t, err)
	assert.Equal(t, 500, tx2.Amount)
	assert.Equal(t, 590, tx2.BalanceAfter)
	assert.Equal(t, "sess_123", tx2.Reference)

	balance, err := svc.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 590, balance)

	// Sum of all transaction amounts equals the balance.
	var sum int
	require.NoError(t, pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM token_transactions WHERE user_id = $1", u.ID,
	).Scan(&sum))
	assert.Equal(t, balance, sum)
}

func TestChargeInsufficientLeavesBalanceUnchanged(t *testing.T) {
	pool := testPool(t)
	svc := NewService(pool, 10)
	ctx := context.Background()

	u, err := svc.EnsureUser(ctx, testEmail(), "")
	require.NoError(t, err)

	_, err = svc.Charge(ctx, u.ID, 12, "Prompt improvement", "")
	var insufficient *InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 12, insufficient.Required)
	assert.Equal(t, 10, insufficient.Available)

	balance, err := svc.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, balance)
}

func TestChargeRejectsNonPositiveAmount(t *testing.T) {
	pool := testPool(t)
	svc := NewService(pool, 100)
	ctx := context.Background()

	u, err := svc.EnsureUser(ctx, testEmail(), "")
	require.NoError(t, err)

	_, err = svc.Charge(ctx, u.ID, 0, "nothing", "")
	assert.Error(t, err)
	_, err = svc.Charge(ctx, u.ID, -5, "nothing", "")
	assert.Error(t, err)
}

func TestCreditRejectsUsageType(t *testing.T) {
	pool := testPool(t)
	svc := NewService(pool, 100)
	ctx := context.Background()

	u, err := svc.EnsureUser(ctx, testEmail(), "")
	require.NoError(t, err)

	_, err = svc.Credit(ctx, u.ID, 10, models.TransactionUsage, "bad", "")
	assert.Error(t, err)
}

func TestConcurrentChargesNeverOverdraw(t *testing.T) {
	pool := testPool(t)
	svc := NewService(pool, 8)
	ctx := context.Background()

	u, err := svc.EnsureUser(ctx, testEmail(), "")
	require.NoError(t, err)

	// Two concurrent charges of 5 against a balance of 8: exactly one wins.
	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Charge(ctx, u.ID, 5, "Question generation", "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, failed int
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			var insufficient *InsufficientBalanceError
			require.ErrorAs(t, err, &insufficient)
			failed++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)

	balance, err := svc.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, balance)
}

func TestChargeUnknownUser(t *testing.T) {
	pool := testPool(t)
	svc := NewService(pool, 0)

	_, err := svc.Charge(context.Background(), uuid.New(), 5, "x", "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestHistoryNewestFirst(t *testing.T) {
	pool := testPool(t)
	svc := NewService(pool, 100)
	ctx := context.Background()

	u, err := svc.EnsureUser(ctx, testEmail(), "")
	require.NoError(t, err)

	_, err = svc.Charge(ctx, u.ID, 10, "first", "")
	require.NoError(t, err)
	_, err = svc.Charge(ctx, u.ID, 5, "second", "")
	require.NoError(t, err)

	history, err := svc.History(ctx, u.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "second", history[0].Description)
	assert.Equal(t, "first", history[1].Description)
}
