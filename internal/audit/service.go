// Package audit appends write-once usage metrics for AI generation calls and
// serves aggregate summaries.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ninjiez/promptmaster-v3/internal/models"
)

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

func (s *Service) LogUsage(ctx context.Context, record models.UsageLog) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO usage_logs (user_id, operation, model, tokens_used, response_time_ms, cost_usd)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		record.UserID, record.Operation, record.Model, record.TokensUsed, record.ResponseTimeMs, record.CostUSD,
	)
	if err != nil {
		return fmt.Errorf("insert usage log: %w", err)
	}
	return nil
}

type UsageSummary struct {
	Operation    string  `json:"operation"`
	Model        string  `json:"model"`
	TotalCalls   int     `json:"total_calls"`
	TotalTokens  int     `json:"total_tokens"`
	TotalCostUSD float64 `json:"total_cost_usd"`
}

func (s *Service) GetUsageSummary(ctx context.Context, userID *uuid.UUID, startDate, endDate *time.Time) ([]UsageSummary, error) {
	query := `SELECT operation, model, COUNT(*) as total_calls,
	                 COALESCE(SUM(tokens_used), 0) as total_tokens,
	                 COALESCE(SUM(cost_usd), 0) as total_cost_usd
	          FROM usage_logs WHERE 1=1`
	var args []any
	argIdx := 1

	if userID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", argIdx)
		args = append(args, *userID)
		argIdx++
	}
	if startDate != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *startDate)
		argIdx++
	}
	if endDate != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *endDate)
		argIdx++
	}

	query += " GROUP BY operation, model ORDER BY total_cost_usd DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage summary: %w", err)
	}
	defer rows.Close()

	var summaries []UsageSummary
	for rows.Next() {
		var us UsageSummary
		if err := rows.Scan(&us.Operation, &us.Model, &us.TotalCalls, &us.TotalTokens, &us.TotalCostUSD); err != nil {
			return nil, fmt.Errorf("scan usage summary: %w", err)
		}
		summaries = append(summaries, us)
	}
	return summaries, rows.Err()
}
