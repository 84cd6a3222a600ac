package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/ninjiez/promptmaster-v3/internal/audit"
	"github.com/ninjiez/promptmaster-v3/internal/models"
)

type HandlersRegistry struct {
	mux *asynq.ServeMux
}

func NewHandlersRegistry() *HandlersRegistry {
	return &HandlersRegistry{
		mux: asynq.NewServeMux(),
	}
}

func (r *HandlersRegistry) Register(taskType string, handler asynq.Handler) {
	r.mux.Handle(taskType, handler)
}

func (r *HandlersRegistry) Mux() *asynq.ServeMux {
	return r.mux
}

// UsageLogWorker persists enqueued usage metrics.
type UsageLogWorker struct {
	auditSvc *audit.Service
}

func NewUsageLogWorker(auditSvc *audit.Service) *UsageLogWorker {
	return &UsageLogWorker{auditSvc: auditSvc}
}

func (w *UsageLogWorker) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload UsageLogPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal usage log payload: %w", err)
	}

	return w.auditSvc.LogUsage(ctx, models.UsageLog{
		UserID:         payload.UserID,
		Operation:      payload.Operation,
		Model:          payload.Model,
		TokensUsed:     payload.TokensUsed,
		ResponseTimeMs: payload.ResponseTimeMs,
		CostUSD:        payload.CostUSD,
	})
}
