package queue

import (
	"github.com/google/uuid"
)

const TypeUsageLog = "usage:log"

// UsageLogPayload is the analytics record enqueued after every successful
// generation; the worker appends it to usage_logs.
type UsageLogPayload struct {
	UserID         uuid.UUID `json:"user_id"`
	Operation      string    `json:"operation"`
	Model          string    `json:"model"`
	TokensUsed     int       `json:"tokens_used"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	CostUSD        float64   `json:"cost_usd"`
}
