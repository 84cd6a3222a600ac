// Package generation orchestrates the AI operations: it validates input,
// prechecks the caller's token balance, builds the operation template, calls
// the model gateway, normalizes and shape-checks the output, then charges the
// flat operation cost together with any persistence in one transaction. The
// pipeline is stateless between requests; every failure maps to one typed
// error.
package generation

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ninjiez/promptmaster-v3/internal/config"
	"github.com/ninjiez/promptmaster-v3/internal/ledger"
	"github.com/ninjiez/promptmaster-v3/internal/llm"
	"github.com/ninjiez/promptmaster-v3/internal/models"
	"github.com/ninjiez/promptmaster-v3/internal/prompt"
	"github.com/ninjiez/promptmaster-v3/internal/queue"
	"github.com/ninjiez/promptmaster-v3/internal/template"
)

// Generator produces model text for a prompt; the llm gateway implements it.
type Generator interface {
	Generate(ctx context.Context, model, prompt string, cfg llm.GenerateConfig) (*llm.Result, error)
}

// Store is the persistence surface the orchestrator needs. SQLStore implements
// it; tests substitute fakes.
type Store interface {
	Balance(ctx context.Context, userID uuid.UUID) (int, error)
	Charge(ctx context.Context, userID uuid.UUID, amount int, description, reference string) (*models.TokenTransaction, error)
	ActiveVersion(ctx context.Context, promptID uuid.UUID) (*models.PromptVersion, error)
	OwnedPrompt(ctx context.Context, promptID, userID uuid.UUID) (*models.Prompt, error)
	ChargeAndCreatePrompt(ctx context.Context, userID uuid.UUID, amount int, description string, req prompt.CreateRequest) (*models.Prompt, *models.PromptVersion, error)
	ChargeAndCreateVersion(ctx context.Context, userID, promptID uuid.UUID, amount int, description string, in prompt.NewVersion) (*models.PromptVersion, error)
}

// UsageSink receives per-call usage metrics for async persistence.
type UsageSink interface {
	EnqueueUsageLog(payload queue.UsageLogPayload) error
}

// UsageMetric summarizes one successful AI call for the caller.
type UsageMetric struct {
	Operation     string  `json:"operation"`
	Model         string  `json:"model"`
	Provider      string  `json:"provider"`
	TokensUsed    int     `json:"tokens_used"`
	TokensCharged int     `json:"tokens_charged"`
	LatencyMs     int64   `json:"latency_ms"`
	CostUSD       float64 `json:"cost_usd"`
}

type Service struct {
	templates *template.Registry
	gen       Generator
	store     Store
	usage     UsageSink
	ai        config.AIConfig
	costs     config.TokenConfig
}

func NewService(templates *template.Registry, gen Generator, store Store, usage UsageSink, ai config.AIConfig, costs config.TokenConfig) *Service {
	return &Service{
		templates: templates,
		gen:       gen,
		store:     store,
		usage:     usage,
		ai:        ai,
		costs:     costs,
	}
}

type GenerateRequest struct {
	UserID         uuid.UUID
	Idea           string
	Context        string
	UseCase        string
	Style          string
	TargetAudience string

	// Save persists the generated prompt as a new prompt with version 1.
	Save     bool
	Category string
	IsPublic bool
}

type GenerateResult struct {
	Prompt  GeneratedPrompt       `json:"prompt"`
	Saved   *models.Prompt        `json:"saved,omitempty"`
	Version *models.PromptVersion `json:"version,omitempty"`
	Usage   UsageMetric           `json:"usage"`
}

// GeneratePrompt turns a free-form idea into a structured prompt. Tokens are
// charged only after the model output passes shape checks; when Save is set
// the charge and the prompt insert commit together.
func (s *Service) GeneratePrompt(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if strings.TrimSpace(req.Idea) == "" {
		return nil, &ValidationError{Field: "idea"}
	}

	cost := s.costs.GenerationCost
	if err := s.precheckBalance(ctx, req.UserID, cost); err != nil {
		return nil, err
	}

	useCase := req.UseCase
	if strings.TrimSpace(useCase) == "" {
		useCase = "professional content creation"
	}

	res, err := s.run(ctx, template.PromptGeneration, s.ai.GenerationModel, map[string]string{
		"idea":           req.Idea,
		"context":        req.Context,
		"useCase":        useCase,
		"style":          req.Style,
		"targetAudience": req.TargetAudience,
	})
	if err != nil {
		return nil, err
	}

	generated, err := decodePrompt(res.Content)
	if err != nil {
		return nil, err
	}

	out := &GenerateResult{Prompt: *generated}

	if req.Save {
		category := req.Category
		if category == "" {
			category = "general"
		}
		metadata, _ := json.Marshal(map[string]any{
			"suggestions": generated.Suggestions,
			"model":       res.Model,
			"provider":    res.Provider,
		})
		p, v, err := s.store.ChargeAndCreatePrompt(ctx, req.UserID, cost, "Prompt generation", prompt.CreateRequest{
			Title:       generated.Title,
			Description: generated.Description,
			Category:    category,
			Tags:        generated.Tags,
			IsPublic:    req.IsPublic,
			Content:     generated.Content,
			UserPrompt:  generated.Content,
			TokensCost:  cost,
			Metadata:    metadata,
		})
		if err != nil {
			return nil, err
		}
		out.Saved = p
		out.Version = v
	} else {
		if _, err := s.store.Charge(ctx, req.UserID, cost, "Prompt generation", ""); err != nil {
			return nil, err
		}
	}

	out.Usage = s.recordUsage(req.UserID, OpPromptGeneration, cost, res)
	return out, nil
}

type QuestionsRequest struct {
	UserID         uuid.UUID
	PromptID       uuid.UUID
	ContextAnswers string
	RecentResults  string
}

type QuestionsResult struct {
	Questions []Question  `json:"questions"`
	Usage     UsageMetric `json:"usage"`
}

// GenerateQuestions asks the model for clarifying questions about the
// prompt's current active version.
func (s *Service) GenerateQuestions(ctx context.Context, req QuestionsRequest) (*QuestionsResult, error) {
	active, err := s.ownedActiveVersion(ctx, req.PromptID, req.UserID)
	if err != nil {
		return nil, err
	}

	cost := s.costs.QuestionCost
	if err := s.precheckBalance(ctx, req.UserID, cost); err != nil {
		return nil, err
	}

	res, err := s.run(ctx, template.QuestionGeneration, s.ai.QuestionModel, map[string]string{
		"currentPrompt":  active.Content,
		"contextAnswers": req.ContextAnswers,
		"recentResults":  req.RecentResults,
	})
	if err != nil {
		return nil, err
	}

	questions, err := decodeQuestions(res.Content)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Charge(ctx, req.UserID, cost, "Question generation", req.PromptID.String()); err != nil {
		return nil, err
	}

	return &QuestionsResult{
		Questions: questions,
		Usage:     s.recordUsage(req.UserID, OpQuestionGeneration, cost, res),
	}, nil
}

type ExamplesRequest struct {
	UserID           uuid.UUID
	PromptID         uuid.UUID
	UseCaseContext   string
	Requirements     string
	PreviousFailures string
}

type ExamplesResult struct {
	Examples []Example   `json:"examples"`
	Usage    UsageMetric `json:"usage"`
}

// GenerateExamples asks the model for test inputs exercising the prompt's
// current active version.
func (s *Service) GenerateExamples(ctx context.Context, req ExamplesRequest) (*ExamplesResult, error) {
	if strings.TrimSpace(req.UseCaseContext) == "" {
		return nil, &ValidationError{Field: "useCaseContext"}
	}

	active, err := s.ownedActiveVersion(ctx, req.PromptID, req.UserID)
	if err != nil {
		return nil, err
	}

	cost := s.costs.ExampleCost
	if err := s.precheckBalance(ctx, req.UserID, cost); err != nil {
		return nil, err
	}

	res, err := s.run(ctx, template.ExampleGeneration, s.ai.ExampleModel, map[string]string{
		"userPrompt":       active.Content,
		"useCaseContext":   req.UseCaseContext,
		"requirements":     req.Requirements,
		"previousFailures": req.PreviousFailures,
	})
	if err != nil {
		return nil, err
	}

	examples, err := decodeExamples(res.Content)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Charge(ctx, req.UserID, cost, "Example generation", req.PromptID.String()); err != nil {
		return nil, err
	}

	return &ExamplesResult{
		Examples: examples,
		Usage:    s.recordUsage(req.UserID, OpExampleGeneration, cost, res),
	}, nil
}

type ImproveRequest struct {
	UserID         uuid.UUID
	PromptID       uuid.UUID
	PreviousResult string
	CurrentResult  string
	BetterOrWorse  string
	UserFeedback   string
	DebugInfo      string
}

type ImproveResult struct {
	Improvement Improvement           `json:"improvement"`
	Version     *models.PromptVersion `json:"version"`
	Usage       UsageMetric           `json:"usage"`
}

// ImprovePrompt feeds the result comparison back to the model and persists
// the rewritten prompt as a new active version, charged atomically.
func (s *Service) ImprovePrompt(ctx context.Context, req ImproveRequest) (*ImproveResult, error) {
	for field, value := range map[string]string{
		"previousResult": req.PreviousResult,
		"currentResult":  req.CurrentResult,
		"userFeedback":   req.UserFeedback,
	} {
		if strings.TrimSpace(value) == "" {
			return nil, &ValidationError{Field: field}
		}
	}
	if req.BetterOrWorse != "better" && req.BetterOrWorse != "worse" {
		return nil, &ValidationError{Field: "betterOrWorse", Reason: `must be "better" or "worse"`}
	}

	active, err := s.ownedActiveVersion(ctx, req.PromptID, req.UserID)
	if err != nil {
		return nil, err
	}

	cost := s.costs.ImprovementCost
	if err := s.precheckBalance(ctx, req.UserID, cost); err != nil {
		return nil, err
	}

	res, err := s.run(ctx, template.PromptImprovement, s.ai.ImprovementModel, map[string]string{
		"currentPrompt":  active.Content,
		"previousResult": req.PreviousResult,
		"currentResult":  req.CurrentResult,
		"betterOrWorse":  req.BetterOrWorse,
		"userFeedback":   req.UserFeedback,
		"debugInfo":      req.DebugInfo,
	})
	if err != nil {
		return nil, err
	}

	improved, err := decodeImprovement(res.Content)
	if err != nil {
		return nil, err
	}

	metadata, _ := json.Marshal(map[string]any{
		"changes_made": improved.ChangesMade,
		"reasoning":    improved.Reasoning,
		"model":        res.Model,
		"provider":     res.Provider,
	})

	version, err := s.store.ChargeAndCreateVersion(ctx, req.UserID, req.PromptID, cost, "Prompt improvement", prompt.NewVersion{
		Content:         improved.ImprovedPrompt,
		SystemPrompt:    active.SystemPrompt,
		UserPrompt:      improved.ImprovedPrompt,
		TokensCost:      cost,
		ParentVersionID: &active.ID,
		Metadata:        metadata,
	})
	if err != nil {
		return nil, err
	}

	return &ImproveResult{
		Improvement: *improved,
		Version:     version,
		Usage:       s.recordUsage(req.UserID, OpPromptImprovement, cost, res),
	}, nil
}

// precheckBalance rejects before the provider call; nothing is debited here.
// The actual debit happens after the output is validated.
func (s *Service) precheckBalance(ctx context.Context, userID uuid.UUID, cost int) error {
	balance, err := s.store.Balance(ctx, userID)
	if err != nil {
		return err
	}
	if balance < cost {
		return &ledger.InsufficientBalanceError{Required: cost, Available: balance}
	}
	return nil
}

func (s *Service) ownedActiveVersion(ctx context.Context, promptID, userID uuid.UUID) (*models.PromptVersion, error) {
	if _, err := s.store.OwnedPrompt(ctx, promptID, userID); err != nil {
		return nil, err
	}
	return s.store.ActiveVersion(ctx, promptID)
}

func (s *Service) run(ctx context.Context, templateID, model string, vars map[string]string) (*llm.Result, error) {
	text, err := s.templates.Build(templateID, vars)
	if err != nil {
		return nil, &TemplateError{Err: err}
	}
	return s.gen.Generate(ctx, model, text, llm.DefaultGenerateConfig())
}

// recordUsage forwards the metric for async persistence; failures are logged
// and never fail the request.
func (s *Service) recordUsage(userID uuid.UUID, operation string, charged int, res *llm.Result) UsageMetric {
	metric := UsageMetric{
		Operation:     operation,
		Model:         res.Model,
		Provider:      res.Provider,
		TokensUsed:    res.TokensUsed,
		TokensCharged: charged,
		LatencyMs:     res.LatencyMs,
		CostUSD:       llm.CalculateCost(res.Model, res.TokensUsed),
	}

	if s.usage != nil {
		err := s.usage.EnqueueUsageLog(queue.UsageLogPayload{
			UserID:         userID,
			Operation:      operation,
			Model:          res.Model,
			TokensUsed:     res.TokensUsed,
			ResponseTimeMs: res.LatencyMs,
			CostUSD:        metric.CostUSD,
		})
		if err != nil {
			slog.Warn("enqueue usage log failed", "operation", operation, "error", err)
		}
	}

	return metric
}
