package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninjiez/promptmaster-v3/internal/config"
	"github.com/ninjiez/promptmaster-v3/internal/ledger"
	"github.com/ninjiez/promptmaster-v3/internal/llm"
	"github.com/ninjiez/promptmaster-v3/internal/models"
	"github.com/ninjiez/promptmaster-v3/internal/prompt"
	"github.com/ninjiez/promptmaster-v3/internal/queue"
	"github.com/ninjiez/promptmaster-v3/internal/template"
)

type fakeGenerator struct {
	content string
	err     error

	calls      int
	lastModel  string
	lastPrompt string
}

func (f *fakeGenerator) Generate(_ context.Context, model, promptText string, _ llm.GenerateConfig) (*llm.Result, error) {
	f.calls++
	f.lastModel = model
	f.lastPrompt = promptText
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Result{Content: f.content, TokensUsed: 42, Model: model, Provider: "stub", LatencyMs: 7}, nil
}

type chargeCall struct {
	amount      int
	description string
	reference   string
}

type fakeStore struct {
	balance int
	active  *models.PromptVersion
	owned   *models.Prompt

	charges        []chargeCall
	createdPrompt  *prompt.CreateRequest
	createdVersion *prompt.NewVersion
}

func (f *fakeStore) Balance(_ context.Context, _ uuid.UUID) (int, error) {
	return f.balance, nil
}

func (f *fakeStore) Charge(_ context.Context, _ uuid.UUID, amount int, description, reference string) (*models.TokenTransaction, error) {
	f.charges = append(f.charges, chargeCall{amount, description, reference})
	f.balance -= amount
	return &models.TokenTransaction{Amount: -amount}, nil
}

func (f *fakeStore) ActiveVersion(_ context.Context, _ uuid.UUID) (*models.PromptVersion, error) {
	if f.active == nil {
		return nil, prompt.ErrPromptNotFound
	}
	return f.active, nil
}

func (f *fakeStore) OwnedPrompt(_ context.Context, _, _ uuid.UUID) (*models.Prompt, error) {
	if f.owned == nil {
		return nil, prompt.ErrPromptNotFound
	}
	return f.owned, nil
}

func (f *fakeStore) ChargeAndCreatePrompt(_ context.Context, _ uuid.UUID, amount int, description string, req prompt.CreateRequest) (*models.Prompt, *models.PromptVersion, error) {
	f.charges = append(f.charges, chargeCall{amount: amount, description: description})
	f.balance -= amount
	f.createdPrompt = &req
	return &models.Prompt{ID: uuid.New(), Title: req.Title}, &models.PromptVersion{Version: 1, Content: req.Content, IsActive: true}, nil
}

func (f *fakeStore) ChargeAndCreateVersion(_ context.Context, _, promptID uuid.UUID, amount int, description string, in prompt.NewVersion) (*models.PromptVersion, error) {
	f.charges = append(f.charges, chargeCall{amount: amount, description: description, reference: promptID.String()})
	f.balance -= amount
	f.createdVersion = &in
	return &models.PromptVersion{ID: uuid.New(), PromptID: promptID, Version: 2, Content: in.Content, IsActive: true}, nil
}

type fakeSink struct {
	payloads []queue.UsageLogPayload
}

func (f *fakeSink) EnqueueUsageLog(p queue.UsageLogPayload) error {
	f.payloads = append(f.payloads, p)
	return nil
}

func testCosts() config.TokenConfig {
	return config.TokenConfig{GenerationCost: 10, ImprovementCost: 12, QuestionCost: 5, ExampleCost: 8}
}

func testAI() config.AIConfig {
	return config.AIConfig{
		GenerationModel:  "model-gen",
		QuestionModel:    "model-q",
		ExampleModel:     "model-ex",
		ImprovementModel: "model-imp",
	}
}

func newTestService(gen *fakeGenerator, store *fakeStore, sink UsageSink) *Service {
	return NewService(template.DefaultRegistry(), gen, store, sink, testAI(), testCosts())
}

func TestGeneratePromptRequiresIdea(t *testing.T) {
	gen := &fakeGenerator{}
	store := &fakeStore{balance: 100}
	svc := newTestService(gen, store, nil)

	_, err := svc.GeneratePrompt(context.Background(), GenerateRequest{UserID: uuid.New(), Idea: "   "})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "idea", vErr.Field)
	assert.Zero(t, gen.calls)
	assert.Empty(t, store.charges)
}

func TestGeneratePromptInsufficientBalance(t *testing.T) {
	gen := &fakeGenerator{}
	store := &fakeStore{balance: 7}
	svc := newTestService(gen, store, nil)

	_, err := svc.GeneratePrompt(context.Background(), GenerateRequest{UserID: uuid.New(), Idea: "a todo app"})

	var insufficient *ledger.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 10, insufficient.Required)
	assert.Equal(t, 7, insufficient.Available)
	assert.Zero(t, gen.calls, "provider must not be called when the balance is short")
	assert.Equal(t, 7, store.balance, "balance must be untouched")
}

func TestGeneratePromptChargesAfterSuccess(t *testing.T) {
	gen := &fakeGenerator{content: "```json\n{\"title\":\"Todo Coach\",\"description\":\"d\",\"content\":\"You are a todo coach.\",\"tags\":[\"productivity\"],\"suggestions\":[\"add examples\"]}\n```"}
	store := &fakeStore{balance: 100}
	sink := &fakeSink{}
	svc := newTestService(gen, store, sink)

	res, err := svc.GeneratePrompt(context.Background(), GenerateRequest{UserID: uuid.New(), Idea: "a todo app"})
	require.NoError(t, err)

	assert.Equal(t, "Todo Coach", res.Prompt.Title)
	assert.Equal(t, []string{"productivity"}, res.Prompt.Tags)
	assert.Nil(t, res.Saved)
	assert.Equal(t, "model-gen", gen.lastModel)
	assert.Contains(t, gen.lastPrompt, "a todo app", "template must substitute the idea")

	require.Len(t, store.charges, 1)
	assert.Equal(t, 10, store.charges[0].amount)
	assert.Equal(t, 90, store.balance)

	assert.Equal(t, 10, res.Usage.TokensCharged)
	assert.Equal(t, 42, res.Usage.TokensUsed)
	require.Len(t, sink.payloads, 1)
	assert.Equal(t, OpPromptGeneration, sink.payloads[0].Operation)
}

func TestGeneratePromptSavePersistsAtomically(t *testing.T) {
	gen := &fakeGenerator{content: `{"title":"T","content":"C","tags":["x"]}`}
	store := &fakeStore{balance: 100}
	svc := newTestService(gen, store, nil)

	res, err := svc.GeneratePrompt(context.Background(), GenerateRequest{
		UserID:   uuid.New(),
		Idea:     "a recipe bot",
		Save:     true,
		Category: "cooking",
	})
	require.NoError(t, err)

	require.NotNil(t, store.createdPrompt)
	assert.Equal(t, "T", store.createdPrompt.Title)
	assert.Equal(t, "cooking", store.createdPrompt.Category)
	assert.Equal(t, "C", store.createdPrompt.Content)
	assert.Equal(t, 10, store.createdPrompt.TokensCost)

	require.NotNil(t, res.Saved)
	require.NotNil(t, res.Version)
	assert.Equal(t, 1, res.Version.Version)
	assert.True(t, res.Version.IsActive)
}

func TestGeneratePromptBadShape(t *testing.T) {
	gen := &fakeGenerator{content: `{"description":"no title or content"}`}
	store := &fakeStore{balance: 100}
	svc := newTestService(gen, store, nil)

	_, err := svc.GeneratePrompt(context.Background(), GenerateRequest{UserID: uuid.New(), Idea: "x"})

	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Empty(t, store.charges, "no charge for unusable output")
}

func TestGeneratePromptFormatError(t *testing.T) {
	gen := &fakeGenerator{content: "sorry, I cannot help with that"}
	store := &fakeStore{balance: 100}
	svc := newTestService(gen, store, nil)

	_, err := svc.GeneratePrompt(context.Background(), GenerateRequest{UserID: uuid.New(), Idea: "x"})

	var formatErr *ResponseFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Empty(t, store.charges)
}

func TestGeneratePromptExhausted(t *testing.T) {
	boom := errors.New("upstream down")
	gen := &fakeGenerator{err: &llm.ExhaustedError{Provider: "stub", Attempts: 3, Err: boom}}
	store := &fakeStore{balance: 100}
	svc := newTestService(gen, store, nil)

	_, err := svc.GeneratePrompt(context.Background(), GenerateRequest{UserID: uuid.New(), Idea: "x"})

	var exhausted *llm.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Empty(t, store.charges)
	assert.Equal(t, 100, store.balance)
}

func TestGenerateQuestions(t *testing.T) {
	gen := &fakeGenerator{content: `[{"id":"q1","priority":"High","question":"Who is the audience?","why_this_matters":"Targets tone","category":"audience"}]`}
	promptID := uuid.New()
	store := &fakeStore{
		balance: 100,
		owned:   &models.Prompt{ID: promptID},
		active:  &models.PromptVersion{ID: uuid.New(), PromptID: promptID, Content: "You are a helper.", IsActive: true},
	}
	svc := newTestService(gen, store, nil)

	res, err := svc.GenerateQuestions(context.Background(), QuestionsRequest{UserID: uuid.New(), PromptID: promptID})
	require.NoError(t, err)

	require.Len(t, res.Questions, 1)
	assert.Equal(t, "q1", res.Questions[0].ID)
	assert.Equal(t, "model-q", gen.lastModel)
	assert.Contains(t, gen.lastPrompt, "You are a helper.")

	require.Len(t, store.charges, 1)
	assert.Equal(t, 5, store.charges[0].amount)
	assert.Equal(t, promptID.String(), store.charges[0].reference)
}

func TestGenerateQuestionsShapeError(t *testing.T) {
	gen := &fakeGenerator{content: `[{"id":"q1"}]`}
	promptID := uuid.New()
	store := &fakeStore{
		balance: 100,
		owned:   &models.Prompt{ID: promptID},
		active:  &models.PromptVersion{ID: uuid.New(), Content: "p"},
	}
	svc := newTestService(gen, store, nil)

	_, err := svc.GenerateQuestions(context.Background(), QuestionsRequest{UserID: uuid.New(), PromptID: promptID})

	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Empty(t, store.charges)
}

func TestGenerateQuestionsUnknownPrompt(t *testing.T) {
	gen := &fakeGenerator{}
	store := &fakeStore{balance: 100}
	svc := newTestService(gen, store, nil)

	_, err := svc.GenerateQuestions(context.Background(), QuestionsRequest{UserID: uuid.New(), PromptID: uuid.New()})

	require.ErrorIs(t, err, prompt.ErrPromptNotFound)
	assert.Zero(t, gen.calls)
}

func TestGenerateExamplesRequiresUseCaseContext(t *testing.T) {
	gen := &fakeGenerator{}
	store := &fakeStore{balance: 100}
	svc := newTestService(gen, store, nil)

	_, err := svc.GenerateExamples(context.Background(), ExamplesRequest{UserID: uuid.New(), PromptID: uuid.New()})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "useCaseContext", vErr.Field)
}

func TestGenerateExamples(t *testing.T) {
	gen := &fakeGenerator{content: `[{"id":1,"type":"typical","input":"plan my week","expected_output":"a schedule","why_valuable":"covers the happy path","tests_for":"basic planning"}]`}
	promptID := uuid.New()
	store := &fakeStore{
		balance: 100,
		owned:   &models.Prompt{ID: promptID},
		active:  &models.PromptVersion{ID: uuid.New(), Content: "You plan weeks."},
	}
	svc := newTestService(gen, store, nil)

	res, err := svc.GenerateExamples(context.Background(), ExamplesRequest{
		UserID:         uuid.New(),
		PromptID:       promptID,
		UseCaseContext: "weekly planning assistant",
	})
	require.NoError(t, err)

	require.Len(t, res.Examples, 1)
	assert.Equal(t, 1, res.Examples[0].ID)
	require.Len(t, store.charges, 1)
	assert.Equal(t, 8, store.charges[0].amount)
}

func TestImprovePromptValidatesFeedback(t *testing.T) {
	gen := &fakeGenerator{}
	store := &fakeStore{balance: 100}
	svc := newTestService(gen, store, nil)

	_, err := svc.ImprovePrompt(context.Background(), ImproveRequest{
		UserID:         uuid.New(),
		PromptID:       uuid.New(),
		PreviousResult: "a",
		CurrentResult:  "b",
		UserFeedback:   "c",
		BetterOrWorse:  "meh",
	})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "betterOrWorse", vErr.Field)
	assert.Zero(t, gen.calls)
}

func TestImprovePromptPersistsNewVersion(t *testing.T) {
	gen := &fakeGenerator{content: `{"improved_prompt":"You are a sharper helper.","changes_made":["tightened role"],"reasoning":"clearer role reduces drift"}`}
	promptID := uuid.New()
	activeID := uuid.New()
	store := &fakeStore{
		balance: 100,
		owned:   &models.Prompt{ID: promptID},
		active:  &models.PromptVersion{ID: activeID, PromptID: promptID, Version: 1, Content: "You are a helper.", IsActive: true},
	}
	sink := &fakeSink{}
	svc := newTestService(gen, store, sink)

	res, err := svc.ImprovePrompt(context.Background(), ImproveRequest{
		UserID:         uuid.New(),
		PromptID:       promptID,
		PreviousResult: "vague answer",
		CurrentResult:  "slightly better answer",
		BetterOrWorse:  "better",
		UserFeedback:   "still too wordy",
	})
	require.NoError(t, err)

	assert.Equal(t, "You are a sharper helper.", res.Improvement.ImprovedPrompt)
	assert.Equal(t, []string{"tightened role"}, res.Improvement.ChangesMade)

	require.NotNil(t, store.createdVersion)
	assert.Equal(t, "You are a sharper helper.", store.createdVersion.Content)
	require.NotNil(t, store.createdVersion.ParentVersionID)
	assert.Equal(t, activeID, *store.createdVersion.ParentVersionID)

	require.Len(t, store.charges, 1)
	assert.Equal(t, 12, store.charges[0].amount)
	assert.Equal(t, promptID.String(), store.charges[0].reference)

	require.NotNil(t, res.Version)
	assert.True(t, res.Version.IsActive)

	require.Len(t, sink.payloads, 1)
	assert.Equal(t, OpPromptImprovement, sink.payloads[0].Operation)
}
