package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ninjiez/promptmaster-v3/internal/auth"
	"github.com/ninjiez/promptmaster-v3/internal/generation"
)

type GenerationHandler struct {
	svc *generation.Service
}

func NewGenerationHandler(svc *generation.Service) *GenerationHandler {
	return &GenerationHandler{svc: svc}
}

type generateBody struct {
	Idea           string `json:"idea"`
	Context        string `json:"context"`
	UseCase        string `json:"useCase"`
	Style          string `json:"style"`
	TargetAudience string `json:"targetAudience"`
	Save           bool   `json:"save"`
	Category       string `json:"category"`
	IsPublic       bool   `json:"isPublic"`
}

func (h *GenerationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var body generateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.svc.GeneratePrompt(r.Context(), generation.GenerateRequest{
		UserID:         user.ID,
		Idea:           body.Idea,
		Context:        body.Context,
		UseCase:        body.UseCase,
		Style:          body.Style,
		TargetAudience: body.TargetAudience,
		Save:           body.Save,
		Category:       body.Category,
		IsPublic:       body.IsPublic,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type questionsBody struct {
	ContextAnswers string `json:"contextAnswers"`
	RecentResults  string `json:"recentResults"`
}

func (h *GenerationHandler) Questions(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	promptID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid prompt ID")
		return
	}

	var body questionsBody
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&body)
	}

	res, err := h.svc.GenerateQuestions(r.Context(), generation.QuestionsRequest{
		UserID:         user.ID,
		PromptID:       promptID,
		ContextAnswers: body.ContextAnswers,
		RecentResults:  body.RecentResults,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type examplesBody struct {
	UseCaseContext   string `json:"useCaseContext"`
	Requirements     string `json:"requirements"`
	PreviousFailures string `json:"previousFailures"`
}

func (h *GenerationHandler) Examples(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	promptID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid prompt ID")
		return
	}

	var body examplesBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.svc.GenerateExamples(r.Context(), generation.ExamplesRequest{
		UserID:           user.ID,
		PromptID:         promptID,
		UseCaseContext:   body.UseCaseContext,
		Requirements:     body.Requirements,
		PreviousFailures: body.PreviousFailures,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type improveBody struct {
	PreviousResult string `json:"previousResult"`
	CurrentResult  string `json:"currentResult"`
	BetterOrWorse  string `json:"betterOrWorse"`
	UserFeedback   string `json:"userFeedback"`
	DebugInfo      string `json:"debugInfo"`
}

func (h *GenerationHandler) Improve(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	promptID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid prompt ID")
		return
	}

	var body improveBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.svc.ImprovePrompt(r.Context(), generation.ImproveRequest{
		UserID:         user.ID,
		PromptID:       promptID,
		PreviousResult: body.PreviousResult,
		CurrentResult:  body.CurrentResult,
		BetterOrWorse:  body.BetterOrWorse,
		UserFeedback:   body.UserFeedback,
		DebugInfo:      body.DebugInfo,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}
