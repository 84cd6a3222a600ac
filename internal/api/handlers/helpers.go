package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ninjiez/promptmaster-v3/internal/generation"
	"github.com/ninjiez/promptmaster-v3/internal/ledger"
	"github.com/ninjiez/promptmaster-v3/internal/llm"
	"github.com/ninjiez/promptmaster-v3/internal/prompt"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps the orchestrator's error taxonomy onto HTTP statuses.
// Every failure yields a stable classification; no partial data is returned.
func writeServiceError(w http.ResponseWriter, err error) {
	var vErr *generation.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": vErr.Error(),
			"code":  "VALIDATION_ERROR",
		})
		return
	}

	var insufficient *ledger.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		writeJSON(w, http.StatusPaymentRequired, map[string]interface{}{
			"error":     "insufficient token balance",
			"code":      "INSUFFICIENT_BALANCE",
			"required":  insufficient.Required,
			"available": insufficient.Available,
		})
		return
	}

	if errors.Is(err, prompt.ErrPromptNotFound) || errors.Is(err, ledger.ErrUserNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "not found",
			"code":  "NOT_FOUND",
		})
		return
	}

	var exhausted *llm.ExhaustedError
	if errors.As(err, &exhausted) {
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": "generation failed after all retry attempts",
			"code":  "GENERATION_EXHAUSTED",
		})
		return
	}

	var formatErr *generation.ResponseFormatError
	var shapeErr *generation.ShapeError
	if errors.As(err, &formatErr) || errors.As(err, &shapeErr) {
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": "model returned an unusable response",
			"code":  "INVALID_RESPONSE",
		})
		return
	}

	var tmplErr *generation.TemplateError
	if errors.As(err, &tmplErr) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "template configuration error",
			"code":  "TEMPLATE_ERROR",
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal error",
		"code":  "INTERNAL",
	})
}
