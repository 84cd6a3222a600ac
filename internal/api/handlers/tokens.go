package handlers

import (
	"net/http"
	"strconv"

	"github.com/ninjiez/promptmaster-v3/internal/auth"
	"github.com/ninjiez/promptmaster-v3/internal/ledger"
)

type TokenHandler struct {
	svc *ledger.Service
}

func NewTokenHandler(svc *ledger.Service) *TokenHandler {
	return &TokenHandler{svc: svc}
}

func (h *TokenHandler) Balance(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	balance, err := h.svc.Balance(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"balance": balance, "tier": user.Tier})
}

func (h *TokenHandler) History(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	history, err := h.svc.History(r.Context(), user.ID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": history, "count": len(history)})
}
