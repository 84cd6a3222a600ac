package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/ninjiez/promptmaster-v3/internal/auth"
	"github.com/ninjiez/promptmaster-v3/internal/billing"
)

type BillingHandler struct {
	svc *billing.Service
}

func NewBillingHandler(svc *billing.Service) *BillingHandler {
	return &BillingHandler{svc: svc}
}

func (h *BillingHandler) Packs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"packs": billing.Packs()})
}

func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var body struct {
		Pack string `json:"pack"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.svc.CreateCheckout(r.Context(), user, body.Pack)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Webhook is unauthenticated; the payload signature is the authentication.
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "cannot read payload")
		return
	}

	if err := h.svc.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "webhook rejected")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
