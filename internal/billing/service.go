// Package billing creates checkout sessions for token packs and credits the
// ledger when the payment collaborator confirms completion. Webhook deliveries
// are deduplicated by session id so a retried delivery never credits twice.
package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/ninjiez/promptmaster-v3/internal/cache"
	"github.com/ninjiez/promptmaster-v3/internal/config"
	"github.com/ninjiez/promptmaster-v3/internal/ledger"
	"github.com/ninjiez/promptmaster-v3/internal/models"
)

type Service struct {
	cfg    config.BillingConfig
	ledger *ledger.Service
	cache  *cache.Cache
}

func NewService(cfg config.BillingConfig, ledgerSvc *ledger.Service, c *cache.Cache) *Service {
	stripe.Key = cfg.StripeSecretKey
	return &Service{cfg: cfg, ledger: ledgerSvc, cache: c}
}

type CheckoutResult struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// CreateCheckout opens a payment session for the given pack. The user id and
// token amount travel in session metadata and come back on the webhook.
func (s *Service) CreateCheckout(ctx context.Context, user *models.User, packID string) (*CheckoutResult, error) {
	pack, err := PackByID(packID)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		CustomerEmail: stripe.String(user.Email),
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(fmt.Sprintf("%s - %d Tokens", pack.Name, pack.Tokens)),
						Description: stripe.String(fmt.Sprintf("%d tokens for AI prompt generation", pack.Tokens)),
					},
					UnitAmount: stripe.Int64(pack.PriceCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:          stripe.String(s.cfg.SuccessURL),
		CancelURL:           stripe.String(s.cfg.CancelURL),
		AllowPromotionCodes: stripe.Bool(true),
	}
	params.Context = ctx
	params.AddMetadata("user_id", user.ID.String())
	params.AddMetadata("pack", pack.ID)
	params.AddMetadata("tokens", fmt.Sprintf("%d", pack.Tokens))

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &CheckoutResult{SessionID: sess.ID, URL: sess.URL}, nil
}

// HandleWebhook verifies the event signature and, on completed checkout,
// credits the purchased tokens with the session id as the ledger reference.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, s.cfg.StripeWebhookSecret)
	if err != nil {
		return fmt.Errorf("verify webhook signature: %w", err)
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("decode checkout session: %w", err)
		}
		return s.creditCompletedCheckout(ctx, &sess)
	default:
		slog.Debug("ignoring webhook event", "type", event.Type)
		return nil
	}
}

func (s *Service) creditCompletedCheckout(ctx context.Context, sess *stripe.CheckoutSession) error {
	userID, err := uuid.Parse(sess.Metadata["user_id"])
	if err != nil {
		return fmt.Errorf("checkout session %s has no valid user_id metadata", sess.ID)
	}

	var tokens int
	if _, err := fmt.Sscanf(sess.Metadata["tokens"], "%d", &tokens); err != nil || tokens <= 0 {
		return fmt.Errorf("checkout session %s has no valid tokens metadata", sess.ID)
	}

	if s.cache != nil {
		fresh, err := s.cache.SetNX(ctx, "billing:session:"+sess.ID, true, 48*time.Hour)
		if err != nil {
			slog.Warn("webhook dedup check failed, proceeding", "session", sess.ID, "error", err)
		} else if !fresh {
			slog.Info("duplicate webhook delivery ignored", "session", sess.ID)
			return nil
		}
	}

	description := fmt.Sprintf("Token purchase - %s pack (%d tokens)", sess.Metadata["pack"], tokens)
	if _, err := s.ledger.Credit(ctx, userID, tokens, models.TransactionPurchase, description, sess.ID); err != nil {
		return fmt.Errorf("credit purchase: %w", err)
	}

	slog.Info("purchase credited", "user", userID, "tokens", tokens, "session", sess.ID)
	return nil
}
