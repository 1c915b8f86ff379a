// Package webhook реализует HTTP-обработчик событий платёжного провайдера.
// Подпись события проверяется до разбора тела.
package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	stripe "github.com/stripe/stripe-go/v81"
	stripewebhook "github.com/stripe/stripe-go/v81/webhook"

	"github.com/ainexo/declair/internal/http/response"
	"github.com/ainexo/declair/internal/lib/sl"
)

// maxBodyBytes предел размера тела вебхука.
const maxBodyBytes = 65536

// Service описывает интерфейс применения событий подписки.
type Service interface {
	ApplySubscriptionEvent(ctx context.Context, sub *stripe.Subscription) error
}

type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string
}

func New(log *slog.Logger, service Service, webhookSecret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: webhookSecret,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.webhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	event, err := stripewebhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		log.Error("webhook signature verification failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	switch event.Type {
	case "customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			log.Error("failed to unmarshal subscription event", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid event payload"))
			return
		}
		if err := h.service.ApplySubscriptionEvent(r.Context(), &sub); err != nil {
			log.Error("failed to apply subscription event", sl.Err(err),
				slog.String("event_type", string(event.Type)))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal service error"))
			return
		}
		log.Info("subscription event applied", slog.String("event_type", string(event.Type)))
	default:
		log.Info("webhook event ignored", slog.String("event_type", string(event.Type)))
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"received": true,
	}))
}
